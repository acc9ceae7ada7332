// Package handlers implements the HTTP API of the dispatcher service.
//
// Handlers delegate to the services layer and only deal with parameter
// parsing, status codes and response shapes.
//
// # Architecture Overview
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                     HTTP Request (Gin)                          │
//	└─────────────────────────────────────────────────────────────────┘
//	                              │
//	                              ▼
//	┌─────────────────────────────────────────────────────────────────┐
//	│                      Handler (this package)                     │
//	│  - Parameter parsing                                            │
//	│  - Error mapping to HTTP status codes                           │
//	│  - Model-to-API conversion                                      │
//	└─────────────────────────────────────────────────────────────────┘
//	                              │
//	                              ▼
//	┌─────────────────────────────────────────────────────────────────┐
//	│              DispatcherService (services.Dispatcher)            │
//	└─────────────────────────────────────────────────────────────────┘
//
// # API Endpoints
//
//	┌────────┬────────────────┬──────────────────────────────────────────┐
//	│ Method │ Endpoint       │ Description                              │
//	├────────┼────────────────┼──────────────────────────────────────────┤
//	│ GET    │ /stats         │ Token and executor counters              │
//	│ GET    │ /failures      │ Journal page, newest first               │
//	│ GET    │ /failures/{id} │ One journaled failure                    │
//	│ POST   │ /probe         │ Post a synthetic item (202 Accepted)     │
//	└────────┴────────────────┴──────────────────────────────────────────┘
//
// /failures accepts cancelled (bool), since (RFC3339), limit (1..100,
// default 20) and offset. The response is {"total": n, "failures": [...]}; total ignores
// pagination.
//
// /probe takes {"delay": "250ms", "fail": true}. The delay is a Go duration
// between 0 and 10m.
//
// # Error Responses
//
//	┌─────────────────────────────┬──────────────┐
//	│ Condition                   │ Status       │
//	├─────────────────────────────┼──────────────┤
//	│ Bad query or body           │ 400          │
//	│ ResourceNotFoundError       │ 404          │
//	│ Token closed                │ 503          │
//	│ Store error                 │ 500          │
//	└─────────────────────────────┴──────────────┘
package handlers
