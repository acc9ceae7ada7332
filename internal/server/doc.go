// Package server provides the admin HTTP server of the dispatcher service.
//
// # Architecture Overview
//
//	┌───────────────────────────────────────────────────────────────┐
//	│                         HTTP Server                           │
//	├───────────────────────────────────────────────────────────────┤
//	│                       Middleware Stack                        │
//	│  ┌─────────────────────────────────────────────────────────┐  │
//	│  │  Ginzap (request logging, "http" logger)                │  │
//	│  │  RecoveryWithZap (panic recovery with stack trace)      │  │
//	│  └─────────────────────────────────────────────────────────┘  │
//	├───────────────────────────────────────────────────────────────┤
//	│  /metrics        Prometheus exposition (no auth)              │
//	│  /health         liveness                                     │
//	├───────────────────────────────────────────────────────────────┤
//	│                       Router (/api/v1)                        │
//	│  ┌─────────────────────────────────────────────────────────┐  │
//	│  │  Authenticator (HS256 bearer token, when enabled)       │  │
//	│  │  Handlers (registered via callback)                     │  │
//	│  └─────────────────────────────────────────────────────────┘  │
//	└───────────────────────────────────────────────────────────────┘
//
// # Server Modes
//
// ServerMode "prod" switches gin to release mode. "dev" keeps debug mode.
//
// # Authentication
//
// With Auth.Enabled the signing secret is read from Auth.SecretFile at
// startup. Requests under /api/v1 must carry "Authorization: Bearer <jwt>"
// signed with HS256 and carrying an exp claim. The parsed
// jwt.RegisteredClaims are stored in the gin context under "claims".
//
// # Usage Example
//
//	srv, err := server.NewServer(cfg, prometheus.DefaultGatherer, func(router *gin.RouterGroup) {
//	    handlers.New(dispatcherSrv).Register(router)
//	})
//	if err != nil {
//	    return err
//	}
//
//	go func() {
//	    if err := srv.Start(ctx); err != nil {
//	        zap.S().Errorw("server error", "error", err)
//	    }
//	}()
//
//	<-ctx.Done()
//	srv.Stop(shutdownCtx)
package server
