package v1

import "time"

type Stats struct {
	Limit             int       `json:"limit"`
	Queued            int       `json:"queued"`
	Running           int       `json:"running"`
	Submitted         int64     `json:"submitted"`
	Processed         int64     `json:"processed"`
	Failed            int64     `json:"failed"`
	Cancelled         int64     `json:"cancelled"`
	ProcessCount      int       `json:"process_count"`
	ProcessLimit      int       `json:"process_limit"`
	QueueProcessCount int       `json:"queue_process_count"`
	ChainCount        int       `json:"chain_count"`
	JournalPending    int       `json:"journal_pending"`
	StartedAt         time.Time `json:"started_at"`
}

type FailureKind string

const (
	FailureKindError     FailureKind = "error"
	FailureKindCancelled FailureKind = "cancelled"
)

type Failure struct {
	Id        string      `json:"id"`
	Kind      FailureKind `json:"kind"`
	Error     *string     `json:"error,omitempty"`
	ElapsedMs int64       `json:"elapsed_ms"`
	CreatedAt time.Time   `json:"created_at"`
}

type FailureListResponse struct {
	Total    int       `json:"total"`
	Failures []Failure `json:"failures"`
}

type GetFailuresParams struct {
	Cancelled *bool
	Since     *time.Time
	Limit     *int
	Offset    *int
}

type ProbeRequest struct {
	Delay *string `json:"delay,omitempty"`
	Fail  *bool   `json:"fail,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
