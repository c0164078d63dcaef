package audit

import (
	"time"

	"github.com/google/uuid"
)

const (
	OperationCreate  = "create"
	OperationUpdate  = "update"
	OperationDelete  = "delete"
	OperationRestore = "restore"
)

// Entry records one completed mutation against the users table.
type Entry struct {
	ID           string    `json:"id"`
	Operation    string    `json:"operation"`
	UserID       int64     `json:"user_id"`
	RequestRefID string    `json:"request_ref_id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

func (e *Entry) normalize() {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
}
