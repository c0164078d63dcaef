package usecase

import "context"

// AuditTrail records completed mutations so use cases stay storage-agnostic.
// Recording is best-effort: failures are logged by the implementation and
// never surface to the caller.
type AuditTrail interface {
	Record(ctx context.Context, operation string, userID int64, requestRefID string)
}
