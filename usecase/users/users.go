package users

import (
	"context"

	"go.uber.org/zap"

	"usersvc/api/transport"
	"usersvc/domain"
	"usersvc/internal/infrastructure/audit"
	"usersvc/pkg/identity"
	"usersvc/repository"
	"usersvc/usecase"
)

// Response messages are a wire contract shared with downstream consumers.
const (
	msgSuccess        = "Success"
	msgNotFound       = "User not found"
	msgNoCriteria     = "No search criteria provided"
	msgCreated        = "User created successfully"
	msgCreateConflict = "User creation failed: Duplicate entry for a unique field."
	msgCreateBadSQL   = "User creation failed: Invalid SQL syntax."
	msgCreateFailed   = "User creation failed: "
	msgUpdated        = "User updated successfully"
	msgUpdateFailed   = "User update failed: "
	msgDeleted        = "User deleted successfully"
	msgDeleteFailed   = "User deletion failed: "
	msgRestored       = "User restored successfully"
	msgRestoreFailed  = "User restoration failed: "
	msgLookupFailed   = "User lookup failed: "
	msgListFailed     = "User listing failed: "
)

// UseCase orchestrates repository calls, normalizes identifiers and translates
// every outcome into a response envelope. No error ever crosses this boundary:
// failures come back as envelopes carrying an error code and message.
type UseCase struct {
	users  repository.UserRepository
	audit  usecase.AuditTrail
	logger *zap.Logger
}

func New(users repository.UserRepository, trail usecase.AuditTrail, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		audit:  trail,
		logger: logger,
	}
}

// ListActive returns a lazy stream of envelopes, one per non-deleted user.
func (uc *UseCase) ListActive(ctx context.Context, refID string) *ResponseStream {
	stream, err := uc.users.FindAllActive(ctx)
	return uc.listStream(stream, err, refID)
}

// ListDeleted returns a lazy stream of envelopes over the soft-deleted subset.
func (uc *UseCase) ListDeleted(ctx context.Context, refID string) *ResponseStream {
	stream, err := uc.users.FindAllDeleted(ctx)
	return uc.listStream(stream, err, refID)
}

func (uc *UseCase) listStream(stream repository.UserStream, err error, refID string) *ResponseStream {
	if err != nil {
		uc.logger.Error("user listing failed", zap.Error(err))
		return newFailedStream(transport.New(nil, msgListFailed+domain.Detail(err), 500, refID))
	}
	return newResponseStream(stream, refID)
}

// GetByID looks a user up by identifier, deleted or not.
func (uc *UseCase) GetByID(ctx context.Context, id int64, refID string) transport.Envelope {
	return uc.lookup(refID, func() (*domain.User, error) {
		return uc.users.FindByID(ctx, id)
	})
}

// GetByMSISDN normalizes the subscriber number before looking it up.
func (uc *UseCase) GetByMSISDN(ctx context.Context, msisdn string, refID string) transport.Envelope {
	normalized := identity.NormalizeMSISDN(msisdn)
	return uc.lookup(refID, func() (*domain.User, error) {
		return uc.users.FindByMsisdn(ctx, normalized)
	})
}

// GetByDocumentNumber looks a user up by document number.
func (uc *UseCase) GetByDocumentNumber(ctx context.Context, documentNumber string, refID string) transport.Envelope {
	return uc.lookup(refID, func() (*domain.User, error) {
		return uc.users.FindByDocumentNumber(ctx, documentNumber)
	})
}

// Search dispatches to the matching lookup, in priority order
// userId > msisdn > documentNumber. With no criterion set it answers 400
// without touching the repository.
func (uc *UseCase) Search(ctx context.Context, req transport.SearchRequest, refID string) transport.Envelope {
	switch {
	case req.UserID != nil:
		return uc.GetByID(ctx, *req.UserID, refID)
	case req.Msisdn != "":
		return uc.GetByMSISDN(ctx, req.Msisdn, refID)
	case req.DocumentNumber != "":
		return uc.GetByDocumentNumber(ctx, req.DocumentNumber, refID)
	default:
		return transport.NewBadRequest(msgNoCriteria, refID)
	}
}

// Create normalizes the subscriber number and persists a new user. Duplicate
// unique fields and malformed queries come back as 400, anything else as 500.
func (uc *UseCase) Create(ctx context.Context, user *domain.User, refID string) transport.Envelope {
	user.Msisdn = identity.NormalizeMSISDN(user.Msisdn)

	saved, err := uc.users.Save(ctx, user)
	if err != nil {
		switch {
		case domain.IsDomainError(err, domain.ErrCodeConflict):
			return transport.New(nil, msgCreateConflict, 400, refID)
		case domain.IsDomainError(err, domain.ErrCodeMalformed):
			return transport.New(nil, msgCreateBadSQL, 400, refID)
		default:
			uc.logger.Error("user creation failed", zap.Error(err))
			return transport.New(nil, msgCreateFailed+domain.Detail(err), 500, refID)
		}
	}

	uc.record(ctx, audit.OperationCreate, saved.ID, refID)
	return transport.New(saved, msgCreated, 201, refID)
}

// Update overwrites name and email on the stored record.
//
// TODO: the msisdn is normalized on the incoming payload but never copied to
// the stored row, and neither are the document fields; confirm the intended
// field list with the API owners before widening it.
func (uc *UseCase) Update(ctx context.Context, id int64, user *domain.User, refID string) transport.Envelope {
	user.Msisdn = identity.NormalizeMSISDN(user.Msisdn)

	existing, err := uc.users.FindByID(ctx, id)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return transport.New(nil, msgNotFound, 404, refID)
		}
		uc.logger.Error("user update failed", zap.Int64("user_id", id), zap.Error(err))
		return transport.New(nil, msgUpdateFailed+domain.Detail(err), 500, refID)
	}

	existing.Name = user.Name
	existing.Email = user.Email

	updated, err := uc.users.Save(ctx, existing)
	if err != nil {
		uc.logger.Error("user update failed", zap.Int64("user_id", id), zap.Error(err))
		return transport.New(nil, msgUpdateFailed+domain.Detail(err), 500, refID)
	}

	uc.record(ctx, audit.OperationUpdate, updated.ID, refID)
	return transport.New(updated, msgUpdated, 200, refID)
}

// Delete soft-deletes an active user. Only active records qualify: an id that
// is absent or already deleted answers 404. The envelopes for this operation
// never carry the correlation id.
func (uc *UseCase) Delete(ctx context.Context, id int64, refID string) transport.Envelope {
	existing, err := uc.users.FindByIDActive(ctx, id)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return transport.NewVoid(msgNotFound, 404)
		}
		uc.logger.Error("user deletion failed", zap.Int64("user_id", id), zap.Error(err))
		return transport.NewVoid(msgDeleteFailed+domain.Detail(err), 500)
	}

	existing.Deleted = true
	if _, err := uc.users.Save(ctx, existing); err != nil {
		uc.logger.Error("user deletion failed", zap.Int64("user_id", id), zap.Error(err))
		return transport.NewVoid(msgDeleteFailed+domain.Detail(err), 500)
	}

	uc.record(ctx, audit.OperationDelete, id, refID)
	return transport.NewVoid(msgDeleted, 200)
}

// Restore clears the deleted flag. Restoring an already-active user is a
// no-op transition that still succeeds. The body is the in-memory copy as
// mutated before the save, not the re-read stored row.
func (uc *UseCase) Restore(ctx context.Context, id int64, refID string) transport.Envelope {
	existing, err := uc.users.FindByID(ctx, id)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return transport.New(nil, msgNotFound, 404, refID)
		}
		uc.logger.Error("user restoration failed", zap.Int64("user_id", id), zap.Error(err))
		return transport.New(nil, msgRestoreFailed+domain.Detail(err), 500, refID)
	}

	existing.Deleted = false
	if _, err := uc.users.Save(ctx, existing); err != nil {
		uc.logger.Error("user restoration failed", zap.Int64("user_id", id), zap.Error(err))
		return transport.New(nil, msgRestoreFailed+domain.Detail(err), 500, refID)
	}

	uc.record(ctx, audit.OperationRestore, id, refID)
	return transport.New(existing, msgRestored, 200, refID)
}

func (uc *UseCase) lookup(refID string, find func() (*domain.User, error)) transport.Envelope {
	user, err := find()
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return transport.New(nil, msgNotFound, 404, refID)
		}
		uc.logger.Error("user lookup failed", zap.Error(err))
		return transport.New(nil, msgLookupFailed+domain.Detail(err), 500, refID)
	}
	return transport.New(user, msgSuccess, 200, refID)
}

func (uc *UseCase) record(ctx context.Context, operation string, userID int64, refID string) {
	if uc.audit == nil {
		return
	}
	uc.audit.Record(ctx, operation, userID, refID)
}
