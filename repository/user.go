package repository

import (
	"context"

	"usersvc/domain"
)

// UserStream is a pull-based cursor over a finite set of users. Each call to
// a list method opens a fresh cursor; rows are fetched lazily as the caller
// advances it. Close releases the underlying result set and is safe to call
// more than once.
type UserStream interface {
	// Next returns the next user, or ok=false once the stream is exhausted.
	Next(ctx context.Context) (user *domain.User, ok bool, err error)
	Close() error
}

// UserRepository is the data-access port for the users table. Implementations
// classify failures as domain errors: ErrUserNotFound for absent rows,
// ErrCodeConflict for unique-constraint collisions, ErrCodeMalformed for
// structural SQL defects and ErrCodeInternal for anything else, so callers can
// switch on the code exhaustively.
type UserRepository interface {
	FindAllActive(ctx context.Context) (UserStream, error)
	FindAllDeleted(ctx context.Context) (UserStream, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// FindByIDActive looks up only among non-deleted users.
	FindByIDActive(ctx context.Context, id int64) (*domain.User, error)
	FindByMsisdn(ctx context.Context, msisdn string) (*domain.User, error)
	FindByDocumentNumber(ctx context.Context, documentNumber string) (*domain.User, error)
	// Save inserts the user when ID is zero (assigning one) and updates the
	// existing row otherwise. The stored row is returned.
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
}

// SliceStream adapts an in-memory slice to the UserStream contract. Used by
// test doubles and small fixed result sets.
type SliceStream struct {
	users []domain.User
	pos   int
}

func NewSliceStream(users []domain.User) *SliceStream {
	return &SliceStream{users: users}
}

func (s *SliceStream) Next(ctx context.Context) (*domain.User, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if s.pos >= len(s.users) {
		return nil, false, nil
	}
	u := s.users[s.pos]
	s.pos++
	return &u, true, nil
}

func (s *SliceStream) Close() error {
	s.pos = len(s.users)
	return nil
}
