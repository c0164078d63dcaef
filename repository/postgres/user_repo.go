package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"usersvc/domain"
	"usersvc/repository"
)

const userColumns = "user_id, name, email, msisdn, document_type, document_number, deleted"

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates a Postgres-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) FindAllActive(ctx context.Context) (repository.UserStream, error) {
	return r.stream(ctx, `SELECT `+userColumns+` FROM users WHERE deleted = FALSE ORDER BY user_id`)
}

func (r *userRepository) FindAllDeleted(ctx context.Context) (repository.UserStream, error) {
	return r.stream(ctx, `SELECT `+userColumns+` FROM users WHERE deleted = TRUE ORDER BY user_id`)
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, id)
}

func (r *userRepository) FindByIDActive(ctx context.Context, id int64) (*domain.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1 AND deleted = FALSE`, id)
}

func (r *userRepository) FindByMsisdn(ctx context.Context, msisdn string) (*domain.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE msisdn = $1`, msisdn)
}

func (r *userRepository) FindByDocumentNumber(ctx context.Context, documentNumber string) (*domain.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE document_number = $1`, documentNumber)
}

func (r *userRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}

	var row pgx.Row
	if user.ID == 0 {
		const query = `
			INSERT INTO users (name, email, msisdn, document_type, document_number, deleted)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING ` + userColumns
		row = r.pool.QueryRow(ctx, query,
			user.Name,
			user.Email,
			nullString(user.Msisdn),
			nullString(user.DocumentType),
			nullString(user.DocumentNumber),
			user.Deleted,
		)
	} else {
		const query = `
			UPDATE users
			SET name = $2,
				email = $3,
				msisdn = $4,
				document_type = $5,
				document_number = $6,
				deleted = $7
			WHERE user_id = $1
			RETURNING ` + userColumns
		row = r.pool.QueryRow(ctx, query,
			user.ID,
			user.Name,
			user.Email,
			nullString(user.Msisdn),
			nullString(user.DocumentType),
			nullString(user.DocumentNumber),
			user.Deleted,
		)
	}

	saved, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, classify(err)
	}
	return saved, nil
}

func (r *userRepository) one(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, classify(err)
	}
	return user, nil
}

func (r *userRepository) stream(ctx context.Context, query string) (repository.UserStream, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, classify(err)
	}
	return &rowStream{rows: rows}, nil
}

// rowStream lazily advances a pgx result set one row at a time.
type rowStream struct {
	rows pgx.Rows
	done bool
}

func (s *rowStream) Next(ctx context.Context) (*domain.User, bool, error) {
	if s.done {
		return nil, false, nil
	}
	if err := ctx.Err(); err != nil {
		s.close()
		return nil, false, err
	}
	if !s.rows.Next() {
		err := s.rows.Err()
		s.close()
		if err != nil {
			return nil, false, classify(err)
		}
		return nil, false, nil
	}
	user, err := scanUser(s.rows)
	if err != nil {
		s.close()
		return nil, false, classify(err)
	}
	return user, true, nil
}

func (s *rowStream) Close() error {
	s.close()
	return nil
}

func (s *rowStream) close() {
	if !s.done {
		s.rows.Close()
		s.done = true
	}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user            domain.User
		msisdn          *string
		docType, docNum *string
	)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &msisdn, &docType, &docNum, &user.Deleted); err != nil {
		return nil, err
	}
	if msisdn != nil {
		user.Msisdn = *msisdn
	}
	if docType != nil {
		user.DocumentType = *docType
	}
	if docNum != nil {
		user.DocumentNumber = *docNum
	}
	return &user, nil
}

// classify maps driver failures onto the domain taxonomy so the service layer
// can translate them without importing pgx.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return domain.WrapError(domain.ErrCodeConflict, "unique constraint violated", err)
		case strings.HasPrefix(pgErr.Code, "42"):
			return domain.WrapError(domain.ErrCodeMalformed, "malformed query", err)
		}
	}
	return domain.WrapError(domain.ErrCodeInternal, "data access failed", err)
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
