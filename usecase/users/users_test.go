package users

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usersvc/api/transport"
	"usersvc/domain"
	"usersvc/repository"
)

// fakeRepo is an in-memory UserRepository that tracks which port methods were
// touched and can be forced to fail on save.
type fakeRepo struct {
	users   map[int64]domain.User
	nextID  int64
	saveErr error
	calls   []string
}

func newFakeRepo(seed ...domain.User) *fakeRepo {
	r := &fakeRepo{users: make(map[int64]domain.User), nextID: 1}
	for _, u := range seed {
		r.users[u.ID] = u
		if u.ID >= r.nextID {
			r.nextID = u.ID + 1
		}
	}
	return r
}

func (r *fakeRepo) touch(method string) { r.calls = append(r.calls, method) }

func (r *fakeRepo) FindAllActive(ctx context.Context) (repository.UserStream, error) {
	r.touch("FindAllActive")
	return repository.NewSliceStream(r.subset(false)), nil
}

func (r *fakeRepo) FindAllDeleted(ctx context.Context) (repository.UserStream, error) {
	r.touch("FindAllDeleted")
	return repository.NewSliceStream(r.subset(true)), nil
}

func (r *fakeRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	r.touch("FindByID")
	if u, ok := r.users[id]; ok {
		cp := u
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeRepo) FindByIDActive(ctx context.Context, id int64) (*domain.User, error) {
	r.touch("FindByIDActive")
	if u, ok := r.users[id]; ok && !u.Deleted {
		cp := u
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeRepo) FindByMsisdn(ctx context.Context, msisdn string) (*domain.User, error) {
	r.touch("FindByMsisdn")
	for _, u := range r.users {
		if u.Msisdn == msisdn {
			cp := u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeRepo) FindByDocumentNumber(ctx context.Context, documentNumber string) (*domain.User, error) {
	r.touch("FindByDocumentNumber")
	for _, u := range r.users {
		if u.DocumentNumber == documentNumber {
			cp := u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeRepo) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	r.touch("Save")
	if r.saveErr != nil {
		return nil, r.saveErr
	}
	stored := *user
	if stored.ID == 0 {
		stored.ID = r.nextID
		r.nextID++
	}
	r.users[stored.ID] = stored
	cp := stored
	return &cp, nil
}

func (r *fakeRepo) subset(deleted bool) []domain.User {
	var out []domain.User
	for _, u := range r.users {
		if u.Deleted == deleted {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type fakeTrail struct {
	ops []string
}

func (t *fakeTrail) Record(ctx context.Context, operation string, userID int64, requestRefID string) {
	t.ops = append(t.ops, operation)
}

func newUseCase(repo *fakeRepo) (*UseCase, *fakeTrail) {
	trail := &fakeTrail{}
	return New(repo, trail, nil), trail
}

func drain(t *testing.T, s *ResponseStream) []transport.Envelope {
	t.Helper()
	defer s.Close()
	var out []transport.Envelope
	for {
		env, ok := s.Next(context.Background())
		if !ok {
			return out
		}
		out = append(out, env)
	}
}

func bodyUser(t *testing.T, env transport.Envelope) *domain.User {
	t.Helper()
	user, ok := env.Body.(*domain.User)
	require.True(t, ok, "envelope body is not a user: %T", env.Body)
	return user
}

func TestListActive_StreamsOneEnvelopePerUser(t *testing.T) {
	repo := newFakeRepo(
		domain.User{ID: 1, Name: "Jane Doe", Email: "jane@x.com"},
		domain.User{ID: 2, Name: "John Doe", Email: "john@x.com"},
		domain.User{ID: 3, Name: "Gone", Email: "gone@x.com", Deleted: true},
	)
	uc, _ := newUseCase(repo)

	envs := drain(t, uc.ListActive(context.Background(), "ref-1"))

	require.Len(t, envs, 2)
	for _, env := range envs {
		assert.Equal(t, 200, env.Header.ResponseCode)
		assert.Equal(t, "Success", env.Header.ResponseMessage)
		assert.Equal(t, "ref-1", env.Header.RequestRefID)
	}
	assert.Equal(t, int64(1), bodyUser(t, envs[0]).ID)
	assert.Equal(t, int64(2), bodyUser(t, envs[1]).ID)
}

func TestListDeleted_EmptySubsetIsValid(t *testing.T) {
	repo := newFakeRepo(domain.User{ID: 1, Name: "Jane Doe", Email: "jane@x.com"})
	uc, _ := newUseCase(repo)

	envs := drain(t, uc.ListDeleted(context.Background(), "ref-1"))
	assert.Empty(t, envs)
}

func TestSearch_NoCriteriaSkipsRepository(t *testing.T) {
	repo := newFakeRepo()
	uc, _ := newUseCase(repo)

	env := uc.Search(context.Background(), transport.SearchRequest{}, "ref-1")

	assert.Equal(t, 400, env.Header.ResponseCode)
	assert.Equal(t, "Bad Request", env.Header.ResponseMessage)
	assert.Equal(t, "No search criteria provided", env.Header.CustomerMessage)
	assert.Nil(t, env.Body)
	assert.Empty(t, repo.calls, "no data-access call may happen without criteria")
}

func TestSearch_PrefersIDOverOtherCriteria(t *testing.T) {
	id := int64(7)
	repo := newFakeRepo(domain.User{ID: 7, Name: "Jane Doe", Email: "jane@x.com", Msisdn: "254712345678"})
	uc, _ := newUseCase(repo)

	env := uc.Search(context.Background(), transport.SearchRequest{
		UserID:         &id,
		Msisdn:         "0799999999",
		DocumentNumber: "A123",
	}, "ref-1")

	assert.Equal(t, 200, env.Header.ResponseCode)
	assert.Equal(t, []string{"FindByID"}, repo.calls)
}

func TestSearch_ByMsisdnNormalizesFirst(t *testing.T) {
	repo := newFakeRepo(domain.User{ID: 1, Name: "Jane Doe", Email: "jane@x.com", Msisdn: "254712345678"})
	uc, _ := newUseCase(repo)

	env := uc.Search(context.Background(), transport.SearchRequest{Msisdn: "0712345678"}, "ref-1")

	assert.Equal(t, 200, env.Header.ResponseCode)
	assert.Equal(t, int64(1), bodyUser(t, env).ID)
}

func TestSearch_ByDocumentNumberMissingUser(t *testing.T) {
	repo := newFakeRepo()
	uc, _ := newUseCase(repo)

	env := uc.Search(context.Background(), transport.SearchRequest{DocumentNumber: "A123"}, "ref-1")

	assert.Equal(t, 404, env.Header.ResponseCode)
	assert.Equal(t, "User not found", env.Header.ResponseMessage)
	assert.Nil(t, env.Body)
}

func TestCreate_NormalizesMsisdn(t *testing.T) {
	repo := newFakeRepo()
	uc, trail := newUseCase(repo)

	env := uc.Create(context.Background(), &domain.User{
		Name:   "Jane Doe",
		Email:  "jane@x.com",
		Msisdn: "0712345678",
	}, "ref-1")

	assert.Equal(t, 201, env.Header.ResponseCode)
	assert.Equal(t, "User created successfully", env.Header.ResponseMessage)
	saved := bodyUser(t, env)
	assert.Equal(t, "254712345678", saved.Msisdn)
	assert.NotZero(t, saved.ID)
	assert.Equal(t, []string{"create"}, trail.ops)
}

func TestCreate_DuplicateUniqueField(t *testing.T) {
	repo := newFakeRepo()
	repo.saveErr = domain.WrapError(domain.ErrCodeConflict, "unique constraint violated", errors.New("duplicate key"))
	uc, trail := newUseCase(repo)

	env := uc.Create(context.Background(), &domain.User{Name: "Jane Doe", Email: "jane@x.com"}, "ref-1")

	assert.Equal(t, 400, env.Header.ResponseCode)
	assert.Equal(t, "User creation failed: Duplicate entry for a unique field.", env.Header.ResponseMessage)
	assert.Nil(t, env.Body)
	assert.Empty(t, trail.ops)
}

func TestCreate_MalformedQuery(t *testing.T) {
	repo := newFakeRepo()
	repo.saveErr = domain.WrapError(domain.ErrCodeMalformed, "malformed query", errors.New("syntax error"))
	uc, _ := newUseCase(repo)

	env := uc.Create(context.Background(), &domain.User{Name: "Jane Doe", Email: "jane@x.com"}, "ref-1")

	assert.Equal(t, 400, env.Header.ResponseCode)
	assert.Equal(t, "User creation failed: Invalid SQL syntax.", env.Header.ResponseMessage)
}

func TestCreate_GenericFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.saveErr = domain.WrapError(domain.ErrCodeInternal, "data access failed", errors.New("connection reset"))
	uc, _ := newUseCase(repo)

	env := uc.Create(context.Background(), &domain.User{Name: "Jane Doe", Email: "jane@x.com"}, "ref-1")

	assert.Equal(t, 500, env.Header.ResponseCode)
	assert.Equal(t, "User creation failed: connection reset", env.Header.ResponseMessage)
}

func TestUpdate_OverwritesNameAndEmailOnly(t *testing.T) {
	repo := newFakeRepo(domain.User{
		ID:             5,
		Name:           "Jane Doe",
		Email:          "jane@x.com",
		Msisdn:         "254712345678",
		DocumentNumber: "A123",
	})
	uc, trail := newUseCase(repo)

	env := uc.Update(context.Background(), 5, &domain.User{
		Name:   "Jane R.",
		Email:  "jane.r@x.com",
		Msisdn: "0700000001",
	}, "ref-1")

	assert.Equal(t, 200, env.Header.ResponseCode)
	assert.Equal(t, "User updated successfully", env.Header.ResponseMessage)

	stored := repo.users[5]
	assert.Equal(t, "Jane R.", stored.Name)
	assert.Equal(t, "jane.r@x.com", stored.Email)
	// msisdn and document fields are intentionally left untouched
	assert.Equal(t, "254712345678", stored.Msisdn)
	assert.Equal(t, "A123", stored.DocumentNumber)
	assert.Equal(t, []string{"update"}, trail.ops)
}

func TestUpdate_MissingUserWritesNothing(t *testing.T) {
	repo := newFakeRepo()
	uc, _ := newUseCase(repo)

	env := uc.Update(context.Background(), 5, &domain.User{Name: "Jane R.", Email: "jane@x.com"}, "ref-1")

	assert.Equal(t, 404, env.Header.ResponseCode)
	assert.Equal(t, "User not found", env.Header.ResponseMessage)
	assert.Nil(t, env.Body)
	assert.NotContains(t, repo.calls, "Save")
}

func TestUpdate_SaveFailure(t *testing.T) {
	repo := newFakeRepo(domain.User{ID: 5, Name: "Jane Doe", Email: "jane@x.com"})
	repo.saveErr = domain.WrapError(domain.ErrCodeInternal, "data access failed", errors.New("disk full"))
	uc, _ := newUseCase(repo)

	env := uc.Update(context.Background(), 5, &domain.User{Name: "Jane R.", Email: "jane@x.com"}, "ref-1")

	assert.Equal(t, 500, env.Header.ResponseCode)
	assert.Equal(t, "User update failed: disk full", env.Header.ResponseMessage)
}

func TestDelete_ActiveUserTransitionsToDeleted(t *testing.T) {
	repo := newFakeRepo(domain.User{ID: 5, Name: "Jane Doe", Email: "jane@x.com"})
	uc, trail := newUseCase(repo)

	env := uc.Delete(context.Background(), 5, "ref-1")

	assert.Equal(t, 200, env.Header.ResponseCode)
	assert.Equal(t, "User deleted successfully", env.Header.ResponseMessage)
	assert.Empty(t, env.Header.RequestRefID, "delete envelopes never echo the correlation id")
	assert.Nil(t, env.Body)
	assert.True(t, repo.users[5].Deleted)
	assert.Equal(t, []string{"delete"}, trail.ops)
}

func TestDelete_AlreadyDeletedAnswersNotFound(t *testing.T) {
	repo := newFakeRepo(domain.User{ID: 5, Name: "Jane Doe", Email: "jane@x.com", Deleted: true})
	uc, trail := newUseCase(repo)

	env := uc.Delete(context.Background(), 5, "ref-1")

	assert.Equal(t, 404, env.Header.ResponseCode)
	assert.Equal(t, "User not found", env.Header.ResponseMessage)
	assert.Empty(t, env.Header.RequestRefID)
	assert.True(t, repo.users[5].Deleted)
	assert.Empty(t, trail.ops)
}

func TestRestore_DeletedUserBecomesActive(t *testing.T) {
	repo := newFakeRepo(domain.User{ID: 5, Name: "Jane Doe", Email: "jane@x.com", Deleted: true})
	uc, trail := newUseCase(repo)

	env := uc.Restore(context.Background(), 5, "ref-1")

	assert.Equal(t, 200, env.Header.ResponseCode)
	assert.Equal(t, "User restored successfully", env.Header.ResponseMessage)
	assert.Equal(t, "ref-1", env.Header.RequestRefID)
	assert.False(t, bodyUser(t, env).Deleted)
	assert.False(t, repo.users[5].Deleted)
	assert.Equal(t, []string{"restore"}, trail.ops)
}

func TestRestore_AlreadyActiveStillSucceeds(t *testing.T) {
	repo := newFakeRepo(domain.User{ID: 5, Name: "Jane Doe", Email: "jane@x.com"})
	uc, _ := newUseCase(repo)

	env := uc.Restore(context.Background(), 5, "ref-1")

	assert.Equal(t, 200, env.Header.ResponseCode)
	assert.False(t, repo.users[5].Deleted)
}

func TestRestore_MissingUser(t *testing.T) {
	repo := newFakeRepo()
	uc, _ := newUseCase(repo)

	env := uc.Restore(context.Background(), 5, "ref-1")

	assert.Equal(t, 404, env.Header.ResponseCode)
	assert.Equal(t, "User not found", env.Header.ResponseMessage)
	assert.Nil(t, env.Body)
}
