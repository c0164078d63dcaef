package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usersvc/domain"
	"usersvc/repository"
)

// stubRepo counts hits against the inner repository.
type stubRepo struct {
	user    *domain.User
	byID    int
	saved   int
	saveRet *domain.User
}

func (s *stubRepo) FindAllActive(ctx context.Context) (repository.UserStream, error) {
	return repository.NewSliceStream(nil), nil
}

func (s *stubRepo) FindAllDeleted(ctx context.Context) (repository.UserStream, error) {
	return repository.NewSliceStream(nil), nil
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	s.byID++
	if s.user == nil || s.user.ID != id {
		return nil, domain.ErrUserNotFound
	}
	cp := *s.user
	return &cp, nil
}

func (s *stubRepo) FindByIDActive(ctx context.Context, id int64) (*domain.User, error) {
	return s.FindByID(ctx, id)
}

func (s *stubRepo) FindByMsisdn(ctx context.Context, msisdn string) (*domain.User, error) {
	if s.user == nil || s.user.Msisdn != msisdn {
		return nil, domain.ErrUserNotFound
	}
	cp := *s.user
	return &cp, nil
}

func (s *stubRepo) FindByDocumentNumber(ctx context.Context, documentNumber string) (*domain.User, error) {
	if s.user == nil || s.user.DocumentNumber != documentNumber {
		return nil, domain.ErrUserNotFound
	}
	cp := *s.user
	return &cp, nil
}

func (s *stubRepo) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.saved++
	s.saveRet = user
	cp := *user
	return &cp, nil
}

func newCacheUnderTest(t *testing.T, inner repository.UserRepository) repository.UserRepository {
	t.Helper()
	mini := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewUserCache(inner, client, time.Minute)
}

func TestUserCache_ReadThroughByID(t *testing.T) {
	inner := &stubRepo{user: &domain.User{ID: 7, Name: "Jane Doe", Email: "jane@x.com"}}
	cache := newCacheUnderTest(t, inner)
	ctx := context.Background()

	first, err := cache.FindByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", first.Name)

	second, err := cache.FindByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, first.Name, second.Name)

	assert.Equal(t, 1, inner.byID, "second read must be served from cache")
}

func TestUserCache_SaveInvalidates(t *testing.T) {
	inner := &stubRepo{user: &domain.User{ID: 7, Name: "Jane Doe", Email: "jane@x.com"}}
	cache := newCacheUnderTest(t, inner)
	ctx := context.Background()

	_, err := cache.FindByID(ctx, 7)
	require.NoError(t, err)

	inner.user.Name = "Jane R."
	_, err = cache.Save(ctx, inner.user)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.saved)

	fresh, err := cache.FindByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Jane R.", fresh.Name)
	assert.Equal(t, 2, inner.byID, "invalidation must force a reload")
}

func TestUserCache_NotFoundPassesThrough(t *testing.T) {
	cache := newCacheUnderTest(t, &stubRepo{})

	_, err := cache.FindByID(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
