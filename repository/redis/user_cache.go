package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"usersvc/domain"
	"usersvc/repository"
)

// userCache is a read-through cache over another UserRepository. Single-row
// lookups are served from Redis when possible; list streams always hit the
// inner repository. Save writes through and drops every key the stored row
// could be cached under.
type userCache struct {
	inner  repository.UserRepository
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewUserCache decorates the given repository with a Redis read-through cache.
func NewUserCache(inner repository.UserRepository, client *redislib.Client, ttl time.Duration) repository.UserRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &userCache{
		inner:  inner,
		client: client,
		prefix: "user:",
		ttl:    ttl,
	}
}

func (c *userCache) FindAllActive(ctx context.Context) (repository.UserStream, error) {
	return c.inner.FindAllActive(ctx)
}

func (c *userCache) FindAllDeleted(ctx context.Context) (repository.UserStream, error) {
	return c.inner.FindAllDeleted(ctx)
}

func (c *userCache) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return c.lookup(ctx, c.idKey(id), func() (*domain.User, error) {
		return c.inner.FindByID(ctx, id)
	})
}

// FindByIDActive is not cached: the deleted flag gates delete eligibility and
// a stale hit would let a soft-deleted row be deleted twice.
func (c *userCache) FindByIDActive(ctx context.Context, id int64) (*domain.User, error) {
	return c.inner.FindByIDActive(ctx, id)
}

func (c *userCache) FindByMsisdn(ctx context.Context, msisdn string) (*domain.User, error) {
	return c.lookup(ctx, c.key("msisdn", msisdn), func() (*domain.User, error) {
		return c.inner.FindByMsisdn(ctx, msisdn)
	})
}

func (c *userCache) FindByDocumentNumber(ctx context.Context, documentNumber string) (*domain.User, error) {
	return c.lookup(ctx, c.key("doc", documentNumber), func() (*domain.User, error) {
		return c.inner.FindByDocumentNumber(ctx, documentNumber)
	})
}

func (c *userCache) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	saved, err := c.inner.Save(ctx, user)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, saved)
	return saved, nil
}

func (c *userCache) lookup(ctx context.Context, key string, load func() (*domain.User, error)) (*domain.User, error) {
	if cached, err := c.client.Get(ctx, key).Result(); err == nil {
		var user domain.User
		if err := json.Unmarshal([]byte(cached), &user); err == nil {
			return &user, nil
		}
		// corrupt entry, fall through to the source of truth
		c.client.Del(ctx, key)
	}

	user, err := load()
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(user); err == nil {
		c.client.Set(ctx, key, payload, c.ttl)
	}
	return user, nil
}

func (c *userCache) invalidate(ctx context.Context, user *domain.User) {
	keys := []string{c.idKey(user.ID)}
	if user.Msisdn != "" {
		keys = append(keys, c.key("msisdn", user.Msisdn))
	}
	if user.DocumentNumber != "" {
		keys = append(keys, c.key("doc", user.DocumentNumber))
	}
	c.client.Del(ctx, keys...)
}

func (c *userCache) idKey(id int64) string {
	return fmt.Sprintf("%sid:%d", c.prefix, id)
}

func (c *userCache) key(kind, value string) string {
	return fmt.Sprintf("%s%s:%s", c.prefix, kind, value)
}
