package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	bookingmodalerrors "opacbookings/internal/bookingmodal/errors"
	"opacbookings/pkg/model"
)

const maxUpdateRetries = 5

type redisSessionRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSessionRepository(rdb *redis.Client, ttl time.Duration) SessionRepository {
	return &redisSessionRepository{rdb: rdb, ttl: ttl}
}

func sessionKey(id string) string { return fmt.Sprintf("opacbookings:session:%s", id) }

func (r *redisSessionRepository) Create(ctx context.Context, session *model.BookingSession) error {
	touch(session)
	b, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, sessionKey(session.ID), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (r *redisSessionRepository) FindByID(ctx context.Context, id string) (*model.BookingSession, error) {
	return r.get(ctx, r.rdb, id)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *redisSessionRepository) get(ctx context.Context, c getter, id string) (*model.BookingSession, error) {
	b, err := c.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, bookingmodalerrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session model.BookingSession
	if err := json.Unmarshal(b, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

// Update applies fn under an optimistic WATCH on the session key and retries
// when another request wrote the session in between.
func (r *redisSessionRepository) Update(ctx context.Context, id string, fn UpdateFunc) (*model.BookingSession, error) {
	key := sessionKey(id)
	var updated *model.BookingSession

	txf := func(tx *redis.Tx) error {
		session, err := r.get(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(session); err != nil {
			return err
		}

		touch(session)
		b, err := json.Marshal(session)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, r.ttl)
			return nil
		})
		if err == nil {
			updated = session
		}
		return err
	}

	for range maxUpdateRetries {
		err := r.rdb.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, bookingmodalerrors.ErrConcurrentUpdate
}

func (r *redisSessionRepository) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}
