package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"vehiclerental/internal/app/middleware"
)

const idempotencyPrefix = "idem:"

// IdempotencyStore keeps command results under "idem:<key>" with a TTL.
type IdempotencyStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{Client: client, TTL: ttl}
}

type idempotencyPayload struct {
	Payload    []byte    `json:"payload,omitempty"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	raw, err := s.Client.Get(ctx, idempotencyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	var p idempotencyPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	return middleware.IdempotencyRecord{Key: key, Payload: p.Payload, Error: p.Error, OccurredAt: p.OccurredAt}, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	raw, err := json.Marshal(idempotencyPayload{Payload: rec.Payload, Error: rec.Error, OccurredAt: rec.OccurredAt})
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, idempotencyPrefix+rec.Key, raw, s.TTL).Err()
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
