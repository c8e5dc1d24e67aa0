// Package idempotency tracks Idempotency-Key requests so a double
// submit of a mutating request runs the handler once.
//
// Each key moves through in_flight → succeeded | failed. A duplicate
// that arrives while the first is in flight is refused; a duplicate
// after success is answered with the stored response; a failed key may
// be claimed again.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lalith-99/timelinealchemy/internal/apperr"
	"github.com/lalith-99/timelinealchemy/internal/cache"
)

const (
	Header    = "Idempotency-Key"
	keyPrefix = "ta:idempotency:"

	// MaxKeyLength bounds client-supplied keys.
	MaxKeyLength = 255

	// MaxBodyBytes is the largest response that will be stored for replay.
	MaxBodyBytes = 1 << 20
)

type State string

const (
	StateInFlight  State = "in_flight"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

var (
	ErrInFlight = apperr.New(apperr.KindConflict, "a request with this Idempotency-Key is still in progress")
	ErrKeyReuse = apperr.New(apperr.KindInvalid, "Idempotency-Key was already used for a different request")
)

// Record is what gets stored per key.
type Record struct {
	State       State  `json:"state"`
	RequestHash string `json:"request_hash"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

type Store struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewStore(c cache.Cache, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{cache: c, ttl: ttl}
}

// Key namespaces a client key by its owner so two users can never
// collide.
func Key(owner, clientKey string) string {
	return keyPrefix + owner + ":" + clientKey
}

// Fingerprint identifies the request a key was first used for.
func Fingerprint(method, route string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{'|'})
	h.Write([]byte(route))
	h.Write([]byte{'|'})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Begin claims key for a request. A nil record means the caller owns
// the key and must finish it with Succeed or Fail. A non-nil record is
// a completed response to replay.
func (s *Store) Begin(ctx context.Context, key, requestHash string) (*Record, error) {
	claim, err := json.Marshal(Record{State: StateInFlight, RequestHash: requestHash})
	if err != nil {
		return nil, fmt.Errorf("encode idempotency record: %w", err)
	}

	// Two rounds: the second covers a key that expired or was released
	// between SetNX and Get.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.cache.SetNX(ctx, key, string(claim), s.ttl)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindUnavailable, "idempotency store unavailable", err)
		}
		if ok {
			return nil, nil
		}

		existing, found, err := s.get(ctx, key)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}

		switch existing.State {
		case StateFailed:
			if err := s.cache.Del(ctx, key); err != nil {
				return nil, apperr.Wrap(apperr.KindUnavailable, "idempotency store unavailable", err)
			}
			continue
		case StateInFlight:
			if existing.RequestHash != requestHash {
				return nil, ErrKeyReuse
			}
			return nil, ErrInFlight
		default:
			if existing.RequestHash != requestHash {
				return nil, ErrKeyReuse
			}
			return existing, nil
		}
	}
	return nil, ErrInFlight
}

// Succeed stores the response for replay.
func (s *Store) Succeed(ctx context.Context, key, requestHash string, status int, contentType string, body []byte) error {
	return s.put(ctx, key, Record{
		State:       StateSucceeded,
		RequestHash: requestHash,
		Status:      status,
		ContentType: contentType,
		Body:        body,
	})
}

// Fail releases the key for a retry.
func (s *Store) Fail(ctx context.Context, key, requestHash string) error {
	return s.put(ctx, key, Record{State: StateFailed, RequestHash: requestHash})
}

func (s *Store) get(ctx context.Context, key string) (*Record, bool, error) {
	raw, found, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false, apperr.Wrap(apperr.KindUnavailable, "idempotency store unavailable", err)
	}
	if !found {
		return nil, false, nil
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, false, fmt.Errorf("decode idempotency record: %w", err)
	}
	return &rec, true, nil
}

func (s *Store) put(ctx context.Context, key string, rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode idempotency record: %w", err)
	}
	if err := s.cache.Set(ctx, key, string(raw), s.ttl); err != nil {
		return fmt.Errorf("store idempotency record: %w", err)
	}
	return nil
}
