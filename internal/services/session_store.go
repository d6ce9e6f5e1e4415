// internal/services/session_store.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNonceNotFound = errors.New("nonce not found or expired")

// SessionStore keeps login nonces and revoked session ids.
type SessionStore interface {
	SaveNonce(ctx context.Context, address, nonce string, ttl time.Duration) error
	ConsumeNonce(ctx context.Context, address string) (string, error)
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func nonceKey(address string) string {
	return fmt.Sprintf("auth_nonce:%s", strings.ToLower(address))
}

func revokedKey(jti string) string {
	return fmt.Sprintf("session_revoked:%s", jti)
}

// SaveNonce replaces any outstanding nonce for address.
func (s *RedisSessionStore) SaveNonce(ctx context.Context, address, nonce string, ttl time.Duration) error {
	return s.client.Set(ctx, nonceKey(address), nonce, ttl).Err()
}

// ConsumeNonce returns the nonce and deletes it in one step, so a signature
// can only be redeemed once.
func (s *RedisSessionStore) ConsumeNonce(ctx context.Context, address string) (string, error) {
	nonce, err := s.client.GetDel(ctx, nonceKey(address)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNonceNotFound
	}
	if err != nil {
		return "", err
	}
	return nonce, nil
}

func (s *RedisSessionStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, revokedKey(jti), "revoked", ttl).Err()
}

func (s *RedisSessionStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	exists, err := s.client.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
