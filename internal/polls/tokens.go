package polls

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrTokenNotFound is returned when a voting token is unknown, expired
// or already redeemed.
var ErrTokenNotFound = errors.New("voting token not found")

const (
	tokenKeyPrefix   = "votacion:token:"
	pollTokensPrefix = "votacion:tokens:"
)

// TokenStore keeps single-use voting tokens in Redis, indexed per poll so
// closing a poll can bulk-delete every outstanding token.
type TokenStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTokenStore creates a voting token store. ttl bounds how long an
// unredeemed token stays valid.
func NewTokenStore(rdb *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{rdb: rdb, ttl: ttl}
}

// Issue creates a single-use token bound to the poll.
func (s *TokenStore) Issue(ctx context.Context, pollID uuid.UUID) (string, error) {
	token := uuid.NewString()
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, tokenKeyPrefix+token, pollID.String(), s.ttl)
	pipe.SAdd(ctx, pollTokensPrefix+pollID.String(), token)
	pipe.Expire(ctx, pollTokensPrefix+pollID.String(), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}
	return token, nil
}

// Redeem consumes a token and returns the poll it was issued for.
// A token can be redeemed at most once.
func (s *TokenStore) Redeem(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := s.rdb.GetDel(ctx, tokenKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrTokenNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	pollID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, ErrTokenNotFound
	}
	s.rdb.SRem(ctx, pollTokensPrefix+pollID.String(), token)
	return pollID, nil
}

// InvalidatePoll bulk-deletes every outstanding token for the poll.
// Called when the poll closes.
func (s *TokenStore) InvalidatePoll(ctx context.Context, pollID uuid.UUID) error {
	setKey := pollTokensPrefix + pollID.String()
	tokens, err := s.rdb.SMembers(ctx, setKey).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, tokenKeyPrefix+t)
	}
	keys = append(keys, setKey)
	return s.rdb.Del(ctx, keys...).Err()
}
