package store

import (
	"context"

	"github.com/go-redis/redis/v8"
)

// RedisStore adapts a *redis.Client to the Store interface. It carries no
// state of its own beyond the client.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an already-configured *redis.Client. Connection
// establishment, auth, and pooling are the caller's concern (cmd/predictorctl
// builds its client from the settings internal/config loads).
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) SAdd(ctx context.Context, key string, members ...Member) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return s.client.SAdd(ctx, key, args...).Err()
}

func (s *RedisStore) SRem(ctx context.Context, key string, members ...Member) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return s.client.SRem(ctx, key, args...).Err()
}

func (s *RedisStore) SMembers(ctx context.Context, key string) ([]Member, error) {
	return s.client.SMembers(ctx, key).Result()
}

func (s *RedisStore) SCard(ctx context.Context, key string) (int64, error) {
	return s.client.SCard(ctx, key).Result()
}

func (s *RedisStore) SIsMember(ctx context.Context, key string, member Member) (bool, error) {
	return s.client.SIsMember(ctx, key, member).Result()
}

func (s *RedisStore) SUnion(ctx context.Context, keys ...string) ([]Member, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	return s.client.SUnion(ctx, keys...).Result()
}

func (s *RedisStore) ZAdd(ctx context.Context, key string, members ...ScoredMember) error {
	if len(members) == 0 {
		return nil
	}
	zs := make([]*redis.Z, len(members))
	for i, m := range members {
		zs[i] = &redis.Z{Score: m.Score, Member: m.Member}
	}
	return s.client.ZAdd(ctx, key, zs...).Err()
}

func (s *RedisStore) ZIncrBy(ctx context.Context, key string, delta float64, member Member) (float64, error) {
	return s.client.ZIncrBy(ctx, key, delta, member).Result()
}

func (s *RedisStore) ZRem(ctx context.Context, key string, members ...Member) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return s.client.ZRem(ctx, key, args...).Err()
}

func (s *RedisStore) ZRangeByRank(ctx context.Context, key string, lo, hi int64, reverse, withScores bool) ([]ScoredMember, error) {
	var zs []redis.Z
	var err error
	switch {
	case reverse && withScores:
		zs, err = s.client.ZRevRangeWithScores(ctx, key, lo, hi).Result()
	case reverse && !withScores:
		members, e := s.client.ZRevRange(ctx, key, lo, hi).Result()
		return toScoredMembers(members, nil), e
	case !reverse && withScores:
		zs, err = s.client.ZRangeWithScores(ctx, key, lo, hi).Result()
	default:
		members, e := s.client.ZRange(ctx, key, lo, hi).Result()
		return toScoredMembers(members, nil), e
	}
	if err != nil {
		return nil, err
	}
	out := make([]ScoredMember, len(zs))
	for i, z := range zs {
		out[i] = ScoredMember{Member: z.Member.(string), Score: z.Score}
	}
	return out, nil
}

func toScoredMembers(members []string, _ []float64) []ScoredMember {
	out := make([]ScoredMember, len(members))
	for i, m := range members {
		out[i] = ScoredMember{Member: m}
	}
	return out
}

func (s *RedisStore) ZCard(ctx context.Context, key string) (int64, error) {
	return s.client.ZCard(ctx, key).Result()
}

// ztrimScript removes every member outside the top K by score, cutting from
// the bottom of the store's ascending rank order (so among members tied at
// the cutoff, lower member ids are removed first), keyed off ZCARD so it's a
// no-op when the set is already within budget.
var ztrimScript = redis.NewScript(`
local card = redis.call("ZCARD", KEYS[1])
local k = tonumber(ARGV[1])
if card > k then
	redis.call("ZREMRANGEBYRANK", KEYS[1], 0, card - k - 1)
end
return card
`)

func (s *RedisStore) ZTrimToTopK(ctx context.Context, key string, k int64) error {
	return ztrimScript.Run(ctx, s.client, []string{key}, k).Err()
}

func (s *RedisStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *RedisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	var out []string
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val())
	}
	return out, iter.Err()
}

func (s *RedisStore) EvalScript(ctx context.Context, body string, keys []string, args ...interface{}) (interface{}, error) {
	return redis.NewScript(body).Run(ctx, s.client, keys, args...).Result()
}
