// Package store defines the narrow abstraction the recommender core uses to
// talk to a remote set/sorted-set store. The only concrete implementation is
// RedisStore, but the core packages (matrix, similarity, recommend) depend on
// the Store interface, not on go-redis directly, so a different backend can be slotted
// in without touching Matrix, the Similarity Engine, or the Recommender.
package store

import "context"

// Member is an opaque item or set identifier as stored in the backing
// service. Members are compared by byte value; callers are responsible for
// choosing an encoding that sorts and compares the way they expect.
type Member = string

// ScoredMember pairs a sorted-set member with its score.
type ScoredMember struct {
	Member Member
	Score  float64
}

// Store is the set of primitive operations the recommender core needs from
// a remote in-memory store. Implementations surface transport and protocol
// errors from the backing client unchanged; Store never masks them.
type Store interface {
	// Unordered sets.
	SAdd(ctx context.Context, key string, members ...Member) error
	SRem(ctx context.Context, key string, members ...Member) error
	SMembers(ctx context.Context, key string) ([]Member, error)
	SCard(ctx context.Context, key string) (int64, error)
	SIsMember(ctx context.Context, key string, member Member) (bool, error)
	SUnion(ctx context.Context, keys ...string) ([]Member, error)

	// Sorted sets.
	ZAdd(ctx context.Context, key string, members ...ScoredMember) error
	ZIncrBy(ctx context.Context, key string, delta float64, member Member) (float64, error)
	ZRem(ctx context.Context, key string, members ...Member) error
	ZRangeByRank(ctx context.Context, key string, lo, hi int64, reverse, withScores bool) ([]ScoredMember, error)
	ZCard(ctx context.Context, key string) (int64, error)
	ZTrimToTopK(ctx context.Context, key string, k int64) error

	// Keyspace.
	Del(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, pattern string) ([]string, error)

	// EvalScript runs body as an atomic server-side script against the
	// given keys and args, returning whatever the script returns. The
	// Similarity Engine uses this to make per-item recomputation atomic.
	EvalScript(ctx context.Context, body string, keys []string, args ...interface{}) (interface{}, error)
}
