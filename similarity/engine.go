// Package similarity implements the similarity index maintenance engine:
// per-item recomputation of the weighted Jaccard-like score against every
// co-occurring candidate, written atomically into a bounded top-K sorted
// set per item.
package similarity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lunchtime-labs/predictor-go/matrix"
	"github.com/lunchtime-labs/predictor-go/store"
)

// Engine computes and maintains similarity rows S(i) for one recommender.
// It holds no mutable state itself; every Engine method is a pure function
// of the store's current contents plus the configured matrices and limit.
type Engine struct {
	s        store.Store
	prefix   string
	matrices []*matrix.Matrix
	limit    int64 // L; 0 means unbounded
}

// New constructs an Engine for one recommender's set of matrices. limit is
// the per-item cap L; 0 means unbounded (no trimming).
func New(s store.Store, prefix string, matrices []*matrix.Matrix, limit int64) *Engine {
	return &Engine{s: s, prefix: prefix, matrices: matrices, limit: limit}
}

func (e *Engine) similarityKey(item string) string {
	return fmt.Sprintf("%s:similarities:%s", e.prefix, item)
}

// SimilarityKey exposes S(item)'s store key. The engine's own Row, Union
// and Delete methods address S(item) through the same key.
func (e *Engine) SimilarityKey(item string) string { return e.similarityKey(item) }

func (e *Engine) totalWeight() float64 {
	var total float64
	for _, m := range e.matrices {
		total += m.Weight()
	}
	return total
}

// Candidates returns C(i): every item co-occurring with i in any set in any
// matrix, excluding i itself.
func (e *Engine) Candidates(ctx context.Context, item string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string

	for _, m := range e.matrices {
		setIDs, err := m.SetsContaining(ctx, item)
		if err != nil {
			return nil, err
		}
		if len(setIDs) == 0 {
			continue
		}
		keys := make([]string, len(setIDs))
		for i, setID := range setIDs {
			keys[i] = m.ForwardKey(setID)
		}
		members, err := e.s.SUnion(ctx, keys...)
		if err != nil {
			return nil, err
		}
		for _, member := range members {
			if member == item {
				continue
			}
			if _, ok := seen[member]; ok {
				continue
			}
			seen[member] = struct{}{}
			out = append(out, member)
		}
	}
	return out, nil
}

// revSets caches Rev_M(i) membership per matrix label for the duration of a
// single Recompute call, so each candidate comparison reuses the focal
// item's already-fetched reverse sets instead of refetching them.
type revSets map[string][]string

func (e *Engine) fetchRevSets(ctx context.Context, item string) (revSets, error) {
	out := make(revSets, len(e.matrices))
	var mu sync.Mutex
	var g errgroup.Group
	for _, m := range e.matrices {
		m := m
		g.Go(func() error {
			members, err := m.SetsContaining(ctx, item)
			if err != nil {
				return err
			}
			mu.Lock()
			out[m.Label()] = members
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, x := range a {
		set[x] = struct{}{}
	}
	inter := 0
	for _, x := range b {
		if _, ok := set[x]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Score computes σ(i, j): the weight-normalized sum of each matrix's
// Jaccard coefficient over the sets containing i and j respectively.
func (e *Engine) Score(ctx context.Context, i, j string) (float64, error) {
	revI, err := e.fetchRevSets(ctx, i)
	if err != nil {
		return 0, err
	}
	revJ, err := e.fetchRevSets(ctx, j)
	if err != nil {
		return 0, err
	}
	return e.score(revI, revJ), nil
}

func (e *Engine) score(revI, revJ revSets) float64 {
	total := e.totalWeight()
	if total == 0 {
		return 0
	}
	var weighted float64
	for _, m := range e.matrices {
		weighted += m.Weight() * jaccard(revI[m.Label()], revJ[m.Label()])
	}
	return weighted / total
}

// overwriteScript atomically replaces S(i)'s contents: it deletes any
// existing entries, inserts the supplied (score, member) pairs, and trims
// to the top `limit` entries by score (0 means unbounded). Running this as
// a single EVAL is what makes recomputation atomic from a reader's
// perspective: a concurrent read of S(i) sees either the pre- or the
// fully-rebuilt row, never a partial one.
const overwriteScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
redis.call("DEL", key)
for i = 2, #ARGV, 2 do
	redis.call("ZADD", key, ARGV[i], ARGV[i+1])
end
if limit > 0 then
	local card = redis.call("ZCARD", key)
	if card > limit then
		redis.call("ZREMRANGEBYRANK", key, 0, card - limit - 1)
	end
end
return redis.call("ZCARD", key)
`

// Recompute rebuilds S(i) from scratch: discover candidates, score each
// against i across all matrices, and atomically overwrite S(i) with the
// positive-scoring entries, trimmed to the top L.
func (e *Engine) Recompute(ctx context.Context, item string) error {
	candidates, err := e.Candidates(ctx, item)
	if err != nil {
		return err
	}

	revI, err := e.fetchRevSets(ctx, item)
	if err != nil {
		return err
	}

	type scored struct {
		member string
		score  float64
	}
	scores := make([]scored, 0, len(candidates))

	for _, j := range candidates {
		revJ, err := e.fetchRevSets(ctx, j)
		if err != nil {
			return err
		}
		s := e.score(revI, revJ)
		if s > 0 {
			scores = append(scores, scored{member: j, score: s})
		}
	}

	// Sort by score desc, member asc so the argument list is stable for
	// easier debugging/tests. The order does not affect what a limit
	// keeps: overwriteScript trims by the store's own ascending rank, so
	// among entries tied at the cutoff the lower member ids are dropped.
	sort.Slice(scores, func(a, b int) bool {
		if scores[a].score != scores[b].score {
			return scores[a].score > scores[b].score
		}
		return scores[a].member < scores[b].member
	})

	args := make([]interface{}, 0, 1+2*len(scores))
	args = append(args, e.limit)
	for _, sc := range scores {
		args = append(args, sc.score, sc.member)
	}

	_, err = e.s.EvalScript(ctx, overwriteScript, []string{e.similarityKey(item)}, args...)
	return err
}

// Row returns S(item) as descending-score (member, score) pairs, ties
// broken by ascending member id. Callers (Recommender.SimilaritiesFor,
// the prediction query) apply exclusion and pagination on top of this.
//
// Fetched ascending first: the store's native tie-break for equal scores
// is ascending member id, and a stable descending-score sort on top of
// that preserves ascending order within each tied group, which a plain
// descending store query would not (it would reverse the tie order too).
func (e *Engine) Row(ctx context.Context, item string) ([]store.ScoredMember, error) {
	rows, err := e.s.ZRangeByRank(ctx, e.similarityKey(item), 0, -1, false, true)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(a, b int) bool { return rows[a].Score > rows[b].Score })
	return rows, nil
}

// Delete removes S(item) entirely, used when an item is deleted outright.
func (e *Engine) Delete(ctx context.Context, item string) error {
	return e.s.Del(ctx, e.similarityKey(item))
}

// unionScript computes π(j) = Σ σ_cached(i, j) over the given similarity
// rows as a single server-side ZUNIONSTORE into a scratch key, reading the
// result back and cleaning up the scratch key, all in one round trip.
const unionScript = `
local temp = KEYS[1]
local n = #KEYS - 1
local src = {}
for i = 1, n do
	src[i] = KEYS[i + 1]
end
redis.call("ZUNIONSTORE", temp, n, unpack(src))
local result = redis.call("ZRANGE", temp, 0, -1, "WITHSCORES")
redis.call("DEL", temp)
return result
`

// Union aggregates the similarity rows S(i) for each i in items, returning
// every j with a positive summed score, ties broken by ascending member id
// once the caller sorts descending by score (the raw result is ascending,
// matching Row's convention).
func (e *Engine) Union(ctx context.Context, items []string) ([]store.ScoredMember, error) {
	if len(items) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(items)+1)
	keys = append(keys, e.unionScratchKey())
	for _, item := range items {
		keys = append(keys, e.similarityKey(item))
	}
	raw, err := e.s.EvalScript(ctx, unionScript, keys)
	if err != nil {
		return nil, err
	}
	return parseFlatScoredMembers(raw)
}

// unionScratchKey is namespaced per call with a random suffix so that
// concurrent PredictionsFor calls against the same recommender don't
// clobber each other's temporary ZUNIONSTORE destination.
func (e *Engine) unionScratchKey() string {
	var buf [16]byte
	_, _ = rand.Read(buf[:])
	return fmt.Sprintf("%s:predict:scratch:%s", e.prefix, hex.EncodeToString(buf[:]))
}

func parseFlatScoredMembers(raw interface{}) ([]store.ScoredMember, error) {
	flat, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("similarity: unexpected union script result type %T", raw)
	}
	out := make([]store.ScoredMember, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		member, _ := flat[i].(string)
		scoreStr, _ := flat[i+1].(string)
		var score float64
		if _, err := fmt.Sscanf(scoreStr, "%g", &score); err != nil {
			return nil, fmt.Errorf("similarity: parsing union score %q: %w", scoreStr, err)
		}
		out = append(out, store.ScoredMember{Member: member, Score: score})
	}
	return out, nil
}

// Matrices exposes the configured matrix handles, in configuration order.
func (e *Engine) Matrices() []*matrix.Matrix { return e.matrices }
