package similarity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunchtime-labs/predictor-go/internal/testutil"
	"github.com/lunchtime-labs/predictor-go/matrix"
	"github.com/lunchtime-labs/predictor-go/similarity"
	"github.com/lunchtime-labs/predictor-go/store"
)

// setupScenario1 builds a small cross-matrix fixture: weights
// users=3, tags=2, topics=1.
func setupScenario1(t *testing.T) (*similarity.Engine, []*matrix.Matrix) {
	t.Helper()
	client, cleanup := testutil.StartRedis(t)
	t.Cleanup(cleanup)
	s := store.NewRedisStore(client)
	prefix := testutil.UniquePrefix(t)

	users := matrix.New(s, prefix, "users", 3)
	tags := matrix.New(s, prefix, "tags", 2)
	topics := matrix.New(s, prefix, "topics", 1)
	ms := []*matrix.Matrix{users, tags, topics}

	ctx := context.Background()
	require.NoError(t, users.Add(ctx, "u1", "c1", "c2"))
	require.NoError(t, users.Add(ctx, "u2", "c1", "c3"))
	require.NoError(t, tags.Add(ctx, "t1", "c1", "c2"))
	require.NoError(t, topics.Add(ctx, "p1", "c1", "c3"))

	return similarity.New(s, prefix, ms, 0), ms
}

// TestBasicSimilarity works the scoring formula by hand against the fixture
// above: σ(c1,c2) = (3·(1/2) + 2·(1/1) + 1·0)/6 = 3.5/6 and σ(c1,c3) =
// (3·(1/2) + 2·0 + 1·(1/1))/6 = 2.5/6. Both users-matrix terms are 1/2
// because Rev_users(c1) = {u1, u2} while Rev_users(c2) and Rev_users(c3)
// each contain exactly one of those two sets.
func TestBasicSimilarity(t *testing.T) {
	ctx := context.Background()
	engine, _ := setupScenario1(t)

	require.NoError(t, engine.Recompute(ctx, "c1"))

	row, err := engine.Row(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, row, 2)

	byMember := map[string]float64{}
	for _, r := range row {
		byMember[r.Member] = r.Score
	}
	assert.InDelta(t, 3.5/6, byMember["c2"], 1e-9)
	assert.InDelta(t, 2.5/6, byMember["c3"], 1e-9)

	// Descending score: c2 (3.5/6) before c3 (2.5/6).
	assert.Equal(t, "c2", row[0].Member)
	assert.Equal(t, "c3", row[1].Member)
}

// TestTopKCap checks that with a cap of L=1, only the highest-scoring
// entry survives a recomputation.
func TestTopKCap(t *testing.T) {
	ctx := context.Background()
	client, cleanup := testutil.StartRedis(t)
	t.Cleanup(cleanup)
	s := store.NewRedisStore(client)
	prefix := testutil.UniquePrefix(t)

	users := matrix.New(s, prefix, "users", 3)
	tags := matrix.New(s, prefix, "tags", 2)
	topics := matrix.New(s, prefix, "topics", 1)
	require.NoError(t, users.Add(ctx, "u1", "c1", "c2"))
	require.NoError(t, users.Add(ctx, "u2", "c1", "c3"))
	require.NoError(t, tags.Add(ctx, "t1", "c1", "c2"))
	require.NoError(t, topics.Add(ctx, "p1", "c1", "c3"))

	engine := similarity.New(s, prefix, []*matrix.Matrix{users, tags, topics}, 1)
	require.NoError(t, engine.Recompute(ctx, "c1"))

	row, err := engine.Row(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, row, 1)
	assert.Equal(t, "c2", row[0].Member)
}

// TestSelfExclusion checks that an item never appears in its own similarity row.
func TestSelfExclusion(t *testing.T) {
	ctx := context.Background()
	engine, _ := setupScenario1(t)
	require.NoError(t, engine.Recompute(ctx, "c1"))

	row, err := engine.Row(ctx, "c1")
	require.NoError(t, err)
	for _, r := range row {
		assert.NotEqual(t, "c1", r.Member)
	}
}

// TestScoreBounds checks that every cached score lies in [0, 1].
func TestScoreBounds(t *testing.T) {
	ctx := context.Background()
	engine, _ := setupScenario1(t)
	require.NoError(t, engine.Recompute(ctx, "c1"))

	row, err := engine.Row(ctx, "c1")
	require.NoError(t, err)
	for _, r := range row {
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}
}

// TestNormalization checks that when the engine is configured with a single
// matrix, σ(i, j) equals the unweighted Jaccard for that matrix. With more
// matrices configured, the divisor is the sum of every matrix's weight, even
// for matrices in which neither item appears.
func TestNormalization(t *testing.T) {
	ctx := context.Background()
	client, cleanup := testutil.StartRedis(t)
	t.Cleanup(cleanup)
	s := store.NewRedisStore(client)
	prefix := testutil.UniquePrefix(t)

	onlyMatrix := matrix.New(s, prefix, "users", 3)
	require.NoError(t, onlyMatrix.Add(ctx, "u1", "c1", "c2"))

	engine := similarity.New(s, prefix, []*matrix.Matrix{onlyMatrix}, 0)
	require.NoError(t, engine.Recompute(ctx, "c1"))

	row, err := engine.Row(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, row, 1)
	// Rev(c1) = Rev(c2) = {u1}: unweighted Jaccard is 1.
	assert.InDelta(t, 1.0, row[0].Score, 1e-9)
}

// TestRecomputeIsIdempotent exercises the "full reprocess convergence" law:
// running Recompute twice from the same matrix contents yields the same
// row.
func TestRecomputeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	engine, _ := setupScenario1(t)

	require.NoError(t, engine.Recompute(ctx, "c1"))
	first, err := engine.Row(ctx, "c1")
	require.NoError(t, err)

	require.NoError(t, engine.Recompute(ctx, "c1"))
	second, err := engine.Row(ctx, "c1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// TestUnionAggregatesCachedScores covers the prediction query's building
// block: Union sums S(i) rows across the given items.
func TestUnionAggregatesCachedScores(t *testing.T) {
	ctx := context.Background()
	engine, _ := setupScenario1(t)

	require.NoError(t, engine.Recompute(ctx, "c1"))
	require.NoError(t, engine.Recompute(ctx, "c2"))

	rows, err := engine.Union(ctx, []string{"c1", "c2"})
	require.NoError(t, err)

	byMember := map[string]float64{}
	for _, r := range rows {
		byMember[r.Member] = r.Score
	}
	// S(c1) has c3 at 2.5/6; S(c2) holds only c1 (c2's only candidate), so
	// c3's sum comes from S(c1) alone. c1 and c2 are in the union too: a
	// real prediction query excludes them, but Union itself does no
	// filtering.
	assert.InDelta(t, 2.5/6, byMember["c3"], 1e-9)
}
