package recommend

import "github.com/lunchtime-labs/predictor-go/store"

// QueryOptions controls pagination, score visibility, and exclusion for
// SimilaritiesFor and PredictionsFor. The zero value matches the
// defaults: offset 0, limit unbounded, scores hidden, no exclusions.
type QueryOptions struct {
	// Limit caps the number of results returned after exclusion and
	// offset are applied. 0 means unbounded.
	Limit int
	// Offset skips this many results (after exclusion filtering) before
	// collecting Limit results.
	Offset int
	// WithScores includes each result's score; when false, Result.Score
	// is left at its zero value.
	WithScores bool
	// Exclude lists items to drop from the result regardless of score.
	Exclude []string
}

func (o QueryOptions) excludeSet() map[string]struct{} {
	set := make(map[string]struct{}, len(o.Exclude))
	for _, item := range o.Exclude {
		set[item] = struct{}{}
	}
	return set
}

// Result is one (item, score) entry in a similarity or prediction result
// list, ordered by descending score with ties broken by ascending item id.
type Result struct {
	Item  string
	Score float64
}

func paginate(rows []Result, offset, limit int) []Result {
	if offset > 0 {
		if offset >= len(rows) {
			return nil
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func scoredMembersToResults(rows []store.ScoredMember, exclude map[string]struct{}) []Result {
	out := make([]Result, 0, len(rows))
	for _, row := range rows {
		if _, skip := exclude[row.Member]; skip {
			continue
		}
		out = append(out, Result{Item: row.Member, Score: row.Score})
	}
	return out
}
