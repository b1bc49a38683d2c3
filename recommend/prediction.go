package recommend

import (
	"context"
	"sort"
)

// PredictionInput selects the item set I used by PredictionsFor. Exactly
// one of Items or (InputID, MatrixLabel) should be set; when MatrixLabel
// is non-empty it takes precedence and I is resolved as
// F_{MatrixLabel}(InputID) at call time.
type PredictionInput struct {
	// Items is an explicit input item set.
	Items []string
	// InputID, together with MatrixLabel, resolves I from a matrix's
	// forward set at call time instead of an explicit item list.
	InputID     string
	MatrixLabel string
}

func (r *Recommender) resolveInput(ctx context.Context, in PredictionInput) ([]string, error) {
	if in.MatrixLabel != "" {
		m, err := r.matrixByLabel(in.MatrixLabel)
		if err != nil {
			return nil, err
		}
		if in.InputID == "" {
			return nil, ErrEmptySetID{}
		}
		return m.MembersOfSet(ctx, in.InputID)
	}
	return in.Items, nil
}

// PredictionsFor ranks items by π(j) = Σ_{i ∈ I} σ_cached(i, j) for
// j ∉ I ∪ exclusion_set, descending by score with ties broken by ascending
// item id, pagination applied after exclusion.
func (r *Recommender) PredictionsFor(ctx context.Context, in PredictionInput, opts QueryOptions) ([]Result, error) {
	items, err := r.resolveInput(ctx, in)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyItemSet{}
	}

	rows, err := r.engine.Union(ctx, items)
	if err != nil {
		return nil, err
	}

	exclude := opts.excludeSet()
	for _, item := range items {
		exclude[item] = struct{}{}
	}

	results := scoredMembersToResults(rows, exclude)
	sort.SliceStable(results, func(a, b int) bool { return results[a].Score > results[b].Score })
	results = paginate(results, opts.Offset, opts.Limit)

	if !opts.WithScores {
		for i := range results {
			results[i].Score = 0
		}
	}
	return results, nil
}
