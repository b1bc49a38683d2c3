package recommend

import "context"

// SimilaritiesFor reads S(item), excluding item itself and opts.Exclude,
// returning results by descending score with offset/limit applied after
// exclusion.
func (r *Recommender) SimilaritiesFor(ctx context.Context, item string, opts QueryOptions) ([]Result, error) {
	if item == "" {
		return nil, ErrEmptyItemID{}
	}
	rows, err := r.engine.Row(ctx, item)
	if err != nil {
		return nil, err
	}

	exclude := opts.excludeSet()
	exclude[item] = struct{}{}

	results := scoredMembersToResults(rows, exclude)
	results = paginate(results, opts.Offset, opts.Limit)

	if !opts.WithScores {
		for i := range results {
			results[i].Score = 0
		}
	}
	return results, nil
}
