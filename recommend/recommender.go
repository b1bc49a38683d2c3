// Package recommend composes a named collection of weighted matrices and
// their similarity engine into the Recommender contract: dispatching
// mutations to the right matrix, triggering the similarity engine, and
// owning the keyspace namespace for one logical recommender.
package recommend

import (
	"context"
	"fmt"

	"github.com/lunchtime-labs/predictor-go/matrix"
	"github.com/lunchtime-labs/predictor-go/similarity"
	"github.com/lunchtime-labs/predictor-go/store"
)

// MatrixSpec configures one named input matrix: its label (unique within a
// Recommender) and its positive weight w_M.
type MatrixSpec struct {
	Label  string
	Weight float64
}

// Config is the public client contract: a class name (keyspace prefix),
// an ordered list of matrix specs, and a similarity limit L (0 means
// unbounded).
type Config struct {
	ClassName string
	Matrices  []MatrixSpec
	Limit     int64
}

// ProcessMode selects between the immediate ("bang") and deferred
// mutation variants, modeled as an orthogonal flag rather than parallel
// method names.
type ProcessMode int

const (
	// Deferred performs the mutation without reprocessing; S(·) is left
	// stale until a later ProcessItems/Process call.
	Deferred ProcessMode = iota
	// Immediate reprocesses every item whose S(·) could have changed as
	// part of the same call.
	Immediate
)

// Recommender is a configured composition of matrices sharing a keyspace
// prefix.
type Recommender struct {
	prefix   string
	limit    int64
	matrices map[string]*matrix.Matrix
	order    []string
	engine   *similarity.Engine
	s        store.Store
}

// New validates cfg (duplicate labels, non-positive weights — configuration
// errors, surfaced synchronously before any store I/O) and constructs a
// Recommender bound to s.
func New(s store.Store, cfg Config) (*Recommender, error) {
	if cfg.ClassName == "" {
		return nil, ErrEmptyClassName{}
	}

	matrices := make(map[string]*matrix.Matrix, len(cfg.Matrices))
	order := make([]string, 0, len(cfg.Matrices))
	engineMatrices := make([]*matrix.Matrix, 0, len(cfg.Matrices))

	for _, spec := range cfg.Matrices {
		if _, exists := matrices[spec.Label]; exists {
			return nil, ErrDuplicateMatrixLabel{Label: spec.Label}
		}
		if spec.Weight <= 0 {
			return nil, ErrNonPositiveWeight{Label: spec.Label, Weight: spec.Weight}
		}
		m := matrix.New(s, cfg.ClassName, spec.Label, spec.Weight)
		matrices[spec.Label] = m
		order = append(order, spec.Label)
		engineMatrices = append(engineMatrices, m)
	}

	return &Recommender{
		prefix:   cfg.ClassName,
		limit:    cfg.Limit,
		matrices: matrices,
		order:    order,
		engine:   similarity.New(s, cfg.ClassName, engineMatrices, cfg.Limit),
		s:        s,
	}, nil
}

func (r *Recommender) matrixByLabel(label string) (*matrix.Matrix, error) {
	m, ok := r.matrices[label]
	if !ok {
		return nil, ErrUnknownMatrix{Label: label}
	}
	return m, nil
}

// affectedBySetMutation computes the focal item set a mutation of setID in
// the given matrix could change: the mutated items themselves, plus every
// item that now co-occurs with them through that set.
func (r *Recommender) affectedBySetMutation(ctx context.Context, m *matrix.Matrix, setID string, items []string) ([]string, error) {
	seen := make(map[string]struct{}, len(items))
	affected := make([]string, 0, len(items))
	add := func(item string) {
		if _, ok := seen[item]; ok {
			return
		}
		seen[item] = struct{}{}
		affected = append(affected, item)
	}
	for _, item := range items {
		add(item)
	}
	coOccurrents, err := m.MembersOfSet(ctx, setID)
	if err != nil {
		return nil, err
	}
	for _, item := range coOccurrents {
		add(item)
	}
	return affected, nil
}

func validateItems(items []string) error {
	for _, item := range items {
		if item == "" {
			return ErrEmptyItemID{}
		}
	}
	return nil
}

// AddToMatrix inserts items into set_id within the named matrix. When mode
// is Immediate, every item whose S(·) could have changed (the mutated
// items plus their new co-occurrents via set_id) is reprocessed before
// returning.
func (r *Recommender) AddToMatrix(ctx context.Context, label, setID string, items []string, mode ProcessMode) error {
	if setID == "" {
		return ErrEmptySetID{}
	}
	if err := validateItems(items); err != nil {
		return err
	}
	m, err := r.matrixByLabel(label)
	if err != nil {
		return err
	}
	if err := m.Add(ctx, setID, items...); err != nil {
		return err
	}
	return r.maybeReprocess(ctx, mode, m, setID, items)
}

// RemoveFromMatrix is the symmetric counterpart of AddToMatrix.
func (r *Recommender) RemoveFromMatrix(ctx context.Context, label, setID string, items []string, mode ProcessMode) error {
	if setID == "" {
		return ErrEmptySetID{}
	}
	if err := validateItems(items); err != nil {
		return err
	}
	m, err := r.matrixByLabel(label)
	if err != nil {
		return err
	}
	if err := m.Remove(ctx, setID, items...); err != nil {
		return err
	}
	return r.maybeReprocess(ctx, mode, m, setID, items)
}

func (r *Recommender) maybeReprocess(ctx context.Context, mode ProcessMode, m *matrix.Matrix, setID string, items []string) error {
	if mode != Immediate {
		return nil
	}
	affected, err := r.affectedBySetMutation(ctx, m, setID, items)
	if err != nil {
		return err
	}
	return r.ProcessItems(ctx, affected...)
}

// DeleteFromMatrix removes item from the named matrix everywhere and
// reprocesses it. Deletion from one matrix reprocesses across ALL
// matrices (not just the touched one), since σ is cross-matrix.
func (r *Recommender) DeleteFromMatrix(ctx context.Context, label, item string) error {
	if item == "" {
		return ErrEmptyItemID{}
	}
	m, err := r.matrixByLabel(label)
	if err != nil {
		return err
	}
	coOccurrents, err := r.engine.Candidates(ctx, item)
	if err != nil {
		return err
	}
	if err := m.DeleteItem(ctx, item); err != nil {
		return err
	}
	toProcess := append([]string{item}, coOccurrents...)
	return r.ProcessItems(ctx, toProcess...)
}

// DeleteItem removes item from every matrix, deletes S(item), and
// reprocesses every former co-occurrent.
func (r *Recommender) DeleteItem(ctx context.Context, item string) error {
	if item == "" {
		return ErrEmptyItemID{}
	}
	coOccurrents, err := r.engine.Candidates(ctx, item)
	if err != nil {
		return err
	}
	for _, label := range r.order {
		if err := r.matrices[label].DeleteItem(ctx, item); err != nil {
			return err
		}
	}
	if err := r.engine.Delete(ctx, item); err != nil {
		return err
	}
	return r.ProcessItems(ctx, coOccurrents...)
}

// ProcessItems explicitly reprocesses each given item.
func (r *Recommender) ProcessItems(ctx context.Context, items ...string) error {
	for _, item := range items {
		if err := r.engine.Recompute(ctx, item); err != nil {
			return fmt.Errorf("recommend: reprocessing %q: %w", item, err)
		}
	}
	return nil
}

// Clean deletes every key under the recommender's prefix; it is the
// authoritative recovery mechanism after any external inconsistency.
func (r *Recommender) Clean(ctx context.Context) error {
	keys, err := r.s.Keys(ctx, r.prefix+":*")
	if err != nil {
		return err
	}
	return r.s.Del(ctx, keys...)
}
