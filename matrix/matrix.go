// Package matrix implements per-named-relation storage: a forward mapping
// from set id to the items it contains, and a reverse index from item to
// the sets containing it, both backed by the store's unordered-set
// primitives.
package matrix

import (
	"context"
	"fmt"

	"github.com/lunchtime-labs/predictor-go/store"
)

// Matrix is a single named, weighted bipartite relation between sets and
// items within one recommender's keyspace.
type Matrix struct {
	prefix string
	label  string
	weight float64
	s      store.Store
}

// New constructs a Matrix bound to the given recommender prefix, label, and
// weight. Weight must be strictly positive; callers (the Recommender's
// constructor) are responsible for rejecting non-positive weights before
// calling New.
func New(s store.Store, prefix, label string, weight float64) *Matrix {
	return &Matrix{prefix: prefix, label: label, weight: weight, s: s}
}

// Label returns the matrix's configured name.
func (m *Matrix) Label() string { return m.label }

// Weight returns the matrix's configured weight w_M.
func (m *Matrix) Weight() float64 { return m.weight }

func (m *Matrix) forwardKey(setID string) string {
	return fmt.Sprintf("%s:%s:sets:%s", m.prefix, m.label, setID)
}

func (m *Matrix) reverseKey(item string) string {
	return fmt.Sprintf("%s:%s:items:%s", m.prefix, m.label, item)
}

// Add inserts each item into F_M(set_id) and adds set_id to Rev_M(item) for
// every item, repairing both directions of the forward/reverse invariant.
// Idempotent per (set_id, item) pair.
func (m *Matrix) Add(ctx context.Context, setID string, items ...string) error {
	if len(items) == 0 {
		return nil
	}
	if err := m.s.SAdd(ctx, m.forwardKey(setID), items...); err != nil {
		return err
	}
	for _, item := range items {
		if err := m.s.SAdd(ctx, m.reverseKey(item), setID); err != nil {
			return err
		}
	}
	return nil
}

// Remove is the symmetric counterpart of Add.
func (m *Matrix) Remove(ctx context.Context, setID string, items ...string) error {
	if len(items) == 0 {
		return nil
	}
	if err := m.s.SRem(ctx, m.forwardKey(setID), items...); err != nil {
		return err
	}
	for _, item := range items {
		if err := m.s.SRem(ctx, m.reverseKey(item), setID); err != nil {
			return err
		}
	}
	return nil
}

// MembersOfSet returns F_M(set_id).
func (m *Matrix) MembersOfSet(ctx context.Context, setID string) ([]string, error) {
	return m.s.SMembers(ctx, m.forwardKey(setID))
}

// SetsContaining returns Rev_M(item).
func (m *Matrix) SetsContaining(ctx context.Context, item string) ([]string, error) {
	return m.s.SMembers(ctx, m.reverseKey(item))
}

// CardinalityOfSetsContaining returns |Rev_M(item)| without materializing
// the member list.
func (m *Matrix) CardinalityOfSetsContaining(ctx context.Context, item string) (int64, error) {
	return m.s.SCard(ctx, m.reverseKey(item))
}

// DeleteItem removes item from every set it appears in (via Rev_M(item))
// and clears Rev_M(item) itself.
func (m *Matrix) DeleteItem(ctx context.Context, item string) error {
	sets, err := m.SetsContaining(ctx, item)
	if err != nil {
		return err
	}
	for _, setID := range sets {
		if err := m.s.SRem(ctx, m.forwardKey(setID), item); err != nil {
			return err
		}
	}
	return m.s.Del(ctx, m.reverseKey(item))
}

// DeleteSet removes set_id from Rev_M(i) for each i in F_M(set_id), then
// deletes F_M(set_id) itself.
func (m *Matrix) DeleteSet(ctx context.Context, setID string) error {
	items, err := m.MembersOfSet(ctx, setID)
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := m.s.SRem(ctx, m.reverseKey(item), setID); err != nil {
			return err
		}
	}
	return m.s.Del(ctx, m.forwardKey(setID))
}

// AllItems enumerates every item this matrix has ever recorded in any
// forward set, by unioning all forward sets whose set ids are discovered
// via key scan. It is used by the full reprocess pass when the recommender
// has no all_items bookkeeping set to accelerate the scan.
func (m *Matrix) AllItems(ctx context.Context) ([]string, error) {
	pattern := fmt.Sprintf("%s:%s:sets:*", m.prefix, m.label)
	keys, err := m.s.Keys(ctx, pattern)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}
	return m.s.SUnion(ctx, keys...)
}

// Key helpers are exported narrowly for callers that address the matrix's
// store keys directly.

// ReverseKey exposes the store key backing Rev_M(item).
func (m *Matrix) ReverseKey(item string) string { return m.reverseKey(item) }

// ForwardKey exposes the store key backing F_M(set_id). The Similarity
// Engine uses it to SUNION the forward sets containing an item, one SUNION
// per matrix, when discovering candidates.
func (m *Matrix) ForwardKey(setID string) string { return m.forwardKey(setID) }
