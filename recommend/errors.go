package recommend

import "fmt"

// ErrDuplicateMatrixLabel is a configuration error: two matrices
// were registered under the same label when the Recommender was built.
type ErrDuplicateMatrixLabel struct {
	Label string
}

func (e ErrDuplicateMatrixLabel) Error() string {
	return fmt.Sprintf("recommend: duplicate matrix label %q", e.Label)
}

// ErrNonPositiveWeight is a Configuration error: a matrix weight must be
// strictly positive.
type ErrNonPositiveWeight struct {
	Label  string
	Weight float64
}

func (e ErrNonPositiveWeight) Error() string {
	return fmt.Sprintf("recommend: matrix %q has non-positive weight %v", e.Label, e.Weight)
}

// ErrUnknownMatrix is a Configuration error: a call referenced a matrix
// label that was never registered with the Recommender.
type ErrUnknownMatrix struct {
	Label string
}

func (e ErrUnknownMatrix) Error() string {
	return fmt.Sprintf("recommend: unknown matrix label %q", e.Label)
}

// ErrEmptyClassName is a Configuration error: a Recommender was constructed
// with an empty keyspace prefix.
type ErrEmptyClassName struct{}

func (e ErrEmptyClassName) Error() string { return "recommend: class name must not be empty" }

// ErrEmptyItemID is an argument error: an item identifier was
// the empty string.
type ErrEmptyItemID struct{}

func (e ErrEmptyItemID) Error() string { return "recommend: item id must not be empty" }

// ErrEmptySetID is an Argument error: a set identifier was the empty
// string.
type ErrEmptySetID struct{}

func (e ErrEmptySetID) Error() string { return "recommend: set id must not be empty" }

// ErrEmptyItemSet is an Argument error: predictions_for was called with no
// resolvable input items (neither an explicit item set nor a non-empty
// matrix set).
type ErrEmptyItemSet struct{}

func (e ErrEmptyItemSet) Error() string { return "recommend: prediction input item set is empty" }
