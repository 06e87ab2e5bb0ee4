package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"spam-classifier/internal/apperr"
)

// SplitOptions controls the held-out split.
type SplitOptions struct {
	TestRatio float64 `json:"test_ratio" yaml:"test_ratio"`
	Seed      int64   `json:"seed" yaml:"seed"`
}

// Split holds row positions into the source slice.
type Split struct {
	Train []int
	Test  []int
}

// StratifiedSplit shuffles each class independently with the seeded generator and
// moves round(ratio*n) rows of every class to the test partition. The result is a
// pure function of the labels, the ratio and the seed.
func StratifiedSplit(labels []Label, opts SplitOptions) (Split, error) {
	if opts.TestRatio <= 0 || opts.TestRatio >= 1 {
		return Split{}, fmt.Errorf("%w: test ratio %v must be in (0, 1)", apperr.ErrValidation, opts.TestRatio)
	}

	byClass := make(map[Label][]int)
	for i, l := range labels {
		byClass[l] = append(byClass[l], i)
	}
	classes := make([]Label, 0, len(byClass))
	for l := range byClass {
		classes = append(classes, l)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })

	rng := rand.New(rand.NewSource(opts.Seed))
	var split Split
	for _, l := range classes {
		rows := byClass[l]
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })

		nTest := int(math.Round(opts.TestRatio * float64(len(rows))))
		if nTest >= len(rows) && len(rows) > 1 {
			nTest = len(rows) - 1
		}
		split.Test = append(split.Test, rows[:nTest]...)
		split.Train = append(split.Train, rows[nTest:]...)
	}
	sort.Ints(split.Train)
	sort.Ints(split.Test)

	if len(split.Test) == 0 {
		return Split{}, fmt.Errorf("%w: not enough samples to create a test set", apperr.ErrValidation)
	}
	return split, nil
}

// Select returns the records at the given positions.
func Select(records []Record, rows []int) []Record {
	out := make([]Record, len(rows))
	for k, r := range rows {
		out[k] = records[r]
	}
	return out
}
