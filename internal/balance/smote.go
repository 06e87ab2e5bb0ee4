// Package balance equalises class counts by synthetic minority oversampling.
package balance

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"spam-classifier/internal/apperr"
	"spam-classifier/internal/dataset"
	"spam-classifier/internal/sparse"
)

// Options configures SMOTE.
type Options struct {
	K    int   `yaml:"k_neighbors"`
	Seed int64 `yaml:"seed"`
}

// DefaultOptions uses five neighbours and seed 42.
func DefaultOptions() Options {
	return Options{K: 5, Seed: 42}
}

// SMOTE oversamples every minority class up to the majority count. Synthetic rows are
// appended after the original rows, class by class in label order. The output is a
// pure function of the input and the seed.
func SMOTE(X sparse.Matrix, y []dataset.Label, opts Options) (sparse.Matrix, []dataset.Label, error) {
	if len(X.Rows) != len(y) {
		return sparse.Matrix{}, nil, fmt.Errorf("%w: %d rows but %d labels", apperr.ErrValidation, len(X.Rows), len(y))
	}
	if opts.K <= 0 {
		opts.K = 5
	}

	byClass := make(map[dataset.Label][]int)
	for i, l := range y {
		byClass[l] = append(byClass[l], i)
	}
	classes := make([]dataset.Label, 0, len(byClass))
	majority := 0
	for l, rows := range byClass {
		classes = append(classes, l)
		if len(rows) > majority {
			majority = len(rows)
		}
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })

	outX := sparse.Matrix{Rows: append([]sparse.Vector(nil), X.Rows...), Dim: X.Dim}
	outY := append([]dataset.Label(nil), y...)

	rng := rand.New(rand.NewSource(opts.Seed))
	for _, l := range classes {
		rows := byClass[l]
		need := majority - len(rows)
		if need == 0 {
			continue
		}
		if len(rows) < 2 {
			return sparse.Matrix{}, nil, fmt.Errorf("%w: class %s has %d sample(s), at least 2 are needed to oversample",
				apperr.ErrValidation, l, len(rows))
		}
		k := opts.K
		if k > len(rows)-1 {
			k = len(rows) - 1
		}

		members := X.Subset(rows)
		neighbors, err := nearestNeighbors(members, k)
		if err != nil {
			return sparse.Matrix{}, nil, err
		}

		for n := 0; n < need; n++ {
			pick := rng.Intn(len(rows) * k)
			sample, nn := pick/k, neighbors[pick/k][pick%k]
			gap := rng.Float64()
			outX.Rows = append(outX.Rows, members.Rows[sample].Interpolate(members.Rows[nn], gap))
			outY = append(outY, l)
		}
	}
	return outX, outY, nil
}

// nearestNeighbors returns, for every row, the k closest other rows by Euclidean
// distance, ties broken by position.
func nearestNeighbors(m sparse.Matrix, k int) ([][]int, error) {
	norms := make([]float64, m.Len())
	for i, r := range m.Rows {
		norms[i] = r.SquaredNorm()
	}

	result := make([][]int, m.Len())
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range m.Rows {
		g.Go(func() error {
			type cand struct {
				row  int
				dist float64
			}
			cands := make([]cand, 0, m.Len()-1)
			for j := range m.Rows {
				if j == i {
					continue
				}
				cands = append(cands, cand{row: j, dist: sparse.SquaredDistance(m.Rows[i], m.Rows[j], norms[i], norms[j])})
			}
			sort.Slice(cands, func(a, b int) bool {
				if cands[a].dist != cands[b].dist {
					return cands[a].dist < cands[b].dist
				}
				return cands[a].row < cands[b].row
			})
			nn := make([]int, k)
			for n := 0; n < k; n++ {
				nn[n] = cands[n].row
			}
			result[i] = nn
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
