package model

import (
	"context"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"spam-classifier/internal/dataset"
	"spam-classifier/internal/sparse"
)

// SVMParams configures the linear SVM.
type SVMParams struct {
	C           float64 `yaml:"c"`
	Tolerance   float64 `yaml:"tolerance"`
	MaxIter     int     `yaml:"max_iter"`
	Probability bool    `yaml:"probability"`
	CVFolds     int     `yaml:"cv_folds"`
}

// DefaultSVMParams returns C=1 with Platt calibration over 5 folds.
func DefaultSVMParams() SVMParams {
	return SVMParams{C: 1.0, Tolerance: 1e-3, MaxIter: 1000, Probability: true, CVFolds: 5}
}

// LinearSVM is a hinge-loss linear classifier with an optional Platt sigmoid.
type LinearSVM struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
	// P(spam | f) = 1 / (1 + exp(ProbA*f + ProbB)).
	ProbA      float64 `json:"prob_a"`
	ProbB      float64 `json:"prob_b"`
	Calibrated bool    `json:"calibrated"`
	Vectorizer string  `json:"vectorizer_version"`
}

func (m *LinearSVM) Kind() Kind { return KindSVM }

func (m *LinearSVM) VectorizerVersion() string { return m.Vectorizer }

func (m *LinearSVM) DecisionFunction(x sparse.Vector) float64 {
	return x.DotDense(m.Weights) + m.Bias
}

func (m *LinearSVM) Predict(x sparse.Vector) dataset.Label {
	return labelOf(m.DecisionFunction(x))
}

// PredictProba falls back to a logistic of the raw margin when the model was trained
// without calibration.
func (m *LinearSVM) PredictProba(x sparse.Vector) float64 {
	f := m.DecisionFunction(x)
	if !m.Calibrated {
		return 1 / (1 + math.Exp(-f))
	}
	return sigmoidPredict(f, m.ProbA, m.ProbB)
}

func trainSVM(X sparse.Matrix, y []dataset.Label, p Params) (*LinearSVM, error) {
	sp := p.SVM
	if sp.C <= 0 {
		sp.C = 1
	}
	if sp.Tolerance <= 0 {
		sp.Tolerance = 1e-3
	}
	if sp.MaxIter <= 0 {
		sp.MaxIter = 1000
	}

	w, b := solveDual(X, y, sp, p.Seed)
	m := &LinearSVM{Weights: w, Bias: b, Vectorizer: p.VectorizerVersion}

	if sp.Probability {
		dec, err := crossValidatedDecisions(X, y, sp, p.Seed)
		if err != nil {
			return nil, err
		}
		m.ProbA, m.ProbB = sigmoidTrain(dec, y)
		m.Calibrated = true
	}
	return m, nil
}

// solveDual runs dual coordinate descent for the L1-loss SVM. The bias is treated as
// an extra feature fixed at 1.
func solveDual(X sparse.Matrix, y []dataset.Label, sp SVMParams, seed int64) ([]float64, float64) {
	n := X.Len()
	w := make([]float64, X.Dim)
	var b float64
	alpha := make([]float64, n)
	qd := make([]float64, n)
	for i, row := range X.Rows {
		qd[i] = row.SquaredNorm() + 1
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	rng := rand.New(rand.NewSource(seed))

	for iter := 0; iter < sp.MaxIter; iter++ {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		maxPG, minPG := math.Inf(-1), math.Inf(1)

		for _, i := range order {
			yi := sign(y[i])
			row := X.Rows[i]
			g := yi*(row.DotDense(w)+b) - 1

			pg := g
			switch {
			case alpha[i] == 0:
				pg = math.Min(g, 0)
			case alpha[i] == sp.C:
				pg = math.Max(g, 0)
			}
			maxPG = math.Max(maxPG, pg)
			minPG = math.Min(minPG, pg)

			if math.Abs(pg) > 1e-12 {
				old := alpha[i]
				alpha[i] = math.Min(math.Max(alpha[i]-g/qd[i], 0), sp.C)
				d := (alpha[i] - old) * yi
				for k, f := range row.Indices {
					w[f] += d * row.Values[k]
				}
				b += d
			}
		}
		if maxPG-minPG < sp.Tolerance {
			break
		}
	}
	return w, b
}

// crossValidatedDecisions returns out-of-fold decision values for Platt scaling.
// Folds are stratified and trained concurrently; each fold writes only its own rows.
func crossValidatedDecisions(X sparse.Matrix, y []dataset.Label, sp SVMParams, seed int64) ([]float64, error) {
	folds := sp.CVFolds
	if folds < 2 {
		folds = 5
	}
	n := X.Len()
	if folds > n {
		folds = n
	}

	assign := make([]int, n)
	rng := rand.New(rand.NewSource(seed))
	for _, l := range dataset.Labels {
		var rows []int
		for i, yl := range y {
			if yl == l {
				rows = append(rows, i)
			}
		}
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		for k, r := range rows {
			assign[r] = k % folds
		}
	}

	dec := make([]float64, n)
	g, _ := errgroup.WithContext(context.Background())
	for f := 0; f < folds; f++ {
		g.Go(func() error {
			var trainRows, testRows []int
			for i, a := range assign {
				if a == f {
					testRows = append(testRows, i)
				} else {
					trainRows = append(trainRows, i)
				}
			}
			trainY := make([]dataset.Label, len(trainRows))
			for k, r := range trainRows {
				trainY[k] = y[r]
			}

			counts := dataset.CountLabels(trainY)
			if len(counts) < 2 {
				// A single-class fold scores every held-out row with that class.
				v := -1.0
				if counts[dataset.Spam] > 0 {
					v = 1
				}
				for _, r := range testRows {
					dec[r] = v
				}
				return nil
			}

			w, b := solveDual(X.Subset(trainRows), trainY, sp, seed+int64(f)+1)
			for _, r := range testRows {
				dec[r] = X.Rows[r].DotDense(w) + b
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dec, nil
}
