package model

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"spam-classifier/internal/dataset"
)

// sigmoidTrain fits P(spam|f) = 1/(1+exp(A*f+B)) to decision values with Platt's
// regularised targets. The negative log-likelihood is minimised with Newton's method.
func sigmoidTrain(dec []float64, y []dataset.Label) (float64, float64) {
	// sigma keeps the Hessian positive definite when all decision values coincide.
	const sigma = 1e-12

	var prior1, prior0 float64
	for _, l := range y {
		if l == dataset.Spam {
			prior1++
		} else {
			prior0++
		}
	}
	hiTarget := (prior1 + 1) / (prior1 + 2)
	loTarget := 1 / (prior0 + 2)
	t := make([]float64, len(y))
	for i, l := range y {
		if l == dataset.Spam {
			t[i] = hiTarget
		} else {
			t[i] = loTarget
		}
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			var f float64
			for i, d := range dec {
				fApB := d*x[0] + x[1]
				if fApB >= 0 {
					f += t[i]*fApB + math.Log1p(math.Exp(-fApB))
				} else {
					f += (t[i]-1)*fApB + math.Log1p(math.Exp(fApB))
				}
			}
			return f
		},
		Grad: func(grad, x []float64) {
			grad[0], grad[1] = 0, 0
			for i, d := range dec {
				d1 := t[i] - plattP(d*x[0]+x[1])
				grad[0] += d * d1
				grad[1] += d1
			}
		},
		Hess: func(hess *mat.SymDense, x []float64) {
			h11, h22, h21 := sigma, sigma, 0.0
			for _, d := range dec {
				p := plattP(d*x[0] + x[1])
				d2 := p * (1 - p)
				h11 += d * d * d2
				h22 += d2
				h21 += d * d2
			}
			hess.SetSym(0, 0, h11)
			hess.SetSym(1, 1, h22)
			hess.SetSym(0, 1, h21)
		},
	}

	start := []float64{0, math.Log((prior0 + 1) / (prior1 + 1))}
	settings := &optimize.Settings{GradientThreshold: 1e-5, MajorIterations: 100}
	// A line search stalling near the optimum is reported as an error; result still
	// holds the best point found.
	result, _ := optimize.Minimize(problem, start, settings, &optimize.Newton{})
	if result == nil || len(result.X) != 2 || math.IsNaN(result.X[0]) || math.IsNaN(result.X[1]) {
		return start[0], start[1]
	}
	return result.X[0], result.X[1]
}

// plattP is 1/(1+exp(fApB)) evaluated without overflow.
func plattP(fApB float64) float64 {
	if fApB >= 0 {
		e := math.Exp(-fApB)
		return e / (1 + e)
	}
	return 1 / (1 + math.Exp(fApB))
}

func sigmoidPredict(f, a, b float64) float64 {
	return plattP(f*a + b)
}
