// Package sparse provides the compressed feature vectors produced by the vectorizer
// and consumed by the balancer, the trainers and the evaluator.
package sparse

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Vector is a sparse vector with strictly increasing indices.
type Vector struct {
	Indices []int     `json:"indices"`
	Values  []float64 `json:"values"`
}

// Matrix is a row-major collection of sparse vectors sharing one dimension.
type Matrix struct {
	Rows []Vector
	Dim  int
}

// NewVector builds a vector from an index → value map, dropping zeros.
func NewVector(entries map[int]float64) Vector {
	idx := make([]int, 0, len(entries))
	for i, v := range entries {
		if v != 0 {
			idx = append(idx, i)
		}
	}
	sort.Ints(idx)
	vals := make([]float64, len(idx))
	for k, i := range idx {
		vals[k] = entries[i]
	}
	return Vector{Indices: idx, Values: vals}
}

// NNZ returns the number of stored entries.
func (v Vector) NNZ() int { return len(v.Indices) }

// At returns the value at index i, or zero when absent.
func (v Vector) At(i int) float64 {
	k := sort.SearchInts(v.Indices, i)
	if k < len(v.Indices) && v.Indices[k] == i {
		return v.Values[k]
	}
	return 0
}

// Dot returns the inner product of two sparse vectors.
func (v Vector) Dot(o Vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			sum += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// DotDense returns the inner product with a dense weight vector.
func (v Vector) DotDense(w []float64) float64 {
	var sum float64
	for k, i := range v.Indices {
		if i < len(w) {
			sum += v.Values[k] * w[i]
		}
	}
	return sum
}

// SquaredNorm returns the squared L2 norm.
func (v Vector) SquaredNorm() float64 {
	return floats.Dot(v.Values, v.Values)
}

// Normalize returns a copy scaled to unit L2 norm. The zero vector is returned as is.
func (v Vector) Normalize() Vector {
	out := v.Clone()
	if n := floats.Norm(out.Values, 2); n != 0 {
		floats.Scale(1/n, out.Values)
	}
	return out
}

// Clone returns a deep copy.
func (v Vector) Clone() Vector {
	return Vector{
		Indices: append([]int(nil), v.Indices...),
		Values:  append([]float64(nil), v.Values...),
	}
}

// Interpolate returns v + gap*(o - v).
func (v Vector) Interpolate(o Vector, gap float64) Vector {
	idx := make([]int, 0, len(v.Indices)+len(o.Indices))
	vals := make([]float64, 0, cap(idx))
	push := func(i int, x float64) {
		if x != 0 {
			idx = append(idx, i)
			vals = append(vals, x)
		}
	}
	i, j := 0, 0
	for i < len(v.Indices) || j < len(o.Indices) {
		switch {
		case j >= len(o.Indices) || (i < len(v.Indices) && v.Indices[i] < o.Indices[j]):
			push(v.Indices[i], v.Values[i]*(1-gap))
			i++
		case i >= len(v.Indices) || o.Indices[j] < v.Indices[i]:
			push(o.Indices[j], gap*o.Values[j])
			j++
		default:
			push(v.Indices[i], v.Values[i]+gap*(o.Values[j]-v.Values[i]))
			i++
			j++
		}
	}
	return Vector{Indices: idx, Values: vals}
}

// SquaredDistance returns the squared Euclidean distance given precomputed squared norms.
func SquaredDistance(a, b Vector, normA, normB float64) float64 {
	d := normA + normB - 2*a.Dot(b)
	if d < 0 {
		return 0
	}
	return d
}

// Equal reports whether two vectors hold exactly the same entries.
func (v Vector) Equal(o Vector) bool {
	if len(v.Indices) != len(o.Indices) {
		return false
	}
	for k := range v.Indices {
		if v.Indices[k] != o.Indices[k] {
			return false
		}
	}
	return floats.Equal(v.Values, o.Values)
}

// Len returns the number of rows.
func (m Matrix) Len() int { return len(m.Rows) }

// Subset returns the rows at the given positions, sharing the underlying vectors.
func (m Matrix) Subset(rows []int) Matrix {
	out := Matrix{Rows: make([]Vector, len(rows)), Dim: m.Dim}
	for k, r := range rows {
		out.Rows[k] = m.Rows[r]
	}
	return out
}

// Column is one feature's non-zero entries, sorted by value then row.
type Column struct {
	Rows   []int
	Values []float64
}

// Columns returns the column-major view of the matrix with entries sorted by value.
func (m Matrix) Columns() []Column {
	cols := make([]Column, m.Dim)
	for r, row := range m.Rows {
		for k, f := range row.Indices {
			cols[f].Rows = append(cols[f].Rows, r)
			cols[f].Values = append(cols[f].Values, row.Values[k])
		}
	}
	for f := range cols {
		sort.Sort(byValue(cols[f]))
	}
	return cols
}

type byValue Column

func (c byValue) Len() int { return len(c.Rows) }
func (c byValue) Less(i, j int) bool {
	if c.Values[i] != c.Values[j] {
		return c.Values[i] < c.Values[j]
	}
	return c.Rows[i] < c.Rows[j]
}
func (c byValue) Swap(i, j int) {
	c.Rows[i], c.Rows[j] = c.Rows[j], c.Rows[i]
	c.Values[i], c.Values[j] = c.Values[j], c.Values[i]
}
