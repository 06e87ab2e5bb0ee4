package model

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"spam-classifier/internal/apperr"
	"spam-classifier/internal/dataset"
	"spam-classifier/internal/sparse"
)

// XGBParams configures the boosted tree ensemble.
type XGBParams struct {
	Estimators     int     `yaml:"n_estimators" json:"n_estimators"`
	MaxDepth       int     `yaml:"max_depth" json:"max_depth"`
	LearningRate   float64 `yaml:"learning_rate" json:"learning_rate"`
	Lambda         float64 `yaml:"lambda" json:"lambda"`
	Gamma          float64 `yaml:"gamma" json:"gamma"`
	MinChildWeight float64 `yaml:"min_child_weight" json:"min_child_weight"`
}

// DefaultXGBParams returns 300 depth-5 trees with learning rate 0.1.
func DefaultXGBParams() XGBParams {
	return XGBParams{Estimators: 300, MaxDepth: 5, LearningRate: 0.1, Lambda: 1, Gamma: 0, MinChildWeight: 1}
}

// TreeNode is one node of a regression tree. Leaves have Feature == -1.
type TreeNode struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v,omitempty"`
}

// BoostedTrees is a gradient-boosted ensemble of regression trees over log-odds.
type BoostedTrees struct {
	Trees      [][]TreeNode `json:"trees"`
	BaseMargin float64      `json:"base_margin"`
	Dim        int          `json:"dim"`
	Params     XGBParams    `json:"params"`
	Vectorizer string       `json:"vectorizer_version"`
}

func (m *BoostedTrees) Kind() Kind { return KindXGB }

func (m *BoostedTrees) VectorizerVersion() string { return m.Vectorizer }

// DecisionFunction returns the ensemble margin (log-odds of spam).
func (m *BoostedTrees) DecisionFunction(x sparse.Vector) float64 {
	margin := m.BaseMargin
	for _, tree := range m.Trees {
		margin += leafValue(tree, x)
	}
	return margin
}

func (m *BoostedTrees) PredictProba(x sparse.Vector) float64 {
	return 1 / (1 + math.Exp(-m.DecisionFunction(x)))
}

func (m *BoostedTrees) Predict(x sparse.Vector) dataset.Label {
	return labelOf(m.DecisionFunction(x))
}

func leafValue(tree []TreeNode, x sparse.Vector) float64 {
	n := 0
	for tree[n].Feature >= 0 {
		if x.At(tree[n].Feature) < tree[n].Threshold {
			n = tree[n].Left
		} else {
			n = tree[n].Right
		}
	}
	return tree[n].Value
}

func (m *BoostedTrees) validate() error {
	for t, tree := range m.Trees {
		if len(tree) == 0 {
			return fmt.Errorf("tree %d is empty", t)
		}
		for i, node := range tree {
			if node.Feature < 0 {
				continue
			}
			if node.Left <= i || node.Right <= i || node.Left >= len(tree) || node.Right >= len(tree) {
				return fmt.Errorf("tree %d node %d has invalid children", t, i)
			}
		}
	}
	return nil
}

func trainXGB(X sparse.Matrix, y []dataset.Label, p Params) (*BoostedTrees, error) {
	xp := p.XGB
	if xp.Estimators <= 0 || xp.MaxDepth <= 0 || xp.LearningRate <= 0 {
		return nil, fmt.Errorf("%w: n_estimators, max_depth and learning_rate must be positive", apperr.ErrTraining)
	}

	n := X.Len()
	target := make([]float64, n)
	for i, l := range y {
		if l == dataset.Spam {
			target[i] = 1
		}
	}

	b := &treeBuilder{X: X, cols: X.Columns(), params: xp}
	m := &BoostedTrees{Dim: X.Dim, Params: xp, Vectorizer: p.VectorizerVersion}
	margin := make([]float64, n)
	grad := make([]float64, n)
	hess := make([]float64, n)

	for t := 0; t < xp.Estimators; t++ {
		for i := range margin {
			prob := 1 / (1 + math.Exp(-margin[i]))
			grad[i] = prob - target[i]
			hess[i] = math.Max(prob*(1-prob), 1e-16)
		}
		tree, leafOf, err := b.build(grad, hess)
		if err != nil {
			return nil, err
		}
		for i := range margin {
			margin[i] += tree[leafOf[i]].Value
		}
		m.Trees = append(m.Trees, tree)
	}
	return m, nil
}

type treeBuilder struct {
	X      sparse.Matrix
	cols   []sparse.Column
	params XGBParams
}

type split struct {
	gain      float64
	feature   int
	threshold float64
	gl, hl    float64
}

func (s split) better(o split) bool {
	if s.gain != o.gain {
		return s.gain > o.gain
	}
	return s.feature < o.feature
}

// build grows one tree level by level with exact greedy split search. It returns the
// nodes and, for every row, the index of the leaf it ends in.
func (b *treeBuilder) build(grad, hess []float64) ([]TreeNode, []int, error) {
	n := len(grad)
	nodeOf := make([]int, n)
	var gs, hs []float64
	var g0, h0 float64
	for i := range grad {
		g0 += grad[i]
		h0 += hess[i]
	}
	nodes := []TreeNode{{Feature: -1}}
	gs, hs = append(gs, g0), append(hs, h0)
	active := []int{0}

	for depth := 0; depth < b.params.MaxDepth && len(active) > 0; depth++ {
		best, err := b.findSplits(active, nodeOf, grad, hess, gs, hs)
		if err != nil {
			return nil, nil, err
		}

		var next []int
		splitNodes := make(map[int]bool)
		for slot, node := range active {
			s := best[slot]
			if s.feature < 0 || s.gain <= 0 {
				continue
			}
			left, right := len(nodes), len(nodes)+1
			nodes = append(nodes, TreeNode{Feature: -1}, TreeNode{Feature: -1})
			gs = append(gs, s.gl, gs[node]-s.gl)
			hs = append(hs, s.hl, hs[node]-s.hl)
			nodes[node] = TreeNode{Feature: s.feature, Threshold: s.threshold, Left: left, Right: right}
			splitNodes[node] = true
			next = append(next, left, right)
		}
		if len(next) == 0 {
			break
		}
		for i, node := range nodeOf {
			if !splitNodes[node] {
				continue
			}
			nd := nodes[node]
			if b.X.Rows[i].At(nd.Feature) < nd.Threshold {
				nodeOf[i] = nd.Left
			} else {
				nodeOf[i] = nd.Right
			}
		}
		active = next
	}

	for i := range nodes {
		if nodes[i].Feature < 0 {
			nodes[i].Value = -gs[i] / (hs[i] + b.params.Lambda) * b.params.LearningRate
		}
	}
	return nodes, nodeOf, nil
}

// findSplits returns the best split of every active node. Features are scanned in
// parallel chunks and merged with a deterministic tie break on feature index.
func (b *treeBuilder) findSplits(active, nodeOf []int, grad, hess, gs, hs []float64) ([]split, error) {
	slotOf := make(map[int]int, len(active))
	for slot, node := range active {
		slotOf[node] = slot
	}

	workers := runtime.GOMAXPROCS(0)
	dim := len(b.cols)
	chunk := (dim + workers - 1) / workers
	if chunk == 0 {
		chunk = 1
	}
	partial := make([][]split, 0, workers)
	for lo := 0; lo < dim; lo += chunk {
		partial = append(partial, nil)
	}

	g, _ := errgroup.WithContext(context.Background())
	for w := range partial {
		lo := w * chunk
		hi := min(lo+chunk, dim)
		g.Go(func() error {
			partial[w] = b.scanFeatures(lo, hi, active, slotOf, nodeOf, grad, hess, gs, hs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := emptySplits(len(active))
	for _, res := range partial {
		for slot, s := range res {
			if s.feature >= 0 && (best[slot].feature < 0 || s.better(best[slot])) {
				best[slot] = s
			}
		}
	}
	return best, nil
}

func emptySplits(n int) []split {
	out := make([]split, n)
	for i := range out {
		out[i] = split{feature: -1, gain: math.Inf(-1)}
	}
	return out
}

type scanState struct {
	gnz, hnz   float64
	cnz        int
	gl, hl     float64
	last       float64
	started    bool
	zeroPassed bool
}

func (b *treeBuilder) scanFeatures(lo, hi int, active []int, slotOf map[int]int, nodeOf []int, grad, hess, gs, hs []float64) []split {
	p := b.params
	best := emptySplits(len(active))
	state := make([]scanState, len(active))
	counts := make([]int, len(active))
	for _, node := range nodeOf {
		if slot, ok := slotOf[node]; ok {
			counts[slot]++
		}
	}
	var touched []int

	score := func(g, h float64) float64 { return g * g / (h + p.Lambda) }

	for f := lo; f < hi; f++ {
		col := b.cols[f]
		touched = touched[:0]
		for _, r := range col.Rows {
			slot, ok := slotOf[nodeOf[r]]
			if !ok {
				continue
			}
			st := &state[slot]
			if st.cnz == 0 {
				touched = append(touched, slot)
			}
			st.gnz += grad[r]
			st.hnz += hess[r]
			st.cnz++
		}

		addGroup := func(slot int, v, g, h float64) {
			st := &state[slot]
			node := active[slot]
			if st.started && v != st.last {
				gr, hr := gs[node]-st.gl, hs[node]-st.hl
				if st.hl >= p.MinChildWeight && hr >= p.MinChildWeight {
					gain := 0.5*(score(st.gl, st.hl)+score(gr, hr)-score(gs[node], hs[node])) - p.Gamma
					if gain > best[slot].gain {
						best[slot] = split{gain: gain, feature: f, threshold: (st.last + v) / 2, gl: st.gl, hl: st.hl}
					}
				}
			}
			st.gl += g
			st.hl += h
			st.last = v
			st.started = true
		}
		addZeros := func(slot int) {
			st := &state[slot]
			st.zeroPassed = true
			if counts[slot] > st.cnz {
				node := active[slot]
				addGroup(slot, 0, gs[node]-st.gnz, hs[node]-st.hnz)
			}
		}

		for k, r := range col.Rows {
			slot, ok := slotOf[nodeOf[r]]
			if !ok {
				continue
			}
			v := col.Values[k]
			if v > 0 && !state[slot].zeroPassed {
				addZeros(slot)
			}
			addGroup(slot, v, grad[r], hess[r])
		}
		for _, slot := range touched {
			if !state[slot].zeroPassed {
				addZeros(slot)
			}
			state[slot] = scanState{}
		}
	}
	return best
}
