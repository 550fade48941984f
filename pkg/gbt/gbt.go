// Package gbt implements gradient-boosted regression trees with a squared
// error objective. The learner is deterministic for a fixed seed and the
// fitted model is JSON-serializable, so artifacts can be persisted and
// reloaded byte-for-byte.
package gbt

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Params holds the boosting hyperparameters.
type Params struct {
	Trees        int     // number of boosting rounds
	MaxDepth     int     // maximum tree depth
	LearningRate float64 // shrinkage applied to each tree's output
	Subsample    float64 // row sampling fraction per tree (0,1]
	ColSample    float64 // column sampling fraction per tree (0,1]
	Seed         int64   // RNG seed for row/column sampling
}

// DefaultParams returns the fixed production hyperparameters.
func DefaultParams() Params {
	return Params{
		Trees:        100,
		MaxDepth:     5,
		LearningRate: 0.1,
		Subsample:    0.8,
		ColSample:    0.8,
		Seed:         42,
	}
}

// Node is one tree node. Leaf nodes have Left == -1.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Value     float64 `json:"v"`
	Gain      float64 `json:"g"`
}

// Tree is one fitted regression tree stored as a flat node array.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) predict(row []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Left < 0 {
			return n.Value
		}
		if row[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Regressor is a fitted gradient-boosted ensemble.
type Regressor struct {
	Base         float64 `json:"base"`
	LearningRate float64 `json:"learning_rate"`
	NumFeatures  int     `json:"num_features"`
	Trees        []Tree  `json:"trees"`
}

// Train fits a regressor on x (rows of features) and y (targets).
func Train(x [][]float64, y []float64, p Params) (*Regressor, error) {
	n := len(x)
	if n == 0 || len(y) != n {
		return nil, fmt.Errorf("gbt: need matching non-empty x (%d) and y (%d)", n, len(y))
	}
	numFeatures := len(x[0])
	if numFeatures == 0 {
		return nil, fmt.Errorf("gbt: zero-width feature rows")
	}
	for i, row := range x {
		if len(row) != numFeatures {
			return nil, fmt.Errorf("gbt: row %d has %d features, want %d", i, len(row), numFeatures)
		}
	}
	if p.Trees <= 0 || p.MaxDepth <= 0 || p.LearningRate <= 0 {
		return nil, fmt.Errorf("gbt: invalid params %+v", p)
	}

	base := mean(y)
	pred := make([]float64, n)
	for i := range pred {
		pred[i] = base
	}

	rng := rand.New(rand.NewSource(p.Seed))
	model := &Regressor{
		Base:         base,
		LearningRate: p.LearningRate,
		NumFeatures:  numFeatures,
		Trees:        make([]Tree, 0, p.Trees),
	}

	residual := make([]float64, n)
	for round := 0; round < p.Trees; round++ {
		for i := range residual {
			residual[i] = y[i] - pred[i]
		}

		rows := sampleIndices(rng, n, p.Subsample)
		cols := sampleIndices(rng, numFeatures, p.ColSample)

		tree := growTree(x, residual, rows, cols, p.MaxDepth)
		model.Trees = append(model.Trees, tree)

		for i := range pred {
			pred[i] += p.LearningRate * tree.predict(x[i])
		}
	}
	return model, nil
}

// Predict scores one feature row.
func (r *Regressor) Predict(row []float64) (float64, error) {
	if len(row) != r.NumFeatures {
		return 0, fmt.Errorf("gbt: row has %d features, model wants %d", len(row), r.NumFeatures)
	}
	out := r.Base
	for i := range r.Trees {
		out += r.LearningRate * r.Trees[i].predict(row)
	}
	return out, nil
}

// PredictBatch scores many rows.
func (r *Regressor) PredictBatch(rows [][]float64) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		v, err := r.Predict(row)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// FeatureImportances returns per-feature split gains, normalized to sum to 1.
// Features never used for a split score 0.
func (r *Regressor) FeatureImportances() []float64 {
	gains := make([]float64, r.NumFeatures)
	total := 0.0
	for _, t := range r.Trees {
		for _, n := range t.Nodes {
			if n.Left >= 0 {
				gains[n.Feature] += n.Gain
				total += n.Gain
			}
		}
	}
	if total > 0 {
		for i := range gains {
			gains[i] /= total
		}
	}
	return gains
}

// sampleIndices draws a sorted, unique sample of round(frac*n) indices.
// frac >= 1 returns all indices without touching the RNG state order.
func sampleIndices(rng *rand.Rand, n int, frac float64) []int {
	k := n
	if frac > 0 && frac < 1 {
		k = int(math.Round(frac * float64(n)))
		if k < 1 {
			k = 1
		}
	}
	idx := rng.Perm(n)[:k]
	sort.Ints(idx)
	return idx
}

// growTree fits one regression tree to the residuals over the sampled rows
// and columns, splitting greedily on sum-of-squares reduction.
func growTree(x [][]float64, target []float64, rows, cols []int, maxDepth int) Tree {
	t := Tree{}
	var build func(rows []int, depth int) int
	build = func(rows []int, depth int) int {
		id := len(t.Nodes)
		t.Nodes = append(t.Nodes, Node{Feature: -1, Left: -1, Right: -1, Value: meanAt(target, rows)})

		if depth >= maxDepth || len(rows) < 2 {
			return id
		}
		feat, thr, gain, left, right := bestSplit(x, target, rows, cols)
		if feat < 0 {
			return id
		}
		t.Nodes[id].Feature = feat
		t.Nodes[id].Threshold = thr
		t.Nodes[id].Gain = gain
		l := build(left, depth+1)
		r := build(right, depth+1)
		t.Nodes[id].Left = l
		t.Nodes[id].Right = r
		return id
	}
	build(rows, 0)
	return t
}

// bestSplit scans every candidate column for the split that maximizes SSE
// reduction. Returns feat = -1 when no split improves on the parent.
func bestSplit(x [][]float64, target []float64, rows, cols []int) (feat int, thr, gain float64, left, right []int) {
	feat = -1

	var parentSum, parentSum2 float64
	for _, r := range rows {
		parentSum += target[r]
		parentSum2 += target[r] * target[r]
	}
	n := float64(len(rows))
	parentSSE := parentSum2 - parentSum*parentSum/n

	order := make([]int, len(rows))
	for _, c := range cols {
		copy(order, rows)
		sort.Slice(order, func(i, j int) bool { return x[order[i]][c] < x[order[j]][c] })

		var leftSum, leftSum2 float64
		for i := 0; i < len(order)-1; i++ {
			r := order[i]
			leftSum += target[r]
			leftSum2 += target[r] * target[r]

			// can only split between distinct feature values
			if x[order[i]][c] == x[order[i+1]][c] {
				continue
			}
			nl := float64(i + 1)
			nr := n - nl
			rightSum := parentSum - leftSum
			rightSum2 := parentSum2 - leftSum2
			sse := (leftSum2 - leftSum*leftSum/nl) + (rightSum2 - rightSum*rightSum/nr)
			g := parentSSE - sse
			if g > gain {
				gain = g
				feat = c
				thr = (x[order[i]][c] + x[order[i+1]][c]) / 2
				left = append(left[:0], order[:i+1]...)
				right = append(right[:0], order[i+1:]...)
			}
		}
	}
	return feat, thr, gain, left, right
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := 0.0
	for _, v := range xs {
		s += v
	}
	return s / float64(len(xs))
}

func meanAt(xs []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	s := 0.0
	for _, i := range idx {
		s += xs[i]
	}
	return s / float64(len(idx))
}
