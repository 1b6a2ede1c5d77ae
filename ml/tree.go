package ml

import (
	"math/rand"
	"sort"
)

// treeNode is one node of a regression tree, stored flat so a whole tree
// serializes as a single slice. Internal nodes route on Feature/Threshold;
// leaves carry the mean target of their training rows in Value.
type treeNode struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Value     float64 `json:"v"`
	Leaf      bool    `json:"leaf"`
}

// Tree is a regression tree grown by recursive variance-reducing splits.
type Tree struct {
	Nodes []treeNode `json:"nodes"`
}

// Predict walks the tree for one feature vector.
func (t *Tree) Predict(features []float64) float64 {
	if len(t.Nodes) == 0 {
		return 0
	}
	i := 0
	for {
		node := t.Nodes[i]
		if node.Leaf {
			return node.Value
		}
		if features[node.Feature] <= node.Threshold {
			i = node.Left
		} else {
			i = node.Right
		}
	}
}

type treeBuilder struct {
	x        [][]float64
	y        []float64
	maxDepth int
	minLeaf  int
	mtry     int
	rng      *rand.Rand
	nodes    []treeNode
}

func growTree(x [][]float64, y []float64, indices []int, maxDepth, minLeaf, mtry int, rng *rand.Rand) Tree {
	b := &treeBuilder{x: x, y: y, maxDepth: maxDepth, minLeaf: minLeaf, mtry: mtry, rng: rng}
	b.build(indices, 0)
	return Tree{Nodes: b.nodes}
}

// build appends the subtree for indices and returns its root position.
func (b *treeBuilder) build(indices []int, depth int) int {
	pos := len(b.nodes)
	b.nodes = append(b.nodes, treeNode{Leaf: true, Value: mean(b.y, indices)})

	if depth >= b.maxDepth || len(indices) < 2*b.minLeaf {
		return pos
	}

	feature, threshold, ok := b.bestSplit(indices)
	if !ok {
		return pos
	}

	var left, right []int
	for _, i := range indices {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < b.minLeaf || len(right) < b.minLeaf {
		return pos
	}

	leftPos := b.build(left, depth+1)
	rightPos := b.build(right, depth+1)
	b.nodes[pos] = treeNode{Feature: feature, Threshold: threshold, Left: leftPos, Right: rightPos}
	return pos
}

// bestSplit scans a random feature subset for the threshold that minimizes
// the summed squared error of the two children. Candidate thresholds sit
// between consecutive distinct values, evaluated with prefix sums so each
// feature costs one sort plus a linear pass.
func (b *treeBuilder) bestSplit(indices []int) (feature int, threshold float64, ok bool) {
	nFeatures := len(b.x[indices[0]])
	candidates := b.rng.Perm(nFeatures)
	if b.mtry < len(candidates) {
		candidates = candidates[:b.mtry]
	}

	sorted := make([]int, len(indices))
	bestSSE := totalSSE(b.y, indices)
	if bestSSE <= 0 {
		return 0, 0, false
	}

	for _, f := range candidates {
		copy(sorted, indices)
		sort.Slice(sorted, func(i, j int) bool { return b.x[sorted[i]][f] < b.x[sorted[j]][f] })

		var sumLeft, sqLeft float64
		sumTotal, sqTotal := sums(b.y, sorted)

		for k := 0; k < len(sorted)-1; k++ {
			yv := b.y[sorted[k]]
			sumLeft += yv
			sqLeft += yv * yv

			cur, next := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
			if cur == next {
				continue
			}
			nLeft, nRight := k+1, len(sorted)-k-1
			if nLeft < b.minLeaf || nRight < b.minLeaf {
				continue
			}

			sumRight := sumTotal - sumLeft
			sqRight := sqTotal - sqLeft
			sse := sqLeft - sumLeft*sumLeft/float64(nLeft) +
				sqRight - sumRight*sumRight/float64(nRight)
			if sse < bestSSE {
				bestSSE = sse
				feature = f
				threshold = (cur + next) / 2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

func mean(y []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	var sum float64
	for _, i := range indices {
		sum += y[i]
	}
	return sum / float64(len(indices))
}

func sums(y []float64, indices []int) (sum, sumSq float64) {
	for _, i := range indices {
		sum += y[i]
		sumSq += y[i] * y[i]
	}
	return sum, sumSq
}

func totalSSE(y []float64, indices []int) float64 {
	sum, sumSq := sums(y, indices)
	n := float64(len(indices))
	if n == 0 {
		return 0
	}
	return sumSq - sum*sum/n
}
