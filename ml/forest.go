package ml

import (
	"fmt"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ForestConfig controls how a forest is grown.
type ForestConfig struct {
	Trees    int   `json:"trees"`
	MaxDepth int   `json:"max_depth"`
	MinLeaf  int   `json:"min_leaf"`
	Seed     int64 `json:"seed"`
}

// Forest averages the predictions of bootstrap-trained regression trees.
type Forest struct {
	Trees  []Tree       `json:"trees"`
	Config ForestConfig `json:"config"`
}

// TrainForest grows cfg.Trees trees, each on a bootstrap resample of the
// rows and a per-split random feature subset of size max(1, features/3).
// Tree i seeds its own generator from cfg.Seed+i, so training is
// deterministic regardless of how many trees run in parallel.
func TrainForest(x [][]float64, y []float64, cfg ForestConfig) (*Forest, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("forest: no training rows")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("forest: %d feature rows but %d targets", len(x), len(y))
	}
	if cfg.Trees <= 0 {
		return nil, fmt.Errorf("forest: tree count must be positive, got %d", cfg.Trees)
	}
	if cfg.MaxDepth <= 0 {
		return nil, fmt.Errorf("forest: max depth must be positive, got %d", cfg.MaxDepth)
	}
	if cfg.MinLeaf <= 0 {
		cfg.MinLeaf = 1
	}

	mtry := len(x[0]) / 3
	if mtry < 1 {
		mtry = 1
	}

	forest := &Forest{Trees: make([]Tree, cfg.Trees), Config: cfg}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range forest.Trees {
		i := i
		g.Go(func() error {
			rng := rand.New(rand.NewSource(cfg.Seed + int64(i)))
			indices := make([]int, len(x))
			for j := range indices {
				indices[j] = rng.Intn(len(x))
			}
			forest.Trees[i] = growTree(x, y, indices, cfg.MaxDepth, cfg.MinLeaf, mtry, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return forest, nil
}

// Predict returns the mean prediction across all trees.
func (f *Forest) Predict(features []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].Predict(features)
	}
	return sum / float64(len(f.Trees))
}
