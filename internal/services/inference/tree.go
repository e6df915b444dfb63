package inference

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"BrentCast/internal/domain/models"
	domsvc "BrentCast/internal/domain/service"
)

// TreeNode is one node of an XGBoost JSON dump. Leaves carry Leaf; split
// nodes carry Split/SplitCondition and route to Yes when x < condition.
type TreeNode struct {
	NodeID         int        `json:"nodeid" msgpack:"nodeid"`
	Split          string     `json:"split,omitempty" msgpack:"split,omitempty"`
	SplitCondition float64    `json:"split_condition,omitempty" msgpack:"split_condition,omitempty"`
	Yes            int        `json:"yes,omitempty" msgpack:"yes,omitempty"`
	No             int        `json:"no,omitempty" msgpack:"no,omitempty"`
	Missing        int        `json:"missing,omitempty" msgpack:"missing,omitempty"`
	Leaf           *float64   `json:"leaf,omitempty" msgpack:"leaf,omitempty"`
	Children       []TreeNode `json:"children,omitempty" msgpack:"children,omitempty"`
}

// TreeEnsembleArtifact is the persisted regressor.
type TreeEnsembleArtifact struct {
	BaseScore   float64    `json:"base_score" msgpack:"base_score"`
	NumFeatures int        `json:"num_features" msgpack:"num_features"`
	Trees       []TreeNode `json:"trees" msgpack:"trees"`
}

type compiledNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	yes       int
	no        int
	missing   int
}

type compiledTree struct {
	root  int
	nodes map[int]compiledNode
}

// TreeEnsemble is an additive gradient-boosted regressor over a flat feature vector.
// It is immutable after construction.
type TreeEnsemble struct {
	baseScore   float64
	numFeatures int
	trees       []compiledTree
}

// NewTreeEnsemble validates and compiles an artifact.
func NewTreeEnsemble(a TreeEnsembleArtifact) (*TreeEnsemble, error) {
	if a.NumFeatures <= 0 {
		return nil, fmt.Errorf("gbtree: num_features must be positive, got %d", a.NumFeatures)
	}
	if len(a.Trees) == 0 {
		return nil, fmt.Errorf("gbtree: no trees")
	}
	te := &TreeEnsemble{baseScore: a.BaseScore, numFeatures: a.NumFeatures}
	for i := range a.Trees {
		ct := compiledTree{root: a.Trees[i].NodeID, nodes: map[int]compiledNode{}}
		if err := compileNode(&a.Trees[i], a.NumFeatures, ct.nodes); err != nil {
			return nil, fmt.Errorf("gbtree: tree %d: %w", i, err)
		}
		for id, n := range ct.nodes {
			if n.leaf {
				continue
			}
			for _, next := range []int{n.yes, n.no, n.missing} {
				// child ids are always above the parent, which rules out cycles
				if _, ok := ct.nodes[next]; !ok || next <= id {
					return nil, fmt.Errorf("gbtree: tree %d node %d routes to invalid node %d", i, id, next)
				}
			}
		}
		te.trees = append(te.trees, ct)
	}
	return te, nil
}

func compileNode(n *TreeNode, numFeatures int, out map[int]compiledNode) error {
	if _, dup := out[n.NodeID]; dup {
		return fmt.Errorf("duplicate node id %d", n.NodeID)
	}
	if n.Leaf != nil {
		out[n.NodeID] = compiledNode{leaf: true, value: *n.Leaf}
		return nil
	}
	feat, err := parseFeature(n.Split)
	if err != nil {
		return fmt.Errorf("node %d: %w", n.NodeID, err)
	}
	if feat >= numFeatures {
		return fmt.Errorf("node %d: feature f%d outside %d features", n.NodeID, feat, numFeatures)
	}
	missing := n.Missing
	if missing == 0 {
		missing = n.Yes
	}
	out[n.NodeID] = compiledNode{feature: feat, threshold: n.SplitCondition, yes: n.Yes, no: n.No, missing: missing}
	for i := range n.Children {
		if err := compileNode(&n.Children[i], numFeatures, out); err != nil {
			return err
		}
	}
	return nil
}

func parseFeature(split string) (int, error) {
	if !strings.HasPrefix(split, "f") {
		return 0, fmt.Errorf("unsupported split feature %q", split)
	}
	idx, err := strconv.Atoi(split[1:])
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("unsupported split feature %q", split)
	}
	return idx, nil
}

// NumFeatures is the expected input width.
func (t *TreeEnsemble) NumFeatures() int { return t.numFeatures }

// Predict scores a single row. Input may be [n] or [1, n]; output is [1].
func (t *TreeEnsemble) Predict(ctx context.Context, input models.Tensor) (models.Tensor, error) {
	if err := ctx.Err(); err != nil {
		return models.Tensor{}, err
	}
	ok := input.ShapeEquals(t.numFeatures) || input.ShapeEquals(1, t.numFeatures)
	if !ok || len(input.Data) != t.numFeatures {
		return models.Tensor{}, &domsvc.ShapeMismatchError{Where: "gbtree input", Want: []int{t.numFeatures}, Got: input.Shape}
	}
	sum := t.baseScore
	for _, tree := range t.trees {
		sum += tree.score(input.Data)
	}
	return models.Tensor{Shape: []int{1}, Data: []float64{sum}}, nil
}

func (ct compiledTree) score(x []float64) float64 {
	id := ct.root
	for {
		n := ct.nodes[id]
		if n.leaf {
			return n.value
		}
		v := x[n.feature]
		switch {
		case math.IsNaN(v):
			id = n.missing
		case v < n.threshold:
			id = n.yes
		default:
			id = n.no
		}
	}
}

var _ domsvc.Model = (*TreeEnsemble)(nil)
