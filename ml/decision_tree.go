package ml

import (
	"errors"
	"fmt"
)

// DecisionTree is a pre-order flattened binary tree; node 0 is the root.
type DecisionTree struct {
	nodes     []TreeNode
	nFeatures int
}

type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	ClassLabel int     `json:"class_label"`
	IsLeaf     bool    `json:"is_leaf"`
}

type decisionTreeParams struct {
	NFeatures int        `json:"n_features"`
	Nodes     []TreeNode `json:"nodes"`
}

// NewDecisionTree checks that every split and child reference is in range.
func NewDecisionTree(nodes []TreeNode, nFeatures int) (*DecisionTree, error) {
	if len(nodes) == 0 {
		return nil, errors.New("tree has no nodes")
	}
	if nFeatures < 0 {
		return nil, fmt.Errorf("negative n_features %d", nFeatures)
	}
	for i, node := range nodes {
		if node.IsLeaf {
			continue
		}
		if node.FeatureIdx < 0 || (nFeatures > 0 && node.FeatureIdx >= nFeatures) {
			return nil, fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
		}
		if node.LeftChild <= i || node.LeftChild >= len(nodes) {
			return nil, fmt.Errorf("node %d: invalid left child %d", i, node.LeftChild)
		}
		if node.RightChild <= i || node.RightChild >= len(nodes) {
			return nil, fmt.Errorf("node %d: invalid right child %d", i, node.RightChild)
		}
	}
	return &DecisionTree{
		nodes:     append([]TreeNode(nil), nodes...),
		nFeatures: nFeatures,
	}, nil
}

func (dt *DecisionTree) NumFeatures() int { return dt.nFeatures }

func (dt *DecisionTree) Predict(features []float64) (int, error) {
	if dt.nFeatures > 0 && len(features) != dt.nFeatures {
		return 0, shapeErr(dt.nFeatures, len(features))
	}
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node.ClassLabel, nil
		}
		if node.FeatureIdx >= len(features) {
			return 0, &PredictionError{
				Kind: ShapeMismatch,
				Err:  fmt.Errorf("split on feature %d, row has %d", node.FeatureIdx, len(features)),
			}
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
}
