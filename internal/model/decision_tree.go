package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DecisionTree is a fitted tree stored as a flat node array with the root at
// index 0. A row goes left when its feature is <= the node threshold.
type DecisionTree struct {
	ClassLabels []int      `json:"classes"`
	Features    int        `json:"n_features"`
	Nodes       []TreeNode `json:"nodes"`
}

type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	ClassLabel int     `json:"class_label"`
	IsLeaf     bool    `json:"is_leaf"`
}

func decodeDecisionTree(params json.RawMessage) (*DecisionTree, error) {
	var dt DecisionTree
	if err := json.Unmarshal(params, &dt); err != nil {
		return nil, errors.Join(ErrCorruptArtifact, err)
	}
	if len(dt.Nodes) == 0 {
		return nil, fmt.Errorf("%w: decision tree has no nodes", ErrCorruptArtifact)
	}
	if dt.Features <= 0 {
		return nil, fmt.Errorf("%w: decision tree has no n_features", ErrCorruptArtifact)
	}
	known := make(map[int]bool, len(dt.ClassLabels))
	for _, c := range dt.ClassLabels {
		known[c] = true
	}
	for i, node := range dt.Nodes {
		if node.IsLeaf {
			if !known[node.ClassLabel] {
				return nil, fmt.Errorf("%w: node %d: label %d not in classes", ErrCorruptArtifact, i, node.ClassLabel)
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= dt.Features {
			return nil, fmt.Errorf("%w: node %d: feature index %d out of range", ErrCorruptArtifact, i, node.FeatureIdx)
		}
		// children always come after their parent, which rules out cycles
		if node.LeftChild <= i || node.LeftChild >= len(dt.Nodes) || node.RightChild <= i || node.RightChild >= len(dt.Nodes) {
			return nil, fmt.Errorf("%w: node %d: invalid children", ErrCorruptArtifact, i)
		}
	}
	return &dt, nil
}

func (dt *DecisionTree) Predict(features []float64) (int, error) {
	if len(features) != dt.Features {
		return 0, shapeErr("", "expected %d features, got %d", dt.Features, len(features))
	}
	idx := 0
	for {
		node := dt.Nodes[idx]
		if node.IsLeaf {
			return node.ClassLabel, nil
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
}

func (dt *DecisionTree) Classes() []int { return append([]int(nil), dt.ClassLabels...) }

func (dt *DecisionTree) NumFeatures() int { return dt.Features }
