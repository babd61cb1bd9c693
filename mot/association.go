package mot

import (
	"github.com/pkg/errors"
)

// Association is result of matching predicted tracks to detections for a single frame.
// Indices refer to the input slices. All three sets are disjoint.
type Association struct {
	// Pairs {trackIndex, detectionIndex}, sorted by track index
	Matches             [][2]int
	UnmatchedTracks     []int
	UnmatchedDetections []int
}

// AssociationEngine matches predicted track boxes to detection boxes by minimum total (1 - IoU) cost.
type AssociationEngine struct {
	// Minimum IoU for a pair to be accepted after assignment
	iouThreshold float64
	// Algorithm to use for matching
	algorithm MatchingAlgorithm
}

// NewAssociationEngine creates engine with given IoU gate and solver
func NewAssociationEngine(iouThreshold float64, algorithm MatchingAlgorithm) *AssociationEngine {
	return &AssociationEngine{
		iouThreshold: iouThreshold,
		algorithm:    algorithm,
	}
}

// Associate solves optimal assignment between trackBoxes (rows) and detectionBoxes (columns).
// Pairs whose cost exceeds 1 - iouThreshold are rejected after solving, so both members
// go back to the unmatched sets.
func (engine *AssociationEngine) Associate(trackBoxes, detectionBoxes []Box) (Association, error) {
	// No solver call if either side is empty
	if len(trackBoxes) == 0 || len(detectionBoxes) == 0 {
		return Association{
			Matches:             [][2]int{},
			UnmatchedTracks:     indexRange(len(trackBoxes)),
			UnmatchedDetections: indexRange(len(detectionBoxes)),
		}, nil
	}
	costs := iouCostMatrix(trackBoxes, detectionBoxes)
	return engine.AssociateCosts(costs, len(detectionBoxes))
}

// AssociateCosts is Associate for precomputed cost matrix (rows = tracks, columns = detections).
// Returns ErrDegenerateAssignment for ragged or non-finite matrices.
func (engine *AssociationEngine) AssociateCosts(costs [][]float64, numDetections int) (Association, error) {
	assignment, err := solveAssignment(costs, numDetections, engine.algorithm)
	if err != nil {
		return Association{}, errors.Wrap(err, "Can't solve assignment")
	}

	maxCost := 1.0 - engine.iouThreshold
	result := Association{
		Matches: make([][2]int, 0, minInt(len(costs), numDetections)),
	}
	matchedDetections := make([]bool, numDetections)
	for trackIdx, detIdx := range assignment {
		if detIdx < 0 || costs[trackIdx][detIdx] > maxCost {
			result.UnmatchedTracks = append(result.UnmatchedTracks, trackIdx)
			continue
		}
		result.Matches = append(result.Matches, [2]int{trackIdx, detIdx})
		matchedDetections[detIdx] = true
	}
	for detIdx, matched := range matchedDetections {
		if !matched {
			result.UnmatchedDetections = append(result.UnmatchedDetections, detIdx)
		}
	}
	return result, nil
}

func indexRange(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
