package mot

// IoU calculates Intersection over Union between two boxes.
// Returns 0 for disjoint (or degenerate) boxes and 1 for identical ones.
func IoU(b1, b2 Box) float64 {
	xA := maxFloat64(b1.X1, b2.X1)
	yA := maxFloat64(b1.Y1, b2.Y1)
	xB := minFloat64(b1.X2, b2.X2)
	yB := minFloat64(b1.Y2, b2.Y2)

	interArea := maxFloat64(0, xB-xA) * maxFloat64(0, yB-yA)
	if interArea == 0 {
		return 0.0
	}

	unionArea := b1.Area() + b2.Area() - interArea
	if unionArea <= 0 {
		return 0.0
	}
	return interArea / unionArea
}

// iouCostMatrix builds cost matrix 1 - IoU: rows = tracks, columns = detections
func iouCostMatrix(trackBoxes, detectionBoxes []Box) [][]float64 {
	costs := make([][]float64, len(trackBoxes))
	for i, trackBox := range trackBoxes {
		row := make([]float64, len(detectionBoxes))
		for j, detectionBox := range detectionBoxes {
			row[j] = 1.0 - IoU(trackBox, detectionBox)
		}
		costs[i] = row
	}
	return costs
}

func maxFloat64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
