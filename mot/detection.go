package mot

import (
	"math"
)

// Detection is a single detector output for one frame
type Detection struct {
	Box        Box
	Confidence float64
	// Optional class label
	Class string
}

// NewDetection creates detection from corner coordinates
func NewDetection(x1, y1, x2, y2, confidence float64) Detection {
	return Detection{
		Box:        NewBox(x1, y1, x2, y2),
		Confidence: confidence,
	}
}

// NewDetectionFromCenter creates detection from center-based prediction (cx, cy, width, height),
// which is what most hosted inference APIs return.
func NewDetectionFromCenter(cx, cy, width, height, confidence float64, class string) Detection {
	return Detection{
		Box:        NewBoxFromCenter(cx, cy, width, height),
		Confidence: confidence,
		Class:      class,
	}
}

// Validate checks box ordering and confidence range.
// The returned error (if any) has Index set to -1, callers fill it with the position in the frame.
func (d Detection) Validate() *InvalidDetectionError {
	reason := ""
	switch {
	case !d.Box.IsFinite():
		reason = "box has non-finite coordinates"
	case d.Box.X2 <= d.Box.X1:
		reason = "x2 must be greater than x1"
	case d.Box.Y2 <= d.Box.Y1:
		reason = "y2 must be greater than y1"
	case !isFinite(d.Box.Width() * d.Box.Height()):
		reason = "box area overflows"
	case !isFinite(d.Box.Width() / d.Box.Height()):
		reason = "box aspect ratio overflows"
	case math.IsNaN(d.Confidence) || d.Confidence < 0 || d.Confidence > 1:
		reason = "confidence must be in [0, 1]"
	default:
		return nil
	}
	return &InvalidDetectionError{
		Index:     -1,
		Detection: d,
		Reason:    reason,
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// filterDetections drops invalid detections and those below minConfidence.
// Low-confidence detections are not errors: the caller asked for them to be skipped.
func filterDetections(detections []Detection, minConfidence float64) ([]Detection, []*InvalidDetectionError) {
	valid := make([]Detection, 0, len(detections))
	var rejected []*InvalidDetectionError
	for i, detection := range detections {
		if invalid := detection.Validate(); invalid != nil {
			invalid.Index = i
			rejected = append(rejected, invalid)
			continue
		}
		if detection.Confidence < minConfidence {
			continue
		}
		valid = append(valid, detection)
	}
	return valid, rejected
}
