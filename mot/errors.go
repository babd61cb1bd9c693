package mot

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidDetection is matched by every *InvalidDetectionError via errors.Is
	ErrInvalidDetection = errors.New("invalid detection")
	// ErrDegenerateAssignment means the assignment solver received malformed dimensions.
	// It signals a broken caller contract and is never recovered from.
	ErrDegenerateAssignment = errors.New("degenerate assignment problem")
	// ErrInvalidConfig is returned for out-of-range configuration values
	ErrInvalidConfig = errors.New("invalid tracker configuration")
)

// InvalidDetectionError describes a detection dropped from the current frame
type InvalidDetectionError struct {
	// Position of detection in the frame input
	Index     int
	Detection Detection
	Reason    string
}

func (e *InvalidDetectionError) Error() string {
	return fmt.Sprintf("invalid detection #%d [%.2f, %.2f, %.2f, %.2f] conf=%.3f: %s",
		e.Index, e.Detection.Box.X1, e.Detection.Box.Y1, e.Detection.Box.X2, e.Detection.Box.Y2, e.Detection.Confidence, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidDetection) work
func (e *InvalidDetectionError) Is(target error) bool {
	return target == ErrInvalidDetection
}
