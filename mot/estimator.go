package mot

import (
	"github.com/pkg/errors"
)

// Estimator is the per-track motion model.
// Predict must be called exactly once per frame before association, Update only for matched tracks.
type Estimator interface {
	Predict()
	Update(measurement Box) error
	Box() Box
	Velocity() Point
}

// MotionModel selects Estimator implementation
type MotionModel string

const (
	// MotionModelSORT is 7-D [cx, cy, s, r, vx, vy, vs] model (default)
	MotionModelSORT MotionModel = "sort"
	// MotionModelBBox is 8-D [cx, cy, w, h, vx, vy, vw, vh] model
	MotionModelBBox MotionModel = "bbox"
)

var (
	_ Estimator = (*SORTKalman)(nil)
	_ Estimator = (*BBoxKalman)(nil)
)

// newEstimator creates motion model initialized with box and zero velocity
func newEstimator(model MotionModel, box Box, params KalmanParams) (Estimator, error) {
	switch model {
	case MotionModelSORT, "":
		return NewSORTKalmanWithParams(box, params), nil
	case MotionModelBBox:
		return NewBBoxKalman(box), nil
	default:
		return nil, errors.Wrapf(ErrInvalidConfig, "unknown motion model %q", model)
	}
}
