package mot

import (
	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/pkg/errors"
)

const minBoxSide = 1e-3

// BBoxKalman is an alternative motion model using 8-D Kalman filter for full bounding box dynamics.
// State vector: [cx, cy, w, h, vx, vy, vw, vh] - center position, size, and velocities.
// Unlike SORTKalman, width and height evolve independently.
type BBoxKalman struct {
	tracker *kalman_filter.KalmanBBox
}

// NewBBoxKalman creates BBoxKalman with default time step of 1.0.
func NewBBoxKalman(box Box) *BBoxKalman {
	return NewBBoxKalmanWithTime(box, 1.0)
}

// NewBBoxKalmanWithTime creates BBoxKalman with specified time step.
func NewBBoxKalmanWithTime(box Box, dt float64) *BBoxKalman {
	center := box.Center()

	// Kalman filter props. No control input: motion is driven by estimated velocities only
	uCx := 0.0
	uCy := 0.0
	uW := 0.0
	uH := 0.0
	stdDevA := 2.0
	stdDevMCx := 0.1
	stdDevMCy := 0.1
	stdDevMW := 0.1
	stdDevMH := 0.1
	kf := kalman_filter.NewKalmanBBox(
		dt, uCx, uCy, uW, uH,
		stdDevA, stdDevMCx, stdDevMCy, stdDevMW, stdDevMH,
		kalman_filter.WithStateBBox(center.X, center.Y, box.Width(), box.Height()),
	)
	return &BBoxKalman{
		tracker: kf,
	}
}

// Predict executes Kalman filter prediction step
func (kf *BBoxKalman) Predict() {
	kf.tracker.Predict()
}

// Update executes Kalman filter update step with full bbox measurement
func (kf *BBoxKalman) Update(measurement Box) error {
	center := measurement.Center()
	err := kf.tracker.Update(center.X, center.Y, measurement.Width(), measurement.Height())
	if err != nil {
		return errors.Wrap(err, "Can't update bbox Kalman filter")
	}
	return nil
}

// Box returns current estimate. Width and height are floored so box stays valid.
func (kf *BBoxKalman) Box() Box {
	cx, cy, w, h := kf.tracker.GetState()
	return NewBoxFromCenter(cx, cy, maxFloat64(w, minBoxSide), maxFloat64(h, minBoxSide))
}

// Velocity returns estimated center velocity
func (kf *BBoxKalman) Velocity() Point {
	vx, vy, _, _ := kf.tracker.GetVelocity()
	return NewPoint(vx, vy)
}
