package mot

import (
	"math"
	"testing"
)

func TestNewBBoxKalman(t *testing.T) {
	box := NewBox(10, 20, 40, 60)
	kf := NewBBoxKalman(box)

	if !boxesClose(kf.Box(), box, 0.001) {
		t.Errorf("Expected bbox %v, got %v", box, kf.Box())
	}
	velocity := kf.Velocity()
	if velocity.X != 0 || velocity.Y != 0 {
		t.Errorf("Initial velocity should be zero, got %v", velocity)
	}
}

func TestBBoxKalmanPredict(t *testing.T) {
	kf := NewBBoxKalman(NewBox(10, 20, 40, 60))
	kf.Predict()

	// Initial state should give prediction close to initial position
	predicted := kf.Box()
	if predicted.Width() <= 0 || predicted.Height() <= 0 {
		t.Error("Predicted bbox should have positive dimensions")
	}
	center := predicted.Center()
	if math.Abs(center.X-25) > 0.001 || math.Abs(center.Y-40) > 0.001 {
		t.Errorf("Zero velocity prediction should keep center (25, 40), got %v", center)
	}
}

func TestBBoxKalmanSizeTracking(t *testing.T) {
	kf := NewBBoxKalman(NewBox(0, 0, 100, 100))

	// Simulate object moving right over several frames
	for i := 1; i <= 6; i++ {
		kf.Predict()
		shift := 4.0 * float64(i)
		err := kf.Update(NewBox(shift, 0, 100+shift, 100))
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}

	velocity := kf.Velocity()
	if velocity.X <= 0 {
		t.Errorf("X velocity should be positive for object moving right, got %f", velocity.X)
	}
}

func TestEstimatorFactory(t *testing.T) {
	box := NewBox(0, 0, 10, 20)
	sortModel, err := newEstimator(MotionModelSORT, box, DefaultKalmanParams())
	if err != nil {
		t.Fatalf("SORT model: %v", err)
	}
	if _, ok := sortModel.(*SORTKalman); !ok {
		t.Errorf("Expected *SORTKalman, got %T", sortModel)
	}
	bboxModel, err := newEstimator(MotionModelBBox, box, DefaultKalmanParams())
	if err != nil {
		t.Fatalf("BBox model: %v", err)
	}
	if _, ok := bboxModel.(*BBoxKalman); !ok {
		t.Errorf("Expected *BBoxKalman, got %T", bboxModel)
	}
	if _, err := newEstimator("constant-acceleration", box, DefaultKalmanParams()); err == nil {
		t.Error("Unknown motion model should fail")
	}
}
