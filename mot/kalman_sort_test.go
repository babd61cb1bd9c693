package mot

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func boxesClose(b1, b2 Box, tolerance float64) bool {
	return math.Abs(b1.X1-b2.X1) <= tolerance &&
		math.Abs(b1.Y1-b2.Y1) <= tolerance &&
		math.Abs(b1.X2-b2.X2) <= tolerance &&
		math.Abs(b1.Y2-b2.Y2) <= tolerance
}

func TestSORTKalmanInitialState(t *testing.T) {
	box := NewBox(10, 20, 40, 60)
	kf := NewSORTKalman(box)

	state := kf.State()
	if len(state) != 7 {
		t.Fatalf("Expected 7-D state, got %d", len(state))
	}
	expected := []float64{25, 40, 1200, 0.75, 0, 0, 0}
	for i := range expected {
		if math.Abs(state[i]-expected[i]) > eps {
			t.Errorf("state[%d]: expected %v, got %v", i, expected[i], state[i])
		}
	}
	rows, cols := kf.Covariance().Dims()
	if rows != 7 || cols != 7 {
		t.Errorf("Expected 7x7 covariance, got %dx%d", rows, cols)
	}
	if !boxesClose(kf.Box(), box, eps) {
		t.Errorf("Box -> state -> box should be identity: %v != %v", kf.Box(), box)
	}
}

func TestSORTKalmanStationaryUpdate(t *testing.T) {
	box := NewBox(10, 10, 50, 50)
	kf := NewSORTKalman(box)
	kf.Predict()
	if !boxesClose(kf.Box(), box, eps) {
		t.Errorf("Zero velocity prediction should not move box: %v", kf.Box())
	}
	if err := kf.Update(box); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !boxesClose(kf.Box(), box, eps) {
		t.Errorf("Expected %v after update with same box, got %v", box, kf.Box())
	}
}

func TestSORTKalmanZeroNoiseMeasurement(t *testing.T) {
	params := DefaultKalmanParams()
	params.MeasurementNoise = [4]float64{0, 0, 0, 0}
	kf := NewSORTKalmanWithParams(NewBox(10, 10, 50, 50), params)
	kf.Predict()

	measurement := NewBox(15, 12, 55, 52)
	if err := kf.Update(measurement); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !boxesClose(kf.Box(), measurement, 1e-3) {
		t.Errorf("Perfect measurement should be adopted: expected %v, got %v", measurement, kf.Box())
	}
}

func TestSORTKalmanVelocityInference(t *testing.T) {
	kf := NewSORTKalman(NewBox(0, 0, 40, 40))
	for i := 1; i <= 15; i++ {
		kf.Predict()
		shift := 5.0 * float64(i)
		if err := kf.Update(NewBox(shift, 0, 40+shift, 40)); err != nil {
			t.Fatalf("Update %d failed: %v", i, err)
		}
	}
	velocity := kf.Velocity()
	if math.Abs(velocity.X-5.0) > 1.0 {
		t.Errorf("Expected vx close to 5, got %v", velocity.X)
	}
	if math.Abs(velocity.Y) > 1.0 {
		t.Errorf("Expected vy close to 0, got %v", velocity.Y)
	}
	track := newTrack(1, NewDetection(0, 0, 40, 40, 1), kf)
	if math.Abs(track.GetSpeed()-5.0) > 1.5 {
		t.Errorf("Expected speed close to 5, got %v", track.GetSpeed())
	}

	// Without measurements object keeps moving
	before := kf.Box().Center().X
	kf.Predict()
	after := kf.Box().Center().X
	if after <= before {
		t.Errorf("Prediction should move box forward: %v -> %v", before, after)
	}
}

func TestSORTKalmanCovarianceGrowsWithoutUpdates(t *testing.T) {
	kf := NewSORTKalman(NewBox(0, 0, 10, 10))
	kf.Predict()
	traceOne := mat.Trace(kf.Covariance())
	for i := 0; i < 10; i++ {
		kf.Predict()
	}
	traceMany := mat.Trace(kf.Covariance())
	if traceMany <= traceOne {
		t.Errorf("Covariance should grow without updates: %v -> %v", traceOne, traceMany)
	}
}

func TestSORTKalmanScaleStaysPositive(t *testing.T) {
	kf := NewSORTKalman(NewBox(0, 0, 100, 100))
	// Object shrinking fast
	for i, side := range []float64{80, 60, 40, 20, 10} {
		kf.Predict()
		if err := kf.Update(NewBox(0, 0, side, side)); err != nil {
			t.Fatalf("Update %d failed: %v", i, err)
		}
	}
	for i := 0; i < 50; i++ {
		kf.Predict()
		box := kf.Box()
		if !(box.Width() > 0) || !(box.Height() > 0) {
			t.Fatalf("Predict %d: box must stay valid, got %v", i, box)
		}
	}
}
