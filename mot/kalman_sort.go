package mot

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	sortStateDim       = 7
	sortMeasurementDim = 4
	// Added to the innovation covariance diagonal before factorization
	innovationEpsilon = 1e-6
	minScale          = 1e-6
	minAspectRatio    = 1e-6
)

var errSingularInnovation = errors.New("innovation covariance is not positive definite")

// KalmanParams holds noise parameters of the constant-velocity box model.
// Diagonals are in state order [cx, cy, s, r, vx, vy, vs] and measurement order [cx, cy, s, r].
type KalmanParams struct {
	InitialCovariance [sortStateDim]float64       `json:"initial_covariance" yaml:"initial_covariance"`
	ProcessNoise      [sortStateDim]float64       `json:"process_noise" yaml:"process_noise"`
	MeasurementNoise  [sortMeasurementDim]float64 `json:"measurement_noise" yaml:"measurement_noise"`
}

// DefaultKalmanParams returns the classic SORT tuning: unobserved velocities start with
// very high uncertainty, scale velocity barely drifts.
func DefaultKalmanParams() KalmanParams {
	return KalmanParams{
		InitialCovariance: [sortStateDim]float64{10, 10, 10, 10, 1e4, 1e4, 1e4},
		ProcessNoise:      [sortStateDim]float64{1, 1, 1, 1, 0.01, 0.01, 1e-4},
		MeasurementNoise:  [sortMeasurementDim]float64{1, 1, 10, 10},
	}
}

// SORTKalman estimates a single object's box with 7-D constant velocity model.
// State vector: [cx, cy, s, r, vx, vy, vs] - center, scale (area), aspect ratio (w/h) and velocities.
// Aspect ratio is treated as constant, so it has no velocity component.
type SORTKalman struct {
	x *mat.VecDense
	p *mat.Dense
	f *mat.Dense
	h *mat.Dense
	q *mat.Dense
	r *mat.Dense
}

// NewSORTKalman creates filter initialized from box with zero velocity and default noise
func NewSORTKalman(box Box) *SORTKalman {
	return NewSORTKalmanWithParams(box, DefaultKalmanParams())
}

// NewSORTKalmanWithParams creates filter initialized from box with zero velocity
func NewSORTKalmanWithParams(box Box, params KalmanParams) *SORTKalman {
	z := boxToMeasurement(box)
	x := mat.NewVecDense(sortStateDim, []float64{z[0], z[1], z[2], z[3], 0, 0, 0})

	// Transition: position += velocity
	f := mat.NewDense(sortStateDim, sortStateDim, nil)
	for i := 0; i < sortStateDim; i++ {
		f.Set(i, i, 1)
	}
	f.Set(0, 4, 1)
	f.Set(1, 5, 1)
	f.Set(2, 6, 1)

	// Only [cx, cy, s, r] are observed
	h := mat.NewDense(sortMeasurementDim, sortStateDim, nil)
	for i := 0; i < sortMeasurementDim; i++ {
		h.Set(i, i, 1)
	}

	return &SORTKalman{
		x: x,
		p: diagonal(params.InitialCovariance[:]),
		f: f,
		h: h,
		q: diagonal(params.ProcessNoise[:]),
		r: diagonal(params.MeasurementNoise[:]),
	}
}

// Predict advances state by one frame and inflates covariance by process noise
func (kf *SORTKalman) Predict() {
	// Prevent scale from going non-positive
	if kf.x.AtVec(2)+kf.x.AtVec(6) <= 0 {
		kf.x.SetVec(6, 0)
	}

	var x mat.VecDense
	x.MulVec(kf.f, kf.x)
	kf.x = &x

	var fp, p mat.Dense
	fp.Mul(kf.f, kf.p)
	p.Mul(&fp, kf.f.T())
	p.Add(&p, kf.q)
	kf.p = &p
}

// Update corrects state with observed box.
// On error the state is left untouched (prediction stands).
func (kf *SORTKalman) Update(measurement Box) error {
	zRaw := boxToMeasurement(measurement)
	z := mat.NewVecDense(sortMeasurementDim, zRaw[:])

	// Residual y = z - Hx
	var hx, y mat.VecDense
	hx.MulVec(kf.h, kf.x)
	y.SubVec(z, &hx)

	// Innovation S = HPH^T + R + eps*I
	var hp, s mat.Dense
	hp.Mul(kf.h, kf.p)
	s.Mul(&hp, kf.h.T())
	s.Add(&s, kf.r)
	sym := mat.NewSymDense(sortMeasurementDim, nil)
	for i := 0; i < sortMeasurementDim; i++ {
		for j := i; j < sortMeasurementDim; j++ {
			v := (s.At(i, j) + s.At(j, i)) / 2.0
			if i == j {
				v += innovationEpsilon
			}
			sym.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return errSingularInnovation
	}

	// Since P is symmetric: K^T = S^-1 (HP)
	var kt mat.Dense
	if err := chol.SolveTo(&kt, &hp); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return errors.Wrap(err, "Can't compute Kalman gain")
		}
	}

	var correction mat.VecDense
	correction.MulVec(kt.T(), &y)
	kf.x.AddVec(kf.x, &correction)

	// P = (I - KH)P = P - K(HP)
	var khp mat.Dense
	khp.Mul(kt.T(), &hp)
	kf.p.Sub(kf.p, &khp)
	symmetrize(kf.p)
	return nil
}

// Box returns current estimate as corner box
func (kf *SORTKalman) Box() Box {
	return measurementToBox(kf.x.AtVec(0), kf.x.AtVec(1), kf.x.AtVec(2), kf.x.AtVec(3))
}

// Velocity returns estimated center velocity in pixels per frame
func (kf *SORTKalman) Velocity() Point {
	return NewPoint(kf.x.AtVec(4), kf.x.AtVec(5))
}

// State returns copy of state vector [cx, cy, s, r, vx, vy, vs]
func (kf *SORTKalman) State() []float64 {
	state := make([]float64, sortStateDim)
	copy(state, kf.x.RawVector().Data)
	return state
}

// Covariance returns copy of 7x7 covariance matrix
func (kf *SORTKalman) Covariance() *mat.Dense {
	return mat.DenseCopyOf(kf.p)
}

// boxToMeasurement converts box to [cx, cy, s, r]
func boxToMeasurement(box Box) [sortMeasurementDim]float64 {
	w := box.Width()
	h := box.Height()
	center := box.Center()
	return [sortMeasurementDim]float64{center.X, center.Y, w * h, w / h}
}

// measurementToBox is the inverse of boxToMeasurement. Scale and ratio are floored so box stays valid.
func measurementToBox(cx, cy, s, r float64) Box {
	if !(s > minScale) {
		s = minScale
	}
	if !(r > minAspectRatio) {
		r = minAspectRatio
	}
	w := math.Sqrt(s * r)
	h := s / w
	return NewBoxFromCenter(cx, cy, w, h)
}

func diagonal(values []float64) *mat.Dense {
	n := len(values)
	m := mat.NewDense(n, n, nil)
	for i, v := range values {
		m.Set(i, i, v)
	}
	return m
}

func symmetrize(m *mat.Dense) {
	n, _ := m.Dims()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := (m.At(i, j) + m.At(j, i)) / 2.0
			m.Set(i, j, v)
			m.Set(j, i, v)
		}
	}
}
