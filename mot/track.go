package mot

// TrackStatus represents the lifecycle state of a track.
type TrackStatus string

const (
	TrackTentative TrackStatus = "tentative" // New track, needs confirmation
	TrackConfirmed TrackStatus = "confirmed" // Reached min hits, reported while visible
	TrackDeleted   TrackStatus = "deleted"   // Aged out, removed from the live collection
)

// Track is a persistent identity maintained across frames.
type Track struct {
	id     uint64
	status TrackStatus
	// Frames in which track was matched (creation counts as first hit)
	hits int
	// Consecutive matched frames since last miss
	hitStreak int
	// Frames since last successful match
	timeSinceUpdate int
	// Frames since creation (creation frame included)
	age int
	// Last matched detection properties
	class      string
	confidence float64
	estimator  Estimator
}

func newTrack(id uint64, detection Detection, estimator Estimator) *Track {
	return &Track{
		id:              id,
		status:          TrackTentative,
		hits:            1,
		hitStreak:       1,
		timeSinceUpdate: 0,
		age:             1,
		class:           detection.Class,
		confidence:      detection.Confidence,
		estimator:       estimator,
	}
}

// GetID returns track's identifier
func (track *Track) GetID() uint64 {
	return track.id
}

// GetStatus returns track's lifecycle state
func (track *Track) GetStatus() TrackStatus {
	return track.status
}

// GetHits returns number of frames track was matched in
func (track *Track) GetHits() int {
	return track.hits
}

// GetHitStreak returns number of consecutive matches since the last miss
func (track *Track) GetHitStreak() int {
	return track.hitStreak
}

// GetTimeSinceUpdate returns number of frames since last match
func (track *Track) GetTimeSinceUpdate() int {
	return track.timeSinceUpdate
}

// GetAge returns number of frames since creation
func (track *Track) GetAge() int {
	return track.age
}

// GetClass returns class label of the last matched detection
func (track *Track) GetClass() string {
	return track.class
}

// GetConfidence returns confidence of the last matched detection
func (track *Track) GetConfidence() float64 {
	return track.confidence
}

// GetBBox returns current state estimate as box
func (track *Track) GetBBox() Box {
	return track.estimator.Box()
}

// GetVelocity returns estimated center velocity
func (track *Track) GetVelocity() Point {
	return track.estimator.Velocity()
}

// GetSpeed returns magnitude of estimated center velocity, pixels per frame
func (track *Track) GetSpeed() float64 {
	return euclideanDistance(Point{}, track.estimator.Velocity())
}

// GetState returns copy of [cx, cy, s, r, vx, vy, vs] for SORT motion model, nil for other models
func (track *Track) GetState() []float64 {
	if kf, ok := track.estimator.(*SORTKalman); ok {
		return kf.State()
	}
	return nil
}

// IsVisible reports whether track is confirmed and was matched in the current frame
func (track *Track) IsVisible() bool {
	return track.status == TrackConfirmed && track.timeSinceUpdate == 0
}

// predict advances motion model by one frame and returns predicted box
func (track *Track) predict() Box {
	track.estimator.Predict()
	track.age++
	return track.estimator.Box()
}

// markHit applies matched detection
func (track *Track) markHit(detection Detection) error {
	track.timeSinceUpdate = 0
	track.hits++
	track.hitStreak++
	track.class = detection.Class
	track.confidence = detection.Confidence
	return track.estimator.Update(detection.Box)
}

// markMissed lets prediction stand for the frame
func (track *Track) markMissed() {
	track.timeSinceUpdate++
	track.hitStreak = 0
}

// TrackSnapshot is a read-only copy of track properties
type TrackSnapshot struct {
	ID              uint64
	Status          TrackStatus
	Box             Box
	Velocity        Point
	Hits            int
	HitStreak       int
	TimeSinceUpdate int
	Age             int
	Class           string
	Confidence      float64
}

func (track *Track) snapshot() TrackSnapshot {
	return TrackSnapshot{
		ID:              track.id,
		Status:          track.status,
		Box:             track.GetBBox(),
		Velocity:        track.GetVelocity(),
		Hits:            track.hits,
		HitStreak:       track.hitStreak,
		TimeSinceUpdate: track.timeSinceUpdate,
		Age:             track.age,
		Class:           track.class,
		Confidence:      track.confidence,
	}
}
