package mot

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// TrackedBox is a single output row: box of a visible confirmed track and its identifier
type TrackedBox struct {
	Box Box
	ID  uint64
}

// FrameReport is full result of processing a single frame
type FrameReport struct {
	// Frame number, starting from 1
	Frame int
	// Confirmed tracks matched in this frame, ordered by id
	Tracks []TrackedBox
	// Detections dropped because they failed validation
	Rejected []*InvalidDetectionError
	FrameEvents
}

// Tracker is implementation of Multi-object tracker (MOT) called SORT:
// Kalman filter motion model + optimal IoU assignment + tentative/confirmed/deleted lifecycle.
//
// Tracker is not safe for concurrent use. Frames must be fed strictly in temporal order.
type Tracker struct {
	cfg       Config
	manager   *TrackLifecycleManager
	frame     int
	sessionID uuid.UUID
	logger    *zap.Logger
}

// Option configures Tracker
type Option func(*Tracker)

// WithLogger sets logger. Default is no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(tracker *Tracker) {
		if logger != nil {
			tracker.logger = logger
		}
	}
}

// WithSessionID sets identifier attached to every log line of the tracker. Random by default.
func WithSessionID(sessionID uuid.UUID) Option {
	return func(tracker *Tracker) {
		tracker.sessionID = sessionID
	}
}

// NewDefaultTracker creates a Tracker with default parameters.
func NewDefaultTracker(opts ...Option) *Tracker {
	tracker, err := NewTracker(DefaultConfig(), opts...)
	if err != nil {
		panic(err)
	}
	return tracker
}

// NewTracker creates a new instance of Tracker with specified parameters.
func NewTracker(cfg Config, opts ...Option) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tracker := &Tracker{
		cfg:       cfg,
		sessionID: uuid.New(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(tracker)
	}
	tracker.logger = tracker.logger.With(zap.String("session", tracker.sessionID.String()))
	tracker.manager = NewTrackLifecycleManager(cfg, tracker.logger)
	return tracker, nil
}

// Update processes detections of the next frame and returns boxes of confirmed tracks visible in it.
// Invalid detections are dropped and logged. Returned error is always fatal.
func (tracker *Tracker) Update(detections []Detection) ([]TrackedBox, error) {
	report, err := tracker.UpdateFrame(detections)
	if err != nil {
		return nil, err
	}
	return report.Tracks, nil
}

// UpdateFrame is Update which also reports rejected detections and lifecycle events
func (tracker *Tracker) UpdateFrame(detections []Detection) (FrameReport, error) {
	tracker.frame++
	report := FrameReport{
		Frame: tracker.frame,
	}

	valid, rejected := filterDetections(detections, tracker.cfg.ConfidenceThreshold)
	for _, invalid := range rejected {
		tracker.logger.Warn("detection dropped", zap.Int("frame", tracker.frame), zap.Error(invalid))
	}
	report.Rejected = rejected

	events, err := tracker.manager.Step(valid)
	if err != nil {
		return report, errors.Wrapf(err, "Can't process frame %d", tracker.frame)
	}
	report.FrameEvents = events

	visible := tracker.manager.Visible()
	report.Tracks = make([]TrackedBox, len(visible))
	for i, track := range visible {
		report.Tracks[i] = TrackedBox{
			Box: track.GetBBox(),
			ID:  track.id,
		}
	}

	tracker.logger.Debug("frame processed",
		zap.Int("frame", tracker.frame),
		zap.Int("detections", len(detections)),
		zap.Int("valid", len(valid)),
		zap.Int("matched", events.Matched),
		zap.Int("spawned", len(events.Spawned)),
		zap.Int("deleted", len(events.Deleted)),
		zap.Int("live", len(tracker.manager.Tracks())),
		zap.Int("visible", len(report.Tracks)),
	)
	return report, nil
}

// GetActiveTracks returns snapshots of all live tracks, including tentative and temporarily unmatched ones.
func (tracker *Tracker) GetActiveTracks() []TrackSnapshot {
	tracks := tracker.manager.Tracks()
	snapshots := make([]TrackSnapshot, len(tracks))
	for i, track := range tracks {
		snapshots[i] = track.snapshot()
	}
	return snapshots
}

// FrameCount returns number of processed frames
func (tracker *Tracker) FrameCount() int {
	return tracker.frame
}

// SessionID returns identifier attached to log lines of this tracker
func (tracker *Tracker) SessionID() uuid.UUID {
	return tracker.sessionID
}

// Config returns tracker parameters
func (tracker *Tracker) Config() Config {
	return tracker.cfg
}

// Reset drops every live track and frame counter. Track ids keep growing, they are never reused.
func (tracker *Tracker) Reset() {
	tracker.manager.Clear()
	tracker.frame = 0
	tracker.logger.Info("tracker reset", zap.Uint64("next_id", tracker.manager.NextID()))
}
