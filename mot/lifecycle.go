package mot

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// FrameEvents lists lifecycle transitions which happened during one frame
type FrameEvents struct {
	Spawned   []uint64
	Confirmed []uint64
	Deleted   []uint64
	Matched   int
}

// TrackLifecycleManager owns the live track collection and drives
// predict -> associate -> update -> age -> promote -> delete -> spawn for each frame.
type TrackLifecycleManager struct {
	cfg    Config
	engine *AssociationEngine
	// Live tracks in creation order (ascending ids)
	tracks []*Track
	nextID uint64
	logger *zap.Logger
}

// NewTrackLifecycleManager creates manager with empty track collection
func NewTrackLifecycleManager(cfg Config, logger *zap.Logger) *TrackLifecycleManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackLifecycleManager{
		cfg:    cfg,
		engine: NewAssociationEngine(cfg.IoUThreshold, cfg.Solver),
		tracks: make([]*Track, 0),
		nextID: cfg.FirstID,
		logger: logger,
	}
}

// Step processes one frame of already validated detections
func (manager *TrackLifecycleManager) Step(detections []Detection) (FrameEvents, error) {
	events := FrameEvents{}

	// 1. Predict all existing tracks. Tracks whose filter diverged (non-finite box)
	// take no part in association and are removed below.
	diverged := make([]bool, len(manager.tracks))
	candidates := make([]int, 0, len(manager.tracks))
	trackBoxes := make([]Box, 0, len(manager.tracks))
	for i, track := range manager.tracks {
		predicted := track.predict()
		if !predicted.IsFinite() {
			diverged[i] = true
			manager.logger.Warn("track diverged", zap.Uint64("track_id", track.id), zap.Int("age", track.age))
			continue
		}
		candidates = append(candidates, i)
		trackBoxes = append(trackBoxes, predicted)
	}

	// 2. Associate predictions with detections
	detectionBoxes := make([]Box, len(detections))
	for j, detection := range detections {
		detectionBoxes[j] = detection.Box
	}
	association, err := manager.engine.Associate(trackBoxes, detectionBoxes)
	if err != nil {
		// Fatal: tracks are already predicted but not aged, the frame is left half-applied
		return events, errors.Wrap(err, "Can't associate detections with tracks")
	}

	// 3. Update matched tracks
	for _, match := range association.Matches {
		track := manager.tracks[candidates[match[0]]]
		if err := track.markHit(detections[match[1]]); err != nil {
			// Prediction stands, identity is kept
			manager.logger.Warn("kalman update skipped", zap.Uint64("track_id", track.id), zap.Error(err))
		}
	}
	events.Matched = len(association.Matches)

	// 4. Age unmatched tracks
	for _, candidateIdx := range association.UnmatchedTracks {
		manager.tracks[candidates[candidateIdx]].markMissed()
	}
	for i, isDiverged := range diverged {
		if isDiverged {
			manager.tracks[i].markMissed()
		}
	}

	// 5. Promote tentative tracks
	for i, track := range manager.tracks {
		if !diverged[i] && manager.tryConfirm(track) {
			events.Confirmed = append(events.Confirmed, track.id)
		}
	}

	// 6. Remove tracks not found for a long time
	alive := manager.tracks[:0]
	for i, track := range manager.tracks {
		if diverged[i] || track.timeSinceUpdate > manager.cfg.MaxAge {
			wasConfirmed := track.status == TrackConfirmed
			track.status = TrackDeleted
			events.Deleted = append(events.Deleted, track.id)
			manager.logger.Info("track deleted",
				zap.Uint64("track_id", track.id),
				zap.Int("age", track.age),
				zap.Int("hits", track.hits),
				zap.Float64("speed", track.GetSpeed()),
				zap.Bool("was_confirmed", wasConfirmed),
				zap.Bool("diverged", diverged[i]),
			)
			continue
		}
		alive = append(alive, track)
	}
	// Drop references to deleted tracks
	for i := len(alive); i < len(manager.tracks); i++ {
		manager.tracks[i] = nil
	}
	manager.tracks = alive

	// 7. Spawn new tracks for unmatched detections
	for _, detIdx := range association.UnmatchedDetections {
		track, err := manager.spawn(detections[detIdx])
		if err != nil {
			return events, err
		}
		events.Spawned = append(events.Spawned, track.id)
		if track.status == TrackConfirmed {
			events.Confirmed = append(events.Confirmed, track.id)
		}
	}
	return events, nil
}

// tryConfirm promotes tentative track once it has min_hits consecutive matches
func (manager *TrackLifecycleManager) tryConfirm(track *Track) bool {
	if track.status != TrackTentative || track.hitStreak < manager.cfg.MinHits {
		return false
	}
	track.status = TrackConfirmed
	manager.logger.Info("track confirmed", zap.Uint64("track_id", track.id), zap.Int("age", track.age))
	return true
}

func (manager *TrackLifecycleManager) spawn(detection Detection) (*Track, error) {
	estimator, err := newEstimator(manager.cfg.MotionModel, detection.Box, manager.cfg.Kalman)
	if err != nil {
		return nil, err
	}
	track := newTrack(manager.nextID, detection, estimator)
	manager.nextID++
	manager.tracks = append(manager.tracks, track)
	manager.tryConfirm(track)
	return track, nil
}

// Visible returns confirmed tracks matched in the current frame, ordered by id
func (manager *TrackLifecycleManager) Visible() []*Track {
	visible := make([]*Track, 0, len(manager.tracks))
	for _, track := range manager.tracks {
		if track.IsVisible() {
			visible = append(visible, track)
		}
	}
	return visible
}

// Tracks returns live tracks (tentative, confirmed, occluded) ordered by id.
// Be careful: returned tracks are not copies.
func (manager *TrackLifecycleManager) Tracks() []*Track {
	return manager.tracks
}

// NextID returns identifier which will be given to the next created track
func (manager *TrackLifecycleManager) NextID() uint64 {
	return manager.nextID
}

// Clear removes every live track. Id counter is kept so ids are never reused.
func (manager *TrackLifecycleManager) Clear() {
	for _, track := range manager.tracks {
		track.status = TrackDeleted
	}
	manager.tracks = make([]*Track, 0)
}
