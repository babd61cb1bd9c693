package mot

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestLifecycleEvents(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinHits = 2
	manager := NewTrackLifecycleManager(cfg, nil)

	first := []Detection{
		NewDetection(0, 0, 20, 20, 0.9),
		NewDetection(100, 0, 120, 20, 0.9),
	}
	events, err := manager.Step(first)
	if err != nil {
		t.Fatal(err)
	}
	expected := FrameEvents{Spawned: []uint64{1, 2}}
	if diff := cmp.Diff(expected, events, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Frame 1 (-want +got):\n%s", diff)
	}

	// Second object disappears, new one appears
	second := []Detection{
		NewDetection(1, 0, 21, 20, 0.9),
		NewDetection(300, 300, 320, 320, 0.9),
	}
	events, err = manager.Step(second)
	if err != nil {
		t.Fatal(err)
	}
	expected = FrameEvents{Spawned: []uint64{3}, Confirmed: []uint64{1}, Matched: 1}
	if diff := cmp.Diff(expected, events, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Frame 2 (-want +got):\n%s", diff)
	}

	events, err = manager.Step(second)
	if err != nil {
		t.Fatal(err)
	}
	expected = FrameEvents{Confirmed: []uint64{3}, Deleted: []uint64{2}, Matched: 2}
	if diff := cmp.Diff(expected, events, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Frame 3 (-want +got):\n%s", diff)
	}

	visible := manager.Visible()
	ids := make([]uint64, len(visible))
	for i, track := range visible {
		ids[i] = track.GetID()
	}
	if diff := cmp.Diff([]uint64{1, 3}, ids); diff != "" {
		t.Errorf("Visible tracks (-want +got):\n%s", diff)
	}
	if manager.NextID() != 4 {
		t.Errorf("Expected next id 4, got %d", manager.NextID())
	}
}

func TestLifecycleTentativeTrackExpires(t *testing.T) {
	manager := NewTrackLifecycleManager(DefaultConfig(), nil)
	if _, err := manager.Step([]Detection{NewDetection(0, 0, 20, 20, 0.9)}); err != nil {
		t.Fatal(err)
	}
	tracks := manager.Tracks()
	track := tracks[0]
	for frame := 0; frame < 2; frame++ {
		if _, err := manager.Step(nil); err != nil {
			t.Fatal(err)
		}
	}
	if len(manager.Tracks()) != 0 {
		t.Fatalf("Tentative track should be removed, got %d tracks", len(manager.Tracks()))
	}
	if track.GetStatus() != TrackDeleted {
		t.Errorf("Expected deleted status, got %s", track.GetStatus())
	}
	if track.IsVisible() {
		t.Error("Deleted track must not be visible")
	}
}

func TestLifecycleClear(t *testing.T) {
	manager := NewTrackLifecycleManager(DefaultConfig(), nil)
	if _, err := manager.Step([]Detection{NewDetection(0, 0, 20, 20, 0.9)}); err != nil {
		t.Fatal(err)
	}
	manager.Clear()
	if len(manager.Tracks()) != 0 {
		t.Fatal("Clear should drop every track")
	}
	events, err := manager.Step([]Detection{NewDetection(0, 0, 20, 20, 0.9)})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]uint64{2}, events.Spawned); diff != "" {
		t.Errorf("Id counter should survive Clear (-want +got):\n%s", diff)
	}
}

// divergingEstimator stands still at creation box, then blows up on the first prediction
type divergingEstimator struct {
	box Box
}

func (e *divergingEstimator) Predict() {
	e.box = NewBox(math.Inf(-1), math.NaN(), math.Inf(1), math.NaN())
}

func (e *divergingEstimator) Update(measurement Box) error {
	e.box = measurement
	return nil
}

func (e *divergingEstimator) Box() Box {
	return e.box
}

func (e *divergingEstimator) Velocity() Point {
	return Point{}
}

func TestLifecycleDivergedTrackRemoved(t *testing.T) {
	manager := NewTrackLifecycleManager(DefaultConfig(), nil)
	detection := NewDetection(10, 10, 50, 50, 0.9)
	broken := newTrack(manager.NextID(), detection, &divergingEstimator{box: detection.Box})
	manager.tracks = append(manager.tracks, broken)
	manager.nextID++

	events, err := manager.Step([]Detection{detection})
	if err != nil {
		t.Fatalf("Diverged track must not fail the frame: %v", err)
	}
	expected := FrameEvents{Spawned: []uint64{2}, Deleted: []uint64{1}}
	if diff := cmp.Diff(expected, events, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Wrong events (-want +got):\n%s", diff)
	}
	if broken.GetStatus() != TrackDeleted {
		t.Errorf("Expected deleted status, got %s", broken.GetStatus())
	}

	// Following frames keep working
	for frame := 0; frame < 3; frame++ {
		events, err = manager.Step([]Detection{detection})
		if err != nil {
			t.Fatalf("Frame %d: %v", frame, err)
		}
		if events.Matched != 1 {
			t.Errorf("Frame %d: expected surviving track to match, got %+v", frame, events)
		}
	}
}
