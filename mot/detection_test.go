package mot

import (
	"math"
	"strings"
	"testing"
)

func TestDetectionValidate(t *testing.T) {
	tests := []struct {
		name      string
		detection Detection
		reason    string
	}{
		{"valid", NewDetection(0, 0, 10, 10, 0.5), ""},
		{"zero confidence", NewDetection(0, 0, 10, 10, 0), ""},
		{"flipped x", NewDetection(10, 0, 0, 10, 0.5), "x2"},
		{"zero height", NewDetection(0, 10, 10, 10, 0.5), "y2"},
		{"infinite", NewDetection(0, 0, math.Inf(1), 10, 0.5), "non-finite"},
		{"negative confidence", NewDetection(0, 0, 10, 10, -0.1), "confidence"},
		{"nan confidence", NewDetection(0, 0, 10, 10, math.NaN()), "confidence"},
		{"huge area", NewDetection(0, 0, 1e200, 1e200, 0.9), "area overflows"},
		{"huge aspect ratio", NewDetection(0, 0, 1e300, 1e-10, 0.9), "aspect ratio overflows"},
	}
	for _, tt := range tests {
		invalid := tt.detection.Validate()
		if tt.reason == "" {
			if invalid != nil {
				t.Errorf("%s: unexpected error %v", tt.name, invalid)
			}
			continue
		}
		if invalid == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if !strings.Contains(invalid.Reason, tt.reason) {
			t.Errorf("%s: reason %q should mention %q", tt.name, invalid.Reason, tt.reason)
		}
	}
}

func TestNewDetectionFromCenter(t *testing.T) {
	detection := NewDetectionFromCenter(50, 40, 20, 10, 0.9, "car")
	expected := NewBox(40, 35, 60, 45)
	if !boxesClose(detection.Box, expected, eps) {
		t.Errorf("Expected %v, got %v", expected, detection.Box)
	}
	if detection.Class != "car" {
		t.Errorf("Expected class car, got %q", detection.Class)
	}
}
