// Package detio reads per-frame detections from files and writes tracks in MOTChallenge format.
package detio

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/LdDl/sort-go/mot"
)

// Format of detections file
type Format string

const (
	// FormatCSV is MOTChallenge det.txt: frame,id,x,y,w,h,conf[,...] with 1-based frames
	FormatCSV Format = "csv"
	// FormatJSONLines is one JSON object per frame with center-based predictions
	FormatJSONLines Format = "jsonl"
)

// MaxFrameNumber is the largest accepted frame number. Readers return frames densely
// (gaps filled with empty frames), so the limit bounds memory: about 19 hours of 30 FPS video.
const MaxFrameNumber = 1 << 21

// Frame is detections of a single video frame
type Frame struct {
	Number     int
	Detections []mot.Detection
}

// Prediction is a single center-based detector output, as returned by hosted inference APIs
type Prediction struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence"`
	Class      string  `json:"class,omitempty"`
}

type jsonFrame struct {
	Frame       int          `json:"frame"`
	Predictions []Prediction `json:"predictions"`
}

// Read reads all frames using given format
func Read(r io.Reader, format Format) ([]Frame, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r)
	case FormatJSONLines:
		return ReadJSONLines(r)
	default:
		return nil, errors.Errorf("unknown detections format %q", format)
	}
}

// ReadCSV reads MOTChallenge-style detections. Frames without detections are present in result
// as empty frames, so caller can feed every frame to the tracker in order.
func ReadCSV(r io.Reader) ([]Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	byFrame := make(map[int][]mot.Detection)
	maxFrame := 0
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrapf(err, "Can't read CSV record %d", line)
		}
		if len(record) < 7 {
			return nil, errors.Errorf("record %d: expected at least 7 fields, got %d", line, len(record))
		}
		values := make([]float64, 7)
		for i := 0; i < 7; i++ {
			values[i], err = strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "record %d: field %d", line, i+1)
			}
		}
		if values[0] != math.Trunc(values[0]) {
			return nil, errors.Errorf("record %d: frame number must be an integer, got %v", line, values[0])
		}
		if values[0] < 1 || values[0] > MaxFrameNumber {
			return nil, errors.Errorf("record %d: frame number must be in [1, %d], got %v", line, MaxFrameNumber, values[0])
		}
		frame := int(values[0])
		box := mot.NewRect(values[2], values[3], values[4], values[5]).Box()
		byFrame[frame] = append(byFrame[frame], mot.Detection{Box: box, Confidence: values[6]})
		if frame > maxFrame {
			maxFrame = frame
		}
	}
	return denseFrames(byFrame, maxFrame), nil
}

// ReadJSONLines reads frames of center-based predictions, one JSON object per line.
// Missing "frame" fields are numbered by line order.
func ReadJSONLines(r io.Reader) ([]Frame, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	byFrame := make(map[int][]mot.Detection)
	maxFrame := 0
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var parsed jsonFrame
		if err := json.Unmarshal([]byte(text), &parsed); err != nil {
			return nil, errors.Wrapf(err, "Can't parse JSON line %d", line)
		}
		frame := parsed.Frame
		if frame == 0 {
			frame = maxFrame + 1
		}
		if frame < 1 || frame > MaxFrameNumber {
			return nil, errors.Errorf("line %d: frame number must be in [1, %d], got %d", line, MaxFrameNumber, frame)
		}
		detections := byFrame[frame]
		if detections == nil {
			detections = make([]mot.Detection, 0, len(parsed.Predictions))
		}
		for _, p := range parsed.Predictions {
			detections = append(detections, mot.NewDetectionFromCenter(p.X, p.Y, p.Width, p.Height, p.Confidence, p.Class))
		}
		byFrame[frame] = detections
		if frame > maxFrame {
			maxFrame = frame
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "Can't scan JSON lines")
	}
	return denseFrames(byFrame, maxFrame), nil
}

func denseFrames(byFrame map[int][]mot.Detection, maxFrame int) []Frame {
	frames := make([]Frame, maxFrame)
	for i := range frames {
		number := i + 1
		detections := byFrame[number]
		if detections == nil {
			detections = []mot.Detection{}
		}
		frames[i] = Frame{Number: number, Detections: detections}
	}
	return frames
}

// TrackWriter writes tracks as MOTChallenge results: frame,id,x,y,w,h,1,-1,-1,-1
type TrackWriter struct {
	writer *csv.Writer
}

// NewTrackWriter creates TrackWriter. Call Flush when done.
func NewTrackWriter(w io.Writer) *TrackWriter {
	return &TrackWriter{writer: csv.NewWriter(w)}
}

// WriteFrame writes tracks of a single frame ordered by id
func (tw *TrackWriter) WriteFrame(frame int, tracks []mot.TrackedBox) error {
	sorted := make([]mot.TrackedBox, len(tracks))
	copy(sorted, tracks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	for _, track := range sorted {
		rect := track.Box.Rect()
		record := []string{
			strconv.Itoa(frame),
			strconv.FormatUint(track.ID, 10),
			formatFloat(rect.X),
			formatFloat(rect.Y),
			formatFloat(rect.Width),
			formatFloat(rect.Height),
			"1", "-1", "-1", "-1",
		}
		if err := tw.writer.Write(record); err != nil {
			return errors.Wrapf(err, "Can't write track %d of frame %d", track.ID, frame)
		}
	}
	return nil
}

// Flush writes buffered data
func (tw *TrackWriter) Flush() error {
	tw.writer.Flush()
	return tw.writer.Error()
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
