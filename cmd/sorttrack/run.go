package main

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/LdDl/sort-go/internal/detio"
	"github.com/LdDl/sort-go/mot"
)

// replayStats summarizes a replay
type replayStats struct {
	Frames      int
	Detections  int
	Rejected    int
	TracksTotal int
	RowsWritten int
}

func runAction(c *cli.Context, logger *zap.Logger) error {
	cfg, err := configFromFlags(c)
	if err != nil {
		return err
	}

	input, closeInput, err := openInput(c.String(flagInput))
	if err != nil {
		return err
	}
	defer closeInput()

	frames, err := detio.Read(input, detio.Format(c.String(flagFormat)))
	if err != nil {
		return errors.Wrap(err, "Can't read detections")
	}

	output, closeOutput, err := openOutput(c.String(flagOutput))
	if err != nil {
		return err
	}
	defer closeOutput()

	tracker, err := mot.NewTracker(cfg, mot.WithLogger(logger))
	if err != nil {
		return err
	}
	stats, err := replay(frames, tracker, detio.NewTrackWriter(output))
	if err != nil {
		return err
	}
	logger.Info("replay finished",
		zap.String("session", tracker.SessionID().String()),
		zap.Int("frames", stats.Frames),
		zap.Int("detections", stats.Detections),
		zap.Int("rejected", stats.Rejected),
		zap.Int("tracks", stats.TracksTotal),
		zap.Int("rows", stats.RowsWritten),
	)
	return nil
}

// configFromFlags loads config file (if any) and applies explicitly set flags on top of it
func configFromFlags(c *cli.Context) (mot.Config, error) {
	cfg := mot.DefaultConfig()
	if path := c.String(flagConfig); path != "" {
		loaded, err := mot.LoadConfig(path)
		if err != nil {
			return mot.Config{}, err
		}
		cfg = loaded
	}
	if c.IsSet(flagIoUThreshold) {
		cfg.IoUThreshold = c.Float64(flagIoUThreshold)
	}
	if c.IsSet(flagMaxAge) {
		cfg.MaxAge = c.Int(flagMaxAge)
	}
	if c.IsSet(flagMinHits) {
		cfg.MinHits = c.Int(flagMinHits)
	}
	if c.IsSet(flagMinConfidence) {
		cfg.ConfidenceThreshold = c.Float64(flagMinConfidence)
	}
	if c.IsSet(flagMotionModel) {
		cfg.MotionModel = mot.MotionModel(c.String(flagMotionModel))
	}
	if c.IsSet(flagSolver) {
		cfg.Solver = mot.MatchingAlgorithm(c.String(flagSolver))
	}
	if err := cfg.Validate(); err != nil {
		return mot.Config{}, err
	}
	return cfg, nil
}

// replay feeds frames to the tracker in order and writes visible tracks of every frame
func replay(frames []detio.Frame, tracker *mot.Tracker, writer *detio.TrackWriter) (replayStats, error) {
	stats := replayStats{}
	for _, frame := range frames {
		report, err := tracker.UpdateFrame(frame.Detections)
		if err != nil {
			return stats, errors.Wrapf(err, "Can't track frame %d", frame.Number)
		}
		if err := writer.WriteFrame(frame.Number, report.Tracks); err != nil {
			return stats, err
		}
		stats.Frames++
		stats.Detections += len(frame.Detections)
		stats.Rejected += len(report.Rejected)
		stats.TracksTotal += len(report.Spawned)
		stats.RowsWritten += len(report.Tracks)
	}
	if err := writer.Flush(); err != nil {
		return stats, errors.Wrap(err, "Can't flush tracks")
	}
	return stats, nil
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "Can't open detections file %s", path)
	}
	return file, func() { file.Close() }, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "-" {
		return os.Stdout, func() {}, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "Can't create output file %s", path)
	}
	return file, func() { file.Close() }, nil
}
