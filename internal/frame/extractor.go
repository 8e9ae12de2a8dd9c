package frame

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrOpen  = errors.New("could not open video")
	ErrRead  = errors.New("failed to read frame")
	ErrWrite = errors.New("failed to save frame")
)

// Capture is an open video handle positioned on a frame index.
type Capture interface {
	FrameRate() float64
	FrameCount() int
	// Seek moves to index and reports whether the decoder accepted it.
	Seek(index int) bool
	// Skip decodes and discards the frame at the current position.
	Skip() bool
	// Read decodes the frame at the current position and advances.
	Read() (image.Image, error)
	Close() error
}

type Opener interface {
	Open(path string) (Capture, error)
}

type Request struct {
	SourcePath string
	TimeOffset float64
	OutputPath string
}

type Extracted struct {
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`

	FrameIndex int     `json:"frame_index"`
	TimeOffset float64 `json:"time_offset"`
	Seeked     bool    `json:"seeked"`
}

type Extractor struct {
	opener  Opener
	quality int
	logger  zerolog.Logger
	now     func() time.Time
}

func NewExtractor(opener Opener, quality int, logger zerolog.Logger) *Extractor {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &Extractor{
		opener:  opener,
		quality: quality,
		logger:  logger.With().Str("component", "frame-extractor").Logger(),
		now:     time.Now,
	}
}

// Duration is frameCount/frameRate, or 0 when the rate is unusable.
func Duration(frameRate float64, frameCount int) float64 {
	if frameRate <= 0 || math.IsNaN(frameRate) || math.IsInf(frameRate, 0) || frameCount <= 0 {
		return 0
	}
	return float64(frameCount) / frameRate
}

// ClampOffset replaces offsets past the end with the midpoint.
func ClampOffset(offset, duration float64) float64 {
	if offset < 0 || math.IsNaN(offset) {
		return 0
	}
	if offset > duration {
		return duration / 2
	}
	return offset
}

func FrameIndex(offset, frameRate float64) int {
	if frameRate <= 0 || math.IsNaN(frameRate) || math.IsInf(frameRate, 0) {
		return 0
	}
	idx := int(math.Floor(offset * frameRate))
	if idx < 0 {
		return 0
	}
	return idx
}

func (e *Extractor) Extract(req Request) (*Extracted, error) {
	capture, err := e.opener.Open(req.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpen, req.SourcePath, err)
	}
	defer func() {
		if cerr := capture.Close(); cerr != nil {
			e.logger.Warn().Err(cerr).Str("source", req.SourcePath).Msg("closing capture")
		}
	}()

	fps := capture.FrameRate()
	count := capture.FrameCount()
	duration := Duration(fps, count)
	offset := ClampOffset(req.TimeOffset, duration)
	if offset != req.TimeOffset {
		e.logger.Info().
			Float64("requested", req.TimeOffset).
			Float64("duration", duration).
			Float64("using", offset).
			Msg("requested time outside video, using midpoint")
	}

	index := FrameIndex(offset, fps)
	if count > 0 && index >= count {
		// offset == duration lands one past the last frame
		index = count - 1
	}
	e.logger.Debug().
		Str("source", req.SourcePath).
		Float64("fps", fps).
		Int("frames", count).
		Int("index", index).
		Msg("seeking")

	seeked := capture.Seek(index)
	if !seeked {
		e.logger.Warn().Int("index", index).Msg("seek failed, decoding sequentially")
		e.decodeForward(capture, index)
	}

	img, err := capture.Read()
	if err != nil {
		return nil, fmt.Errorf("%w at index %d: %v", ErrRead, index, err)
	}
	if img == nil {
		return nil, fmt.Errorf("%w at index %d: empty frame", ErrRead, index)
	}

	size, err := e.writeJPEG(img, req.OutputPath)
	if err != nil {
		return nil, err
	}

	e.logger.Info().
		Str("path", req.OutputPath).
		Int64("bytes", size).
		Int("index", index).
		Msg("frame saved")

	return &Extracted{
		Path:       req.OutputPath,
		SizeBytes:  size,
		CreatedAt:  e.now(),
		FrameIndex: index,
		TimeOffset: offset,
		Seeked:     seeked,
	}, nil
}

// decodeForward rewinds and discards frames until index is next.
// A short stream stops early and leaves Read to report the failure.
func (e *Extractor) decodeForward(capture Capture, index int) {
	capture.Seek(0)
	for i := 0; i < index; i++ {
		if !capture.Skip() {
			e.logger.Warn().Int("decoded", i).Int("target", index).Msg("stream ended before target frame")
			return
		}
	}
}

func (e *Extractor) writeJPEG(img image.Image, path string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("%w: creating output directory: %v", ErrWrite, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrWrite, err)
	}

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: e.quality}); err != nil {
		f.Close()
		os.Remove(path)
		return 0, fmt.Errorf("%w: encoding jpeg: %v", ErrWrite, err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrWrite, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: frame missing after write: %v", ErrWrite, err)
	}
	if info.Size() == 0 {
		return 0, fmt.Errorf("%w: frame is empty after write", ErrWrite)
	}
	return info.Size(), nil
}
