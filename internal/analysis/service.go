package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kdimtricp/camlens/internal/ai"
	"github.com/kdimtricp/camlens/internal/frame"
	"github.com/kdimtricp/camlens/internal/models"
	"github.com/kdimtricp/camlens/internal/storage"
	"github.com/kdimtricp/camlens/internal/video"
	"github.com/rs/zerolog"
)

// StampLayout names frames and sidecars at second granularity.
const StampLayout = "20060102_150405"

const (
	DefaultVideo      = "football.mp4"
	DefaultTimeOffset = 5.0
	DefaultStreamName = "Unknown Stream"
)

type Catalog interface {
	Lookup(filename string) (video.Reference, bool)
}

type Locator interface {
	Locate(filename string) (string, error)
}

type FrameExtractor interface {
	Extract(req frame.Request) (*frame.Extracted, error)
}

type HistoryStore interface {
	Append(ctx context.Context, record *models.AnalysisRecord) error
	Find(ctx context.Context, q models.HistoryQuery) ([]models.AnalysisRecord, error)
}

type PromptStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, prompt string) error
}

type VideoRequest struct {
	VideoFilename string
	TimeOffset    float64
	Prompt        string
	DeviceID      string
}

type SnapshotRequest struct {
	Image      []byte
	Prompt     string
	DeviceID   string
	StreamName string
}

// Outcome is the result of a successful model call. Persisted is false when
// the sidecar or the history append failed; PersistErr then wraps ErrPersist.
type Outcome struct {
	Stamp        string
	Record       *models.AnalysisRecord
	AnalysisPath string
	Persisted    bool
	PersistErr   error
}

type Config struct {
	Now func() time.Time
}

type Service struct {
	catalog   Catalog
	locator   Locator
	extractor FrameExtractor
	vision    ai.VisionClient
	storage   storage.Storage
	history   HistoryStore
	prompts   PromptStore
	encode    func(path string) (string, error)
	now       func() time.Time
	logger    zerolog.Logger
}

func NewService(
	catalog Catalog,
	locator Locator,
	extractor FrameExtractor,
	vision ai.VisionClient,
	store storage.Storage,
	history HistoryStore,
	prompts PromptStore,
	config Config,
	logger zerolog.Logger,
) *Service {
	if config.Now == nil {
		config.Now = time.Now
	}

	return &Service{
		catalog:   catalog,
		locator:   locator,
		extractor: extractor,
		vision:    vision,
		storage:   store,
		history:   history,
		prompts:   prompts,
		encode:    frame.EncodeFile,
		now:       config.Now,
		logger:    logger.With().Str("component", "analysis").Logger(),
	}
}

// AnalyzeStoredVideo grabs one frame of a catalog video and describes it.
func (s *Service) AnalyzeStoredVideo(ctx context.Context, req VideoRequest) (*Outcome, error) {
	if req.VideoFilename == "" {
		req.VideoFilename = DefaultVideo
	}
	deviceID := models.NormalizeDeviceID(req.DeviceID)

	log := s.logger.With().
		Str("video", req.VideoFilename).
		Str("device_id", deviceID).
		Float64("time_offset", req.TimeOffset).
		Logger()

	if _, ok := s.catalog.Lookup(req.VideoFilename); !ok {
		return nil, stageErr(StageCatalog, fmt.Errorf("%w: %s is not in the catalog", video.ErrNotFound, req.VideoFilename))
	}

	sourcePath, err := s.locator.Locate(req.VideoFilename)
	if err != nil {
		return nil, stageErr(StageLocate, err)
	}

	now := s.now()
	stamp := now.Format(StampLayout)
	frameName := fmt.Sprintf("frame_%s.jpg", stamp)

	extracted, err := s.extractor.Extract(frame.Request{
		SourcePath: sourcePath,
		TimeOffset: req.TimeOffset,
		OutputPath: s.storage.FramePath(frameName),
	})
	if err != nil {
		log.Error().Err(err).Msg("frame extraction failed")
		return nil, stageErr(StageExtract, err)
	}

	log.Debug().
		Str("frame", frameName).
		Int("frame_index", extracted.FrameIndex).
		Bool("seeked", extracted.Seeked).
		Int64("size", extracted.SizeBytes).
		Msg("frame extracted")

	prompt, err := s.effectivePrompt(ctx, req.Prompt)
	if err != nil {
		return nil, err
	}

	result, err := s.describe(ctx, extracted.Path, prompt)
	if err != nil {
		log.Error().Err(err).Msg("analysis failed")
		return nil, err
	}

	record := models.NewAnalysisRecord(now, frameName, prompt, result, deviceID)
	return s.persist(ctx, log, stamp, fmt.Sprintf("analysis_%s.txt", stamp), record), nil
}

// AnalyzeLiveSnapshot describes a JPEG uploaded from a live stream.
func (s *Service) AnalyzeLiveSnapshot(ctx context.Context, req SnapshotRequest) (*Outcome, error) {
	if len(req.Image) == 0 {
		return nil, stageErr(StageSnapshot, ErrEmptySnapshot)
	}

	deviceID := models.StreamDeviceID(models.NormalizeDeviceID(req.DeviceID))
	streamName := strings.TrimSpace(req.StreamName)
	if streamName == "" {
		streamName = DefaultStreamName
	}

	log := s.logger.With().
		Str("device_id", deviceID).
		Str("stream", streamName).
		Int("image_size", len(req.Image)).
		Logger()

	now := s.now()
	stamp := now.Format(StampLayout)
	frameName := fmt.Sprintf("stream_%s.jpg", stamp)

	framePath, err := s.storage.SaveFrame(frameName, bytes.NewReader(req.Image))
	if err != nil {
		log.Error().Err(err).Msg("failed to save snapshot")
		return nil, stageErr(StageSnapshot, err)
	}

	prompt, err := s.effectivePrompt(ctx, req.Prompt)
	if err != nil {
		return nil, err
	}

	modelPrompt := fmt.Sprintf("%s\n\nThis is a snapshot from the live stream: %s.", prompt, streamName)
	result, err := s.describe(ctx, framePath, modelPrompt)
	if err != nil {
		log.Error().Err(err).Msg("analysis failed")
		return nil, err
	}

	record := models.NewAnalysisRecord(now, filepath.Base(framePath), prompt, result, deviceID)
	return s.persist(ctx, log, stamp, fmt.Sprintf("stream_analysis_%s.txt", stamp), record), nil
}

func (s *Service) History(ctx context.Context, q models.HistoryQuery) ([]models.AnalysisRecord, error) {
	return s.history.Find(ctx, q)
}

func (s *Service) Prompt(ctx context.Context) (string, error) {
	return s.prompts.Get(ctx)
}

func (s *Service) SetPrompt(ctx context.Context, prompt string) error {
	return s.prompts.Set(ctx, prompt)
}

// effectivePrompt is the explicit prompt when given, else the stored one
// as of this call.
func (s *Service) effectivePrompt(ctx context.Context, explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}
	prompt, err := s.prompts.Get(ctx)
	if err != nil {
		return "", stageErr(StagePrompt, err)
	}
	return prompt, nil
}

func (s *Service) describe(ctx context.Context, framePath, prompt string) (string, error) {
	encoded, err := s.encode(framePath)
	if err != nil {
		return "", stageErr(StageEncode, err)
	}

	result, err := s.vision.Analyze(ctx, encoded, prompt)
	if err != nil {
		return "", stageErr(StageAnalyze, err)
	}
	return result, nil
}

// persist writes the sidecar and the history record. Failures here are
// logged and reported on the outcome only.
func (s *Service) persist(ctx context.Context, log zerolog.Logger, stamp, sidecar string, record *models.AnalysisRecord) *Outcome {
	out := &Outcome{Stamp: stamp, Record: record}

	var errs []error
	path, err := s.storage.SaveAnalysis(sidecar, record.Result)
	if err != nil {
		log.Warn().Err(err).Str("sidecar", sidecar).Msg("failed to write analysis sidecar")
		errs = append(errs, err)
	} else {
		out.AnalysisPath = path
	}

	if err := s.history.Append(ctx, record); err != nil {
		log.Warn().Err(err).Msg("failed to append analysis history")
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		out.PersistErr = fmt.Errorf("%w: %w", ErrPersist, errors.Join(errs...))
		return out
	}

	out.Persisted = true
	log.Info().Int64("record_id", record.ID).Str("frame", record.FramePath).Msg("analysis stored")
	return out
}
