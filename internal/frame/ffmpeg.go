package frame

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// FFmpegOpener opens videos by probing them with ffprobe and decoding
// single frames with ffmpeg subprocesses.
type FFmpegOpener struct {
	ffmpegPath  string
	ffprobePath string
	tempDir     string
	logger      zerolog.Logger
}

func NewFFmpegOpener(logger zerolog.Logger) (*FFmpegOpener, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	// ffprobe is optional; without it the ffmpeg banner is parsed instead.
	ffprobePath, _ := exec.LookPath("ffprobe")

	tempDir := filepath.Join(os.TempDir(), "camlens-frames")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	logger = logger.With().Str("component", "ffmpeg").Logger()
	logger.Info().Str("ffmpeg", ffmpegPath).Str("ffprobe", ffprobePath).Str("temp_dir", tempDir).Msg("ffmpeg backend ready")

	return &FFmpegOpener{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		tempDir:     tempDir,
		logger:      logger,
	}, nil
}

func (o *FFmpegOpener) Open(path string) (Capture, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("video file not accessible: %w", err)
	}

	var (
		p   probe
		err error
	)
	if o.ffprobePath != "" {
		p, err = o.probeWithFFprobe(path)
	}
	if o.ffprobePath == "" || err != nil {
		if err != nil {
			o.logger.Debug().Err(err).Msg("ffprobe failed, parsing ffmpeg output")
		}
		p, err = o.probeWithFFmpeg(path)
		if err != nil {
			return nil, err
		}
	}

	return &ffmpegCapture{
		opener: o,
		path:   path,
		fps:    p.fps,
		count:  p.frameCount(),
	}, nil
}

type probe struct {
	fps      float64
	frames   int
	duration float64
}

func (p probe) frameCount() int {
	if p.frames > 0 {
		return p.frames
	}
	if p.fps > 0 && p.duration > 0 {
		return int(math.Round(p.duration * p.fps))
	}
	return 0
}

func (o *FFmpegOpener) probeWithFFprobe(path string) (probe, error) {
	cmd := exec.Command(o.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=r_frame_rate,nb_frames:format=duration",
		"-of", "default=noprint_wrappers=1",
		path)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return probe{}, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return parseProbeOutput(stdout.String())
}

func parseProbeOutput(out string) (probe, error) {
	var p probe
	sawStream := false

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		key, val, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "r_frame_rate":
			sawStream = true
			p.fps = parseRate(val)
		case "nb_frames":
			if n, err := strconv.Atoi(val); err == nil {
				p.frames = n
			}
		case "duration":
			if d, err := strconv.ParseFloat(val, 64); err == nil {
				p.duration = d
			}
		}
	}

	if !sawStream {
		return probe{}, fmt.Errorf("no video stream found")
	}
	return p, nil
}

// parseRate handles "30000/1001" style rationals.
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

var (
	durationRe = regexp.MustCompile(`Duration: (\d+):(\d+):(\d+(?:\.\d+)?)`)
	fpsRe      = regexp.MustCompile(`Video:.*?(\d+(?:\.\d+)?) fps`)
)

func (o *FFmpegOpener) probeWithFFmpeg(path string) (probe, error) {
	cmd := exec.Command(o.ffmpegPath, "-hide_banner", "-i", path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	// ffmpeg exits non-zero without an output file; the banner is still printed.
	_ = cmd.Run()
	return parseFFmpegBanner(stderr.String())
}

func parseFFmpegBanner(output string) (probe, error) {
	var p probe

	fm := fpsRe.FindStringSubmatch(output)
	if fm == nil {
		return probe{}, fmt.Errorf("no video stream found in ffmpeg output")
	}
	p.fps, _ = strconv.ParseFloat(fm[1], 64)

	if dm := durationRe.FindStringSubmatch(output); dm != nil {
		hours, _ := strconv.ParseFloat(dm[1], 64)
		minutes, _ := strconv.ParseFloat(dm[2], 64)
		seconds, _ := strconv.ParseFloat(dm[3], 64)
		p.duration = hours*3600 + minutes*60 + seconds
	}

	return p, nil
}

type ffmpegCapture struct {
	opener *FFmpegOpener
	path   string
	fps    float64
	count  int
	pos    int
}

func (c *ffmpegCapture) FrameRate() float64 { return c.fps }
func (c *ffmpegCapture) FrameCount() int    { return c.count }

func (c *ffmpegCapture) Seek(index int) bool {
	if index < 0 || (c.count > 0 && index >= c.count) {
		return false
	}
	c.pos = index
	return true
}

// Skip advances without decoding: the select filter used by Read addresses
// frames by decode order, so discarded frames need no pixels.
func (c *ffmpegCapture) Skip() bool {
	if c.count > 0 && c.pos >= c.count {
		return false
	}
	c.pos++
	return true
}

func (c *ffmpegCapture) Read() (image.Image, error) {
	tempFile := filepath.Join(c.opener.tempDir, uuid.New().String()+".jpg")
	defer os.Remove(tempFile)

	args := []string{
		"-v", "error",
		"-i", c.path,
		"-vf", fmt.Sprintf(`select=eq(n\,%d)`, c.pos),
		"-vsync", "0",
		"-frames:v", "1",
		"-q:v", "2",
		"-y", tempFile,
	}

	cmd := exec.Command(c.opener.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		c.opener.logger.Debug().Str("stderr", stderr.String()).Msg("ffmpeg failed")
		return nil, fmt.Errorf("ffmpeg decode at frame %d: %w", c.pos, err)
	}

	file, err := os.Open(tempFile)
	if err != nil {
		return nil, fmt.Errorf("no frame at index %d (end of stream)", c.pos)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}

	c.pos++
	return img, nil
}

func (c *ffmpegCapture) Close() error { return nil }
