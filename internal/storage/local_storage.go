package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage keeps frame images and analysis sidecars in two directories.
type LocalStorage struct {
	framesDir   string
	analysisDir string
}

func NewLocalStorage(framesDir, analysisDir string) (*LocalStorage, error) {
	for _, dir := range []string{framesDir, analysisDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}
	return &LocalStorage{framesDir: framesDir, analysisDir: analysisDir}, nil
}

func (ls *LocalStorage) FramesDir() string   { return ls.framesDir }
func (ls *LocalStorage) AnalysisDir() string { return ls.analysisDir }

func (ls *LocalStorage) FramePath(name string) string {
	return filepath.Join(ls.framesDir, name)
}

func (ls *LocalStorage) SaveFrame(name string, src io.Reader) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}

	fullPath := filepath.Join(ls.framesDir, name)
	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if n == 0 {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to save file: no data written")
	}

	return fullPath, nil
}

func (ls *LocalStorage) SaveAnalysis(name, text string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}

	fullPath := filepath.Join(ls.analysisDir, name)
	if err := os.WriteFile(fullPath, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("failed to write analysis: %w", err)
	}
	return fullPath, nil
}

// OpenFrame opens a frame by base name. A miss is retried once with the
// stream prefix so callers can refer to snapshots by their short name.
func (ls *LocalStorage) OpenFrame(name string) (io.ReadSeekCloser, fs.FileInfo, error) {
	if err := validName(name); err != nil {
		return nil, nil, err
	}

	candidates := []string{name}
	if !strings.HasPrefix(name, StreamPrefix) {
		candidates = append(candidates, StreamPrefix+name)
	}

	for _, candidate := range candidates {
		f, err := os.Open(filepath.Join(ls.framesDir, candidate))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open file: %w", err)
		}

		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("failed to stat file: %w", err)
		}
		if !info.Mode().IsRegular() {
			f.Close()
			continue
		}
		return f, info, nil
	}

	return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

func validName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
