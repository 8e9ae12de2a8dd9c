package storage

import (
	"errors"
	"io"
	"io/fs"
)

var (
	ErrNotFound    = errors.New("file not found")
	ErrInvalidName = errors.New("invalid file name")
)

// StreamPrefix marks frames and sidecars produced from live snapshots.
const StreamPrefix = "stream_"

type Storage interface {
	FramePath(name string) string
	SaveFrame(name string, src io.Reader) (string, error)
	SaveAnalysis(name, text string) (string, error)
	OpenFrame(name string) (io.ReadSeekCloser, fs.FileInfo, error)
}
