package frame

import (
	"encoding/base64"
	"fmt"
	"os"
)

var ErrEmptyImage = fmt.Errorf("%w: image file is empty", ErrRead)

// EncodeFile returns the base64 form of the file at path. Empty files are
// an error so a degenerate request never reaches the vision model.
func EncodeFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRead, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s", ErrEmptyImage, path)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
