// Package opencv decodes videos through OpenCV's VideoCapture.
package opencv

import (
	"fmt"
	"image"

	"github.com/kdimtricp/camlens/internal/frame"
	"gocv.io/x/gocv"
)

type Opener struct{}

func NewOpener() *Opener {
	return &Opener{}
}

func (Opener) Open(path string) (frame.Capture, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, err
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("capture not opened")
	}
	return &capture{vc: vc, scratch: gocv.NewMat()}, nil
}

type capture struct {
	vc      *gocv.VideoCapture
	scratch gocv.Mat
}

func (c *capture) FrameRate() float64 {
	return c.vc.Get(gocv.VideoCaptureFPS)
}

func (c *capture) FrameCount() int {
	return int(c.vc.Get(gocv.VideoCaptureFrameCount))
}

// Seek sets POS_FRAMES and reads it back; containers with broken seek
// tables leave the position elsewhere.
func (c *capture) Seek(index int) bool {
	c.vc.Set(gocv.VideoCapturePosFrames, float64(index))
	return int(c.vc.Get(gocv.VideoCapturePosFrames)) == index
}

func (c *capture) Skip() bool {
	return c.vc.Read(&c.scratch) && !c.scratch.Empty()
}

func (c *capture) Read() (image.Image, error) {
	mat := gocv.NewMat()
	defer mat.Close()

	if ok := c.vc.Read(&mat); !ok || mat.Empty() {
		return nil, fmt.Errorf("no frame decoded")
	}
	return mat.ToImage()
}

func (c *capture) Close() error {
	c.scratch.Close()
	return c.vc.Close()
}
