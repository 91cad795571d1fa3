package capture

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/visionlink/camstream/internal/frame"
)

// UVC captures from a V4L2/UVC camera device through OpenCV, selected
// by its numeric device index.
type UVC struct {
	index  int
	width  int
	height int

	cam *gocv.VideoCapture
	mat gocv.Mat
	rgb gocv.Mat
}

// NewUVC creates a backend for the camera at the given index. The
// requested width/height are passed to the driver as a hint; frames
// may still come back at a different size and are resized downstream.
func NewUVC(index, width, height int) *UVC {
	return &UVC{index: index, width: width, height: height}
}

// Start opens the camera device.
func (u *UVC) Start() error {
	cam, err := gocv.OpenVideoCapture(u.index)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", u.index, err)
	}
	if u.width > 0 {
		cam.Set(gocv.VideoCaptureFrameWidth, float64(u.width))
	}
	if u.height > 0 {
		cam.Set(gocv.VideoCaptureFrameHeight, float64(u.height))
	}

	u.cam = cam
	u.mat = gocv.NewMat()
	u.rgb = gocv.NewMat()
	return nil
}

// Stop releases the device and the scratch buffers.
func (u *UVC) Stop() error {
	if u.cam == nil {
		return nil
	}
	u.mat.Close()
	u.rgb.Close()
	err := u.cam.Close()
	u.cam = nil
	if err != nil {
		return fmt.Errorf("close camera %d: %w", u.index, err)
	}
	return nil
}

// TryRead grabs the next frame from the device. OpenCV delivers BGR;
// the byte order is swapped so downstream code only ever sees RGB.
func (u *UVC) TryRead() (*frame.Frame, bool) {
	if u.cam == nil {
		return nil, false
	}
	if ok := u.cam.Read(&u.mat); !ok || u.mat.Empty() {
		return nil, false
	}

	gocv.CvtColor(u.mat, &u.rgb, gocv.ColorBGRToRGB)
	f := &frame.Frame{
		Width:    u.rgb.Cols(),
		Height:   u.rgb.Rows(),
		Channels: u.rgb.Channels(),
		Pix:      u.rgb.ToBytes(),
	}
	return f, true
}

// Name identifies the backend and its device index.
func (u *UVC) Name() string {
	return fmt.Sprintf("uvc:%d", u.index)
}
