package frame

// Format is the raw memory layout a capture device delivers frames in.
type Format string

const (
	// YUV Formats

	// FormatI420 https://www.fourcc.org/pixel-format/yuv-i420/
	FormatI420 Format = "I420"
	// FormatNV21 https://www.fourcc.org/pixel-format/yuv-nv21/
	FormatNV21 Format = "NV21"
	// FormatYUY2 https://www.fourcc.org/pixel-format/yuv-yuy2/
	FormatYUY2 Format = "YUY2"
	// FormatUYVY https://www.fourcc.org/pixel-format/yuv-uyvy/
	FormatUYVY Format = "UYVY"

	// RGB Formats

	// FormatRGBA is 8 bits per channel, non alpha-premultiplied RGBA
	FormatRGBA Format = "RGBA"

	// Compressed Formats

	// FormatMJPEG https://www.fourcc.org/mjpg/
	FormatMJPEG Format = "MJPEG"
)

// YUV aliases

// FormatYUYV is an alias of FormatYUY2
const FormatYUYV = FormatYUY2
