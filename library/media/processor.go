package media

import (
	"bytes"
	"image"
	_ "image/gif"  // gif decoder
	_ "image/jpeg" // jpeg decoder
	_ "image/png"  // png decoder

	"github.com/Laisky/errors/v2"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // webp decoder
)

var (
	// ErrUnsupportedImage upload is not jpeg, png, gif or webp
	ErrUnsupportedImage = errors.New("unsupported image format")
	// ErrImageTooLarge upload exceeds the size or pixel limit
	ErrImageTooLarge = errors.New("image too large")
)

// MaxPixels largest width*height accepted before decoding
const MaxPixels = 40_000_000

var formatContentType = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// Image validated upload ready to be stored
type Image struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Processor validates uploads and shrinks oversized images
type Processor struct {
	maxBytes int
	maxWidth int
}

// NewProcessor create new Processor.
// maxWidth <= 0 disables resizing.
func NewProcessor(maxBytes, maxWidth int) *Processor {
	return &Processor{
		maxBytes: maxBytes,
		maxWidth: maxWidth,
	}
}

// Prepare check data is a supported image and downscale it to maxWidth.
//
// gif is never resized to keep animation, webp is re-encoded as jpeg
// when resized because there is no pure go webp encoder.
func (p *Processor) Prepare(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, errors.WithStack(ErrUnsupportedImage)
	}
	if p.maxBytes > 0 && len(data) > p.maxBytes {
		return nil, errors.Wrapf(ErrImageTooLarge, "got %d bytes, limit %d", len(data), p.maxBytes)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(ErrUnsupportedImage, err.Error())
	}
	contentType, ok := formatContentType[format]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedImage, "format %q", format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.Wrapf(ErrUnsupportedImage, "invalid size %dx%d", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, errors.Wrapf(ErrImageTooLarge, "got %dx%d pixels, limit %d",
			cfg.Width, cfg.Height, MaxPixels)
	}

	out := &Image{
		Data:        data,
		ContentType: contentType,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}
	if p.maxWidth <= 0 || cfg.Width <= p.maxWidth || format == "gif" {
		return out, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(ErrUnsupportedImage, err.Error())
	}
	resized := imaging.Resize(img, p.maxWidth, 0, imaging.Lanczos)

	encFormat := imaging.JPEG
	if format == "png" {
		encFormat = imaging.PNG
	}

	buf := new(bytes.Buffer)
	if err = imaging.Encode(buf, resized, encFormat, imaging.JPEGQuality(90)); err != nil {
		return nil, errors.Wrap(err, "encode resized image")
	}

	out.Data = buf.Bytes()
	out.Width = resized.Bounds().Dx()
	out.Height = resized.Bounds().Dy()
	if encFormat == imaging.JPEG {
		out.ContentType = "image/jpeg"
	}

	return out, nil
}
