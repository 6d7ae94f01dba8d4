package media

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"time"

	"github.com/disintegration/imaging"

	"photo-gallery/internal/filesystem"
	"photo-gallery/internal/logging"
	"photo-gallery/internal/mediatypes"
	"photo-gallery/internal/metrics"
)

const (
	// DefaultThumbnailSize bounds both thumbnail dimensions.
	DefaultThumbnailSize = 300
	// DefaultThumbnailQuality is the JPEG quality of written thumbnails.
	DefaultThumbnailQuality = 80
)

// ErrDecode marks errors from decoding a source image, as opposed to errors
// opening or writing files.
var ErrDecode = errors.New("image decode failed")

// Thumbnail describes one written thumbnail.
type Thumbnail struct {
	Width  int
	Height int
	Bytes  int64
}

// Thumbnailer decodes source images and writes bounded JPEG thumbnails.
type Thumbnailer struct {
	maxSize int
	quality int
	retry   filesystem.RetryConfig
}

// NewThumbnailer returns a Thumbnailer bounding thumbnails to maxSize pixels
// on each side. Non-positive arguments select the defaults.
func NewThumbnailer(maxSize, quality int) *Thumbnailer {
	if maxSize <= 0 {
		maxSize = DefaultThumbnailSize
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultThumbnailQuality
	}
	return &Thumbnailer{
		maxSize: maxSize,
		quality: quality,
		retry:   filesystem.DefaultRetryConfig(),
	}
}

// MaxSize returns the thumbnail bound.
func (t *Thumbnailer) MaxSize() int {
	return t.maxSize
}

// Generate writes a thumbnail of src to dest. The output is always JPEG,
// whatever the source format or the extension of dest.
func (t *Thumbnailer) Generate(src, dest string) (Thumbnail, error) {
	format, _ := mediatypes.FormatOf(src)
	if format == "" {
		format = "unknown"
	}

	thumb, err := t.generate(src, dest)
	if err != nil {
		metrics.ThumbnailsGenerated.WithLabelValues(string(format), "error").Inc()
		return Thumbnail{}, err
	}
	metrics.ThumbnailsGenerated.WithLabelValues(string(format), "success").Inc()
	metrics.ThumbnailBytesWritten.Add(float64(thumb.Bytes))
	return thumb, nil
}

func (t *Thumbnailer) generate(src, dest string) (Thumbnail, error) {
	start := time.Now()
	img, err := t.Decode(src)
	if err != nil {
		return Thumbnail{}, err
	}
	metrics.ThumbnailDuration.WithLabelValues("decode").Observe(time.Since(start).Seconds())

	start = time.Now()
	thumb := t.Resize(img)
	metrics.ThumbnailDuration.WithLabelValues("resize").Observe(time.Since(start).Seconds())

	start = time.Now()
	n, err := t.Write(thumb, dest)
	if err != nil {
		return Thumbnail{}, err
	}
	metrics.ThumbnailDuration.WithLabelValues("encode").Observe(time.Since(start).Seconds())

	bounds := thumb.Bounds()
	logging.Debug("Thumbnail written: %s (%dx%d, %d bytes)", dest, bounds.Dx(), bounds.Dy(), n)
	return Thumbnail{Width: bounds.Dx(), Height: bounds.Dy(), Bytes: n}, nil
}

// Decode reads the image at path. Orientation tags are not applied, so the
// thumbnail keeps the stored pixel layout.
func (t *Thumbnailer) Decode(path string) (image.Image, error) {
	f, err := filesystem.OpenWithRetry(path, t.retry)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	img, err := imaging.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return img, nil
}

// Resize scales img down so neither side exceeds the bound, keeping the
// aspect ratio. Images that already fit are returned unscaled. Transparent
// pixels are flattened onto white since JPEG has no alpha channel.
func (t *Thumbnailer) Resize(img image.Image) image.Image {
	fitted := imaging.Fit(img, t.maxSize, t.maxSize, imaging.Lanczos)
	b := fitted.Bounds()
	background := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(background, fitted, image.Pt(0, 0), 1.0)
}

// Write encodes img as JPEG into dest and returns the number of bytes written.
func (t *Thumbnailer) Write(img image.Image, dest string) (int64, error) {
	f, err := filesystem.CreateWithRetry(dest, t.retry)
	if err != nil {
		return 0, fmt.Errorf("failed to create thumbnail: %w", err)
	}

	counter := &countingWriter{w: f}
	bw := bufio.NewWriter(counter)
	if err := imaging.Encode(bw, img, imaging.JPEG, imaging.JPEGQuality(t.quality)); err != nil {
		_ = f.Close()
		return 0, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return 0, fmt.Errorf("failed to write thumbnail: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("failed to close thumbnail: %w", err)
	}
	return counter.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
