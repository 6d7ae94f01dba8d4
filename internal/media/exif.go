package media

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"photo-gallery/internal/filesystem"
	"photo-gallery/internal/logging"
	"photo-gallery/internal/mediatypes"
)

// ErrNoCaptureDate is returned when an image carries no usable EXIF DateTime
// (tag 306): no EXIF block, no such tag, or an empty value.
var ErrNoCaptureDate = errors.New("no EXIF DateTime")

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// CaptureDate returns the date key (YYYY-MM-DD) of the image at path, taken
// from the EXIF DateTime tag. Errors opening or reading the file are
// returned as-is; everything else wraps ErrNoCaptureDate.
func CaptureDate(path string, retry filesystem.RetryConfig) (string, error) {
	raw, err := ReadDateTime(path, retry)
	if err != nil {
		return "", err
	}
	key, ok := DateKey(raw)
	if !ok {
		return "", fmt.Errorf("%w: empty value in %s", ErrNoCaptureDate, path)
	}
	return key, nil
}

// DateKey turns an EXIF DateTime such as "2023:06:15 10:00:00" into
// "2023-06-15": the text before the first whitespace with colons replaced.
func DateKey(raw string) (string, bool) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return "", false
	}
	return strings.ReplaceAll(fields[0], ":", "-"), true
}

// ReadDateTime returns the raw EXIF DateTime string of a JPEG or PNG file.
func ReadDateTime(path string, retry filesystem.RetryConfig) (string, error) {
	f, err := filesystem.OpenWithRetry(path, retry)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	var src io.Reader = f
	if format, _ := mediatypes.FormatOf(path); format == mediatypes.FormatPNG {
		block, err := findPNGExif(f)
		if err != nil {
			return "", err
		}
		if block == nil {
			return "", fmt.Errorf("%w: no eXIf chunk in %s", ErrNoCaptureDate, path)
		}
		src = bytes.NewReader(block)
	}

	x, err := exif.Decode(src)
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return "", fmt.Errorf("%w: %s: %v", ErrNoCaptureDate, path, err)
	}

	tag, err := x.Get(exif.DateTime)
	if err != nil {
		if exif.IsTagNotPresentError(err) {
			return "", fmt.Errorf("%w: tag absent in %s", ErrNoCaptureDate, path)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrNoCaptureDate, path, err)
	}
	if tag.Format() != tiff.StringVal {
		return "", fmt.Errorf("%w: DateTime in %s is not a string", ErrNoCaptureDate, path)
	}

	value, err := tag.StringVal()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrNoCaptureDate, path, err)
	}
	return strings.TrimRight(value, "\x00"), nil
}

// findPNGExif walks the chunk list of a PNG stream and returns the payload of
// the eXIf chunk, or nil if there is none. Chunk data other than eXIf is
// skipped without being read.
func findPNGExif(r io.ReadSeeker) ([]byte, error) {
	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(r, sig); err != nil {
		return nil, fmt.Errorf("%w: short PNG header", ErrNoCaptureDate)
	}
	if !bytes.Equal(sig, pngSignature) {
		return nil, fmt.Errorf("%w: not a PNG stream", ErrNoCaptureDate)
	}

	var header [8]byte
	for {
		if _, err := io.ReadFull(r, header[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, nil
			}
			return nil, err
		}
		length := binary.BigEndian.Uint32(header[:4])
		typ := string(header[4:8])

		switch typ {
		case "eXIf":
			data := make([]byte, length)
			if _, err := io.ReadFull(r, data); err != nil {
				return nil, fmt.Errorf("%w: truncated eXIf chunk", ErrNoCaptureDate)
			}
			var crc [4]byte
			if _, err := io.ReadFull(r, crc[:]); err != nil {
				return nil, fmt.Errorf("%w: truncated eXIf chunk", ErrNoCaptureDate)
			}
			sum := crc32.NewIEEE()
			sum.Write(header[4:8])
			sum.Write(data)
			if sum.Sum32() != binary.BigEndian.Uint32(crc[:]) {
				return nil, fmt.Errorf("%w: eXIf chunk checksum mismatch", ErrNoCaptureDate)
			}
			return data, nil
		case "IEND":
			return nil, nil
		}

		if _, err := r.Seek(int64(length)+4, io.SeekCurrent); err != nil {
			return nil, err
		}
	}
}
