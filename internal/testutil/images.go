package testutil

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// NoDate writes a fixture without any EXIF block.
const NoDate = ""

// Gradient returns a w×h image whose colors vary along both axes, so resized
// output can be told apart from a solid fill.
func Gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / w),
				G: uint8((y * 255) / h),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

// ExifDateTime returns a little-endian TIFF block whose IFD0 holds a single
// DateTime (0x0132) ASCII entry.
func ExifDateTime(dateTime string) []byte {
	value := append([]byte(dateTime), 0)
	return tiffBlock(0x0132, 2, uint32(len(value)), value)
}

// ExifWithoutDateTime returns a TIFF block holding only an Orientation entry.
func ExifWithoutDateTime() []byte {
	return tiffBlock(0x0112, 3, 1, []byte{1, 0})
}

func tiffBlock(tag, typ uint16, count uint32, value []byte) []byte {
	var buf bytes.Buffer
	le := binary.LittleEndian

	buf.WriteString("II")
	_ = binary.Write(&buf, le, uint16(42))
	_ = binary.Write(&buf, le, uint32(8))

	// IFD0: one entry, then the next-IFD offset.
	_ = binary.Write(&buf, le, uint16(1))
	_ = binary.Write(&buf, le, tag)
	_ = binary.Write(&buf, le, typ)
	_ = binary.Write(&buf, le, count)

	if len(value) <= 4 {
		inline := make([]byte, 4)
		copy(inline, value)
		buf.Write(inline)
		_ = binary.Write(&buf, le, uint32(0))
		return buf.Bytes()
	}

	const dataOffset = 8 + 2 + 12 + 4
	_ = binary.Write(&buf, le, uint32(dataOffset))
	_ = binary.Write(&buf, le, uint32(0))
	buf.Write(value)
	return buf.Bytes()
}

// EncodeJPEG encodes img as JPEG and, when exifTIFF is non-nil, inserts an
// APP1 Exif segment directly after the SOI marker.
func EncodeJPEG(img image.Image, exifTIFF []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	data := buf.Bytes()
	if exifTIFF == nil {
		return data, nil
	}

	payload := append([]byte("Exif\x00\x00"), exifTIFF...)
	segment := []byte{0xFF, 0xE1, 0, 0}
	binary.BigEndian.PutUint16(segment[2:], uint16(2+len(payload)))
	segment = append(segment, payload...)

	out := make([]byte, 0, len(data)+len(segment))
	out = append(out, data[:2]...)
	out = append(out, segment...)
	out = append(out, data[2:]...)
	return out, nil
}

// EncodePNG encodes img as PNG and, when exifTIFF is non-nil, inserts an eXIf
// chunk directly after IHDR.
func EncodePNG(img image.Image, exifTIFF []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	data := buf.Bytes()
	if exifTIFF == nil {
		return data, nil
	}

	// signature (8) + IHDR length, type, 13 bytes of data, crc
	const afterIHDR = 8 + 4 + 4 + 13 + 4

	chunk := PNGChunk("eXIf", exifTIFF)
	out := make([]byte, 0, len(data)+len(chunk))
	out = append(out, data[:afterIHDR]...)
	out = append(out, chunk...)
	out = append(out, data[afterIHDR:]...)
	return out, nil
}

// PNGChunk frames data as a PNG chunk with a valid CRC.
func PNGChunk(typ string, data []byte) []byte {
	chunk := make([]byte, 8, 12+len(data))
	binary.BigEndian.PutUint32(chunk[:4], uint32(len(data)))
	copy(chunk[4:8], typ)
	chunk = append(chunk, data...)
	crc := crc32.ChecksumIEEE(chunk[4:])
	return binary.BigEndian.AppendUint32(chunk, crc)
}

// WriteJPEG writes a w×h JPEG fixture to dir/name. A non-empty dateTime
// ("2023:06:15 10:00:00") is embedded as EXIF DateTime.
func WriteJPEG(t testing.TB, dir, name string, w, h int, dateTime string) string {
	t.Helper()
	data, err := EncodeJPEG(Gradient(w, h), exifFor(dateTime))
	if err != nil {
		t.Fatalf("encode jpeg fixture: %v", err)
	}
	return writeFile(t, dir, name, data)
}

// WritePNG is the PNG counterpart of WriteJPEG, using an eXIf chunk.
func WritePNG(t testing.TB, dir, name string, w, h int, dateTime string) string {
	t.Helper()
	data, err := EncodePNG(Gradient(w, h), exifFor(dateTime))
	if err != nil {
		t.Fatalf("encode png fixture: %v", err)
	}
	return writeFile(t, dir, name, data)
}

// WriteFile writes raw bytes to dir/name and returns the path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	return writeFile(t, dir, name, data)
}

func exifFor(dateTime string) []byte {
	if dateTime == NoDate {
		return nil
	}
	return ExifDateTime(dateTime)
}

func writeFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create fixture dir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", path, err)
	}
	return path
}

// Dimensions returns the width and height stored in the header of the image
// at path.
func Dimensions(t testing.TB, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	config, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode header of %s: %v", path, err)
	}
	return config.Width, config.Height
}
