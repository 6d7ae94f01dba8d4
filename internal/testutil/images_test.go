package testutil

import (
	"bytes"
	"image/jpeg"
	"image/png"
	"os"
	"testing"
)

func TestWriteJPEGDecodes(t *testing.T) {
	path := WriteJPEG(t, t.TempDir(), "a.jpg", 40, 20, "2023:06:15 10:00:00")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("Exif\x00\x00II")) {
		t.Error("APP1 Exif header not found")
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("jpeg.Decode() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Errorf("bounds = %v, want 40x20", b)
	}
}

func TestWritePNGDecodes(t *testing.T) {
	path := WritePNG(t, t.TempDir(), "b.png", 10, 30, "2023:05:01 08:00:00")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("eXIf")) {
		t.Error("eXIf chunk not found")
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 10 || b.Dy() != 30 {
		t.Errorf("bounds = %v, want 10x30", b)
	}
}

func TestExifDateTimeLayout(t *testing.T) {
	block := ExifDateTime("2023:06:15 10:00:00")
	if string(block[:4]) != "II*\x00" {
		t.Errorf("header = %q", block[:4])
	}
	if !bytes.HasSuffix(block, []byte("2023:06:15 10:00:00\x00")) {
		t.Error("DateTime value not at end of block")
	}

	short := ExifDateTime("")
	if len(short) != 8+2+12+4 {
		t.Errorf("inline block length = %d, want 26", len(short))
	}
}
