package mediatypes

import "testing"

func TestFormatOf(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		want   Format
		wantOK bool
	}{
		{name: "jpg", file: "a.jpg", want: FormatJPEG, wantOK: true},
		{name: "png", file: "b.png", want: FormatPNG, wantOK: true},
		{name: "dotted name", file: "2023.06.15.beach.jpg", want: FormatJPEG, wantOK: true},
		{name: "uppercase JPG excluded", file: "C.JPG", wantOK: false},
		{name: "jpeg excluded", file: "d.jpeg", wantOK: false},
		{name: "gif excluded", file: "e.gif", wantOK: false},
		{name: "bare extension", file: ".jpg", want: FormatJPEG, wantOK: true},
		{name: "hidden png", file: ".cover.png", want: FormatPNG, wantOK: true},
		{name: "extension inside name", file: "photo.jpg.txt", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FormatOf(tt.file)
			if ok != tt.wantOK {
				t.Fatalf("FormatOf(%q) ok = %v, want %v", tt.file, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("FormatOf(%q) = %q, want %q", tt.file, got, tt.want)
			}
		})
	}
}

func TestGalleryExtensionsOrder(t *testing.T) {
	if len(GalleryExtensions) != 2 || GalleryExtensions[0] != ".jpg" || GalleryExtensions[1] != ".png" {
		t.Errorf("GalleryExtensions = %v, want [.jpg .png]", GalleryExtensions)
	}
}
