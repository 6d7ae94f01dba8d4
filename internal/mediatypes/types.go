package mediatypes

import "strings"

// Format identifies a source image encoding the gallery indexes.
type Format string

const (
	// FormatJPEG is a .jpg source.
	FormatJPEG Format = "jpeg"
	// FormatPNG is a .png source.
	FormatPNG Format = "png"
)

// GalleryExtensions lists the indexed extensions in enumeration order: every
// .jpg file is visited before any .png file. Matching is case-sensitive, so
// ".JPG" and ".jpeg" are not indexed.
var GalleryExtensions = []string{".jpg", ".png"}

var extensionFormats = map[string]Format{
	".jpg": FormatJPEG,
	".png": FormatPNG,
}

// ThumbnailMimeType is the encoding of every file in the output directory.
// Thumbnails keep their source name, so a .png source yields JPEG bytes
// under a .png name.
const ThumbnailMimeType = "image/jpeg"

// MatchesExtension reports whether name ends in ext, case-sensitively. A
// name that is only the extension, such as ".jpg", matches too.
func MatchesExtension(name, ext string) bool {
	return strings.HasSuffix(name, ext)
}

// FormatOf returns the source format for a file name, or false when the name
// does not carry one of GalleryExtensions.
func FormatOf(name string) (Format, bool) {
	for _, ext := range GalleryExtensions {
		if MatchesExtension(name, ext) {
			return extensionFormats[ext], true
		}
	}
	return "", false
}
