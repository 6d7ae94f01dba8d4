// Package media turns source photos into gallery thumbnails and reads their
// capture dates.
//
// The Thumbnailer decodes a JPEG or PNG with imaging, fits it inside a square
// bound with the Lanczos filter (never enlarging) and writes a JPEG.
// CaptureDate reads EXIF tag 306 (DateTime) with goexif, from the APP1
// segment of a JPEG or the eXIf chunk of a PNG, and returns it as a
// YYYY-MM-DD key.
package media
