// Package mediatypes holds the dependency-free definitions of which files the
// gallery indexes and how thumbnails are typed.
//
// Only names ending in ".jpg" or ".png" are indexed, compared
// case-sensitively. GalleryExtensions fixes the enumeration order used by the
// indexer: all .jpg files first, then all .png files.
//
//	if format, ok := mediatypes.FormatOf(name); ok {
//	    // index it
//	}
package mediatypes
