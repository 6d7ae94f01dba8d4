// Package testutil builds image fixtures for tests: gradient JPEG and PNG
// files with an optional EXIF DateTime, embedded as a JPEG APP1 segment or a
// PNG eXIf chunk.
package testutil
