// Package cli defines the photo-gallery command line: serve runs the web
// server, index performs a single build and prints the groups, version
// prints build information.
package cli
