// Command photo-gallery serves a directory of photos as a web page grouped
// by capture date.
//
// Usage:
//
//	photo-gallery serve [--source DIR] [--output DIR] [--port PORT]
//	photo-gallery index [--format json|yaml]
//	photo-gallery version
//
// Settings come from ./config.yaml (or --config), environment variables and
// flags. See config.example.yaml for every key.
package main
