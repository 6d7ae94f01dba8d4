// Package indexer builds the date-grouped gallery index.
//
// A build lists the .jpg and then the .png files directly inside a source
// directory, writes a bounded JPEG thumbnail of each into the output
// directory under a random five-letter prefix ("qwert-IMG_0001.jpg"), and
// groups the resulting ImageRecords by the EXIF capture date of the source.
// The output directory is purged of files at the start of every build.
//
// Builds are all-or-nothing. An image without a capture date fails the build
// with a *MissingCaptureDateError unless the modtime fallback is enabled; an
// undecodable image fails it with a *DecodeError.
//
// Cache memoizes successful builds per source directory. It is created once
// at startup and shared by the HTTP handlers:
//
//	ix := indexer.New(indexer.Options{OutputDir: "static/images"})
//	gallery := indexer.NewCache(ix)
//	index, err := gallery.Get(ctx, "images")
//	for _, group := range index.Groups() {
//	    // newest date first
//	}
package indexer
