package indexer

import "sort"

// ImageRecord references one generated thumbnail.
type ImageRecord struct {
	URL  string `json:"url" yaml:"url"`
	Name string `json:"name" yaml:"name"`
}

// Index maps a capture date key (YYYY-MM-DD) to the thumbnails taken that
// day, in scan order. Indexes returned by a Cache are shared and must not be
// modified.
type Index map[string][]ImageRecord

// DateGroup is one entry of Index.Groups.
type DateGroup struct {
	Date   string        `json:"date" yaml:"date"`
	Images []ImageRecord `json:"images" yaml:"images"`
}

// Groups returns the index as a slice ordered newest date first. Keys compare
// lexicographically, which for YYYY-MM-DD is chronological.
func (ix Index) Groups() []DateGroup {
	groups := make([]DateGroup, 0, len(ix))
	for date, images := range ix {
		groups = append(groups, DateGroup{Date: date, Images: images})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Date > groups[j].Date
	})
	return groups
}

// Len returns the number of images across all dates.
func (ix Index) Len() int {
	n := 0
	for _, images := range ix {
		n += len(images)
	}
	return n
}

func (ix Index) add(date string, rec ImageRecord) {
	ix[date] = append(ix[date], rec)
}
