package indexer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"photo-gallery/internal/filesystem"
	"photo-gallery/internal/logging"
	"photo-gallery/internal/media"
	"photo-gallery/internal/mediatypes"
	"photo-gallery/internal/metrics"
	"photo-gallery/internal/workers"
)

// DateFallback selects what happens when an image has no EXIF DateTime.
type DateFallback string

const (
	// FallbackNone fails the build with a MissingCaptureDateError.
	FallbackNone DateFallback = "none"
	// FallbackModTime dates the image by its modification time (local zone).
	FallbackModTime DateFallback = "modtime"
)

// ParseDateFallback validates a CAPTURE_DATE_FALLBACK value.
func ParseDateFallback(s string) (DateFallback, error) {
	switch DateFallback(s) {
	case "", FallbackNone:
		return FallbackNone, nil
	case FallbackModTime:
		return FallbackModTime, nil
	default:
		return "", fmt.Errorf("invalid capture date fallback %q (want none or modtime)", s)
	}
}

// ThumbnailWriter writes the thumbnail of src to dest.
type ThumbnailWriter interface {
	Generate(src, dest string) (media.Thumbnail, error)
}

// DateReader returns the YYYY-MM-DD capture date of an image.
type DateReader func(path string) (string, error)

// Options configures an Indexer. Zero values select defaults.
type Options struct {
	// OutputDir receives the thumbnails. It is purged at the start of
	// every build.
	OutputDir string
	// URLPrefix is joined with the escaped thumbnail name to form
	// ImageRecord.URL.
	URLPrefix string
	// Workers bounds concurrent thumbnail generation within one build.
	Workers      int
	DateFallback DateFallback
	Thumbnailer  ThumbnailWriter
	ReadDate     DateReader
	Prefix       PrefixFunc
	Retry        filesystem.RetryConfig
	// Gate, when set, is waited on before each thumbnail is decoded.
	Gate Gate
}

// Gate holds back thumbnail workers, e.g. under memory pressure.
type Gate interface {
	Wait(ctx context.Context) error
}

// Status summarizes the builds an Indexer has run.
type Status struct {
	Building     bool          `json:"building"`
	Builds       int64         `json:"builds"`
	Failures     int64         `json:"failures"`
	LastBuild    time.Time     `json:"lastBuild,omitempty"`
	LastDuration time.Duration `json:"lastDurationNs"`
	LastImages   int           `json:"lastImages"`
	LastError    string        `json:"lastError,omitempty"`
}

// Indexer scans a source directory, writes thumbnails into the output
// directory and groups them by capture date.
type Indexer struct {
	opts Options

	// held for a whole build; every build rewrites the shared output dir
	buildMu sync.Mutex

	statusMu sync.RWMutex
	status   Status
}

// New creates an Indexer.
func New(opts Options) *Indexer {
	if opts.OutputDir == "" {
		opts.OutputDir = filepath.Join("static", "images")
	}
	if opts.URLPrefix == "" {
		opts.URLPrefix = "/static/images"
	}
	if opts.Workers <= 0 {
		opts.Workers = workers.ForBuild(0)
	}
	if opts.DateFallback == "" {
		opts.DateFallback = FallbackNone
	}
	if opts.Thumbnailer == nil {
		opts.Thumbnailer = media.NewThumbnailer(0, 0)
	}
	if opts.Retry.MaxRetries == 0 && opts.Retry.InitialBackoff == 0 {
		opts.Retry = filesystem.DefaultRetryConfig()
	}
	if opts.ReadDate == nil {
		retry := opts.Retry
		opts.ReadDate = func(p string) (string, error) {
			return media.CaptureDate(p, retry)
		}
	}
	if opts.Prefix == nil {
		opts.Prefix = RandomPrefix
	}
	return &Indexer{opts: opts}
}

// OutputDir returns the directory thumbnails are written to.
func (ix *Indexer) OutputDir() string {
	return ix.opts.OutputDir
}

// Status returns a snapshot of the build counters.
func (ix *Indexer) Status() Status {
	ix.statusMu.RLock()
	defer ix.statusMu.RUnlock()
	return ix.status
}

// job is one source image and its slot in scan order.
type job struct {
	pos  int
	src  string
	name string
}

type result struct {
	date string
	rec  ImageRecord
	err  error
}

// Build purges the output directory and indexes sourceDir. It fails as a
// whole: on error no Index is returned, and thumbnails written before the
// failure are left in the output directory until the next build purges them.
func (ix *Indexer) Build(ctx context.Context, sourceDir string) (Index, error) {
	ix.buildMu.Lock()
	defer ix.buildMu.Unlock()

	start := time.Now()
	ix.setBuilding(true)
	metrics.GalleryBuildInProgress.Set(1)
	defer metrics.GalleryBuildInProgress.Set(0)

	logging.Info("Building gallery for %s", sourceDir)

	index, err := ix.build(ctx, sourceDir)
	duration := time.Since(start)
	metrics.GalleryBuildDuration.Observe(duration.Seconds())
	ix.finish(index, duration, err)

	if err != nil {
		metrics.GalleryBuildsTotal.WithLabelValues(buildStatus(err)).Inc()
		logging.Error("Gallery build for %s failed after %v: %v", sourceDir, duration, err)
		return nil, err
	}

	metrics.GalleryBuildsTotal.WithLabelValues("success").Inc()
	metrics.GalleryLastBuildTimestamp.Set(float64(time.Now().Unix()))
	metrics.GalleryImagesIndexed.Set(float64(index.Len()))
	metrics.GalleryDateGroups.Set(float64(len(index)))
	logging.Info("Gallery for %s built in %v: %d images, %d dates", sourceDir, duration, index.Len(), len(index))
	return index, nil
}

func (ix *Indexer) build(ctx context.Context, sourceDir string) (Index, error) {
	if err := ix.purgeOutput(); err != nil {
		return nil, err
	}

	jobs, err := ix.listSources(sourceDir)
	if err != nil {
		return nil, err
	}

	names := ix.assignNames(jobs)
	results := make([]result, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.opts.Workers)
	for _, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[j.pos].err = err
				return err
			}
			if ix.opts.Gate != nil {
				if err := ix.opts.Gate.Wait(gctx); err != nil {
					results[j.pos].err = err
					return err
				}
			}
			res := ix.process(j, names[j.pos])
			results[j.pos] = res
			return res.err
		})
	}
	waitErr := g.Wait()

	// report the earliest failure in scan order rather than whichever
	// worker lost the race
	for _, res := range results {
		if res.err != nil && !errors.Is(res.err, context.Canceled) {
			return nil, res.err
		}
	}
	if waitErr != nil {
		return nil, waitErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	index := make(Index)
	for _, res := range results {
		index.add(res.date, res.rec)
	}
	return index, nil
}

// process writes one thumbnail, then reads the capture date of its source.
func (ix *Indexer) process(j job, name string) result {
	dest := filepath.Join(ix.opts.OutputDir, name)

	if _, err := ix.opts.Thumbnailer.Generate(j.src, dest); err != nil {
		if errors.Is(err, media.ErrDecode) {
			return result{err: &DecodeError{Path: j.src, Err: err}}
		}
		return result{err: fmt.Errorf("thumbnail %s: %w", j.src, err)}
	}

	date, err := ix.opts.ReadDate(j.src)
	if err != nil {
		if !errors.Is(err, media.ErrNoCaptureDate) {
			return result{err: fmt.Errorf("read capture date of %s: %w", j.src, err)}
		}
		if ix.opts.DateFallback != FallbackModTime {
			return result{err: &MissingCaptureDateError{Path: j.src, Err: err}}
		}
		date, err = ix.modTimeDate(j.src)
		if err != nil {
			return result{err: fmt.Errorf("stat %s: %w", j.src, err)}
		}
		metrics.GalleryFallbackDates.Inc()
		logging.Debug("No EXIF DateTime in %s, using modification date %s", j.src, date)
	}

	return result{
		date: date,
		rec: ImageRecord{
			URL:  ix.thumbnailURL(name),
			Name: name,
		},
	}
}

func (ix *Indexer) modTimeDate(src string) (string, error) {
	info, err := filesystem.StatWithRetry(src, ix.opts.Retry)
	if err != nil {
		return "", err
	}
	return info.ModTime().Local().Format("2006-01-02"), nil
}

func (ix *Indexer) thumbnailURL(name string) string {
	return path.Join(ix.opts.URLPrefix, url.PathEscape(name))
}

// purgeOutput creates the output directory if needed and removes every
// non-directory entry in it. Subdirectories are left alone.
func (ix *Indexer) purgeOutput() error {
	dir := ix.opts.OutputDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	entries, err := filesystem.ReadDirWithRetry(dir, ix.opts.Retry)
	if err != nil {
		return fmt.Errorf("list output directory: %w", err)
	}

	purged := 0
	for _, entry := range entries {
		p := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			logging.Warn("Leaving subdirectory %s in output directory", p)
			continue
		}
		if err := filesystem.RemoveWithRetry(p, ix.opts.Retry); err != nil {
			return fmt.Errorf("purge output directory: %w", err)
		}
		purged++
	}

	metrics.GalleryFilesPurged.Add(float64(purged))
	logging.Debug("Purged %d files from %s", purged, dir)
	return nil
}

// listSources returns every .jpg file directly in dir, then every .png file,
// each group in directory order. Entries that are not regular files (after
// following symlinks) are skipped.
func (ix *Indexer) listSources(dir string) ([]job, error) {
	entries, err := filesystem.ReadDirWithRetry(dir, ix.opts.Retry)
	if err != nil {
		return nil, fmt.Errorf("list source directory: %w", err)
	}

	var jobs []job
	for _, ext := range mediatypes.GalleryExtensions {
		for _, entry := range entries {
			name := entry.Name()
			if !mediatypes.MatchesExtension(name, ext) {
				continue
			}
			src := filepath.Join(dir, name)
			if !ix.isRegular(entry, src) {
				logging.Debug("Skipping %s: not a regular file", src)
				continue
			}
			jobs = append(jobs, job{pos: len(jobs), src: src, name: name})
		}
	}
	return jobs, nil
}

func (ix *Indexer) isRegular(entry os.DirEntry, p string) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := filesystem.StatWithRetry(p, ix.opts.Retry)
	return err == nil && info.Mode().IsRegular()
}

// assignNames draws a prefix per job. A prefix is redrawn if it would repeat
// a thumbnail name already assigned in this build.
func (ix *Indexer) assignNames(jobs []job) []string {
	names := make([]string, len(jobs))
	used := make(map[string]struct{}, len(jobs))
	for _, j := range jobs {
		for {
			name := ix.opts.Prefix() + "-" + j.name
			if _, dup := used[name]; !dup {
				used[name] = struct{}{}
				names[j.pos] = name
				break
			}
		}
	}
	return names
}

func (ix *Indexer) setBuilding(b bool) {
	ix.statusMu.Lock()
	ix.status.Building = b
	ix.statusMu.Unlock()
}

func (ix *Indexer) finish(index Index, d time.Duration, err error) {
	ix.statusMu.Lock()
	defer ix.statusMu.Unlock()
	ix.status.Building = false
	ix.status.Builds++
	ix.status.LastDuration = d
	if err != nil {
		ix.status.Failures++
		ix.status.LastError = err.Error()
		return
	}
	ix.status.LastBuild = time.Now()
	ix.status.LastImages = index.Len()
	ix.status.LastError = ""
}

func buildStatus(err error) string {
	var missing *MissingCaptureDateError
	var decode *DecodeError
	switch {
	case errors.As(err, &missing):
		return "missing_date"
	case errors.As(err, &decode):
		return "decode_error"
	default:
		return "error"
	}
}
