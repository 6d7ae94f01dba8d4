package indexer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"photo-gallery/internal/media"
	"photo-gallery/internal/testutil"
)

// sequencePrefix hands out "aaaaa", "aaaab", ... so names are predictable.
func sequencePrefix() PrefixFunc {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		b := []byte("aaaaa")
		for i, v := len(b)-1, n; i >= 0 && v > 0; i, v = i-1, v/26 {
			b[i] = byte('a' + v%26)
		}
		n++
		return string(b)
	}
}

func newTestIndexer(t *testing.T, opts Options) (*Indexer, string) {
	t.Helper()
	if opts.OutputDir == "" {
		opts.OutputDir = filepath.Join(t.TempDir(), "static", "images")
	}
	return New(opts), opts.OutputDir
}

func TestBuildGroupsByCaptureDate(t *testing.T) {
	src := t.TempDir()
	testutil.WriteJPEG(t, src, "a.jpg", 600, 400, "2023:06:15 10:00:00")
	testutil.WriteJPEG(t, src, "b.jpg", 400, 800, "2023:06:15 18:30:00")
	testutil.WritePNG(t, src, "c.png", 100, 100, "2023:05:01 08:00:00")

	ix, out := newTestIndexer(t, Options{})
	index, err := ix.Build(context.Background(), src)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if index.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", index.Len())
	}
	if len(index["2023-06-15"]) != 2 {
		t.Errorf("2023-06-15 has %d images, want 2", len(index["2023-06-15"]))
	}
	if len(index["2023-05-01"]) != 1 {
		t.Errorf("2023-05-01 has %d images, want 1", len(index["2023-05-01"]))
	}

	groups := index.Groups()
	if len(groups) != 2 || groups[0].Date != "2023-06-15" || groups[1].Date != "2023-05-01" {
		t.Fatalf("Groups() = %+v, want 2023-06-15 then 2023-05-01", groups)
	}

	for _, group := range groups {
		for _, rec := range group.Images {
			path := filepath.Join(out, rec.Name)
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("thumbnail %s missing: %v", rec.Name, err)
			}
			if !bytes.HasPrefix(data, []byte{0xFF, 0xD8}) {
				t.Errorf("thumbnail %s is not JPEG", rec.Name)
			}
			if w, h := testutil.Dimensions(t, path); w > 300 || h > 300 {
				t.Errorf("thumbnail %s is %dx%d, exceeds 300", rec.Name, w, h)
			}
		}
	}
}

func TestBuildNamesAndURLs(t *testing.T) {
	src := t.TempDir()
	testutil.WriteJPEG(t, src, "beach day.jpg", 20, 20, "2023:06:15 10:00:00")
	testutil.WriteJPEG(t, src, "b.jpg", 20, 20, "2023:06:15 10:00:00")

	ix, _ := newTestIndexer(t, Options{URLPrefix: "/static/images"})
	index, err := ix.Build(context.Background(), src)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	seen := map[string]bool{}
	for _, rec := range index["2023-06-15"] {
		if seen[rec.Name] {
			t.Errorf("duplicate name %s", rec.Name)
		}
		seen[rec.Name] = true

		prefix, original, ok := strings.Cut(rec.Name, "-")
		if !ok {
			t.Fatalf("name %q has no prefix separator", rec.Name)
		}
		if len(prefix) != PrefixLength {
			t.Errorf("prefix %q has length %d", prefix, len(prefix))
		}
		for _, r := range prefix {
			if r < 'a' || r > 'z' {
				t.Errorf("prefix %q contains %q", prefix, r)
			}
		}
		if original != "beach day.jpg" && original != "b.jpg" {
			t.Errorf("unexpected original name %q", original)
		}
		if original == "beach day.jpg" {
			want := "/static/images/" + prefix + "-beach%20day.jpg"
			if rec.URL != want {
				t.Errorf("URL = %q, want %q", rec.URL, want)
			}
		}
	}
}

func TestBuildEnumerationOrder(t *testing.T) {
	src := t.TempDir()
	// same date for all, so group order equals scan order
	testutil.WritePNG(t, src, "p1.png", 10, 10, "2023:06:15 10:00:00")
	testutil.WriteJPEG(t, src, "j1.jpg", 10, 10, "2023:06:15 10:00:00")
	testutil.WritePNG(t, src, "p2.png", 10, 10, "2023:06:15 10:00:00")
	testutil.WriteJPEG(t, src, "j2.jpg", 10, 10, "2023:06:15 10:00:00")

	ix, _ := newTestIndexer(t, Options{Prefix: sequencePrefix(), Workers: 4})
	index, err := ix.Build(context.Background(), src)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	images := index["2023-06-15"]
	if len(images) != 4 {
		t.Fatalf("got %d images, want 4", len(images))
	}
	for i, rec := range images {
		isJPEG := strings.HasSuffix(rec.Name, ".jpg")
		if i < 2 && !isJPEG {
			t.Errorf("position %d is %s, want a .jpg before any .png", i, rec.Name)
		}
		if i >= 2 && isJPEG {
			t.Errorf("position %d is %s, want a .png after the .jpg files", i, rec.Name)
		}
	}
}

func TestBuildExtensionFilter(t *testing.T) {
	src := t.TempDir()
	testutil.WriteJPEG(t, src, "keep.jpg", 10, 10, "2023:06:15 10:00:00")
	testutil.WriteJPEG(t, src, ".jpg", 10, 10, "2023:06:14 10:00:00")
	testutil.WriteJPEG(t, src, "upper.JPG", 10, 10, "2023:06:15 10:00:00")
	testutil.WriteJPEG(t, src, "long.jpeg", 10, 10, "2023:06:15 10:00:00")
	testutil.WriteFile(t, src, "anim.gif", []byte("GIF89a"))
	testutil.WriteFile(t, src, "notes.txt", []byte("hello"))
	if err := os.Mkdir(filepath.Join(src, "folder.jpg"), 0o755); err != nil {
		t.Fatal(err)
	}

	ix, _ := newTestIndexer(t, Options{})
	index, err := ix.Build(context.Background(), src)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if index.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", index.Len())
	}
	if name := index["2023-06-15"][0].Name; !strings.HasSuffix(name, "-keep.jpg") {
		t.Errorf("indexed %s, want keep.jpg", name)
	}
	// a file named only ".jpg" is matched, like a "*.jpg" glob
	if group := index["2023-06-14"]; len(group) != 1 || !strings.HasSuffix(group[0].Name, "-.jpg") {
		t.Errorf("2023-06-14 = %+v, want the bare .jpg file", group)
	}
}

func TestBuildPurgesOutput(t *testing.T) {
	src := t.TempDir()
	testutil.WriteJPEG(t, src, "a.jpg", 10, 10, "2023:06:15 10:00:00")

	ix, out := newTestIndexer(t, Options{})
	if err := os.MkdirAll(filepath.Join(out, "keepdir"), 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(out, "zzzzz-old.jpg")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	first, err := ix.Build(context.Background(), src)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale thumbnail survived the build")
	}
	if _, err := os.Stat(filepath.Join(out, "keepdir")); err != nil {
		t.Errorf("subdirectory removed: %v", err)
	}

	second, err := ix.Build(context.Background(), src)
	if err != nil {
		t.Fatalf("second Build() error = %v", err)
	}
	firstName := first["2023-06-15"][0].Name
	secondName := second["2023-06-15"][0].Name

	entries, err := os.ReadDir(out)
	if err != nil {
		t.Fatal(err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, e.Name())
		}
	}
	if len(files) != 1 || files[0] != secondName {
		t.Errorf("output files = %v, want only %s", files, secondName)
	}
	if firstName != secondName {
		if _, err := os.Stat(filepath.Join(out, firstName)); !os.IsNotExist(err) {
			t.Errorf("first build's thumbnail %s survived the rebuild", firstName)
		}
	}
}

func TestBuildCreatesOutputDir(t *testing.T) {
	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "a", "b", "images")

	ix := New(Options{OutputDir: out})
	index, err := ix.Build(context.Background(), src)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if index.Len() != 0 || len(index.Groups()) != 0 {
		t.Errorf("empty source produced %d images", index.Len())
	}
	if info, err := os.Stat(out); err != nil || !info.IsDir() {
		t.Errorf("output directory not created: %v", err)
	}
}

func TestBuildMissingCaptureDate(t *testing.T) {
	src := t.TempDir()
	testutil.WriteJPEG(t, src, "a.jpg", 10, 10, "2023:06:15 10:00:00")
	testutil.WriteJPEG(t, src, "b.jpg", 10, 10, testutil.NoDate)

	ix, _ := newTestIndexer(t, Options{})
	index, err := ix.Build(context.Background(), src)
	if index != nil {
		t.Errorf("Build() returned a partial index: %v", index)
	}

	var missing *MissingCaptureDateError
	if !errors.As(err, &missing) {
		t.Fatalf("Build() error = %v, want *MissingCaptureDateError", err)
	}
	if filepath.Base(missing.Path) != "b.jpg" {
		t.Errorf("Path = %s, want b.jpg", missing.Path)
	}
	if !errors.Is(err, media.ErrNoCaptureDate) {
		t.Error("error does not wrap media.ErrNoCaptureDate")
	}

	var decode *DecodeError
	if errors.As(err, &decode) {
		t.Error("missing date reported as a decode error")
	}

	status := ix.Status()
	if status.Failures != 1 || status.LastError == "" {
		t.Errorf("Status() = %+v, want one recorded failure", status)
	}
}

func TestBuildModTimeFallback(t *testing.T) {
	src := t.TempDir()
	path := testutil.WriteJPEG(t, src, "undated.jpg", 10, 10, testutil.NoDate)
	when := time.Date(2021, 3, 4, 12, 0, 0, 0, time.Local)
	if err := os.Chtimes(path, when, when); err != nil {
		t.Fatal(err)
	}

	ix, _ := newTestIndexer(t, Options{DateFallback: FallbackModTime})
	index, err := ix.Build(context.Background(), src)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(index["2021-03-04"]) != 1 {
		t.Errorf("index = %v, want one image on 2021-03-04", index)
	}
}

func TestBuildDecodeError(t *testing.T) {
	src := t.TempDir()
	testutil.WriteFile(t, src, "broken.jpg", []byte("definitely not a jpeg"))

	ix, _ := newTestIndexer(t, Options{})
	_, err := ix.Build(context.Background(), src)

	var decode *DecodeError
	if !errors.As(err, &decode) {
		t.Fatalf("Build() error = %v, want *DecodeError", err)
	}
	var missing *MissingCaptureDateError
	if errors.As(err, &missing) {
		t.Error("decode failure reported as missing date")
	}
}

func TestBuildMissingSourceDir(t *testing.T) {
	ix, _ := newTestIndexer(t, Options{})
	_, err := ix.Build(context.Background(), filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("Build() error = nil, want error")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Build() error = %v, want a wrapped not-exist error", err)
	}
}

func TestBuildReportsEarliestFailure(t *testing.T) {
	src := t.TempDir()
	for i := 0; i < 6; i++ {
		testutil.WriteJPEG(t, src, fmt.Sprintf("img%d.jpg", i), 4, 4, testutil.NoDate)
	}

	ix, _ := newTestIndexer(t, Options{
		Workers: 3,
		ReadDate: func(p string) (string, error) {
			return "", fmt.Errorf("%w: %s", media.ErrNoCaptureDate, filepath.Base(p))
		},
	})
	_, err := ix.Build(context.Background(), src)

	var missing *MissingCaptureDateError
	if !errors.As(err, &missing) {
		t.Fatalf("Build() error = %v, want *MissingCaptureDateError", err)
	}
	if want := firstInDirectoryOrder(t, src); filepath.Base(missing.Path) != want {
		t.Errorf("failing path = %s, want the first scanned file %s", filepath.Base(missing.Path), want)
	}
}

func firstInDirectoryOrder(t *testing.T, dir string) string {
	t.Helper()
	f, err := os.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	entries, err := f.ReadDir(-1)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".jpg") {
			return e.Name()
		}
	}
	t.Fatal("no .jpg in directory")
	return ""
}

func TestBuildCanceledContext(t *testing.T) {
	src := t.TempDir()
	testutil.WriteJPEG(t, src, "a.jpg", 10, 10, "2023:06:15 10:00:00")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ix, _ := newTestIndexer(t, Options{})
	if _, err := ix.Build(ctx, src); !errors.Is(err, context.Canceled) {
		t.Errorf("Build() error = %v, want context.Canceled", err)
	}
}

// countingGate records how often workers asked to proceed.
type countingGate struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (g *countingGate) Wait(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.err
}

func TestBuildWaitsOnGate(t *testing.T) {
	src := t.TempDir()
	testutil.WriteJPEG(t, src, "a.jpg", 10, 10, "2023:06:15 10:00:00")
	testutil.WritePNG(t, src, "b.png", 10, 10, "2023:06:16 10:00:00")

	gate := &countingGate{}
	ix, _ := newTestIndexer(t, Options{Gate: gate})
	if _, err := ix.Build(context.Background(), src); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if gate.calls != 2 {
		t.Errorf("gate consulted %d times, want 2", gate.calls)
	}
}

func TestBuildGateError(t *testing.T) {
	src := t.TempDir()
	testutil.WriteJPEG(t, src, "a.jpg", 10, 10, "2023:06:15 10:00:00")

	gateErr := errors.New("held back")
	ix, out := newTestIndexer(t, Options{Gate: &countingGate{err: gateErr}})
	if _, err := ix.Build(context.Background(), src); !errors.Is(err, gateErr) {
		t.Fatalf("Build() error = %v, want %v", err, gateErr)
	}
	if entries, _ := os.ReadDir(out); len(entries) != 0 {
		t.Errorf("gated build wrote %d thumbnails", len(entries))
	}
}

func TestBuildStatus(t *testing.T) {
	src := t.TempDir()
	testutil.WriteJPEG(t, src, "a.jpg", 10, 10, "2023:06:15 10:00:00")

	ix, _ := newTestIndexer(t, Options{})
	if _, err := ix.Build(context.Background(), src); err != nil {
		t.Fatal(err)
	}
	status := ix.Status()
	if status.Builds != 1 || status.Failures != 0 || status.LastImages != 1 || status.LastBuild.IsZero() || status.Building {
		t.Errorf("Status() = %+v", status)
	}
}

func TestParseDateFallback(t *testing.T) {
	tests := []struct {
		in      string
		want    DateFallback
		wantErr bool
	}{
		{in: "", want: FallbackNone},
		{in: "none", want: FallbackNone},
		{in: "modtime", want: FallbackModTime},
		{in: "ctime", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDateFallback(tt.in)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("ParseDateFallback(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
}

func TestAssignNamesRedrawsDuplicates(t *testing.T) {
	draws := []string{"aaaaa", "aaaaa", "bbbbb"}
	i := 0
	ix := New(Options{Prefix: func() string {
		p := draws[i]
		i++
		return p
	}})

	// identical source names force a collision on the repeated prefix
	names := ix.assignNames([]job{{pos: 0, name: "x.jpg"}, {pos: 1, name: "x.jpg"}})
	if names[0] != "aaaaa-x.jpg" || names[1] != "bbbbb-x.jpg" {
		t.Errorf("assignNames() = %v", names)
	}
}
