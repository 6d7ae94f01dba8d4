package indexer

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestGroupsSortedNewestFirst(t *testing.T) {
	ix := Index{
		"2023-05-01": {{Name: "c"}},
		"2023-06-15": {{Name: "a"}, {Name: "b"}},
		"2022-12-31": {{Name: "d"}},
	}

	groups := ix.Groups()
	want := []string{"2023-06-15", "2023-05-01", "2022-12-31"}
	if len(groups) != len(want) {
		t.Fatalf("len(Groups()) = %d, want %d", len(groups), len(want))
	}
	for i, date := range want {
		if groups[i].Date != date {
			t.Errorf("Groups()[%d].Date = %s, want %s", i, groups[i].Date, date)
		}
	}
	if groups[0].Images[0].Name != "a" || groups[0].Images[1].Name != "b" {
		t.Errorf("group order not preserved: %+v", groups[0].Images)
	}
	if ix.Len() != 4 {
		t.Errorf("Len() = %d, want 4", ix.Len())
	}
}

func TestEmptyIndex(t *testing.T) {
	var ix Index
	if ix.Len() != 0 || len(ix.Groups()) != 0 {
		t.Error("nil Index should be empty")
	}
}

func TestImageRecordJSON(t *testing.T) {
	data, err := json.Marshal(ImageRecord{URL: "/static/images/abcde-a.jpg", Name: "abcde-a.jpg"})
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != `{"url":"/static/images/abcde-a.jpg","name":"abcde-a.jpg"}` {
		t.Errorf("json = %s", got)
	}
}

func TestRandomPrefix(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		p := RandomPrefix()
		if len(p) != PrefixLength {
			t.Fatalf("RandomPrefix() = %q, want length %d", p, PrefixLength)
		}
		if strings.Trim(p, prefixAlphabet) != "" {
			t.Fatalf("RandomPrefix() = %q has characters outside a-z", p)
		}
		seen[p] = true
	}
	// 26^5 outcomes; 200 draws repeating more than a handful means no randomness
	if len(seen) < 190 {
		t.Errorf("only %d distinct prefixes in 200 draws", len(seen))
	}
}

func TestErrorsUnwrap(t *testing.T) {
	inner := &testErr{}
	missing := &MissingCaptureDateError{Path: "/images/a.jpg", Err: inner}
	decode := &DecodeError{Path: "/images/b.jpg", Err: inner}

	if !strings.Contains(missing.Error(), "/images/a.jpg") || missing.Unwrap() != inner {
		t.Errorf("MissingCaptureDateError = %q", missing.Error())
	}
	if !strings.Contains(decode.Error(), "/images/b.jpg") || decode.Unwrap() != inner {
		t.Errorf("DecodeError = %q", decode.Error())
	}
}

type testErr struct{}

func (*testErr) Error() string { return "inner" }
