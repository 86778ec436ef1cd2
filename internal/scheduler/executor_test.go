package scheduler

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestEnumerate_NonRecursiveMatchesTopLevelOnly(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.jpg"))
	touch(t, filepath.Join(dir, "b.png"))
	touch(t, filepath.Join(dir, "sub", "c.jpg"))

	matches, err := enumerate(dir, "*.jpg", false)
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	if len(matches) != 1 || filepath.Base(matches[0]) != "a.jpg" {
		t.Errorf("matches = %v; want [a.jpg]", matches)
	}
}

func TestEnumerate_RecursiveWalksSubdirectories(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.jpg"))
	touch(t, filepath.Join(dir, "sub", "c.jpg"))
	touch(t, filepath.Join(dir, "sub", "deeper", "d.jpg"))
	touch(t, filepath.Join(dir, "sub", "e.png"))

	matches, err := enumerate(dir, "*.jpg", true)
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = filepath.Base(m)
	}
	sort.Strings(names)
	want := []string{"a.jpg", "c.jpg", "d.jpg"}
	if len(names) != len(want) {
		t.Fatalf("names = %v; want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names = %v; want %v", names, want)
		}
	}
}

func TestEnumerate_EmptyPatternMatchesEverything(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.jpg"))
	touch(t, filepath.Join(dir, "b.png"))

	matches, err := enumerate(dir, "", false)
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("matches = %v; want 2 entries", matches)
	}
}

func TestSampleFraction_ZeroOrFullRateReturnsAllMatches(t *testing.T) {
	matches := []string{"a", "b", "c", "d"}
	if got := sampleFraction(matches, 0); len(got) != 4 {
		t.Errorf("rate=0: len(got) = %d; want 4", len(got))
	}
	if got := sampleFraction(matches, 1); len(got) != 4 {
		t.Errorf("rate=1: len(got) = %d; want 4", len(got))
	}
}

func TestSampleFraction_PartialRateSelectsSubsetFromOriginal(t *testing.T) {
	matches := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	got := sampleFraction(matches, 0.3)
	if len(got) != 3 {
		t.Fatalf("len(got) = %d; want 3 (30%% of 10)", len(got))
	}
	seen := make(map[string]bool)
	for _, g := range got {
		found := false
		for _, m := range matches {
			if g == m {
				found = true
			}
		}
		if !found {
			t.Errorf("sampled value %q not present in original matches", g)
		}
		if seen[g] {
			t.Errorf("duplicate sampled value %q", g)
		}
		seen[g] = true
	}
}

func TestSampleFraction_EmptyInputReturnsEmpty(t *testing.T) {
	if got := sampleFraction(nil, 0.5); len(got) != 0 {
		t.Errorf("len(got) = %d; want 0", len(got))
	}
}
