package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// BurstStart is the capture time of the first frame written by WriteBurst.
var BurstStart = time.Date(2019, time.February, 13, 0, 31, 50, 0, time.UTC)

// WriteFile writes raw bytes to path, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteBurst writes one auto-bracketed frame per exposure value into dir.
// Frames are named prefix0001.JPG, prefix0002.JPG, ... one second apart, and
// the written paths are returned in capture order.
func WriteBurst(t testing.TB, dir, prefix string, evs ...float64) []string {
	t.Helper()

	paths := make([]string, 0, len(evs))
	for i, ev := range evs {
		path := filepath.Join(dir, fmt.Sprintf("%s%04d.JPG", prefix, i+1))
		WriteImage(t, path, Bracketed(BurstStart.Add(time.Duration(i)*time.Second), ev))
		paths = append(paths, path)
	}
	return paths
}
