package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRecorderWritesTextfile(t *testing.T) {
	r, err := NewRecorder()
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	r.ObserveItem("markdown", OutcomeRendered)
	r.ObserveItem("markdown", OutcomeRendered)
	r.ObserveItem("html", OutcomeFailed)
	r.ObserveProtected()
	r.ObserveArtifact()
	r.ObserveBuild(1500*time.Millisecond, time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "garden.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		`garden_build_items_total{format="markdown",outcome="rendered"} 2`,
		`garden_build_items_total{format="html",outcome="failed"} 1`,
		"garden_build_protected_items_total 1",
		"garden_build_artifacts_total 1",
		"garden_build_duration_seconds 1.5",
		"garden_build_last_finished_timestamp_seconds 1.7e+09",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in textfile:\n%s", want, out)
		}
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.ObserveItem("markdown", OutcomeRendered)
	r.ObserveProtected()
	r.ObserveArtifact()
	r.ObserveBuild(time.Second, time.Now())
}
