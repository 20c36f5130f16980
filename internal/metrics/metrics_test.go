package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/menta2k/snipper/pkg/types"
)

func TestCounters(t *testing.T) {
	r := New()
	r.ManifestStatus("archived")
	r.ManifestStatus("archived")
	r.Thumbnail(types.Iconography)
	r.AnnotationFailed("out_of_bounds")

	if got := testutil.ToFloat64(r.manifests.WithLabelValues("archived")); got != 2 {
		t.Errorf("Expected 2 archived manifests, got %v", got)
	}
	if got := testutil.ToFloat64(r.thumbnails.WithLabelValues("iconography")); got != 1 {
		t.Errorf("Expected 1 iconography thumbnail, got %v", got)
	}
	if got := testutil.ToFloat64(r.failures.WithLabelValues("out_of_bounds")); got != 1 {
		t.Errorf("Expected 1 failure, got %v", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.Thumbnail(types.Paleography)
	r.RunFinished(true, time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "snipper.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, `snipper_thumbnails_total{type="paleography"} 1`) {
		t.Errorf("Missing thumbnail counter in:\n%s", text)
	}
	if !strings.Contains(text, `snipper_last_run_timestamp_seconds{outcome="success"}`) {
		t.Errorf("Missing last run gauge in:\n%s", text)
	}
}
