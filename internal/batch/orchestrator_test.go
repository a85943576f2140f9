package batch

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"harvestguard/internal/imaging"
	"harvestguard/internal/model"
	"harvestguard/internal/scoring"
	"harvestguard/pkg/models"
)

type identityReconstructor struct{}

func (identityReconstructor) Reconstruct(t *imaging.Tensor) (*imaging.Tensor, error) {
	return t.Clone(), nil
}

type acceptClassifier struct{}

func (acceptClassifier) Classify(t *imaging.Tensor) ([2]float64, error) {
	return [2]float64{0.9, 0.1}, nil
}

func testPipeline() *scoring.Pipeline {
	ic := model.NewStaticContext(identityReconstructor{}, acceptClassifier{}, "test")
	return scoring.NewPipeline(ic, scoring.PolicyReconstructionPrimary)
}

func pngBytes(t *testing.T, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestProcess_BatchIsolation(t *testing.T) {
	dir := t.TempDir()
	good := pngBytes(t, color.RGBA{50, 60, 70, 255})
	for _, name := range []string{"a.png", "b.png", "d.png", "e.png"} {
		writeFile(t, filepath.Join(dir, name), good)
	}
	writeFile(t, filepath.Join(dir, "c.png"), []byte("corrupt"))

	o := NewOrchestrator(imaging.NewNormalizer(), testPipeline(), 2, nil)
	summary, err := o.Process(context.Background(), FromPath(dir), Options{Threshold: 0.015})
	if err != nil {
		t.Fatalf("one bad image must not abort the batch: %v", err)
	}

	if summary.TotalScanned != 5 {
		t.Errorf("expected total_scanned 5, got %d", summary.TotalScanned)
	}
	if summary.Succeeded != 4 || summary.Failed != 1 {
		t.Errorf("expected 4 ok / 1 failed, got %d / %d", summary.Succeeded, summary.Failed)
	}

	for _, r := range summary.Results {
		if r.ImageIdentifier == "c.png" {
			if r.Decision != models.DecisionError {
				t.Errorf("corrupt image should be an ERROR outcome, got %s", r.Decision)
			}
			if r.Confidence != 0 || r.IsAnomaly {
				t.Errorf("error outcome must carry confidence 0 and no anomaly flag: %+v", r)
			}
		} else if r.Failed() {
			t.Errorf("unexpected failure for %s: %s", r.ImageIdentifier, r.Error)
		}
	}
}

func TestProcess_ResultOrdering(t *testing.T) {
	dir := t.TempDir()
	data := pngBytes(t, color.RGBA{10, 20, 30, 255})
	// Written out of order on purpose.
	for _, name := range []string{"b.jpg.png", "a.jpg.png", "c.jpg.png"} {
		writeFile(t, filepath.Join(dir, name), data)
	}

	o := NewOrchestrator(imaging.NewNormalizer(), testPipeline(), 4, nil)
	summary, err := o.Process(context.Background(), FromPath(dir), Options{Threshold: 0.015})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"a.jpg.png", "b.jpg.png", "c.jpg.png"}
	if len(summary.Results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(summary.Results))
	}
	for i, r := range summary.Results {
		if r.ImageIdentifier != want[i] {
			t.Errorf("result %d: expected %s, got %s", i, want[i], r.ImageIdentifier)
		}
	}
}

func TestProcess_ZipArchive(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "upload.zip")

	f, err := os.Create(archivePath)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	zw := zip.NewWriter(f)
	for _, name := range []string{"two.png", "one.png"} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create entry: %v", err)
		}
		if _, err := w.Write(pngBytes(t, color.RGBA{40, 40, 40, 255})); err != nil {
			t.Fatalf("write entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}

	o := NewOrchestrator(imaging.NewNormalizer(), testPipeline(), 2, nil)
	summary, err := o.Process(context.Background(), FromPath(archivePath), Options{Threshold: 0.015})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.TotalScanned != 2 {
		t.Errorf("expected 2 results from archive, got %d", summary.TotalScanned)
	}
	if summary.Results[0].ImageIdentifier != "one.png" || summary.Results[1].ImageIdentifier != "two.png" {
		t.Errorf("archive results not in filename order: %s, %s",
			summary.Results[0].ImageIdentifier, summary.Results[1].ImageIdentifier)
	}
}

func TestProcess_MalformedArchive(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "broken.zip")
	// Valid zip magic, garbage body.
	writeFile(t, archivePath, append([]byte{'P', 'K', 0x03, 0x04}, []byte("garbage")...))

	o := NewOrchestrator(imaging.NewNormalizer(), testPipeline(), 2, nil)
	_, err := o.Process(context.Background(), FromPath(archivePath), Options{Threshold: 0.015})
	if err == nil {
		t.Fatal("expected archive extraction error")
	}
}

type failingRecorder struct{}

func (failingRecorder) RecordBatch(ctx context.Context, results []models.ScanResult, userID string) error {
	return errors.New("database unavailable")
}

func TestProcess_PersistenceFailureKeepsResults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.png"), pngBytes(t, color.RGBA{5, 5, 5, 255}))

	o := NewOrchestrator(imaging.NewNormalizer(), testPipeline(), 1, failingRecorder{})
	summary, err := o.Process(context.Background(), FromPath(dir), Options{Threshold: 0.015})
	if err != nil {
		t.Fatalf("persistence failure must not fail the batch: %v", err)
	}

	if summary.TotalScanned != 1 || summary.Succeeded != 1 {
		t.Errorf("computed results must survive a persistence failure: %+v", summary)
	}
	if summary.PersistenceError == "" {
		t.Error("persistence failure should be reported on the summary")
	}
}

func TestProcess_CancellationReturnsPartialResults(t *testing.T) {
	dir := t.TempDir()
	data := pngBytes(t, color.RGBA{1, 1, 1, 255})
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		writeFile(t, filepath.Join(dir, name), data)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancelled before any submission

	o := NewOrchestrator(imaging.NewNormalizer(), testPipeline(), 1, nil)
	summary, err := o.Process(ctx, FromPath(dir), Options{Threshold: 0.015})
	if err != nil {
		t.Fatalf("cancellation should return the partial set, not an error: %v", err)
	}
	if summary.TotalScanned != 0 {
		t.Errorf("expected no items processed after pre-cancellation, got %d", summary.TotalScanned)
	}
}
