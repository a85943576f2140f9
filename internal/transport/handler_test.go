package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"harvestguard/internal/batch"
	"harvestguard/internal/config"
	apperrors "harvestguard/internal/errors"
	"harvestguard/internal/service"
	"harvestguard/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubScanService struct {
	lastOpts    service.ScanOptions
	scanErr     error
	calibration models.CalibrationStatistics
}

func (s *stubScanService) ScanBytes(ctx context.Context, name string, data []byte, opts service.ScanOptions) (models.ScanResult, error) {
	s.lastOpts = opts
	result := models.ScanResult{
		ImageIdentifier: name,
		Decision:        models.DecisionAccept,
		Confidence:      0.9,
	}
	return result, s.scanErr
}

func (s *stubScanService) ScanBatch(ctx context.Context, in batch.Input, opts service.ScanOptions) (models.BatchSummary, error) {
	return models.BatchSummary{TotalScanned: 1, Succeeded: 1}, nil
}

func (s *stubScanService) Calibrate(ctx context.Context, referenceDir string) (models.CalibrationStatistics, error) {
	return s.calibration, nil
}

func (s *stubScanService) Calibration() (models.CalibrationStatistics, error) {
	return s.calibration, nil
}

func testConfig() *config.Config {
	return &config.Config{MaxRequestBodySize: 50 * 1024 * 1024}
}

func multipartUpload(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "sample.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("image-bytes")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestHealthCheck(t *testing.T) {
	handler := NewHandler(&stubScanService{}, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestScanImage_Success(t *testing.T) {
	svc := &stubScanService{}
	handler := NewHandler(svc, testConfig())

	body, contentType := multipartUpload(t, map[string]string{"user_id": "u-1"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scan", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Result models.ScanResult `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Result.ImageIdentifier != "sample.jpg" {
		t.Errorf("expected upload filename as identifier, got %q", resp.Result.ImageIdentifier)
	}
	if svc.lastOpts.UserID != "u-1" {
		t.Errorf("user id not forwarded, got %q", svc.lastOpts.UserID)
	}
}

func TestScanImage_ThresholdOverrideIsForwarded(t *testing.T) {
	svc := &stubScanService{}
	handler := NewHandler(svc, testConfig())

	body, contentType := multipartUpload(t, map[string]string{"threshold": "0.02"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scan", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.lastOpts.ThresholdOverride == nil || *svc.lastOpts.ThresholdOverride != 0.02 {
		t.Errorf("threshold override not forwarded: %+v", svc.lastOpts.ThresholdOverride)
	}
}

func TestScanImage_InvalidThreshold(t *testing.T) {
	handler := NewHandler(&stubScanService{}, testConfig())

	body, contentType := multipartUpload(t, map[string]string{"threshold": "-1"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scan", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a non-positive threshold, got %d", rec.Code)
	}
}

func TestScanImage_MissingUpload(t *testing.T) {
	handler := NewHandler(&stubScanService{}, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scan", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without a file part, got %d", rec.Code)
	}
}

func TestScanImage_PersistenceFailureStillReturnsResult(t *testing.T) {
	svc := &stubScanService{scanErr: apperrors.NewPersistenceError("db down", nil)}
	handler := NewHandler(svc, testConfig())

	body, contentType := multipartUpload(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scan", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("persistence failure must not fail the scan response, got %d", rec.Code)
	}
	var resp struct {
		Result           models.ScanResult `json:"result"`
		PersistenceError string            `json:"persistence_error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.PersistenceError == "" {
		t.Error("persistence failure should be reported alongside the result")
	}
	if resp.Result.Decision != models.DecisionAccept {
		t.Errorf("computed result should be present, got %+v", resp.Result)
	}
}

func TestCurrentCalibration(t *testing.T) {
	svc := &stubScanService{calibration: models.CalibrationStatistics{Threshold: 0.015, SampleCount: 10}}
	handler := NewHandler(svc, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/calibration", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var stats models.CalibrationStatistics
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if stats.Threshold != 0.015 || stats.SampleCount != 10 {
		t.Errorf("unexpected calibration payload: %+v", stats)
	}
}
