package container

import (
	"fmt"
	"net/http"

	"harvestguard/internal/batch"
	"harvestguard/internal/calibration"
	"harvestguard/internal/config"
	"harvestguard/internal/curation"
	"harvestguard/internal/factory"
	"harvestguard/internal/imaging"
	"harvestguard/internal/model"
	"harvestguard/internal/scanlog"
	"harvestguard/internal/scoring"
	"harvestguard/internal/service"
	"harvestguard/internal/transport"
)

// Container holds all application dependencies. Model artifacts are
// loaded exactly once here; everything downstream shares the handles
// read-only.
type Container struct {
	config      *config.Config
	inference   *model.InferenceContext
	normalizer  *imaging.Normalizer
	pipeline    *scoring.Pipeline
	document    *calibration.Document
	calibrator  *calibration.Calibrator
	scanLog     *scanlog.Store
	scanService service.ScanService
	handler     http.Handler
}

// NewContainer builds the dependency graph from configuration. A model
// load failure is fatal here, before any request is accepted.
func NewContainer(cfg *config.Config) (*Container, error) {
	backend, err := factory.CreateBackend(factory.BackendType(cfg.ModelBackend))
	if err != nil {
		return nil, err
	}

	inference, err := model.NewInferenceContext(backend, cfg.AutoencoderPath, cfg.ClassifierPath)
	if err != nil {
		return nil, err
	}

	normalizer := imaging.NewNormalizer()
	pipeline := scoring.NewPipeline(inference, scoring.PolicyReconstructionPrimary)
	document := calibration.NewDocument(cfg.CalibrationPath)
	calibrator := calibration.NewCalibrator(normalizer, pipeline.Scorer(), calibration.DefaultMultiplier, inference.Version())

	var scanLog *scanlog.Store
	var recorder service.Recorder
	var batchRecorder batch.Recorder
	if cfg.ScanLogPath != "" {
		scanLog, err = scanlog.Open(cfg.ScanLogPath)
		if err != nil {
			return nil, fmt.Errorf("open scan log: %w", err)
		}
		recorder = scanLog
		batchRecorder = scanLog
	}

	orchestrator := batch.NewOrchestrator(normalizer, pipeline, cfg.BatchWorkers, batchRecorder)
	scanService := service.NewScanService(normalizer, pipeline, document, calibrator, orchestrator, recorder)
	handler := transport.NewHandler(scanService, cfg)

	return &Container{
		config:      cfg,
		inference:   inference,
		normalizer:  normalizer,
		pipeline:    pipeline,
		document:    document,
		calibrator:  calibrator,
		scanLog:     scanLog,
		scanService: scanService,
		handler:     handler,
	}, nil
}

// Handler returns the HTTP handler.
func (c *Container) Handler() http.Handler {
	return c.handler
}

// ScanService returns the application service.
func (c *Container) ScanService() service.ScanService {
	return c.scanService
}

// Normalizer returns the shared image normalizer.
func (c *Container) Normalizer() *imaging.Normalizer {
	return c.normalizer
}

// Config returns the configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// ReferenceStore builds the configured reference store rooted at localRoot.
func (c *Container) ReferenceStore(localRoot string) (curation.ReferenceStore, error) {
	return factory.CreateReferenceStore(factory.StoreType(c.config.ReferenceStore), c.config, localRoot)
}

// Close tears down model handles and the scan log.
func (c *Container) Close() error {
	if c.scanLog != nil {
		if err := c.scanLog.Close(); err != nil {
			return err
		}
	}
	return c.inference.Close()
}
