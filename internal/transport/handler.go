package transport

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"harvestguard/internal/batch"
	"harvestguard/internal/config"
	apperrors "harvestguard/internal/errors"
	"harvestguard/internal/logger"
	"harvestguard/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewHandler builds the HTTP surface over the scan service. Auth, token
// issuance and the relational schema live outside this service.
func NewHandler(svc service.ScanService, cfg *config.Config) http.Handler {
	r := gin.Default()

	r.Use(requestSizeLimiter(cfg.MaxRequestBodySize))

	r.GET("/health", healthCheck)

	api := r.Group("/api/v1")
	api.POST("/scan", scanImage(svc))
	api.POST("/scan/batch", scanBatch(svc))
	api.GET("/calibration", currentCalibration(svc))

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func scanImage(svc service.ScanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"ip":     c.ClientIP(),
		}).Info("Processing scan request")

		file, header, err := c.Request.FormFile("file")
		if err != nil {
			respondError(c, http.StatusBadRequest, "missing image upload", err)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			respondError(c, http.StatusBadRequest, "failed to read image upload", err)
			return
		}

		opts, err := scanOptions(c)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid threshold override", err)
			return
		}

		result, err := svc.ScanBytes(c.Request.Context(), header.Filename, data, opts)
		if err != nil {
			if apperrors.IsType(err, apperrors.ErrorTypePersistence) {
				// Scoring succeeded; report the result with the persistence
				// failure alongside, not as a scan failure.
				c.JSON(http.StatusOK, gin.H{
					"result":            result,
					"persistence_error": err.Error(),
				})
				return
			}
			respondError(c, apperrors.GetStatusCode(err), "scan failed", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"result": result})
	}
}

func scanBatch(svc service.ScanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			respondError(c, http.StatusBadRequest, "missing archive upload", err)
			return
		}
		defer file.Close()

		// The archive lands in scratch space; the orchestrator extracts to
		// its own scratch dir and both are removed on all exit paths.
		tmp, err := os.CreateTemp("", "harvestguard-upload-*"+filepath.Ext(header.Filename))
		if err != nil {
			respondError(c, http.StatusInternalServerError, "failed to stage upload", err)
			return
		}
		tmpName := tmp.Name()
		defer os.Remove(tmpName)

		if _, err := tmp.ReadFrom(file); err != nil {
			tmp.Close()
			respondError(c, http.StatusInternalServerError, "failed to stage upload", err)
			return
		}
		if err := tmp.Close(); err != nil {
			respondError(c, http.StatusInternalServerError, "failed to stage upload", err)
			return
		}

		opts, err := scanOptions(c)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid threshold override", err)
			return
		}

		summary, err := svc.ScanBatch(c.Request.Context(), batch.FromPath(tmpName), opts)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "batch scan failed", err)
			return
		}

		c.JSON(http.StatusOK, summary)
	}
}

func currentCalibration(svc service.ScanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := svc.Calibration()
		if err != nil {
			respondError(c, http.StatusInternalServerError, "failed to read calibration", err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func scanOptions(c *gin.Context) (service.ScanOptions, error) {
	opts := service.ScanOptions{UserID: c.PostForm("user_id")}
	raw := c.PostForm("threshold")
	if raw == "" {
		raw = c.Query("threshold")
	}
	if raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil || t <= 0 {
			return opts, apperrors.NewValidationError("threshold must be a positive number", err)
		}
		opts.ThresholdOverride = &t
	}
	return opts, nil
}

func requestSizeLimiter(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

func respondError(c *gin.Context, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Message = err.Error()
		logger.WithError(err).WithFields(logrus.Fields{
			"path": c.Request.URL.Path,
			"ip":   c.ClientIP(),
		}).Error(message)
	}
	c.JSON(status, resp)
}
