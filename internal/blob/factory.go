package blob

import (
	"fmt"
	"strings"

	appcfg "github.com/fdg312/coach-hub/internal/config"
)

type Logger interface {
	Printf(format string, v ...any)
}

// NewBlobStore builds the raw plan archive store for BLOB_MODE local|s3|auto.
// Local, and auto without S3 config, return a nil Store so archiving is
// skipped. Forced s3 fails on incomplete config instead of falling back.
func NewBlobStore(cfg appcfg.BlobConfig, logger Logger) (Store, string, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = appcfg.BlobModeLocal
	}

	switch mode {
	case appcfg.BlobModeLocal:
		logf(logger, "INFO blob: mode=local (forced, raw archive disabled)")
		return nil, appcfg.BlobModeLocal, nil
	case appcfg.BlobModeAuto, appcfg.BlobModeS3:
	default:
		return nil, "", fmt.Errorf("unsupported blob mode: %s", mode)
	}
	forced := mode == appcfg.BlobModeS3

	if !cfg.S3.IsConfigured() {
		if forced {
			missing := cfg.S3.MissingRequired()
			logf(logger, "FATAL blob.s3: code=s3_config_incomplete missing=%v %s", missing, cfg.S3.DiagnosticsSummary())
			return nil, "", fmt.Errorf("BLOB_MODE=s3 requested but missing required config: %s", strings.Join(missing, ", "))
		}
		level, code, msg := cfg.S3.Diagnostics()
		logf(logger, "%s blob.s3: code=%s %s", level, code, msg)
		logf(logger, "INFO blob: mode=local (auto, S3 not configured, raw archive disabled)")
		return nil, appcfg.BlobModeLocal, nil
	}

	logf(logger, "INFO blob.s3: code=s3_ready %s", cfg.S3.DiagnosticsSummary())
	store, err := NewS3Store(cfg.S3)
	if err != nil {
		if forced {
			return nil, "", fmt.Errorf("BLOB_MODE=s3 init failed: %w", err)
		}
		logf(logger, "WARN blob.s3: init_failed=%q, fallback=local", err.Error())
		return nil, appcfg.BlobModeLocal, nil
	}

	logf(logger, "INFO blob: mode=s3 (%s, raw archive enabled)", mode)
	return store, appcfg.BlobModeS3, nil
}

func logf(logger Logger, format string, v ...any) {
	if logger == nil {
		return
	}
	logger.Printf(format, v...)
}
