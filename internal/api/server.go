package api

import (
	"go.uber.org/zap"

	"mdgate/internal/config"
	"mdgate/internal/convert"
	"mdgate/internal/metrics"
)

type server struct {
	cfg       config.Settings
	converter *convert.Handle
	metrics   *metrics.Metrics
	logger    *zap.Logger

	convertLimit *requestLimiter
}

// Response modes accepted on /api/convert. A value outside this enumeration
// is rejected, never silently defaulted.
const (
	modeDownload   = "download"
	modeCompressed = "compressed"
)
