package services

import (
	"time"

	"github.com/custodia-labs/skywatch/internal/core/domain"
	"github.com/custodia-labs/skywatch/internal/core/ports/driven"
)

var _ driven.Metrics = nopMetrics{}

// nopMetrics is used when no metrics sink is configured.
type nopMetrics struct{}

func (nopMetrics) FrameReceived() {}
func (nopMetrics) CommitProcessed(domain.CommitResult) {}
func (nopMetrics) RecomputeFinished(domain.ScanResult, time.Duration, error) {}
