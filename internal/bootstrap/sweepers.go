package bootstrap

import (
	"context"
	"time"

	"github.com/sremani/artifortress/internal/platform/mlog"
	"github.com/sremani/artifortress/internal/services/outbox"
	"github.com/sremani/artifortress/internal/services/search"
	"github.com/sremani/artifortress/internal/services/upload"
)

// Sweepers owns the three background loops this module runs outside the
// HTTP request path: expired upload sessions, the outbox dispatcher, and
// the search index worker (spec.md §4.1, §4.4). GC runs are admin-
// triggered only (POST /admin/gc/runs), so no GC loop lives here.
type Sweepers struct {
	uploadUC *upload.UseCase
	outboxUC *outbox.UseCase
	searchUC *search.UseCase

	pollInterval   time.Duration
	sweepBatchSize int
	logger         mlog.Logger
}

// Start launches each sweeper on its own ticker, stopping when ctx is
// canceled.
func (s *Sweepers) Start(ctx context.Context) {
	go s.loop(ctx, "upload_expiry", s.sweepUploadExpiry)
	go s.loop(ctx, "outbox_dispatch", s.sweepOutbox)
	go s.loop(ctx, "search_index", s.sweepSearch)
}

func (s *Sweepers) loop(ctx context.Context, name string, tick func(ctx context.Context) error) {
	interval := s.pollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := tick(ctx); err != nil {
				s.logger.Errorf("%s sweep failed: %v", name, err)
			}
		}
	}
}

func (s *Sweepers) sweepUploadExpiry(ctx context.Context) error {
	swept, err := s.uploadUC.SweepExpired(ctx, time.Now().UTC(), s.batchSize())
	if err != nil {
		return err
	}

	if swept > 0 {
		s.logger.Infof("swept %d expired upload sessions", swept)
	}

	return nil
}

func (s *Sweepers) sweepOutbox(ctx context.Context) error {
	result, err := s.outboxUC.Sweep(ctx)
	if err != nil {
		return err
	}

	if result.Claimed > 0 {
		s.logger.Infof("outbox sweep claimed=%d enqueued=%d requeued=%d", result.Claimed, result.Enqueued, result.Requeued)
	}

	return nil
}

func (s *Sweepers) sweepSearch(ctx context.Context) error {
	result, err := s.searchUC.Sweep(ctx)
	if err != nil {
		return err
	}

	if result.Claimed > 0 {
		s.logger.Infof("search index sweep claimed=%d completed=%d failed=%d", result.Claimed, result.Completed, result.Failed)
	}

	return nil
}

func (s *Sweepers) batchSize() int {
	if s.sweepBatchSize > 0 {
		return s.sweepBatchSize
	}

	return 100
}
