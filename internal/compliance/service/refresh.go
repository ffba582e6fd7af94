package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"candlepin/internal/compliance/models"
	id "candlepin/pkg/domain"
	"candlepin/pkg/platform/audit"
	"candlepin/pkg/requestcontext"
)

// RefreshResult summarizes an owner-wide refresh.
type RefreshResult struct {
	OwnerID              id.OwnerID
	Consumers            int
	ComplianceChanged    int
	SystemPurposeChanged int
	Duration             time.Duration
}

// RefreshOwner re-evaluates and applies both statuses for every consumer of
// the owner. Evaluations run in parallel up to the configured concurrency and
// share one evaluation time. The first failure cancels the rest.
func (s *Service) RefreshOwner(ctx context.Context, ownerID id.OwnerID) (*RefreshResult, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "compliance.RefreshOwner",
		trace.WithAttributes(attribute.String("owner_id", ownerID.String())))
	defer span.End()

	ctx = requestcontext.WithOwnerID(ctx, ownerID)
	ctx = requestcontext.WithTime(ctx, requestcontext.Now(ctx))

	owner, err := s.inventory.GetOwner(ctx, ownerID)
	if err != nil {
		return nil, recordError(span, translate(err, "owner"))
	}
	consumerIDs, err := s.consumers.ListConsumerIDs(ctx, ownerID)
	if err != nil {
		return nil, recordError(span, translate(err, "consumers"))
	}

	var complianceChanged, purposeChanged atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.refreshConcurrency)
	for _, consumerID := range consumerIDs {
		g.Go(func() error {
			c, p, err := s.refreshConsumer(gctx, owner, consumerID)
			if err != nil {
				return fmt.Errorf("refresh consumer %s: %w", consumerID, err)
			}
			if c {
				complianceChanged.Add(1)
			}
			if p {
				purposeChanged.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.trackRefresh(ctx, ownerID, "failed")
		return nil, recordError(span, err)
	}

	result := &RefreshResult{
		OwnerID:              ownerID,
		Consumers:            len(consumerIDs),
		ComplianceChanged:    int(complianceChanged.Load()),
		SystemPurposeChanged: int(purposeChanged.Load()),
		Duration:             time.Since(start),
	}
	s.metrics.ObserveRefreshLatency(result.Duration)
	s.logger.InfoContext(ctx, "owner compliance refreshed",
		"request_id", requestcontext.RequestID(ctx),
		"owner_id", ownerID,
		"consumers", result.Consumers,
		"compliance_changed", result.ComplianceChanged,
		"system_purpose_changed", result.SystemPurposeChanged,
		"duration_ms", result.Duration.Milliseconds(),
	)
	s.trackRefresh(ctx, ownerID, "ok")
	return result, nil
}

func (s *Service) trackRefresh(ctx context.Context, ownerID id.OwnerID, status string) {
	if s.ops == nil {
		return
	}
	s.ops.Track(ctx, audit.OpsEvent{
		Timestamp: requestcontext.Now(ctx),
		OwnerID:   ownerID,
		Action:    string(audit.EventOwnerRefreshed),
		Subject:   ownerID.String(),
		Status:    status,
		RequestID: requestcontext.RequestID(ctx),
	})
}

func (s *Service) refreshConsumer(ctx context.Context, owner *models.Owner, consumerID id.ConsumerID) (bool, bool, error) {
	view, err := s.load(ctx, consumerID, owner, nil)
	if err != nil {
		return false, false, err
	}

	status, err := s.evaluateInstalled(ctx, view)
	if err != nil {
		return false, false, err
	}
	complianceChanged, err := s.ApplyComplianceStatus(ctx, view.consumer, status, true)
	if err != nil {
		return false, false, err
	}

	purposeChanged, err := s.ApplySystemPurposeStatus(ctx, view.consumer, s.evaluatePurpose(ctx, view), true)
	if err != nil {
		return false, false, err
	}
	return complianceChanged, purposeChanged, nil
}
