package service

import (
	"context"

	"candlepin/internal/compliance/hasher"
	"candlepin/internal/compliance/models"
	dErrors "candlepin/pkg/domain-errors"
	"candlepin/pkg/requestcontext"
)

// ApplyComplianceStatus records an installed-product status on the consumer.
// A changed hash emits a status change event; a changed hash or status
// string is persisted when updateConsumer is set. Reports whether anything
// changed.
func (s *Service) ApplyComplianceStatus(ctx context.Context, consumer *models.Consumer, status *models.ComplianceStatus, updateConsumer bool) (bool, error) {
	if consumer == nil || status == nil {
		return false, dErrors.New(dErrors.CodeBadRequest, "consumer and status are required")
	}
	return s.apply(ctx, consumer, models.KindCompliance,
		hasher.Compliance(consumer, status), status.Status(), status.Reasons, updateConsumer)
}

// ApplySystemPurposeStatus is ApplyComplianceStatus for system purpose.
func (s *Service) ApplySystemPurposeStatus(ctx context.Context, consumer *models.Consumer, status *models.SystemPurposeStatus, updateConsumer bool) (bool, error) {
	if consumer == nil || status == nil {
		return false, dErrors.New(dErrors.CodeBadRequest, "consumer and status are required")
	}
	return s.apply(ctx, consumer, models.KindSystemPurpose,
		hasher.SystemPurpose(consumer, status), status.Status(), status.Reasons, updateConsumer)
}

func (s *Service) apply(
	ctx context.Context,
	consumer *models.Consumer,
	kind models.StatusKind,
	hash, statusStr string,
	reasons []models.Reason,
	updateConsumer bool,
) (bool, error) {
	storedHash, storedStatus := statusFields(consumer, kind)
	hashChanged := *storedHash != hash
	statusChanged := *storedStatus != statusStr
	if !hashChanged && !statusChanged {
		return false, nil
	}

	previous := *storedStatus
	now := requestcontext.Now(ctx)

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if hashChanged {
			change := models.StatusChange{
				Kind:           kind,
				ConsumerID:     consumer.ID,
				OwnerID:        consumer.OwnerID,
				Status:         statusStr,
				PreviousStatus: previous,
				Hash:           hash,
				ReasonKeys:     models.ReasonKeys(reasons),
				OccurredAt:     now,
			}
			if err := s.events.Emit(ctx, change); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to emit status change")
			}
		}

		if !updateConsumer {
			return nil
		}
		updated := consumer.Clone()
		h, st := statusFields(updated, kind)
		*h, *st = hash, statusStr
		updated.UpdatedAt = now
		if err := s.consumers.UpdateComplianceState(ctx, updated); err != nil {
			return translate(err, "consumer")
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to apply status",
			"request_id", requestcontext.RequestID(ctx),
			"consumer_id", consumer.ID,
			"kind", kind,
			"error", err,
		)
		return false, err
	}

	*storedHash, *storedStatus = hash, statusStr
	if updateConsumer {
		consumer.UpdatedAt = now
	}

	if hashChanged {
		s.metrics.IncrementChange(string(kind), "hash")
	}
	if statusChanged {
		s.metrics.IncrementChange(string(kind), "status")
	}
	s.logger.InfoContext(ctx, "consumer status changed",
		"request_id", requestcontext.RequestID(ctx),
		"consumer_id", consumer.ID,
		"kind", kind,
		"status", statusStr,
		"previous_status", previous,
		"persisted", updateConsumer,
	)
	return true, nil
}

func statusFields(c *models.Consumer, kind models.StatusKind) (hash, status *string) {
	if kind == models.KindSystemPurpose {
		return &c.SystemPurposeStatusHash, &c.SystemPurposeStatus
	}
	return &c.ComplianceStatusHash, &c.EntitlementStatus
}
