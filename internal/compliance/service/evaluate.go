package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"candlepin/internal/compliance/evaluator"
	"candlepin/internal/compliance/models"
	"candlepin/internal/rules"
	id "candlepin/pkg/domain"
	dErrors "candlepin/pkg/domain-errors"
	"candlepin/pkg/platform/sentinel"
	"candlepin/pkg/requestcontext"
)

// RuleConsumerCapacity is the optional rule function that overrides the
// capacity derived from consumer facts.
const RuleConsumerCapacity = "consumer_capacity"

// consumerView is everything one evaluation reads.
type consumerView struct {
	owner    *models.Owner
	consumer *models.Consumer
	existing []models.Entitlement
	added    []models.Entitlement
	snapshot *models.Snapshot
}

// Compliance evaluates installed-product compliance at the request time.
// With apply set the result is applied and persisted when it changed.
func (s *Service) Compliance(ctx context.Context, consumerID id.ConsumerID, apply bool) (*models.ComplianceStatus, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "compliance.Compliance",
		trace.WithAttributes(attribute.String("consumer_id", consumerID.String())))
	defer span.End()

	view, err := s.load(ctx, consumerID, nil, nil)
	if err != nil {
		return nil, recordError(span, err)
	}

	status, err := s.evaluateInstalled(ctx, view)
	if err != nil {
		return nil, recordError(span, err)
	}

	if apply {
		if _, err := s.ApplyComplianceStatus(ctx, view.consumer, status, true); err != nil {
			return nil, recordError(span, err)
		}
	}

	s.metrics.ObserveEvaluateLatency(string(models.KindCompliance), time.Since(start))
	span.SetAttributes(attribute.String("status", status.Status()))
	return status, nil
}

// SystemPurposeCompliance evaluates the consumer's system purpose against
// its entitlements plus any newly granted ones. With currentCompliance set
// the result is applied and persisted when it changed.
func (s *Service) SystemPurposeCompliance(
	ctx context.Context,
	consumerID id.ConsumerID,
	added []id.EntitlementID,
	currentCompliance bool,
) (*models.SystemPurposeStatus, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "compliance.SystemPurposeCompliance",
		trace.WithAttributes(
			attribute.String("consumer_id", consumerID.String()),
			attribute.Int("added_entitlements", len(added)),
		))
	defer span.End()

	view, err := s.load(ctx, consumerID, nil, added)
	if err != nil {
		return nil, recordError(span, err)
	}

	status := s.evaluatePurpose(ctx, view)

	if currentCompliance {
		if _, err := s.ApplySystemPurposeStatus(ctx, view.consumer, status, true); err != nil {
			return nil, recordError(span, err)
		}
	}

	s.metrics.ObserveEvaluateLatency(string(models.KindSystemPurpose), time.Since(start))
	span.SetAttributes(attribute.String("status", status.Status()))
	return status, nil
}

func (s *Service) evaluatePurpose(ctx context.Context, view *consumerView) *models.SystemPurposeStatus {
	status := evaluator.EvaluateSystemPurpose(view.owner, view.consumer, view.snapshot,
		view.existing, view.added, requestcontext.Now(ctx))
	s.metrics.IncrementEvaluation(string(models.KindSystemPurpose), status.Status())
	return status
}

func (s *Service) evaluateInstalled(ctx context.Context, view *consumerView) (*models.ComplianceStatus, error) {
	at := requestcontext.Now(ctx)
	if view.owner.ComplianceDisabled() {
		return evaluator.EvaluateInstalled(view.owner, view.consumer, view.snapshot, nil, evaluator.Capacity{}, at), nil
	}

	capacity, err := s.capacity(ctx, view.consumer)
	if err != nil {
		return nil, err
	}
	status := evaluator.EvaluateInstalled(view.owner, view.consumer, view.snapshot, view.existing, capacity, at)
	s.metrics.IncrementEvaluation(string(models.KindCompliance), status.Status())
	return status, nil
}

// CapacityInput is the context passed to consumer_capacity.
type CapacityInput struct {
	Consumer *models.Consumer   `json:"consumer"`
	Derived  evaluator.Capacity `json:"derived"`
}

// FactCapacity is the built-in consumer_capacity served when the rules do
// not define one.
func FactCapacity(_ context.Context, in CapacityInput) (evaluator.Capacity, error) {
	if in.Consumer == nil {
		return in.Derived, nil
	}
	return evaluator.CapacityFromFacts(in.Consumer.Facts), nil
}

// capacity derives what must be covered from facts, letting the rules
// override any field through consumer_capacity.
func (s *Service) capacity(ctx context.Context, consumer *models.Consumer) (evaluator.Capacity, error) {
	derived := evaluator.CapacityFromFacts(consumer.Facts)
	if s.rules == nil {
		return derived, nil
	}

	result, ok, err := rules.CallOnto(ctx, s.rules, RuleConsumerCapacity,
		CapacityInput{Consumer: consumer, Derived: derived}, derived)
	if err != nil {
		return derived, err
	}
	if !ok {
		return derived, nil
	}
	return result.Normalize(), nil
}

// load reads the consumer, its owner (unless given), its entitlements, the
// added entitlements and a snapshot covering all of them.
func (s *Service) load(ctx context.Context, consumerID id.ConsumerID, owner *models.Owner, added []id.EntitlementID) (*consumerView, error) {
	if consumerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "consumer_id is required")
	}

	consumer, err := s.consumers.GetConsumer(ctx, consumerID)
	if err != nil {
		return nil, translate(err, "consumer")
	}

	if owner == nil {
		owner, err = s.inventory.GetOwner(ctx, consumer.OwnerID)
		if err != nil {
			return nil, translate(err, "owner")
		}
	}

	view := &consumerView{owner: owner, consumer: consumer}
	if owner.ComplianceDisabled() {
		view.snapshot = models.NewSnapshot(nil, nil)
		return view, nil
	}

	view.existing, err = s.inventory.ListEntitlements(ctx, consumerID)
	if err != nil {
		return nil, translate(err, "entitlements")
	}
	if len(added) > 0 {
		view.added, err = s.inventory.GetEntitlements(ctx, added)
		if err != nil {
			return nil, translate(err, "entitlements")
		}
		for _, ent := range view.added {
			if ent.ConsumerID != consumerID {
				return nil, dErrors.New(dErrors.CodeValidation,
					fmt.Sprintf("entitlement %s does not belong to consumer %s", ent.ID, consumerID))
			}
		}
	}

	all := make([]models.Entitlement, 0, len(view.existing)+len(view.added))
	all = append(all, view.existing...)
	all = append(all, view.added...)
	view.snapshot, err = s.inventory.LoadSnapshot(ctx, all)
	if err != nil {
		return nil, translate(err, "pools")
	}
	return view, nil
}

// translate maps store errors onto coded domain errors. Already coded
// errors pass through unchanged.
func translate(err error, what string) error {
	var coded *dErrors.Error
	switch {
	case errors.As(err, &coded):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, what+" not found")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "timed out loading "+what)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+what)
	}
}

func recordError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	return err
}
