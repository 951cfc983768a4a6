package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"caredex/internal/confidence"
	"caredex/pkg/domain"
	derrors "caredex/pkg/domain-errors"
	"caredex/pkg/requestcontext"
)

// rescoreConcurrency bounds the fan-out of a batch re-score. Evaluations are
// independent, so the only constraint is store connection pressure.
const rescoreConcurrency = 8

// EvaluateAcceptance assembles the evidence snapshot for one (provider, plan)
// pair, runs the confidence engine against the request-scoped clock, and
// caches the result back on the record.
func (s *Service) EvaluateAcceptance(ctx context.Context, providerID domain.ProviderID, planID domain.PlanID) (*confidence.Result, error) {
	ctx, span := s.tracer.Start(ctx, "directory.EvaluateAcceptance")
	defer span.End()
	start := time.Now()

	provider, err := s.GetProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	plan, err := s.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	acceptance, err := s.acceptances.FindByProviderPlan(ctx, providerID, planID)
	if err != nil {
		return nil, wrapStoreErr(err, "acceptance")
	}

	now := requestcontext.Now(ctx)
	result := confidence.Evaluate(acceptance.Evidence(provider, plan), now)

	acceptance.ApplyScore(result, now)
	if err := s.acceptances.Update(ctx, acceptance); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to store confidence result")
	}

	span.SetAttributes(attribute.Int("confidence.score", result.Score))
	if s.metrics != nil {
		s.metrics.ObserveEvaluation(start, result.Score)
	}
	return &result, nil
}

// ProviderSummary aggregates the provider's stored per-plan scores into the
// average/min/max/needs-attention summary. Acceptances that were never
// evaluated are scored on the fly without being persisted.
func (s *Service) ProviderSummary(ctx context.Context, providerID domain.ProviderID) (*confidence.Summary, error) {
	provider, err := s.GetProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	acceptances, err := s.acceptances.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to list acceptances")
	}

	now := requestcontext.Now(ctx)
	scores := make([]int, 0, len(acceptances))
	for _, acc := range acceptances {
		if acc.ConfidenceScore != nil {
			scores = append(scores, *acc.ConfidenceScore)
			continue
		}
		plan, err := s.plans.FindByID(ctx, acc.PlanID)
		if err != nil {
			return nil, wrapStoreErr(err, "plan")
		}
		scores = append(scores, confidence.Evaluate(acc.Evidence(provider, plan), now).Score)
	}

	summary := confidence.Aggregate(scores)
	return &summary, nil
}

// RescoreAll re-evaluates every acceptance record, fanning out with bounded
// concurrency. Elements are independent; the batch shares one clock reading
// so a sweep is internally consistent.
func (s *Service) RescoreAll(ctx context.Context) (int, error) {
	acceptances, err := s.acceptances.ListAll(ctx)
	if err != nil {
		return 0, derrors.Wrap(err, derrors.CodeInternal, "failed to list acceptances")
	}

	now := requestcontext.Now(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rescoreConcurrency)

	for _, acc := range acceptances {
		g.Go(func() error {
			start := time.Now()
			provider, err := s.providers.FindByID(gctx, acc.ProviderID)
			if err != nil {
				return wrapStoreErr(err, "provider")
			}
			plan, err := s.plans.FindByID(gctx, acc.PlanID)
			if err != nil {
				return wrapStoreErr(err, "plan")
			}

			result := confidence.Evaluate(acc.Evidence(provider, plan), now)
			acc.ApplyScore(result, now)
			if err := s.acceptances.Update(gctx, acc); err != nil {
				return derrors.Wrap(err, derrors.CodeInternal, "failed to store confidence result")
			}
			if s.metrics != nil {
				s.metrics.ObserveEvaluation(start, result.Score)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(acceptances), nil
}
