//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"caredex/internal/attestation/models"
	"caredex/internal/attestation/store"
	"caredex/internal/confidence"
	"caredex/pkg/domain"
	"caredex/pkg/platform/sentinel"
	"caredex/pkg/testutil/containers"
)

type PostgresSubmissionsSuite struct {
	suite.Suite
	postgres    *containers.PostgresContainer
	submissions *store.PostgresSubmissions
}

func TestPostgresSubmissionsSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresSubmissionsSuite))
}

func (s *PostgresSubmissionsSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(store.Migrate(context.Background(), s.postgres.Pool))
	s.submissions = store.NewPostgresSubmissions(s.postgres.Pool)
}

func (s *PostgresSubmissionsSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "submissions"))
}

func newTestSubmission(s *PostgresSubmissionsSuite, providerID domain.ProviderID, planID domain.PlanID,
	fingerprint string, createdAt time.Time) *models.Submission {

	sub, err := models.NewSubmission(domain.NewSubmissionID(), providerID, planID,
		confidence.AcceptanceAccepted, "front desk confirmed", "Chrome 120 on Mac OS X",
		fingerprint, createdAt)
	s.Require().NoError(err)
	return sub
}

func (s *PostgresSubmissionsSuite) TestCreateAndFind() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	sub := newTestSubmission(s, domain.NewProviderID(), domain.NewPlanID(), "fp-1", now)

	s.Require().NoError(s.submissions.Create(ctx, sub))

	got, err := s.submissions.FindByID(ctx, sub.ID)
	s.Require().NoError(err)
	s.Equal(sub.ID, got.ID)
	s.Equal(sub.ProviderID, got.ProviderID)
	s.Equal(confidence.AcceptanceAccepted, got.ReportedStatus)
	s.Equal("front desk confirmed", got.Note)
	s.Equal("fp-1", got.Fingerprint)
	s.True(got.CreatedAt.Equal(now))
}

func (s *PostgresSubmissionsSuite) TestFindUnknownID() {
	_, err := s.submissions.FindByID(context.Background(), domain.NewSubmissionID())
	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *PostgresSubmissionsSuite) TestCountRecentHonorsWindow() {
	ctx := context.Background()
	providerID := domain.NewProviderID()
	planID := domain.NewPlanID()
	now := time.Now().UTC().Truncate(time.Microsecond)

	inside := newTestSubmission(s, providerID, planID, "fp-1", now.Add(-time.Hour))
	outside := newTestSubmission(s, providerID, planID, "fp-1", now.Add(-48*time.Hour))
	otherPrint := newTestSubmission(s, providerID, planID, "fp-2", now.Add(-time.Hour))
	otherPlan := newTestSubmission(s, providerID, domain.NewPlanID(), "fp-1", now.Add(-time.Hour))
	for _, sub := range []*models.Submission{inside, outside, otherPrint, otherPlan} {
		s.Require().NoError(s.submissions.Create(ctx, sub))
	}

	count, err := s.submissions.CountRecent(ctx, "fp-1", providerID, planID, now.Add(-24*time.Hour))
	s.Require().NoError(err)
	s.Equal(1, count)
}
