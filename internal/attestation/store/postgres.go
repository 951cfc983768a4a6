package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"caredex/internal/attestation/models"
	"caredex/internal/confidence"
	"caredex/pkg/domain"
	"caredex/pkg/platform/sentinel"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies the attestation schema. Idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply attestation schema: %w", err)
	}
	return nil
}

// PostgresSubmissions implements service.SubmissionStore on PostgreSQL.
type PostgresSubmissions struct {
	pool *pgxpool.Pool
}

func NewPostgresSubmissions(pool *pgxpool.Pool) *PostgresSubmissions {
	return &PostgresSubmissions{pool: pool}
}

func (s *PostgresSubmissions) Create(ctx context.Context, submission *models.Submission) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO submissions (id, provider_id, plan_id, reported_status, note, device_summary, fingerprint, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(submission.ID), uuid.UUID(submission.ProviderID), uuid.UUID(submission.PlanID),
		string(submission.ReportedStatus), submission.Note, submission.DeviceSummary,
		submission.Fingerprint, submission.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *PostgresSubmissions) FindByID(ctx context.Context, id domain.SubmissionID) (*models.Submission, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, provider_id, plan_id, reported_status, note, device_summary, fingerprint, created_at
		FROM submissions WHERE id = $1`, uuid.UUID(id))

	var (
		sub                   models.Submission
		subID, provID, planID uuid.UUID
		status                string
	)
	err := row.Scan(&subID, &provID, &planID, &status, &sub.Note, &sub.DeviceSummary, &sub.Fingerprint, &sub.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan submission: %w", err)
	}
	sub.ID = domain.SubmissionID(subID)
	sub.ProviderID = domain.ProviderID(provID)
	sub.PlanID = domain.PlanID(planID)
	sub.ReportedStatus = confidence.AcceptanceStatus(status)
	return &sub, nil
}

func (s *PostgresSubmissions) CountRecent(ctx context.Context, fingerprint string,
	providerID domain.ProviderID, planID domain.PlanID, since time.Time) (int, error) {

	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM submissions
		WHERE fingerprint = $1 AND provider_id = $2 AND plan_id = $3 AND created_at >= $4`,
		fingerprint, uuid.UUID(providerID), uuid.UUID(planID), since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return count, nil
}
