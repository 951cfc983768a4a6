package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/google/uuid"

	"caredex/internal/confidence"
	"caredex/internal/directory/models"
	"caredex/pkg/domain"
	"caredex/pkg/platform/sentinel"
)

// psql builds queries with $n placeholders for pgx.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// PostgresProviders implements service.ProviderStore on PostgreSQL.
type PostgresProviders struct {
	pool *pgxpool.Pool
}

func NewPostgresProviders(pool *pgxpool.Pool) *PostgresProviders {
	return &PostgresProviders{pool: pool}
}

const providerColumns = "id, npi, name, specialty, status, last_registry_update, created_at, updated_at"

func (s *PostgresProviders) Create(ctx context.Context, provider *models.Provider) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO providers (id, npi, name, specialty, status, last_registry_update, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(provider.ID), provider.NPI, provider.Name, provider.Specialty,
		string(provider.Status), provider.LastRegistryUpdate, provider.CreatedAt, provider.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert provider: %w", err)
	}
	return nil
}

func (s *PostgresProviders) FindByID(ctx context.Context, id domain.ProviderID) (*models.Provider, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+providerColumns+" FROM providers WHERE id = $1", uuid.UUID(id))
	return scanProvider(row)
}

func (s *PostgresProviders) FindByNPI(ctx context.Context, npi string) (*models.Provider, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+providerColumns+" FROM providers WHERE npi = $1", npi)
	return scanProvider(row)
}

func (s *PostgresProviders) Update(ctx context.Context, provider *models.Provider) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE providers
		SET name = $2, specialty = $3, status = $4, last_registry_update = $5, updated_at = $6
		WHERE id = $1`,
		uuid.UUID(provider.ID), provider.Name, provider.Specialty,
		string(provider.Status), provider.LastRegistryUpdate, provider.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update provider: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Search builds the listing query dynamically: filters join against the
// acceptances table only when the caller asked for plan or score constraints.
func (s *PostgresProviders) Search(ctx context.Context, filter models.SearchFilter) ([]*models.Provider, error) {
	q := psql.Select(
		"p.id", "p.npi", "p.name", "p.specialty", "p.status",
		"p.last_registry_update", "p.created_at", "p.updated_at",
	).From("providers p")

	if filter.Specialty != "" {
		q = q.Where(sq.Expr("LOWER(p.specialty) = LOWER(?)", filter.Specialty))
	}
	if !filter.PlanID.IsNil() || filter.MinScore != nil {
		q = q.Join("acceptances a ON a.provider_id = p.id")
		if !filter.PlanID.IsNil() {
			q = q.Where(sq.Eq{"a.plan_id": uuid.UUID(filter.PlanID)})
		}
		if filter.MinScore != nil {
			q = q.Where(sq.GtOrEq{"a.confidence_score": *filter.MinScore})
		}
		q = q.Distinct()
	}
	q = q.OrderBy("p.name").Limit(uint64(filter.Limit))

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build provider search: %w", err)
	}

	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("search providers: %w", err)
	}
	defer rows.Close()

	var providers []*models.Provider
	for rows.Next() {
		provider, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		providers = append(providers, provider)
	}
	return providers, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProvider(row rowScanner) (*models.Provider, error) {
	var (
		p      models.Provider
		id     uuid.UUID
		status string
	)
	err := row.Scan(&id, &p.NPI, &p.Name, &p.Specialty, &status, &p.LastRegistryUpdate, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan provider: %w", err)
	}
	p.ID = domain.ProviderID(id)
	p.Status = confidence.ProviderStatus(status)
	return &p, nil
}

// PostgresPlans implements service.PlanStore on PostgreSQL.
type PostgresPlans struct {
	pool *pgxpool.Pool
}

func NewPostgresPlans(pool *pgxpool.Pool) *PostgresPlans {
	return &PostgresPlans{pool: pool}
}

const planColumns = "id, carrier, name, effective_date, termination_date, created_at, updated_at"

func (s *PostgresPlans) Create(ctx context.Context, plan *models.Plan) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO plans (id, carrier, name, effective_date, termination_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(plan.ID), plan.Carrier, plan.Name, plan.EffectiveDate, plan.TerminationDate,
		plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

func (s *PostgresPlans) FindByID(ctx context.Context, id domain.PlanID) (*models.Plan, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+planColumns+" FROM plans WHERE id = $1", uuid.UUID(id))
	return scanPlan(row)
}

func (s *PostgresPlans) List(ctx context.Context) ([]*models.Plan, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+planColumns+" FROM plans ORDER BY carrier, name")
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []*models.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

func scanPlan(row rowScanner) (*models.Plan, error) {
	var (
		p  models.Plan
		id uuid.UUID
	)
	err := row.Scan(&id, &p.Carrier, &p.Name, &p.EffectiveDate, &p.TerminationDate, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan plan: %w", err)
	}
	p.ID = domain.PlanID(id)
	return &p, nil
}

// PostgresAcceptances implements service.AcceptanceStore on PostgreSQL.
// Confidence factors persist as JSONB so the API can return the cached
// breakdown without re-running the engine.
type PostgresAcceptances struct {
	pool *pgxpool.Pool
}

func NewPostgresAcceptances(pool *pgxpool.Pool) *PostgresAcceptances {
	return &PostgresAcceptances{pool: pool}
}

const acceptanceColumns = `id, provider_id, plan_id, status, data_source, data_source_date,
	last_verified_at, verification_source, verification_count,
	upvotes, downvotes, user_submissions,
	confidence_score, confidence_factors, needs_reverification, created_at, updated_at`

func (s *PostgresAcceptances) Create(ctx context.Context, acceptance *models.Acceptance) error {
	factors, err := marshalFactors(acceptance.ConfidenceFactors)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO acceptances (id, provider_id, plan_id, status, data_source, data_source_date,
			last_verified_at, verification_source, verification_count,
			upvotes, downvotes, user_submissions,
			confidence_score, confidence_factors, needs_reverification, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		uuid.UUID(acceptance.ID), uuid.UUID(acceptance.ProviderID), uuid.UUID(acceptance.PlanID),
		string(acceptance.Status), string(acceptance.DataSource), acceptance.DataSourceDate,
		acceptance.LastVerifiedAt, string(acceptance.VerificationSource), acceptance.VerificationCount,
		acceptance.Upvotes, acceptance.Downvotes, acceptance.UserSubmissions,
		acceptance.ConfidenceScore, factors, acceptance.NeedsReverification,
		acceptance.CreatedAt, acceptance.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert acceptance: %w", err)
	}
	return nil
}

func (s *PostgresAcceptances) FindByProviderPlan(ctx context.Context, providerID domain.ProviderID, planID domain.PlanID) (*models.Acceptance, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+acceptanceColumns+" FROM acceptances WHERE provider_id = $1 AND plan_id = $2",
		uuid.UUID(providerID), uuid.UUID(planID),
	)
	return scanAcceptance(row)
}

func (s *PostgresAcceptances) ListByProvider(ctx context.Context, providerID domain.ProviderID) ([]*models.Acceptance, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+acceptanceColumns+" FROM acceptances WHERE provider_id = $1 ORDER BY created_at",
		uuid.UUID(providerID),
	)
	if err != nil {
		return nil, fmt.Errorf("list acceptances: %w", err)
	}
	defer rows.Close()
	return collectAcceptances(rows)
}

func (s *PostgresAcceptances) ListAll(ctx context.Context) ([]*models.Acceptance, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+acceptanceColumns+" FROM acceptances ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("list acceptances: %w", err)
	}
	defer rows.Close()
	return collectAcceptances(rows)
}

func (s *PostgresAcceptances) Update(ctx context.Context, acceptance *models.Acceptance) error {
	factors, err := marshalFactors(acceptance.ConfidenceFactors)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE acceptances
		SET status = $2, data_source = $3, data_source_date = $4,
			last_verified_at = $5, verification_source = $6, verification_count = $7,
			upvotes = $8, downvotes = $9, user_submissions = $10,
			confidence_score = $11, confidence_factors = $12, needs_reverification = $13, updated_at = $14
		WHERE id = $1`,
		uuid.UUID(acceptance.ID),
		string(acceptance.Status), string(acceptance.DataSource), acceptance.DataSourceDate,
		acceptance.LastVerifiedAt, string(acceptance.VerificationSource), acceptance.VerificationCount,
		acceptance.Upvotes, acceptance.Downvotes, acceptance.UserSubmissions,
		acceptance.ConfidenceScore, factors, acceptance.NeedsReverification, acceptance.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update acceptance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func collectAcceptances(rows pgx.Rows) ([]*models.Acceptance, error) {
	var out []*models.Acceptance
	for rows.Next() {
		acceptance, err := scanAcceptance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acceptance)
	}
	return out, rows.Err()
}

func scanAcceptance(row rowScanner) (*models.Acceptance, error) {
	var (
		a                  models.Acceptance
		id, providerID     uuid.UUID
		planID             uuid.UUID
		status, dataSource string
		verificationSource string
		factors            []byte
	)
	err := row.Scan(&id, &providerID, &planID, &status, &dataSource, &a.DataSourceDate,
		&a.LastVerifiedAt, &verificationSource, &a.VerificationCount,
		&a.Upvotes, &a.Downvotes, &a.UserSubmissions,
		&a.ConfidenceScore, &factors, &a.NeedsReverification, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan acceptance: %w", err)
	}
	a.ID = domain.AcceptanceID(id)
	a.ProviderID = domain.ProviderID(providerID)
	a.PlanID = domain.PlanID(planID)
	a.Status = confidence.AcceptanceStatus(status)
	a.DataSource = confidence.Source(dataSource)
	a.VerificationSource = confidence.Source(verificationSource)
	if len(factors) > 0 {
		var f confidence.Factors
		if err := json.Unmarshal(factors, &f); err != nil {
			return nil, fmt.Errorf("decode confidence factors: %w", err)
		}
		a.ConfidenceFactors = &f
	}
	return &a, nil
}

func marshalFactors(factors *confidence.Factors) ([]byte, error) {
	if factors == nil {
		return nil, nil
	}
	data, err := json.Marshal(factors)
	if err != nil {
		return nil, fmt.Errorf("encode confidence factors: %w", err)
	}
	return data, nil
}
