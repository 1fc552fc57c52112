package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adrata/crmops/internal/domain/model"
	"github.com/adrata/crmops/pkg/metrics"
)

// psql builds queries with Postgres-style $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresStore implements Store against the CRM Postgres schema.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects a pool from a DSN.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStoreFromPool wires an existing pool.
func NewPostgresStoreFromPool(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

var personColumns = []string{
	"id", "workspace_id", "first_name", "last_name", "job_title", "email",
	"phone", "company_id", "buyer_group_role", "in_buyer_group",
	"global_rank", "influence_score", "engagement_score",
	"data_quality_score", "linkedin_connections", "linkedin_followers",
	"updated_at",
}

// ListPeople returns people matching the filter in stable id order.
func (s *PostgresStore) ListPeople(ctx context.Context, f PersonFilter) ([]model.Person, error) {
	q := psql.Select(personColumns...).
		From("people").
		Where(sq.Eq{"deleted_at": nil}).
		OrderBy("id ASC")
	q = applyFilter(q, f)

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	start := time.Now()
	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query people: %w", err)
	}
	defer rows.Close()
	metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))

	var out []model.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate people: %w", err)
	}
	return out, nil
}

// ListDomainPairs joins people to their companies for domain auditing.
func (s *PostgresStore) ListDomainPairs(ctx context.Context, f PersonFilter) ([]CompanyDomain, error) {
	q := psql.Select("p.id", "p.email", "p.company_id", "COALESCE(c.name, '')", "c.website").
		From("people p").
		LeftJoin("companies c ON c.id = p.company_id").
		Where(sq.Eq{"p.deleted_at": nil}).
		OrderBy("p.id ASC")
	if f.WorkspaceID != "" {
		q = q.Where(sq.Eq{"p.workspace_id": f.WorkspaceID})
	}
	if f.CompanyID != "" {
		q = q.Where(sq.Eq{"p.company_id": f.CompanyID})
	}
	if f.InBuyerGroup {
		q = q.Where(sq.Eq{"p.in_buyer_group": true})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build pairs query: %w", err)
	}

	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query domain pairs: %w", err)
	}
	defer rows.Close()

	var out []CompanyDomain
	for rows.Next() {
		var pair CompanyDomain
		if err := rows.Scan(&pair.PersonID, &pair.Email, &pair.CompanyID, &pair.CompanyName, &pair.CompanyDomain); err != nil {
			return nil, fmt.Errorf("scan domain pair: %w", err)
		}
		out = append(out, pair)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate domain pairs: %w", err)
	}
	return out, nil
}

// GetPerson returns one person or ErrNotFound.
func (s *PostgresStore) GetPerson(ctx context.Context, personID string) (model.Person, error) {
	sqlStr, args, err := psql.Select(personColumns...).
		From("people").
		Where(sq.Eq{"id": personID, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return model.Person{}, fmt.Errorf("build get query: %w", err)
	}

	row := s.pool.QueryRow(ctx, sqlStr, args...)
	p, err := scanPerson(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Person{}, ErrNotFound
	}
	return p, err
}

// UpsertPerson creates or replaces a person record.
func (s *PostgresStore) UpsertPerson(ctx context.Context, p model.Person) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	sqlStr, args, err := psql.Insert("people").
		Columns(personColumns...).
		Values(p.ID, p.WorkspaceID, p.FirstName, p.LastName, p.JobTitle,
			p.Email, p.Phone, p.CompanyID, p.BuyerGroupRole, p.InBuyerGroup,
			p.GlobalRank, p.InfluenceScore, p.EngagementScore,
			p.DataQualityScore, p.LinkedinConnections, p.LinkedinFollowers,
			sq.Expr("NOW()")).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			workspace_id = EXCLUDED.workspace_id,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			job_title = EXCLUDED.job_title,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			company_id = EXCLUDED.company_id,
			buyer_group_role = EXCLUDED.buyer_group_role,
			in_buyer_group = EXCLUDED.in_buyer_group,
			global_rank = EXCLUDED.global_rank,
			influence_score = EXCLUDED.influence_score,
			engagement_score = EXCLUDED.engagement_score,
			data_quality_score = EXCLUDED.data_quality_score,
			linkedin_connections = EXCLUDED.linkedin_connections,
			linkedin_followers = EXCLUDED.linkedin_followers,
			updated_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := s.pool.Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("upsert person: %w", err)
	}
	return nil
}

// UpsertCompany creates or replaces a company record.
func (s *PostgresStore) UpsertCompany(ctx context.Context, c model.Company) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	sqlStr, args, err := psql.Insert("companies").
		Columns("id", "name", "website", "industry", "size").
		Values(c.ID, c.Name, c.Website, c.Industry, c.Size).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			website = EXCLUDED.website,
			industry = EXCLUDED.industry,
			size = EXCLUDED.size`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build company upsert: %w", err)
	}

	if _, err := s.pool.Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("upsert company: %w", err)
	}
	return nil
}

// GetCompany returns one company or ErrNotFound.
func (s *PostgresStore) GetCompany(ctx context.Context, companyID string) (model.Company, error) {
	sqlStr, args, err := psql.Select("id", "name", "website", "industry", "size").
		From("companies").
		Where(sq.Eq{"id": companyID}).
		ToSql()
	if err != nil {
		return model.Company{}, fmt.Errorf("build company get: %w", err)
	}

	var c model.Company
	err = s.pool.QueryRow(ctx, sqlStr, args...).
		Scan(&c.ID, &c.Name, &c.Website, &c.Industry, &c.Size)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Company{}, ErrNotFound
	}
	if err != nil {
		return model.Company{}, fmt.Errorf("query company: %w", err)
	}
	return c, nil
}

// UpdateScore persists a recomputed role and rank for one person.
func (s *PostgresStore) UpdateScore(ctx context.Context, u ScoreUpdate) (bool, error) {
	sqlStr, args, err := psql.Update("people").
		Set("buyer_group_role", u.Role).
		Set("global_rank", u.GlobalRank).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": u.PersonID, "deleted_at": nil}).
		Where(sq.Or{
			sq.NotEq{"buyer_group_role": u.Role},
			sq.NotEq{"global_rank": u.GlobalRank},
			sq.Eq{"buyer_group_role": nil},
			sq.Eq{"global_rank": nil},
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build score update: %w", err)
	}

	start := time.Now()
	tag, err := s.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		return false, fmt.Errorf("update score: %w", err)
	}
	metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	return tag.RowsAffected() > 0, nil
}

// BulkUpdateScores applies a batch of score updates in one transaction.
func (s *PostgresStore) BulkUpdateScores(ctx context.Context, updates []ScoreUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin bulk update: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, u := range updates {
		sqlStr, args, err := psql.Update("people").
			Set("buyer_group_role", u.Role).
			Set("global_rank", u.GlobalRank).
			Set("updated_at", sq.Expr("NOW()")).
			Where(sq.Eq{"id": u.PersonID, "deleted_at": nil}).
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("build bulk update: %w", err)
		}
		batch.Queue(sqlStr, args...)
	}

	br := tx.SendBatch(ctx, batch)
	changed := 0
	for range updates {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return changed, fmt.Errorf("bulk update exec: %w", err)
		}
		changed += int(tag.RowsAffected())
	}
	if err := br.Close(); err != nil {
		return changed, fmt.Errorf("bulk update close: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return changed, fmt.Errorf("commit bulk update: %w", err)
	}
	return changed, nil
}

// ClearBuyerGroup drops membership and role and appends an audit note.
// The person row is soft-state only; nothing is ever deleted here.
func (s *PostgresStore) ClearBuyerGroup(ctx context.Context, personID, reason string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	sqlStr, args, err := psql.Update("people").
		Set("buyer_group_role", nil).
		Set("in_buyer_group", false).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": personID, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build clear: %w", err)
	}
	tag, err := tx.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("clear buyer group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	noteSQL, noteArgs, err := psql.Insert("audit_notes").
		Columns("id", "person_id", "reason", "created_at").
		Values(uuid.New().String(), personID, reason, sq.Expr("NOW()")).
		ToSql()
	if err != nil {
		return fmt.Errorf("build audit note: %w", err)
	}
	if _, err := tx.Exec(ctx, noteSQL, noteArgs...); err != nil {
		return fmt.Errorf("insert audit note: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}
	return nil
}

// Queue returns the top-N people ordered by global rank ascending, with
// unranked people last. Mirrors the desktop speedrun query's ordering.
func (s *PostgresStore) Queue(ctx context.Context, n int) ([]Entry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	sqlStr, args, err := psql.Select(
		"id",
		"TRIM(CONCAT(first_name, ' ', last_name))",
		"COALESCE(buyer_group_role, '')",
		fmt.Sprintf("COALESCE(global_rank, %d)", unranked),
		"COALESCE(influence_score, 0)",
	).
		From("people").
		Where(sq.Eq{"deleted_at": nil}).
		OrderBy("global_rank ASC NULLS LAST", "id ASC").
		Limit(uint64(n)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build queue query: %w", err)
	}

	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query queue: %w", err)
	}
	defer rows.Close()

	var out []Entry
	pos := 0
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.PersonID, &e.Name, &e.Role, &e.GlobalRank, &e.Influence); err != nil {
			return nil, fmt.Errorf("scan queue entry: %w", err)
		}
		pos++
		e.Position = pos
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queue: %w", err)
	}
	return out, nil
}

// Rank returns the queue entry for one person.
func (s *PostgresStore) Rank(ctx context.Context, personID string) (Entry, error) {
	const q = `
		SELECT id, name, role, global_rank, influence, position FROM (
			SELECT id,
			       TRIM(CONCAT(first_name, ' ', last_name)) AS name,
			       COALESCE(buyer_group_role, '') AS role,
			       COALESCE(global_rank, $2) AS global_rank,
			       COALESCE(influence_score, 0) AS influence,
			       ROW_NUMBER() OVER (ORDER BY global_rank ASC NULLS LAST, id ASC) AS position
			FROM people
			WHERE deleted_at IS NULL
		) ranked
		WHERE id = $1`

	var e Entry
	err := s.pool.QueryRow(ctx, q, personID, unranked).
		Scan(&e.PersonID, &e.Name, &e.Role, &e.GlobalRank, &e.Influence, &e.Position)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("query rank: %w", err)
	}
	return e, nil
}

// Count returns the number of live people rows.
func (s *PostgresStore) Count(ctx context.Context) int {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM people WHERE deleted_at IS NULL`).Scan(&n); err != nil {
		return 0
	}
	return n
}

func applyFilter(q sq.SelectBuilder, f PersonFilter) sq.SelectBuilder {
	if f.WorkspaceID != "" {
		q = q.Where(sq.Eq{"workspace_id": f.WorkspaceID})
	}
	if f.CompanyID != "" {
		q = q.Where(sq.Eq{"company_id": f.CompanyID})
	}
	if f.MissingTitle {
		q = q.Where(sq.Or{sq.Eq{"job_title": nil}, sq.Eq{"job_title": ""}})
	}
	if f.InBuyerGroup {
		q = q.Where(sq.Eq{"in_buyer_group": true})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	return q
}

// scanPerson reads one people row in personColumns order.
func scanPerson(row pgx.Row) (model.Person, error) {
	var p model.Person
	err := row.Scan(
		&p.ID, &p.WorkspaceID, &p.FirstName, &p.LastName, &p.JobTitle,
		&p.Email, &p.Phone, &p.CompanyID, &p.BuyerGroupRole, &p.InBuyerGroup,
		&p.GlobalRank, &p.InfluenceScore, &p.EngagementScore,
		&p.DataQualityScore, &p.LinkedinConnections, &p.LinkedinFollowers,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Person{}, err
		}
		return model.Person{}, fmt.Errorf("scan person: %w", err)
	}
	return p, nil
}
