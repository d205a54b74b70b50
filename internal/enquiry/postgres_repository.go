package enquiry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/musohq/muso-ai-platform/internal/conflict"
	"github.com/musohq/muso-ai-platform/internal/dates"
)

// pgxDB is the slice of pgxpool.Pool the repository uses; pgxmock satisfies
// it in tests.
type pgxDB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores enquiries in the relational database.
type PostgresRepository struct {
	db pgxDB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("enquiry: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting mocks for tests.
func NewPostgresRepositoryWithDB(db pgxDB) *PostgresRepository {
	if db == nil {
		panic("enquiry: db required")
	}
	return &PostgresRepository{db: db}
}

const enquiryColumns = `id, org_id, client_name, client_email, client_phone,
	event_date, event_time, venue, event_type, gig_type, estimated_value,
	status, has_conflicts, conflict_count, conflict_details,
	original_message, attribute_sources, created_at`

// Create inserts a new row and runs the same-date conflict scan inside one
// transaction. An advisory lock on (org, date) serializes concurrent creates
// for the same date; without it both sides would observe zero conflicts.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateEnquiryRequest) (*Enquiry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("enquiry: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if req.EventDate != nil {
		lockKey := req.OrgID + ":" + req.EventDate.String()
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
			return nil, fmt.Errorf("enquiry: acquire date lock: %w", err)
		}
	}

	sources, err := json.Marshal(req.Sources)
	if err != nil {
		return nil, fmt.Errorf("enquiry: marshal sources: %w", err)
	}

	var eventDate *time.Time
	if req.EventDate != nil {
		t := req.EventDate.Time()
		eventDate = &t
	}

	e := &Enquiry{
		OrgID:           req.OrgID,
		ClientName:      req.ClientName,
		ClientEmail:     req.ClientEmail,
		ClientPhone:     req.ClientPhone,
		EventDate:       req.EventDate,
		EventTime:       req.EventTime,
		Venue:           req.Venue,
		EventType:       req.EventType,
		GigType:         req.GigType,
		EstimatedValue:  req.EstimatedValue,
		Status:          StatusNew,
		OriginalMessage: req.OriginalMessage,
		Sources:         req.Sources,
	}

	query := `
		INSERT INTO enquiries (org_id, client_name, client_email, client_phone,
			event_date, event_time, venue, event_type, gig_type,
			estimated_value, status, original_message, attribute_sources)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at
	`
	if err := tx.QueryRow(ctx, query,
		req.OrgID,
		req.ClientName,
		req.ClientEmail,
		req.ClientPhone,
		eventDate,
		req.EventTime,
		req.Venue,
		req.EventType,
		req.GigType,
		req.EstimatedValue,
		StatusNew,
		req.OriginalMessage,
		sources,
	).Scan(&e.ID, &e.CreatedAt); err != nil {
		return nil, fmt.Errorf("enquiry: insert failed: %w", err)
	}

	if req.EventDate != nil {
		if err := r.scanConflicts(ctx, tx, e, *req.EventDate); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("enquiry: commit: %w", err)
	}
	return e, nil
}

// scanConflicts flags both sides of every same-date pair. The new record
// accumulates one detail line per sibling; each pre-existing sibling learns
// about the new record too.
func (r *PostgresRepository) scanConflicts(ctx context.Context, tx pgx.Tx, e *Enquiry, date dates.Date) error {
	rows, err := tx.Query(ctx, `
		SELECT id, client_name, event_time
		FROM enquiries
		WHERE org_id = $1 AND event_date = $2 AND status <> $3 AND id <> $4
		ORDER BY id
	`, e.OrgID, date.Time(), StatusCancelled, e.ID)
	if err != nil {
		return fmt.Errorf("enquiry: list same-date: %w", err)
	}

	var others []conflict.Record
	for rows.Next() {
		rec := conflict.Record{EventDate: date}
		if err := rows.Scan(&rec.ID, &rec.ClientName, &rec.EventTime); err != nil {
			rows.Close()
			return fmt.Errorf("enquiry: scan same-date row: %w", err)
		}
		others = append(others, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("enquiry: iterate same-date rows: %w", err)
	}
	if len(others) == 0 {
		return nil
	}

	self := conflict.Record{ID: e.ID, ClientName: e.ClientName, EventTime: e.EventTime, EventDate: date}
	var lines []string
	for _, other := range others {
		kind := conflict.Classify(e.EventTime, other.EventTime)
		lines = append(lines, conflict.DetailLine(kind, other))

		if _, err := tx.Exec(ctx, `
			UPDATE enquiries
			SET has_conflicts = TRUE,
				conflict_count = conflict_count + 1,
				conflict_details = CASE
					WHEN conflict_details = '' THEN $1
					ELSE conflict_details || E'\n' || $1
				END
			WHERE id = $2
		`, conflict.DetailLine(kind, self), other.ID); err != nil {
			return fmt.Errorf("enquiry: flag sibling %d: %w", other.ID, err)
		}
	}

	e.HasConflicts = true
	e.ConflictCount = len(others)
	e.ConflictDetails = strings.Join(lines, "\n")
	if _, err := tx.Exec(ctx, `
		UPDATE enquiries
		SET has_conflicts = TRUE, conflict_count = $1, conflict_details = $2
		WHERE id = $3
	`, e.ConflictCount, e.ConflictDetails, e.ID); err != nil {
		return fmt.Errorf("enquiry: flag new record: %w", err)
	}
	return nil
}

// GetByID fetches an enquiry scoped to the org.
func (r *PostgresRepository) GetByID(ctx context.Context, orgID string, id int64) (*Enquiry, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+enquiryColumns+`
		FROM enquiries
		WHERE id = $1 AND org_id = $2
	`, id, orgID)
	e, err := scanEnquiry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("enquiry: select failed: %w", err)
	}
	return e, nil
}

// ListByOrg returns enquiries for the org, newest first.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string, filter ListFilter) ([]*Enquiry, error) {
	query := `SELECT ` + enquiryColumns + ` FROM enquiries WHERE org_id = $1`
	args := []any{orgID}
	if filter.Date != nil {
		args = append(args, filter.Date.Time())
		query += fmt.Sprintf(" AND event_date = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("enquiry: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Enquiry
	for rows.Next() {
		e, err := scanEnquiry(rows)
		if err != nil {
			return nil, fmt.Errorf("enquiry: scan list row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("enquiry: iterate list rows: %w", err)
	}
	return out, nil
}

// UpdateStatus applies one lifecycle transition, enforcing the linear order.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, orgID string, id int64, next Status) (*Enquiry, error) {
	if !next.Valid() {
		return nil, ErrInvalidTransition
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("enquiry: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var current Status
	err = tx.QueryRow(ctx, `
		SELECT status FROM enquiries WHERE id = $1 AND org_id = $2 FOR UPDATE
	`, id, orgID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("enquiry: lock row: %w", err)
	}
	if !current.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
	}

	row := tx.QueryRow(ctx, `
		UPDATE enquiries SET status = $1 WHERE id = $2 AND org_id = $3
		RETURNING `+enquiryColumns+`
	`, next, id, orgID)
	e, err := scanEnquiry(row)
	if err != nil {
		return nil, fmt.Errorf("enquiry: update status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("enquiry: commit: %w", err)
	}
	return e, nil
}

func scanEnquiry(row pgx.Row) (*Enquiry, error) {
	var (
		e         Enquiry
		eventDate *time.Time
		sources   []byte
	)
	if err := row.Scan(
		&e.ID,
		&e.OrgID,
		&e.ClientName,
		&e.ClientEmail,
		&e.ClientPhone,
		&eventDate,
		&e.EventTime,
		&e.Venue,
		&e.EventType,
		&e.GigType,
		&e.EstimatedValue,
		&e.Status,
		&e.HasConflicts,
		&e.ConflictCount,
		&e.ConflictDetails,
		&e.OriginalMessage,
		&sources,
		&e.CreatedAt,
	); err != nil {
		return nil, err
	}
	if eventDate != nil {
		d := dates.FromTime(*eventDate)
		e.EventDate = &d
	}
	if len(sources) > 0 {
		if err := json.Unmarshal(sources, &e.Sources); err != nil {
			return nil, fmt.Errorf("enquiry: decode attribute sources: %w", err)
		}
	}
	return &e, nil
}
