// Package archive mirrors the in-memory dispatch state into Postgres for
// audit and after-action review. The registry stays authoritative; the
// archive takes best-effort writes off the hot path via the event bus.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"crisisnet_backend/internal/crisis/domain"
)

var ErrCrisisNotArchived = errors.New("crisis not archived")

// CrisisRecord is one archived crisis snapshot row.
type CrisisRecord struct {
	ID              uuid.UUID
	Title           string
	CrisisType      string
	Severity        string
	Status          string
	EscalationLevel int
	Snapshot        json.RawMessage
	CreatedAt       time.Time
	ClosedAt        *time.Time
	ArchivedAt      time.Time
}

// ResponseRecord is one archived agency answer.
type ResponseRecord struct {
	ID          int64
	CrisisID    uuid.UUID
	AgencyID    string
	AgencyName  string
	Accepted    bool
	Counted     bool
	ETAMinutes  int
	RespondedAt time.Time
}

// Repository provides data access for the crisis archive.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new archive repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Ping reports whether the archive database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// UpsertCrisis writes the full crisis snapshot, replacing any prior version.
// Every lifecycle event carries the whole aggregate, so last write wins.
func (r *Repository) UpsertCrisis(ctx context.Context, c domain.Crisis) error {
	snapshot, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO crisis_archive (id, title, crisis_type, severity, status, escalation_level, snapshot, created_at, closed_at, archived_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title,
		    crisis_type = EXCLUDED.crisis_type,
		    severity = EXCLUDED.severity,
		    status = EXCLUDED.status,
		    escalation_level = EXCLUDED.escalation_level,
		    snapshot = EXCLUDED.snapshot,
		    closed_at = EXCLUDED.closed_at,
		    archived_at = now()
	`, c.ID, c.Title, c.Type, string(c.Severity), string(c.Status), c.EscalationLevel, snapshot, c.CreatedAt, c.ClosedAt)
	return err
}

// InsertResponse appends one agency answer to the response log.
func (r *Repository) InsertResponse(ctx context.Context, crisisID uuid.UUID, resp domain.ResponseRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO crisis_response_log (crisis_id, agency_id, agency_name, accepted, counted, eta_minutes, responded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, crisisID, resp.AgencyID, resp.AgencyName, resp.Accepts, resp.Counted, resp.ETAMinutes, resp.RespondedAt)
	return err
}

// InsertLocationUpdate appends a positional update from a responding unit.
func (r *Repository) InsertLocationUpdate(ctx context.Context, crisisID uuid.UUID, u domain.LocationUpdate) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO crisis_location_log (crisis_id, agency_id, lat, lon, note, reported_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, crisisID, u.AgencyID, u.Location.Lat, u.Location.Lon, u.Note, u.At)
	return err
}

// GetCrisis retrieves one archived crisis snapshot.
func (r *Repository) GetCrisis(ctx context.Context, id uuid.UUID) (CrisisRecord, error) {
	var rec CrisisRecord
	err := r.pool.QueryRow(ctx, `
		SELECT id, title, crisis_type, severity, status, escalation_level, snapshot, created_at, closed_at, archived_at
		FROM crisis_archive
		WHERE id = $1
	`, id).Scan(
		&rec.ID, &rec.Title, &rec.CrisisType, &rec.Severity, &rec.Status,
		&rec.EscalationLevel, &rec.Snapshot, &rec.CreatedAt, &rec.ClosedAt, &rec.ArchivedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return CrisisRecord{}, ErrCrisisNotArchived
	}
	return rec, err
}

// ListRecent returns archived crises newest first.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]CrisisRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, crisis_type, severity, status, escalation_level, snapshot, created_at, closed_at, archived_at
		FROM crisis_archive
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []CrisisRecord
	for rows.Next() {
		var rec CrisisRecord
		if err := rows.Scan(
			&rec.ID, &rec.Title, &rec.CrisisType, &rec.Severity, &rec.Status,
			&rec.EscalationLevel, &rec.Snapshot, &rec.CreatedAt, &rec.ClosedAt, &rec.ArchivedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListResponses returns the response log for one crisis in arrival order.
func (r *Repository) ListResponses(ctx context.Context, crisisID uuid.UUID) ([]ResponseRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, crisis_id, agency_id, agency_name, accepted, counted, eta_minutes, responded_at
		FROM crisis_response_log
		WHERE crisis_id = $1
		ORDER BY id
	`, crisisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ResponseRecord
	for rows.Next() {
		var rec ResponseRecord
		if err := rows.Scan(
			&rec.ID, &rec.CrisisID, &rec.AgencyID, &rec.AgencyName,
			&rec.Accepted, &rec.Counted, &rec.ETAMinutes, &rec.RespondedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
