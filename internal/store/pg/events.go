package pg

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/certhub/internal/domain/repository"
)

type eventRepo struct{ pool *pgxpool.Pool }

func (r eventRepo) GetByID(ctx context.Context, id string) (*repository.Event, error) {
	const q = `
		SELECT id, name, event_date, organizer_name, institute_name, created_at
		FROM events WHERE id = $1`
	var e repository.Event
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&e.ID, &e.Name, &e.Date, &e.OrganizerName, &e.InstituteName, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r eventRepo) Delete(ctx context.Context, id string) error {
	// participants/certificates/templates cascadean por FK
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type templateRepo struct{ pool *pgxpool.Pool }

func (r templateRepo) GetByEvent(ctx context.Context, eventID string) (*repository.Template, error) {
	const q = `
		SELECT id, event_id, name, image_data, created_at
		FROM templates WHERE event_id = $1`
	var t repository.Template
	err := r.pool.QueryRow(ctx, q, eventID).Scan(
		&t.ID, &t.EventID, &t.Name, &t.ImageData, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r templateRepo) Upsert(ctx context.Context, t *repository.Template) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	const q = `
		INSERT INTO templates (id, event_id, name, image_data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id)
		DO UPDATE SET name = EXCLUDED.name, image_data = EXCLUDED.image_data`
	_, err := r.pool.Exec(ctx, q, t.ID, t.EventID, t.Name, t.ImageData)
	return err
}

type auditRepo struct{ pool *pgxpool.Pool }

func (r auditRepo) Append(ctx context.Context, e *repository.AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	const q = `
		INSERT INTO event_audit_log (id, event_id, actor, action, details)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, q, e.ID, e.EventID, e.Actor, e.Action, e.Details)
	return err
}

func (r auditRepo) ListByEvent(ctx context.Context, eventID string) ([]repository.AuditEntry, error) {
	const q = `
		SELECT id, event_id, actor, action, details, ts
		FROM event_audit_log WHERE event_id = $1 ORDER BY ts DESC`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.AuditEntry
	for rows.Next() {
		var e repository.AuditEntry
		if err := rows.Scan(&e.ID, &e.EventID, &e.Actor, &e.Action, &e.Details, &e.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
