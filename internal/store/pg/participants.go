package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/certhub/internal/domain/repository"
)

type participantRepo struct{ pool *pgxpool.Pool }

func (r participantRepo) GetByID(ctx context.Context, id string) (*repository.Participant, error) {
	const q = `
		SELECT id, name, email, event_id, update_email_status, created_at
		FROM participants WHERE id = $1`
	var p repository.Participant
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&p.ID, &p.Name, &p.Email, &p.EventID, &p.UpdateEmailStatus, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r participantRepo) ListByEvent(ctx context.Context, eventID string) ([]repository.Participant, error) {
	// created_at asc = orden de carga del roster
	const q = `
		SELECT id, name, email, event_id, update_email_status, created_at
		FROM participants WHERE event_id = $1 ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.Participant
	for rows.Next() {
		var p repository.Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.EventID,
			&p.UpdateEmailStatus, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r participantRepo) UpdateEmailStatus(ctx context.Context, id string, status repository.EmailStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE participants SET update_email_status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
