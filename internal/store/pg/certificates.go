package pg

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/certhub/internal/domain/repository"
)

type certRepo struct{ pool *pgxpool.Pool }

const certColumns = `id, token, participant_id, event_id, artifact_path,
	generation_status, email_status, generated_at, email_sent_at,
	error_message, created_at, updated_at`

func scanCert(row pgx.Row) (*repository.Certificate, error) {
	var c repository.Certificate
	err := row.Scan(&c.ID, &c.Token, &c.ParticipantID, &c.EventID, &c.ArtifactPath,
		&c.GenerationStatus, &c.EmailStatus, &c.GeneratedAt, &c.EmailSentAt,
		&c.ErrorMessage, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r certRepo) Create(ctx context.Context, c *repository.Certificate) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	const q = `
		INSERT INTO certificates
			(id, token, participant_id, event_id, artifact_path,
			 generation_status, email_status, generated_at, email_sent_at, error_message)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := r.pool.Exec(ctx, q, c.ID, c.Token, c.ParticipantID, c.EventID,
		c.ArtifactPath, c.GenerationStatus, c.EmailStatus, c.GeneratedAt,
		c.EmailSentAt, c.ErrorMessage)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
		return repository.ErrConflict
	}
	return err
}

func (r certRepo) Update(ctx context.Context, c *repository.Certificate) error {
	// token y created_at no se tocan: el token es inmutable
	const q = `
		UPDATE certificates SET
			artifact_path = $2, generation_status = $3, email_status = $4,
			generated_at = $5, email_sent_at = $6, error_message = $7,
			updated_at = NOW()
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, c.ID, c.ArtifactPath, c.GenerationStatus,
		c.EmailStatus, c.GeneratedAt, c.EmailSentAt, c.ErrorMessage)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r certRepo) GetByID(ctx context.Context, id string) (*repository.Certificate, error) {
	return scanCert(r.pool.QueryRow(ctx,
		`SELECT `+certColumns+` FROM certificates WHERE id = $1`, id))
}

func (r certRepo) GetByToken(ctx context.Context, token string) (*repository.Certificate, error) {
	return scanCert(r.pool.QueryRow(ctx,
		`SELECT `+certColumns+` FROM certificates WHERE token = $1`, token))
}

func (r certRepo) ListByEvent(ctx context.Context, eventID string) ([]repository.Certificate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+certColumns+` FROM certificates WHERE event_id = $1 ORDER BY created_at`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.Certificate
	for rows.Next() {
		c, err := scanCert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r certRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM certificates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r certRepo) DeleteByEvent(ctx context.Context, eventID string) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM certificates WHERE event_id = $1`, eventID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
