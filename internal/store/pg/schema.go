package pg

import "context"

// Schema mínimo del pipeline. events y participants suelen venir creados
// por el servicio de ingesta; acá se crean con IF NOT EXISTS para que el
// servicio pueda levantarse solo en entornos nuevos.
const schema = `
CREATE TABLE IF NOT EXISTS events (
	id             UUID PRIMARY KEY,
	name           TEXT NOT NULL,
	event_date     DATE NOT NULL,
	organizer_name TEXT NOT NULL DEFAULT '',
	institute_name TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS participants (
	id                  UUID PRIMARY KEY,
	event_id            UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	name                TEXT NOT NULL,
	email               TEXT NOT NULL,
	update_email_status TEXT NOT NULL DEFAULT 'NOT_SENT',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_participants_event ON participants(event_id, created_at);

CREATE TABLE IF NOT EXISTS certificates (
	id                UUID PRIMARY KEY,
	token             TEXT NOT NULL UNIQUE,
	participant_id    UUID NOT NULL REFERENCES participants(id) ON DELETE CASCADE,
	event_id          UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	artifact_path     TEXT NOT NULL DEFAULT '',
	generation_status TEXT NOT NULL DEFAULT 'PENDING',
	email_status      TEXT NOT NULL DEFAULT 'NOT_SENT',
	generated_at      TIMESTAMPTZ,
	email_sent_at     TIMESTAMPTZ,
	error_message     TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_certificates_event ON certificates(event_id);
CREATE UNIQUE INDEX IF NOT EXISTS uq_certificates_generated
	ON certificates(participant_id) WHERE generation_status = 'GENERATED';

CREATE TABLE IF NOT EXISTS templates (
	id         UUID PRIMARY KEY,
	event_id   UUID NOT NULL UNIQUE REFERENCES events(id) ON DELETE CASCADE,
	name       TEXT NOT NULL DEFAULT '',
	image_data BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS event_audit_log (
	id        UUID PRIMARY KEY,
	event_id  UUID NOT NULL,
	actor     TEXT NOT NULL,
	action    TEXT NOT NULL,
	details   TEXT NOT NULL DEFAULT '',
	ts        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_audit_event ON event_audit_log(event_id, ts DESC);
`

// Migrate aplica el schema. Idempotente.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}
