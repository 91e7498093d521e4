package repository

import (
	"context"
	"time"
)

// Event es el evento dueño de participantes, certificados y template.
type Event struct {
	ID            string
	Name          string
	Date          time.Time
	OrganizerName string
	InstituteName string
	CreatedAt     time.Time
}

// EventRepository define operaciones de lectura y borrado de eventos.
// El alta/edición de eventos vive fuera de este pipeline.
type EventRepository interface {
	// GetByID busca por id. Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*Event, error)

	// Delete borra el evento. Las implementaciones deben cascadear el
	// borrado de certificados y participantes del evento.
	Delete(ctx context.Context, id string) error
}

// Template es el asset de render custom de un evento. Si un evento no
// tiene template, el renderer usa el default embebido.
type Template struct {
	ID        string
	EventID   string
	Name      string
	ImageData []byte
	CreatedAt time.Time
}

// TemplateRepository define operaciones sobre templates.
type TemplateRepository interface {
	// GetByEvent retorna el template del evento.
	// Retorna ErrNotFound si el evento no tiene template custom.
	GetByEvent(ctx context.Context, eventID string) (*Template, error)

	// Upsert crea o reemplaza el template del evento.
	Upsert(ctx context.Context, t *Template) error
}
