package repository

import (
	"context"
	"time"
)

// Participant es un integrante del roster de un evento.
type Participant struct {
	ID      string
	Name    string
	Email   string
	EventID string

	// UpdateEmailStatus es el canal de broadcast, independiente del
	// certificado. Reusa la misma máquina de 3 fases.
	UpdateEmailStatus EmailStatus

	CreatedAt time.Time
}

// ParticipantRepository define operaciones sobre participantes.
type ParticipantRepository interface {
	// GetByID busca por id. Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*Participant, error)

	// ListByEvent retorna el roster del evento en orden de carga.
	ListByEvent(ctx context.Context, eventID string) ([]Participant, error)

	// UpdateEmailStatus persiste el estado del canal de broadcast.
	UpdateEmailStatus(ctx context.Context, id string, status EmailStatus) error
}
