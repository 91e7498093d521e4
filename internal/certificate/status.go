package certificate

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/certhub/internal/domain/repository"
)

// NotGenerated es el placeholder de status para participantes sin
// certificado todavía.
const NotGenerated = "NOT_GENERATED"

// ParticipantStatus es la vista por participante que consume el polling
// del frontend.
type ParticipantStatus struct {
	ParticipantID     string                 `json:"participantId"`
	ParticipantName   string                 `json:"participantName"`
	Email             string                 `json:"email"`
	CertificateID     string                 `json:"certificateId,omitempty"`
	GenerationStatus  string                 `json:"generationStatus"`
	EmailStatus       repository.EmailStatus `json:"emailStatus,omitempty"`
	UpdateEmailStatus repository.EmailStatus `json:"updateEmailStatus,omitempty"`
	GeneratedAt       *time.Time             `json:"generatedAt,omitempty"`
	EmailSentAt       *time.Time             `json:"emailSentAt,omitempty"`
	ErrorMessage      string                 `json:"errorMessage,omitempty"`
}

// Status arma la vista de progreso del roster completo. Los FAILED
// llevan su mensaje human-readable.
func (s *Service) Status(ctx context.Context, eventID string) ([]ParticipantStatus, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, fmt.Errorf("certificate: load event: %w", err)
	}
	roster, err := s.parts.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("certificate: load roster: %w", err)
	}
	certs, err := s.certs.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("certificate: list certificates: %w", err)
	}

	byParticipant := make(map[string]repository.Certificate, len(certs))
	for _, c := range certs {
		byParticipant[c.ParticipantID] = c
	}

	out := make([]ParticipantStatus, 0, len(roster))
	for _, p := range roster {
		st := ParticipantStatus{
			ParticipantID:     p.ID,
			ParticipantName:   p.Name,
			Email:             p.Email,
			UpdateEmailStatus: p.UpdateEmailStatus,
			GenerationStatus:  NotGenerated,
		}
		if c, ok := byParticipant[p.ID]; ok {
			st.CertificateID = c.ID
			st.GenerationStatus = string(c.GenerationStatus)
			st.EmailStatus = c.EmailStatus
			st.GeneratedAt = c.GeneratedAt
			st.EmailSentAt = c.EmailSentAt
			st.ErrorMessage = c.ErrorMessage
		}
		out = append(out, st)
	}
	return out, nil
}

func nowUTC() time.Time { return time.Now().UTC() }
