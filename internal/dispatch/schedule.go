package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/certhub/internal/domain/repository"
	"github.com/dropDatabas3/certhub/internal/metrics"
	"github.com/dropDatabas3/certhub/internal/observability/logger"
	"github.com/dropDatabas3/certhub/internal/pool"
)

// SendBatch somete el envío de cada certificado al pool, en chunks.
// Retorna cuántos quedaron encolados. Si el pool se satura corta ahí:
// el caller recibe pool.ErrSaturated envuelto y decide si reintenta con
// los que faltan.
func (s *Service) SendBatch(ctx context.Context, certificateIDs []string) (int, error) {
	log := logger.From(ctx).With(logger.Component("dispatch"), logger.Op("SendBatch"))

	// Los workers sobreviven al request HTTP que disparó el batch.
	taskCtx := context.WithoutCancel(ctx)

	submitted := 0
	for start := 0; start < len(certificateIDs); start += s.chunkSize {
		end := min(start+s.chunkSize, len(certificateIDs))
		chunk := certificateIDs[start:end]
		log.Debug("submitting chunk", logger.Count(len(chunk)))

		for _, id := range chunk {
			id := id
			err := s.pool.Submit(func() {
				if err := s.SendOne(taskCtx, id); err != nil {
					logger.From(taskCtx).Error("send failed",
						logger.CertificateID(id), logger.Err(err))
				}
			})
			if err != nil {
				metrics.PoolQueueDepth.Set(float64(s.pool.QueueDepth()))
				return submitted, fmt.Errorf("dispatch: submit send: %w", err)
			}
			submitted++
		}
	}
	metrics.PoolQueueDepth.Set(float64(s.pool.QueueDepth()))
	return submitted, nil
}

// SendAll encola el envío de todos los certificados GENERATED del
// evento. Los que no llegaron a GENERATED se ignoran acá; el guard de
// SendOne los cubriría igual.
func (s *Service) SendAll(ctx context.Context, eventID, actor string) (int, error) {
	certs, err := s.certs.ListByEvent(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("dispatch: list certificates: %w", err)
	}

	ids := make([]string, 0, len(certs))
	for _, c := range certs {
		if c.GenerationStatus == repository.GenerationGenerated {
			ids = append(ids, c.ID)
		}
	}

	submitted, err := s.SendBatch(ctx, ids)
	s.audit.Action(ctx, eventID, actor, "SEND_CERTIFICATES",
		fmt.Sprintf("submitted=%d of=%d", submitted, len(ids)))
	if err != nil {
		return submitted, err
	}

	logger.From(ctx).Info("send-all submitted",
		logger.Component("dispatch"), logger.EventID(eventID), logger.Count(submitted))
	return submitted, nil
}

// SendUpdates encola un mail de novedades para cada participante del
// evento. content es HTML provisto por el organizador.
func (s *Service) SendUpdates(ctx context.Context, eventID, subject, content, actor string) (int, error) {
	roster, err := s.parts.ListByEvent(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("dispatch: load roster: %w", err)
	}
	if subject == "" {
		return 0, fmt.Errorf("dispatch: %w: subject is required", repository.ErrInvalidInput)
	}

	taskCtx := context.WithoutCancel(ctx)

	submitted := 0
	for _, p := range roster {
		id := p.ID
		err := s.pool.Submit(func() {
			if err := s.sendUpdateOne(taskCtx, id, subject, content); err != nil {
				logger.From(taskCtx).Error("update send failed",
					logger.ParticipantID(id), logger.Err(err))
			}
		})
		if err != nil {
			s.audit.Action(ctx, eventID, actor, "SEND_UPDATE_EMAILS",
				fmt.Sprintf("submitted=%d of=%d", submitted, len(roster)))
			return submitted, fmt.Errorf("dispatch: submit update: %w", err)
		}
		submitted++
	}

	s.audit.Action(ctx, eventID, actor, "SEND_UPDATE_EMAILS",
		fmt.Sprintf("submitted=%d of=%d", submitted, len(roster)))
	return submitted, nil
}

// Saturated reporta si err viene de un pool saturado, para que el HTTP
// layer lo traduzca a 503.
func Saturated(err error) bool {
	return errors.Is(err, pool.ErrSaturated)
}
