package certificate

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/dropDatabas3/certhub/internal/domain/repository"
	"github.com/dropDatabas3/certhub/internal/observability/logger"
	"github.com/dropDatabas3/certhub/internal/storage"
)

// Download lee el artefacto de un certificado. Retorna los bytes y el
// nombre de archivo sugerido.
func (s *Service) Download(ctx context.Context, certificateID string) ([]byte, string, error) {
	cert, err := s.certs.GetByID(ctx, certificateID)
	if err != nil {
		return nil, "", fmt.Errorf("certificate: load: %w", err)
	}
	if cert.GenerationStatus != repository.GenerationGenerated || cert.ArtifactPath == "" {
		return nil, "", ErrNotValid
	}
	data, err := s.storage.Get(ctx, cert.ArtifactPath)
	if err != nil {
		return nil, "", fmt.Errorf("certificate: read artifact: %w", err)
	}
	return data, path.Base(cert.ArtifactPath), nil
}

// DownloadAll arma un zip con todos los artefactos GENERATED del evento.
// Los artefactos que falten en storage se saltean con un warning, igual
// que el resto del pipeline: un item roto no rompe el batch.
func (s *Service) DownloadAll(ctx context.Context, eventID string) ([]byte, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, fmt.Errorf("certificate: load event: %w", err)
	}
	certs, err := s.certs.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("certificate: list certificates: %w", err)
	}

	log := logger.From(ctx).With(logger.Component("certificate"), logger.EventID(eventID))

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, cert := range certs {
		if cert.GenerationStatus != repository.GenerationGenerated || cert.ArtifactPath == "" {
			continue
		}
		data, err := s.storage.Get(ctx, cert.ArtifactPath)
		if errors.Is(err, storage.ErrNotFound) {
			log.Warn("artifact missing, skipping in bundle",
				logger.CertificateID(cert.ID), logger.String("path", cert.ArtifactPath))
			continue
		}
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("certificate: read artifact: %w", err)
		}
		entry, err := zw.Create(path.Base(cert.ArtifactPath))
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("certificate: zip entry: %w", err)
		}
		if _, err := entry.Write(data); err != nil {
			zw.Close()
			return nil, fmt.Errorf("certificate: zip write: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("certificate: zip finish: %w", err)
	}
	return buf.Bytes(), nil
}
