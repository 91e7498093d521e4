package certificate

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/dropDatabas3/certhub/internal/domain/repository"
	"github.com/dropDatabas3/certhub/internal/render"
)

// DefaultTemplate retorna la imagen base que se usa cuando el evento no
// subió una propia.
func (s *Service) DefaultTemplate() []byte {
	return render.DefaultTemplate()
}

// SetTemplate guarda (o reemplaza) el template custom de un evento. La
// imagen se valida decodificándola antes de persistir.
func (s *Service) SetTemplate(ctx context.Context, eventID, name string, imageData []byte) error {
	if s.templates == nil {
		return fmt.Errorf("certificate: templates are not configured")
	}
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return fmt.Errorf("certificate: load event: %w", err)
	}
	if _, _, err := image.Decode(bytes.NewReader(imageData)); err != nil {
		return fmt.Errorf("certificate: %w: %v", repository.ErrInvalidInput, err)
	}
	t := &repository.Template{
		EventID:   eventID,
		Name:      name,
		ImageData: imageData,
	}
	if err := s.templates.Upsert(ctx, t); err != nil {
		return fmt.Errorf("certificate: save template: %w", err)
	}
	return nil
}
