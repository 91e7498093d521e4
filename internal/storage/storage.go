// Package storage define el colaborador de almacenamiento durable de
// artefactos (los PDFs generados) y su implementación filesystem.
//
// El layout es un directorio por evento (nombre sanitizado) y un archivo
// por participante (nombre sanitizado + id + extensión).
package storage

import (
	"context"
	"errors"
	"regexp"
)

var (
	// ErrNotFound indica que el artefacto no existe en el storage.
	ErrNotFound = errors.New("storage: artifact not found")
)

// Store es el contrato mínimo que el pipeline necesita del storage.
type Store interface {
	// Put persiste bytes bajo path. Sobrescribe si existe.
	Put(ctx context.Context, path string, data []byte) error

	// Get lee los bytes de path. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, path string) ([]byte, error)

	// Delete elimina path. Borrar algo inexistente no es error.
	Delete(ctx context.Context, path string) error
}

var (
	fileNameSanitizer  = regexp.MustCompile(`[^a-zA-Z0-9]`)
	eventNameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9 ]`)
)

// ArtifactPath arma el path relativo de un artefacto según la convención:
// <evento sanitizado>/<participante sanitizado>_<participantID>.pdf
func ArtifactPath(eventName, participantName, participantID string) string {
	dir := eventNameSanitizer.ReplaceAllString(eventName, "_")
	file := fileNameSanitizer.ReplaceAllString(participantName, "_")
	return dir + "/" + file + "_" + participantID + ".pdf"
}
