// Package token emite los verification tokens de certificados.
package token

import "github.com/google/uuid"

// Issuer emite tokens opacos, únicos y no adivinables.
type Issuer interface {
	Issue() string
}

// UUIDIssuer emite UUID v4 (128 bits aleatorios). Puro y sin estado;
// seguro para uso concurrente.
type UUIDIssuer struct{}

func (UUIDIssuer) Issue() string {
	return uuid.NewString()
}
