package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/certhub/internal/certificate"
	"github.com/dropDatabas3/certhub/internal/dispatch"
	"github.com/dropDatabas3/certhub/internal/domain/repository"
	"github.com/dropDatabas3/certhub/internal/observability/logger"
	"github.com/dropDatabas3/certhub/internal/rate"
)

// Handler agrupa los endpoints de la API sobre los services.
type Handler struct {
	Certificates *certificate.Service
	Dispatch     *dispatch.Service
	Audit        repository.AuditRepository

	// VerifyLimiter protege el endpoint público de verificación contra
	// enumeración de tokens. nil = sin límite.
	VerifyLimiter rate.Limiter
}

// RegisterProtected registra los endpoints de organizador (van detrás
// del bearer auth).
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Route("/v1/events/{eventID}", func(r chi.Router) {
		r.Post("/certificates/generate", h.generate)
		r.Get("/certificates/status", h.status)
		r.Post("/certificates/send-all", h.sendAll)
		r.Get("/certificates/download", h.downloadAll)
		r.Post("/updates", h.sendUpdates)
		r.Put("/template", h.uploadTemplate)
		r.Get("/audit", h.auditLog)
	})
	r.Route("/v1/certificates/{certificateID}", func(r chi.Router) {
		r.Post("/send", h.sendOne)
		r.Get("/download", h.download)
	})
	r.Get("/v1/templates/default", h.defaultTemplate)
}

// RegisterPublic registra los endpoints sin autenticación.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/verify/{token}", h.verify)
}

// ─── Generation ───

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	err := h.Certificates.GenerateAll(r.Context(), eventID, Actor(r.Context()))
	switch {
	case err == nil:
	case errors.Is(err, certificate.ErrEmptyRoster):
		WriteError(w, http.StatusBadRequest, "empty_roster", "el evento no tiene participantes")
		return
	case repository.IsNotFound(err):
		WriteError(w, http.StatusNotFound, "not_found", "evento no encontrado")
		return
	default:
		logger.From(r.Context()).Error("generation failed", logger.Err(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "generación fallida")
		return
	}

	// La corrida es sincrónica: el resumen ya está en el status.
	statuses, err := h.Certificates.Status(r.Context(), eventID)
	if err != nil {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "completed"})
		return
	}
	WriteJSON(w, http.StatusOK, statuses)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.Certificates.Status(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, statuses)
}

// ─── Dispatch ───

func (h *Handler) sendAll(w http.ResponseWriter, r *http.Request) {
	submitted, err := h.Dispatch.SendAll(r.Context(), chi.URLParam(r, "eventID"), Actor(r.Context()))
	h.writeSubmission(w, r, submitted, err)
}

func (h *Handler) sendOne(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "certificateID")
	submitted, err := h.Dispatch.SendBatch(r.Context(), []string{id})
	h.writeSubmission(w, r, submitted, err)
}

type updatesIn struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
}

func (h *Handler) sendUpdates(w http.ResponseWriter, r *http.Request) {
	var in updatesIn
	if !ReadJSON(w, r, &in) {
		return
	}
	submitted, err := h.Dispatch.SendUpdates(r.Context(),
		chi.URLParam(r, "eventID"), in.Subject, in.Content, Actor(r.Context()))
	h.writeSubmission(w, r, submitted, err)
}

func (h *Handler) writeSubmission(w http.ResponseWriter, r *http.Request, submitted int, err error) {
	if err != nil {
		if dispatch.Saturated(err) {
			w.Header().Set("Retry-After", "30")
			WriteError(w, http.StatusServiceUnavailable, "pool_saturated",
				fmt.Sprintf("cola de envío llena, %d encolados", submitted))
			return
		}
		if errors.Is(err, repository.ErrInvalidInput) {
			WriteError(w, http.StatusBadRequest, "invalid_input", err.Error())
			return
		}
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]int{"submitted": submitted})
}

// ─── Download ───

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	data, name, err := h.Certificates.Download(r.Context(), chi.URLParam(r, "certificateID"))
	if err != nil {
		if errors.Is(err, certificate.ErrNotValid) {
			WriteError(w, http.StatusConflict, "not_generated", "el certificado no está generado")
			return
		}
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (h *Handler) downloadAll(w http.ResponseWriter, r *http.Request) {
	data, err := h.Certificates.DownloadAll(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="certificates.zip"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// ─── Templates ───

func (h *Handler) defaultTemplate(w http.ResponseWriter, r *http.Request) {
	data := h.Certificates.DefaultTemplate()
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (h *Handler) uploadTemplate(w http.ResponseWriter, r *http.Request) {
	// máx 10MB
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "imagen demasiado grande")
		return
	}
	err = h.Certificates.SetTemplate(r.Context(), chi.URLParam(r, "eventID"), r.Header.Get("X-Template-Name"), data)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidInput) {
			WriteError(w, http.StatusBadRequest, "invalid_image", "la imagen no se pudo decodificar")
			return
		}
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Audit ───

func (h *Handler) auditLog(w http.ResponseWriter, r *http.Request) {
	if h.Audit == nil {
		WriteJSON(w, http.StatusOK, []repository.AuditEntry{})
		return
	}
	entries, err := h.Audit.ListByEvent(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, entries)
}

// ─── Public verification ───

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	if h.VerifyLimiter != nil {
		res, err := h.VerifyLimiter.Allow(r.Context(), rate.VerifyKey(clientIP(r)))
		if err != nil {
			logger.From(r.Context()).Warn("rate limiter unavailable", logger.Err(err))
		} else {
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if !res.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())+1))
				WriteError(w, http.StatusTooManyRequests, "rate_limited", "demasiados intentos")
				return
			}
		}
	}

	v, err := h.Certificates.Verify(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		if repository.IsNotFound(err) {
			WriteError(w, http.StatusNotFound, "not_found", "certificado no encontrado")
			return
		}
		if errors.Is(err, certificate.ErrNotValid) {
			WriteError(w, http.StatusConflict, "not_valid", "el certificado no es válido")
			return
		}
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, v)
}

// ─── Shared ───

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if repository.IsNotFound(err) {
		WriteError(w, http.StatusNotFound, "not_found", "recurso no encontrado")
		return
	}
	logger.From(r.Context()).Error("request failed", logger.Err(err))
	WriteError(w, http.StatusInternalServerError, "internal_error", "error interno")
}
