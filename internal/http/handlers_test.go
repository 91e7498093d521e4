package http

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/certhub/internal/certificate"
	"github.com/dropDatabas3/certhub/internal/dispatch"
	"github.com/dropDatabas3/certhub/internal/domain/repository"
	"github.com/dropDatabas3/certhub/internal/pool"
	"github.com/dropDatabas3/certhub/internal/rate"
	"github.com/dropDatabas3/certhub/internal/storage"
	"github.com/dropDatabas3/certhub/internal/store/memory"
)

type stubRenderer struct{}

func (stubRenderer) Render(template []byte, participantName string, qr image.Image) ([]byte, error) {
	return []byte("%PDF-1.3 " + participantName), nil
}

func stubQR(content string, size int) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, size, size)), nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent []*dispatch.Mail
}

func (r *recordingSender) Send(m *dispatch.Mail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, m)
	return nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

type testEnv struct {
	store   *memory.Store
	sender  *recordingSender
	pool    *pool.Pool
	server  *httptest.Server
	eventID string
}

func newTestEnv(t *testing.T, secret string, limiter rate.Limiter) *testEnv {
	t.Helper()

	st := memory.NewStore()
	eventID := st.SeedEvent(repository.Event{
		Name:          "Tech Summit 2026",
		Date:          time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC),
		OrganizerName: "Ada Lovelace",
		InstituteName: "Institute of Computing",
	})
	st.SeedParticipant(repository.Participant{
		Name: "Grace Hopper", Email: "grace@example.com", EventID: eventID,
	})
	st.SeedParticipant(repository.Participant{
		Name: "Alan Turing", Email: "alan@example.com", EventID: eventID,
	})

	fs, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)

	certSvc, err := certificate.NewService(certificate.ServiceConfig{
		Certificates: st.Certificates(),
		Participants: st.Participants(),
		Events:       st.Events(),
		Templates:    st.Templates(),
		Storage:      fs,
		Renderer:     stubRenderer{},
		QR:           stubQR,
		BaseURL:      "https://certs.example.com",
	})
	require.NoError(t, err)

	sender := &recordingSender{}
	p := pool.New(pool.Config{Core: 2, Max: 4, QueueSize: 32})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = p.Shutdown(ctx)
	})

	dispSvc, err := dispatch.NewService(dispatch.ServiceConfig{
		Certificates: st.Certificates(),
		Participants: st.Participants(),
		Events:       st.Events(),
		Storage:      fs,
		Sender:       sender,
		Pool:         p,
	})
	require.NoError(t, err)

	h := &Handler{
		Certificates:  certSvc,
		Dispatch:      dispSvc,
		Audit:         st.Audit(),
		VerifyLimiter: limiter,
	}
	srv := NewServer(ServerConfig{
		Addr:               ":0",
		CORSAllowedOrigins: []string{"*"},
		BearerSecret:       secret,
	}, h)

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{store: st, sender: sender, pool: p, server: ts, eventID: eventID}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != "" {
		req, err = http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, err = http.NewRequest(method, e.server.URL+path, nil)
	}
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// ─── Generation & status ───

func TestGenerateAndStatusEndpoints(t *testing.T) {
	e := newTestEnv(t, "", nil)

	resp := e.do(t, http.MethodPost, "/v1/events/"+e.eventID+"/certificates/generate", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = e.do(t, http.MethodGet, "/v1/events/"+e.eventID+"/certificates/status", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var statuses []certificate.ParticipantStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&statuses))
	resp.Body.Close()

	require.Len(t, statuses, 2)
	for _, st := range statuses {
		require.Equal(t, string(repository.GenerationGenerated), st.GenerationStatus)
	}
}

func TestGenerateUnknownEvent(t *testing.T) {
	e := newTestEnv(t, "", nil)
	resp := e.do(t, http.MethodPost, "/v1/events/nope/certificates/generate", "", "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// ─── Verification ───

func TestVerifyEndpoint(t *testing.T) {
	e := newTestEnv(t, "", nil)
	ctx := context.Background()

	resp := e.do(t, http.MethodPost, "/v1/events/"+e.eventID+"/certificates/generate", "", "")
	resp.Body.Close()

	certs, err := e.store.Certificates().ListByEvent(ctx, e.eventID)
	require.NoError(t, err)

	resp = e.do(t, http.MethodGet, "/verify/"+certs[0].Token, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var v certificate.Verification
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	resp.Body.Close()
	require.True(t, v.Valid)
	require.Equal(t, "Tech Summit 2026", v.EventName)

	resp = e.do(t, http.MethodGet, "/verify/unknown-token", "", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestVerifyRateLimited(t *testing.T) {
	e := newTestEnv(t, "", rate.NewMemoryLimiter(2, time.Minute))

	for i := 0; i < 2; i++ {
		resp := e.do(t, http.MethodGet, "/verify/whatever", "", "")
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	}
	resp := e.do(t, http.MethodGet, "/verify/whatever", "", "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("Retry-After"))
}

// ─── Dispatch ───

func TestSendAllEndpoint(t *testing.T) {
	e := newTestEnv(t, "", nil)

	resp := e.do(t, http.MethodPost, "/v1/events/"+e.eventID+"/certificates/generate", "", "")
	resp.Body.Close()

	resp = e.do(t, http.MethodPost, "/v1/events/"+e.eventID+"/certificates/send-all", "", "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var out map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()
	require.Equal(t, 2, out["submitted"])

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.pool.Shutdown(ctx))
	require.Equal(t, 2, e.sender.count())
}

func TestSendUpdatesEndpoint(t *testing.T) {
	e := newTestEnv(t, "", nil)

	resp := e.do(t, http.MethodPost, "/v1/events/"+e.eventID+"/updates", "",
		`{"subject":"Cambio de sede","content":"<p>Nueva sede</p>"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.pool.Shutdown(ctx))
	require.Equal(t, 2, e.sender.count())
}

// ─── Templates & downloads ───

func TestDefaultTemplateEndpoint(t *testing.T) {
	e := newTestEnv(t, "", nil)
	resp := e.do(t, http.MethodGet, "/v1/templates/default", "", "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func TestDownloadEndpoints(t *testing.T) {
	e := newTestEnv(t, "", nil)
	ctx := context.Background()

	resp := e.do(t, http.MethodPost, "/v1/events/"+e.eventID+"/certificates/generate", "", "")
	resp.Body.Close()

	certs, err := e.store.Certificates().ListByEvent(ctx, e.eventID)
	require.NoError(t, err)

	resp = e.do(t, http.MethodGet, "/v1/certificates/"+certs[0].ID+"/download", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	resp.Body.Close()

	resp = e.do(t, http.MethodGet, "/v1/events/"+e.eventID+"/certificates/download", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/zip", resp.Header.Get("Content-Type"))
	resp.Body.Close()
}

// ─── Auth ───

func TestBearerAuthProtectsOrganizerEndpoints(t *testing.T) {
	const secret = "test-secret"
	e := newTestEnv(t, secret, nil)

	resp := e.do(t, http.MethodGet, "/v1/events/"+e.eventID+"/certificates/status", "", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		"sub":   "organizer-1",
		"email": "organizer@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)

	resp = e.do(t, http.MethodGet, "/v1/events/"+e.eventID+"/certificates/status", signed, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// El endpoint público no exige token.
	resp = e.do(t, http.MethodGet, "/verify/unknown", "", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
