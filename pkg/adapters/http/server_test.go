package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/intake"
	"github.com/aretw0/intake/pkg/domain"
)

// fakeWorkflow scripts the core so handler behavior can be asserted
// without running real steps.
type fakeWorkflow struct {
	sessions map[string]*domain.Session
	turnErr  error
	lastEv   domain.Event
}

func newFakeWorkflow() *fakeWorkflow {
	return &fakeWorkflow{sessions: make(map[string]*domain.Session)}
}

func (f *fakeWorkflow) HandleTurn(_ context.Context, sessionID string, ev domain.Event) (*intake.TurnResult, error) {
	f.lastEv = ev
	if f.turnErr != nil {
		return nil, f.turnErr
	}
	sess, ok := f.sessions[sessionID]
	if !ok {
		if ev.Type == domain.EventMessage {
			return nil, domain.ErrSessionNotFound
		}
		sess = domain.NewSession(sessionID)
		sess.Status = domain.StatusCollecting
		f.sessions[sessionID] = sess
	}
	return &intake.TurnResult{
		Session:   sess,
		Actions:   []domain.ActionRequest{domain.Say("What's your full name?")},
		Suspended: true,
	}, nil
}

func (f *fakeWorkflow) Session(_ context.Context, sessionID string) (*domain.Session, error) {
	sess, ok := f.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

func (f *fakeWorkflow) Sessions(context.Context) ([]string, error) {
	ids := make([]string, 0, len(f.sessions))
	for id := range f.sessions {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeWorkflow) Restart(_ context.Context, sessionID string) error {
	delete(f.sessions, sessionID)
	return nil
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_StartSession(t *testing.T) {
	wf := newFakeWorkflow()
	handler := NewHandler(wf)

	rec := postJSON(t, handler, "/api/sessions", map[string]string{"session_id": "s1"})

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp TurnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, domain.StatusCollecting, resp.Status)
	assert.True(t, resp.Suspended)
	assert.Len(t, resp.Actions, 1)
	assert.Equal(t, domain.EventStart, wf.lastEv.Type)
}

func TestServer_StartSessionMintsID(t *testing.T) {
	wf := newFakeWorkflow()
	handler := NewHandler(wf)

	rec := postJSON(t, handler, "/api/sessions", nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp TurnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
}

func TestServer_PostMessage(t *testing.T) {
	wf := newFakeWorkflow()
	handler := NewHandler(wf)

	postJSON(t, handler, "/api/sessions", map[string]string{"session_id": "s1"})
	rec := postJSON(t, handler, "/api/sessions/s1/messages", map[string]string{"message": "Ada Lovelace"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.EventMessage, wf.lastEv.Type)
	assert.Equal(t, "Ada Lovelace", wf.lastEv.Text)
}

func TestServer_PostMessageUnknownSession(t *testing.T) {
	handler := NewHandler(newFakeWorkflow())

	rec := postJSON(t, handler, "/api/sessions/ghost/messages", map[string]string{"message": "hello"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_PostMessageRejectsOversizedInput(t *testing.T) {
	wf := newFakeWorkflow()
	handler := NewHandler(wf)

	postJSON(t, handler, "/api/sessions", map[string]string{"session_id": "s1"})
	huge := strings.Repeat("a", 5000)
	rec := postJSON(t, handler, "/api/sessions/s1/messages", map[string]string{"message": huge})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid input")
}

func TestServer_PostMessageInvalidBody(t *testing.T) {
	handler := NewHandler(newFakeWorkflow())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/s1/messages", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_GetSession(t *testing.T) {
	wf := newFakeWorkflow()
	handler := NewHandler(wf)

	postJSON(t, handler, "/api/sessions", map[string]string{"session_id": "s1"})

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/s1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var sess domain.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, "s1", sess.ID)

	req = httptest.NewRequest(http.MethodGet, "/api/sessions/ghost", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ListSessions(t *testing.T) {
	wf := newFakeWorkflow()
	handler := NewHandler(wf)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotNil(t, resp["sessions"])
	assert.Empty(t, resp["sessions"])

	postJSON(t, handler, "/api/sessions", map[string]string{"session_id": "s1"})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"s1"}, resp["sessions"])
}

func TestServer_DeleteSession(t *testing.T) {
	wf := newFakeWorkflow()
	handler := NewHandler(wf)

	postJSON(t, handler, "/api/sessions", map[string]string{"session_id": "s1"})

	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/s1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, ok := wf.sessions["s1"]
	assert.False(t, ok)
}

func TestServer_TurnError(t *testing.T) {
	wf := newFakeWorkflow()
	wf.turnErr = fmt.Errorf("store offline")
	handler := NewHandler(wf)

	rec := postJSON(t, handler, "/api/sessions", map[string]string{"session_id": "s1"})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServer_Health(t *testing.T) {
	handler := NewHandler(newFakeWorkflow())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, intake.Version, resp["version"])
	assert.Equal(t, "disabled", resp["record_store"])
}

func TestServer_HealthReportsRecordStore(t *testing.T) {
	handler := NewHandler(newFakeWorkflow(), WithRecordStore(true))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "configured", resp["record_store"])
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	handler := NewHandler(newFakeWorkflow(), WithMetricsRegistry(reg))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_CORSPreflight(t *testing.T) {
	handler := NewHandler(newFakeWorkflow())

	req := httptest.NewRequest(http.MethodOptions, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
