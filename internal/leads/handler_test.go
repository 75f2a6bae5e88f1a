package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadbridge/leadbridge/internal/auth"
)

type tokenSessions map[string]int64

func (s tokenSessions) Resolve(_ context.Context, token string) (int64, error) {
	id, ok := s[token]
	if !ok {
		return 0, auth.ErrNoSession
	}
	return id, nil
}

type accounts map[int64]auth.Account

func (a accounts) LoadAccount(_ context.Context, id int64) (auth.Account, error) {
	return a[id], nil
}

func newTestRouter(t *testing.T, assignee AssigneeFinder) (http.Handler, *mockRepository) {
	t.Helper()
	repo := newMockRepository()
	mw := auth.Middleware{
		Sessions: tokenSessions{"admin": 1, "rep": 2},
		Accounts: accounts{
			1: {ID: 1, Email: "admin@example.com", Role: auth.RoleAdmin, Approved: true},
			2: {ID: 2, Email: "rep@example.com", Role: auth.RoleUser, Approved: true},
		},
	}
	r := chi.NewRouter()
	r.Route("/api/leads", NewHandler(nil, NewService(repo, assignee, nil, "", nil), mw).MountRoutes)
	return r, repo
}

func send(h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestLeadLifecycleEndpoints(t *testing.T) {
	h, repo := newTestRouter(t, fixedAssignee{id: 1})

	rr := send(h, http.MethodPost, "/api/leads", "rep", map[string]string{"name": "Ana", "phone": "+1555", "product": "Tee"})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, int64(2), repo.leads[1].CreatedBy)

	assert.Equal(t, http.StatusConflict, send(h, http.MethodPost, "/api/leads", "rep", map[string]string{"name": "Bo", "phone": "+1555", "product": "Mug"}).Code)
	assert.Equal(t, http.StatusBadRequest, send(h, http.MethodPut, "/api/leads/1", "rep", map[string]string{"status": "Won"}).Code)
	assert.Equal(t, http.StatusOK, send(h, http.MethodPut, "/api/leads/1", "rep", map[string]string{"status": "Converted"}).Code)
	assert.Equal(t, StatusConverted, repo.leads[1].Status)

	rr = send(h, http.MethodGet, "/api/leads?limit=all&startDate=2024-03-01&endDate=2024-03-01", "rep", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Leads      []Lead `json:"leads"`
		TotalLeads int    `json:"totalLeads"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, 1, body.TotalLeads)

	assert.Equal(t, http.StatusForbidden, send(h, http.MethodDelete, "/api/leads/1", "rep", nil).Code)
	assert.Equal(t, http.StatusOK, send(h, http.MethodDelete, "/api/leads/1", "admin", nil).Code)
	assert.Equal(t, http.StatusNotFound, send(h, http.MethodDelete, "/api/leads/1", "admin", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, send(h, http.MethodGet, "/api/leads", "", nil).Code)
}

func TestIncomingCallEndpoint(t *testing.T) {
	h, _ := newTestRouter(t, fixedAssignee{id: 1})

	assert.Equal(t, http.StatusBadRequest, send(h, http.MethodPost, "/api/leads/incoming", "", map[string]string{}).Code)
	assert.Equal(t, http.StatusCreated, send(h, http.MethodPost, "/api/leads/incoming", "", map[string]string{"phone": "+1999"}).Code)
	assert.Equal(t, http.StatusOK, send(h, http.MethodPost, "/api/leads/incoming", "", map[string]string{"phone": "+1999"}).Code)
}

func TestIncomingCallWithoutUsers(t *testing.T) {
	h, _ := newTestRouter(t, fixedAssignee{err: context.Canceled})

	assert.Equal(t, http.StatusInternalServerError, send(h, http.MethodPost, "/api/leads/incoming", "", map[string]string{"phone": "+1999"}).Code)
}
