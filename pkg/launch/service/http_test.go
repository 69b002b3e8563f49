package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tokenforge/launchpad-middleware/pkg/auth"
	"github.com/tokenforge/launchpad-middleware/pkg/launch"
	"github.com/tokenforge/launchpad-middleware/pkg/token"
)

func newTestServer(svc *Service, creatorID string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithCreatorID(req.Context(), creatorID)))
		})
	})
	RegisterRoutes(r, svc, zap.NewNop())
	return r
}

func newTestService(store *mockStore, deployer *mockDeployer) *Service {
	return NewService(store, &mockSignerProvider{}, deployer, zap.NewNop())
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, handler http.Handler) sessionResponse {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp
}

func fillValidDraft(t *testing.T, handler http.Handler, sessionID string) {
	t.Helper()
	fields := map[string]string{
		token.FieldName:          "My Token",
		token.FieldSymbol:        "MTK",
		token.FieldInitialSupply: "1000000",
		token.FieldNetwork:       "sepolia",
	}
	for field, value := range fields {
		rec := doJSON(t, handler, http.MethodPut, "/sessions/"+sessionID+"/fields",
			updateFieldRequest{Field: field, Value: value})
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestCreateSession_StartsWithDefaults(t *testing.T) {
	handler := newTestServer(newTestService(newMockStore(), &mockDeployer{}), "creator-1")

	resp := createSession(t, handler)

	assert.Equal(t, 0, resp.Step)
	assert.Equal(t, "18", resp.Draft.Decimals)
	assert.Equal(t, "ethereum", resp.Draft.Network)
	assert.Equal(t, token.TypeStandard, resp.Draft.TokenType)
	assert.Equal(t, launch.StageNotStarted, resp.Status.Stage)
}

func TestGetSession_OtherCreatorForbidden(t *testing.T) {
	svc := newTestService(newMockStore(), &mockDeployer{})
	owner := newTestServer(svc, "creator-1")
	intruder := newTestServer(svc, "creator-2")

	resp := createSession(t, owner)

	rec := doJSON(t, intruder, http.MethodGet, "/sessions/"+resp.SessionID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdvance_InvalidDraftReturnsFieldErrors(t *testing.T) {
	handler := newTestServer(newTestService(newMockStore(), &mockDeployer{}), "creator-1")
	resp := createSession(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/sessions/"+resp.SessionID+"/advance", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var got struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "validation failed", got.Error)
	assert.Contains(t, got.Fields, token.FieldName)
	assert.Contains(t, got.Fields, token.FieldSymbol)
}

func TestUpdateField_ClearsFieldError(t *testing.T) {
	handler := newTestServer(newTestService(newMockStore(), &mockDeployer{}), "creator-1")
	resp := createSession(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/sessions/"+resp.SessionID+"/advance", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodPut, "/sessions/"+resp.SessionID+"/fields",
		updateFieldRequest{Field: token.FieldName, Value: "My Token"})
	require.Equal(t, http.StatusOK, rec.Code)

	var state sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.NotContains(t, state.Errors, token.FieldName)
	assert.Contains(t, state.Errors, token.FieldSymbol)
}

func TestDeploy_RunsToCompletion(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store, &mockDeployer{})
	handler := newTestServer(svc, "creator-1")

	resp := createSession(t, handler)
	fillValidDraft(t, handler, resp.SessionID)

	rec := doJSON(t, handler, http.MethodPost, "/sessions/"+resp.SessionID+"/deploy", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		statusRec := doJSON(t, handler, http.MethodGet, "/sessions/"+resp.SessionID+"/status", nil)
		var status launch.Status
		if err := json.Unmarshal(statusRec.Body.Bytes(), &status); err != nil {
			return false
		}
		return status.Stage == launch.StageCompleted
	}, 5*time.Second, 10*time.Millisecond)

	// The record ended up in the store with the confirmed address.
	recs, err := store.ListByCreator(t.Context(), "creator-1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "0x1230000000000000000000000000000000000000", recs[0].ContractAddress)
}

func TestDeploy_InvalidDraftRejected(t *testing.T) {
	handler := newTestServer(newTestService(newMockStore(), &mockDeployer{}), "creator-1")
	resp := createSession(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/sessions/"+resp.SessionID+"/deploy", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeploy_SecondAttemptConflicts(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	deployer := &mockDeployer{
		WaitConfirmedFn: func(_ context.Context, _, _ string) (string, error) {
			close(started)
			<-release
			return "0x1230000000000000000000000000000000000000", nil
		},
	}

	handler := newTestServer(newTestService(newMockStore(), deployer), "creator-1")
	resp := createSession(t, handler)
	fillValidDraft(t, handler, resp.SessionID)

	rec := doJSON(t, handler, http.MethodPost, "/sessions/"+resp.SessionID+"/deploy", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	<-started

	rec = doJSON(t, handler, http.MethodPost, "/sessions/"+resp.SessionID+"/deploy", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(release)
}

func TestResetDeployment_ReturnsToNotStarted(t *testing.T) {
	deployer := &mockDeployer{
		SubmitFn: func(_ context.Context, _ launch.Signer, _ launch.DeployConfig) (string, error) {
			return "", fmt.Errorf("insufficient funds")
		},
	}

	handler := newTestServer(newTestService(newMockStore(), deployer), "creator-1")
	resp := createSession(t, handler)
	fillValidDraft(t, handler, resp.SessionID)

	rec := doJSON(t, handler, http.MethodPost, "/sessions/"+resp.SessionID+"/deploy", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		statusRec := doJSON(t, handler, http.MethodGet, "/sessions/"+resp.SessionID+"/status", nil)
		var status launch.Status
		if err := json.Unmarshal(statusRec.Body.Bytes(), &status); err != nil {
			return false
		}
		return status.Stage == launch.StageFailed
	}, 5*time.Second, 10*time.Millisecond)

	rec = doJSON(t, handler, http.MethodPost, "/sessions/"+resp.SessionID+"/deploy/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status launch.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, launch.StageNotStarted, status.Stage)
	assert.Empty(t, status.Error)
}

func TestDeleteSession_RemovesSession(t *testing.T) {
	svc := newTestService(newMockStore(), &mockDeployer{})
	owner := newTestServer(svc, "creator-1")
	intruder := newTestServer(svc, "creator-2")

	resp := createSession(t, owner)

	rec := doJSON(t, intruder, http.MethodDelete, "/sessions/"+resp.SessionID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, owner, http.MethodDelete, "/sessions/"+resp.SessionID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, owner, http.MethodGet, "/sessions/"+resp.SessionID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateSession_SweepsIdleSessions(t *testing.T) {
	svc := newTestService(newMockStore(), &mockDeployer{})
	handler := newTestServer(svc, "creator-1")

	stale := createSession(t, handler)
	fresh := createSession(t, handler)

	svc.mu.Lock()
	svc.sessions[stale.SessionID].lastSeen = time.Now().UTC().Add(-2 * sessionIdleTTL)
	svc.mu.Unlock()

	createSession(t, handler)

	rec := doJSON(t, handler, http.MethodGet, "/sessions/"+stale.SessionID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doJSON(t, handler, http.MethodGet, "/sessions/"+fresh.SessionID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateSession_SweepSparesInFlightDeployment(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	deployer := &mockDeployer{
		WaitConfirmedFn: func(_ context.Context, _, _ string) (string, error) {
			close(started)
			<-release
			return "0x1230000000000000000000000000000000000000", nil
		},
	}

	svc := newTestService(newMockStore(), deployer)
	handler := newTestServer(svc, "creator-1")

	resp := createSession(t, handler)
	fillValidDraft(t, handler, resp.SessionID)

	rec := doJSON(t, handler, http.MethodPost, "/sessions/"+resp.SessionID+"/deploy", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	<-started

	svc.mu.Lock()
	svc.sessions[resp.SessionID].lastSeen = time.Now().UTC().Add(-2 * sessionIdleTTL)
	svc.mu.Unlock()

	createSession(t, handler)

	rec = doJSON(t, handler, http.MethodGet, "/sessions/"+resp.SessionID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	close(release)
}

func TestUpdateField_RejectsOversizedBody(t *testing.T) {
	handler := newTestServer(newTestService(newMockStore(), &mockDeployer{}), "creator-1")
	resp := createSession(t, handler)

	rec := doJSON(t, handler, http.MethodPut, "/sessions/"+resp.SessionID+"/fields",
		updateFieldRequest{Field: token.FieldName, Value: strings.Repeat("a", maxRequestBody+1)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetToken_WrongCreatorForbidden(t *testing.T) {
	store := newMockStore()
	rec := &token.Record{CreatorID: "creator-1", Draft: token.Draft{Name: "Mine"}}
	require.NoError(t, store.Create(t.Context(), rec))

	svc := newTestService(store, &mockDeployer{})
	intruder := newTestServer(svc, "creator-2")

	res := doJSON(t, intruder, http.MethodGet, "/tokens/"+rec.ID, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestListTokens_EmptyIsJSONArray(t *testing.T) {
	handler := newTestServer(newTestService(newMockStore(), &mockDeployer{}), "creator-1")

	res := doJSON(t, handler, http.MethodGet, "/tokens", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "[]\n", res.Body.String())
}

func TestListNetworks(t *testing.T) {
	handler := newTestServer(newTestService(newMockStore(), &mockDeployer{}), "creator-1")

	res := doJSON(t, handler, http.MethodGet, "/networks", nil)
	require.Equal(t, http.StatusOK, res.Code)

	var networks []struct {
		ID      string `json:"id"`
		ChainID int64  `json:"chainId"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &networks))
	assert.NotEmpty(t, networks)
}
