package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI issues "stale" access tokens on login and "fresh" ones on refresh.
type fakeAPI struct {
	refreshCalls   atomic.Int32
	refreshEntered chan struct{}
	refreshRelease chan struct{}
	refreshFails   bool

	mu            sync.Mutex
	logoutRefresh string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{}
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "correct horse" {
			writeError(w, http.StatusUnauthorized, CodeInvalidCredentials, "")
			return
		}
		setSession(w, "stale", "refresh-1")
		writeJSON(w, http.StatusOK, map[string]any{"account": map[string]any{"id": "a1", "username": creds.Username}})
	})

	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		if f.refreshEntered != nil {
			f.refreshEntered <- struct{}{}
			<-f.refreshRelease
		}
		if f.refreshFails {
			writeError(w, http.StatusUnauthorized, CodeUnauthorized, "")
			return
		}
		if _, err := r.Cookie("refreshToken"); err != nil {
			writeError(w, http.StatusUnauthorized, CodeUnauthorized, "")
			return
		}
		setSession(w, "fresh", "refresh-2")
		writeJSON(w, http.StatusOK, map[string]any{"account": map[string]any{"id": "a1"}})
	})

	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.logoutRefresh = body.RefreshToken
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})

	mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie("accessToken")
		if err != nil || ck.Value != "fresh" {
			writeError(w, http.StatusUnauthorized, CodeUnauthorized, "")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"account":     map[string]any{"id": "a1", "username": "alice"},
			"roles":       []string{"user"},
			"permissions": []string{"users.read"},
		})
	})

	mux.HandleFunc("GET /users/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusInternalServerError, CodeInternal, "req-42")
	})

	return mux
}

func setSession(w http.ResponseWriter, access, refresh string) {
	http.SetCookie(w, &http.Cookie{Name: "accessToken", Value: access, Path: "/", HttpOnly: true})
	http.SetCookie(w, &http.Cookie{Name: "refreshToken", Value: refresh, Path: "/auth/refresh", HttpOnly: true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, requestID string) {
	body := map[string]any{"code": code, "message": http.StatusText(status)}
	if requestID != "" {
		body["requestId"] = requestID
	}
	writeJSON(w, status, map[string]any{"error": body})
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	c, err := New(srv.URL)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := New("/api")
	assert.Error(t, err)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	c := newTestClient(t, newFakeAPI())

	_, err := c.Login(context.Background(), "alice", "wrong")

	require.Error(t, err)
	assert.True(t, IsCode(err, CodeInvalidCredentials))
}

func TestMe_RefreshesOnceAndRetries(t *testing.T) {
	api := newFakeAPI()
	c := newTestClient(t, api)
	ctx := context.Background()

	_, err := c.Login(ctx, "alice", "correct horse")
	require.NoError(t, err)

	profile, err := c.Me(ctx)
	require.NoError(t, err)

	assert.Equal(t, "alice", profile.Account.Username)
	assert.Equal(t, []string{"users.read"}, profile.Permissions)
	assert.Equal(t, int32(1), api.refreshCalls.Load())
}

func TestMe_RefreshFailureReturnsOriginalError(t *testing.T) {
	api := newFakeAPI()
	api.refreshFails = true
	c := newTestClient(t, api)

	_, err := c.Me(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, CodeUnauthorized, apiErr.Code)
	assert.Equal(t, int32(1), api.refreshCalls.Load())
}

func TestLogin_401IsNotRetried(t *testing.T) {
	api := newFakeAPI()
	c := newTestClient(t, api)

	_, err := c.Login(context.Background(), "alice", "wrong")

	require.Error(t, err)
	assert.Zero(t, api.refreshCalls.Load())
}

func TestRefresh_ConcurrentCallersShareOneRequest(t *testing.T) {
	api := newFakeAPI()
	api.refreshEntered = make(chan struct{}, 1)
	api.refreshRelease = make(chan struct{})
	c := newTestClient(t, api)
	ctx := context.Background()

	_, err := c.Login(ctx, "alice", "correct horse")
	require.NoError(t, err)

	const callers = 8
	var (
		wg   sync.WaitGroup
		errs = make([]error, callers)
	)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = c.Refresh(ctx)
		}()
	}

	<-api.refreshEntered
	time.Sleep(50 * time.Millisecond)
	close(api.refreshRelease)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), api.refreshCalls.Load())

	// Settled refreshes are not reused.
	require.NoError(t, c.Refresh(ctx))
	assert.Equal(t, int32(2), api.refreshCalls.Load())
}

func TestLogout_SendsRefreshTokenFromJar(t *testing.T) {
	api := newFakeAPI()
	c := newTestClient(t, api)
	ctx := context.Background()

	_, err := c.Login(ctx, "alice", "correct horse")
	require.NoError(t, err)
	require.NoError(t, c.Logout(ctx))

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, "refresh-1", api.logoutRefresh)
}

func TestUser_DecodesErrorEnvelope(t *testing.T) {
	c := newTestClient(t, newFakeAPI())

	_, err := c.User(context.Background(), "a2")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, CodeInternal, apiErr.Code)
	assert.Equal(t, "req-42", apiErr.RequestID)
	assert.Contains(t, apiErr.Error(), "req-42")
}
