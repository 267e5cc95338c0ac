package simple

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/budget-sync/internal/common"
)

const (
	testCSRF    = "tok-4f9a"
	sessionName = "_simple_session"
	sessionID   = "s3ss10n"
)

const signinPage = `<html><body>
<form action="/signin" method="post">
  <input type="hidden" name="_csrf" value="` + testCSRF + `">
  <input name="username"><input name="password" type="password">
</form></body></html>`

type fakeBank struct {
	posts    []map[string]string
	balances string
	mu       sync.Mutex
}

func newFakeBank(t *testing.T) (*fakeBank, *httptest.Server) {
	t.Helper()

	fb := &fakeBank{balances: `{"total": 1234500000, "pending": 4500000, "goals": 250000000}`}

	mux := http.NewServeMux()
	mux.HandleFunc("/signin", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			http.SetCookie(w, &http.Cookie{Name: "csrf_seed", Value: "seed", Path: "/"})
			_, _ = io.WriteString(w, signinPage)
			return
		}

		_ = r.ParseForm()
		fb.mu.Lock()
		fb.posts = append(fb.posts, map[string]string{
			"username": r.PostForm.Get("username"),
			"password": r.PostForm.Get("password"),
			"_csrf":    r.PostForm.Get("_csrf"),
		})
		fb.mu.Unlock()

		seed, err := r.Cookie("csrf_seed")
		if err != nil || seed.Value != "seed" || r.PostForm.Get("_csrf") != testCSRF {
			http.Error(w, "invalid csrf token", http.StatusForbidden)
			return
		}
		if r.PostForm.Get("password") != "hunter2" {
			// Simple re-renders the form on bad credentials.
			_, _ = io.WriteString(w, signinPage)
			return
		}

		http.SetCookie(w, &http.Cookie{Name: sessionName, Value: sessionID, Path: "/"})
		http.Redirect(w, r, "/activity", http.StatusFound)
	})
	mux.HandleFunc("/activity", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "<html>Safe-to-Spend</html>")
	})

	authed := func(next func(w http.ResponseWriter)) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(sessionName)
			if err != nil || c.Value != sessionID {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			next(w)
		}
	}
	mux.HandleFunc("/account/balances", authed(func(w http.ResponseWriter) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		_, _ = io.WriteString(w, fb.balances)
	}))
	mux.HandleFunc("/transactions/data", authed(func(w http.ResponseWriter) {
		_, _ = io.WriteString(w, `{"transactions": [
			{"times": {"when_recorded": 1700000000000}, "amounts": {"amount": 50000},
			 "categories": [{"folder": "Food", "name": "Groceries"}]},
			{"times": {"when_recorded": 1700000500000}, "amounts": {"amount": -12345},
			 "transaction_type": "atm_withdrawal", "categories": [],
			 "geo": {"city": "Seattle", "state": "WA"}}
		]}`)
	}))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return fb, srv
}

func newTestClient(t *testing.T, baseURL, password string) *Client {
	t.Helper()

	client, err := NewClient(Config{
		Username: "jane",
		Password: password,
		BaseURL:  baseURL,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return client
}

func TestClient_LoginAndFetch(t *testing.T) {
	fb, srv := newFakeBank(t)
	client := newTestClient(t, srv.URL, "hunter2")
	ctx := context.Background()

	require.NoError(t, client.Login(ctx))

	require.Len(t, fb.posts, 1)
	assert.Equal(t, map[string]string{"username": "jane", "password": "hunter2", "_csrf": testCSRF}, fb.posts[0])

	balances, err := client.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1234500000), balances.Total)
	assert.Equal(t, int64(4500000), balances.Pending)
	assert.Equal(t, int64(250000000), balances.Goals)

	list, err := client.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, list.Transactions, 2)
	assert.Equal(t, int64(50000), list.Transactions[0].Amounts.Amount)
	assert.Equal(t, "Food", list.Transactions[0].PrimaryCategory().Folder)
	assert.Equal(t, "atm_withdrawal", list.Transactions[1].TransactionType)
	require.NotNil(t, list.Transactions[1].Geo)
	assert.Equal(t, "WA", list.Transactions[1].Geo.State)
}

func TestClient_LoginRejected(t *testing.T) {
	_, srv := newFakeBank(t)
	client := newTestClient(t, srv.URL, "wrong")

	err := client.Login(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrAuthentication)

	_, err = client.Balance(context.Background())
	assert.ErrorIs(t, err, common.ErrNotLoggedIn)
}

func TestClient_RequiresLogin(t *testing.T) {
	_, srv := newFakeBank(t)
	client := newTestClient(t, srv.URL, "hunter2")

	_, err := client.Balance(context.Background())
	assert.ErrorIs(t, err, common.ErrNotLoggedIn)

	_, err = client.Transactions(context.Background())
	assert.ErrorIs(t, err, common.ErrNotLoggedIn)
}

func TestClient_UnexpectedResponses(t *testing.T) {
	t.Run("sign-in page without token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "<html>maintenance</html>")
		}))
		t.Cleanup(srv.Close)

		err := newTestClient(t, srv.URL, "hunter2").Login(context.Background())
		assert.ErrorIs(t, err, common.ErrUnexpectedResponse)
	})

	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "upstream down", http.StatusBadGateway)
		}))
		t.Cleanup(srv.Close)

		err := newTestClient(t, srv.URL, "hunter2").Login(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrUnexpectedResponse)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("malformed balances", func(t *testing.T) {
		fb, srv := newFakeBank(t)
		fb.balances = `{"total": "lots"}`

		client := newTestClient(t, srv.URL, "hunter2")
		require.NoError(t, client.Login(context.Background()))

		_, err := client.Balance(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode /account/balances")
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		wantErr error
		config  Config
		name    string
	}{
		{name: "valid", config: Config{Username: "u", Password: "p"}},
		{name: "valid with base url", config: Config{Username: "u", Password: "p", BaseURL: "http://localhost:8080"}},
		{name: "missing username", config: Config{Password: "p"}, wantErr: common.ErrMissingConfig},
		{name: "missing password", config: Config{Username: "u"}, wantErr: common.ErrMissingConfig},
		{name: "relative base url", config: Config{Username: "u", Password: "p", BaseURL: "bank.simple.com"}, wantErr: common.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), fmt.Sprintf("got %v", err))
		})
	}
}

func TestExtractCSRF(t *testing.T) {
	token, err := extractCSRF([]byte(`<head><meta name="_csrf" content="meta-token"></head>`))
	require.NoError(t, err)
	assert.Equal(t, "meta-token", token)

	token, err = extractCSRF([]byte(signinPage))
	require.NoError(t, err)
	assert.Equal(t, testCSRF, token)
}
