package identity

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"wastebin-backend/internal/apperr"
)

func newAuthServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestSignInUsesRestrictedKey(t *testing.T) {
	srv := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Errorf("apikey = %q", r.Header.Get("apikey"))
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"email":"a@x.com"`) {
			t.Errorf("body = %s", body)
		}
		w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600,
			"user":{"id":"u-1","email":"a@x.com","email_confirmed_at":"2026-01-01T00:00:00Z"}}`))
	})

	c := NewAuthClient(srv.URL, "anon-key", "", zerolog.Nop())
	sess, err := c.SignIn(context.Background(), "a@x.com", "pw123456")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if sess.AccessToken != "tok" || sess.Identity.ID != "u-1" || !sess.Identity.EmailConfirmed {
		t.Fatalf("unexpected session: %+v", sess)
	}
}

func TestSignInInvalidCredentials(t *testing.T) {
	srv := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":400,"error_code":"invalid_credentials","msg":"Invalid login credentials"}`))
	})
	c := NewAuthClient(srv.URL, "anon-key", "", zerolog.Nop())
	_, err := c.SignIn(context.Background(), "a@x.com", "wrong-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestSignUpPendingConfirmation(t *testing.T) {
	srv := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"u-2","email":"b@x.com","email_confirmed_at":null}`))
	})
	c := NewAuthClient(srv.URL, "anon-key", "", zerolog.Nop())
	id, err := c.SignUp(context.Background(), "b@x.com", "pw123456", nil)
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if id.ID != "u-2" || id.EmailConfirmed {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestSignUpDuplicate(t *testing.T) {
	srv := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"code":422,"error_code":"user_already_exists","msg":"User already registered"}`))
	})
	c := NewAuthClient(srv.URL, "anon-key", "", zerolog.Nop())
	_, err := c.SignUp(context.Background(), "b@x.com", "pw123456", nil)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestVerifyTokenRejected(t *testing.T) {
	for _, tc := range []struct {
		status int
		body   string
	}{
		{http.StatusUnauthorized, `{"msg":"invalid JWT"}`},
		{http.StatusForbidden, `{"error_code":"bad_jwt","msg":"token is expired"}`},
		{http.StatusNotFound, `{"error_code":"user_not_found"}`},
	} {
		srv := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer user-token" {
				t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
			}
			w.WriteHeader(tc.status)
			w.Write([]byte(tc.body))
		})
		c := NewAuthClient(srv.URL, "anon-key", "", zerolog.Nop())
		_, err := c.VerifyToken(context.Background(), "user-token")
		if !apperr.Is(err, apperr.KindUnauthenticated) {
			t.Errorf("status %d: err = %v, want unauthenticated", tc.status, err)
		}
	}
}

func TestVerifyTokenPrecheckSkipsRoundTrip(t *testing.T) {
	var calls int32
	srv := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"id":"u-1","email":"a@x.com"}`))
	})
	secret := "super-secret-jwt-token-with-at-least-32-characters"
	c := NewAuthClient(srv.URL, "anon-key", secret, zerolog.Nop())

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	signed, _ := expired.SignedString([]byte(secret))
	if _, err := c.VerifyToken(context.Background(), signed); !apperr.Is(err, apperr.KindUnauthenticated) {
		t.Fatalf("expired token: err = %v", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatal("expired token was sent upstream")
	}

	valid := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, _ = valid.SignedString([]byte(secret))
	id, err := c.VerifyToken(context.Background(), signed)
	if err != nil || id.ID != "u-1" {
		t.Fatalf("valid token: id = %+v, err = %v", id, err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatal("valid token must still be verified upstream")
	}
}

func TestAdminDeleteUsesElevatedKey(t *testing.T) {
	srv := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/auth/v1/admin/users/u-1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("apikey") != "service-key" || r.Header.Get("Authorization") != "Bearer service-key" {
			t.Errorf("admin call not using the service key: %v", r.Header)
		}
		w.Write([]byte(`{}`))
	})
	c := NewAdminClient(srv.URL, "service-key", zerolog.Nop())
	if err := c.DeleteUser(context.Background(), "u-1"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
}

func TestUpstreamFailure(t *testing.T) {
	srv := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	c := NewAuthClient(srv.URL, "anon-key", "", zerolog.Nop())
	if err := c.Health(context.Background()); apperr.KindOf(err) != apperr.KindUpstream {
		t.Fatalf("err = %v, want upstream", err)
	}
}

func TestResetPasswordPostsRecover(t *testing.T) {
	var called atomic.Bool
	srv := newAuthServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/v1/recover" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Errorf("apikey = %q", r.Header.Get("apikey"))
		}
		called.Store(true)
		w.Write([]byte(`{}`))
	})
	c := NewAuthClient(srv.URL, "anon-key", "", zerolog.Nop())
	if err := c.ResetPassword(context.Background(), "a@x.com"); err != nil {
		t.Fatal(err)
	}
	if !called.Load() {
		t.Fatal("recover endpoint not called")
	}
}
