package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestClient_Login(t *testing.T) {
	tests := []struct {
		name            string
		statusCode      int
		responseBody    map[string]any
		wantOTPRequired bool
		wantToken       string
		wantKind        Kind
		wantAttempts    int
	}{
		{
			name:       "success",
			statusCode: http.StatusOK,
			responseBody: map[string]any{
				"access_token":  "tok",
				"refresh_token": "ref",
				"user":          map[string]any{"username": "alice", "role_name": "Trader"},
			},
			wantToken: "tok",
		},
		{
			name:       "second factor required",
			statusCode: http.StatusOK,
			responseBody: map[string]any{
				"requires_2fa": true,
				"message":      "enter the code",
			},
			wantOTPRequired: true,
		},
		{
			name:       "invalid credentials with attempts counter",
			statusCode: http.StatusUnauthorized,
			responseBody: map[string]any{
				"message":         "bad credentials",
				"failed_attempts": 3,
			},
			wantKind:     KindInvalidCredentials,
			wantAttempts: 3,
		},
		{
			name:       "account locked",
			statusCode: http.StatusForbidden,
			responseBody: map[string]any{
				"message":        "account locked",
				"account_locked": true,
				"lockout_until":  "2026-09-01T12:00:00Z",
			},
			wantKind: KindAccountLocked,
		},
		{
			name:         "rate limited",
			statusCode:   http.StatusTooManyRequests,
			responseBody: map[string]any{"message": "slow down"},
			wantKind:     KindRateLimited,
		},
		{
			name:         "server fault",
			statusCode:   http.StatusInternalServerError,
			responseBody: map[string]any{"message": "boom"},
			wantKind:     KindServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/login", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

				var body map[string]any
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "alice", body["username"])
				_, hasOTP := body["otp_code"]
				assert.False(t, hasOTP, "empty otp code must be omitted")

				w.WriteHeader(tt.statusCode)
				_ = json.NewEncoder(w).Encode(tt.responseBody)
			}))
			defer srv.Close()

			client := New(srv.URL, time.Second, newNoopLogger())
			result, err := client.Login(context.Background(), "alice", "secret123", "")

			if tt.wantKind != KindUnknown {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, KindOf(err))
				var apiErr *Error
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.wantAttempts, apiErr.FailedAttempts)
				if tt.wantKind == KindAccountLocked {
					assert.False(t, apiErr.LockoutUntil.IsZero())
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantOTPRequired, result.OTPRequired)
			assert.Equal(t, tt.wantToken, result.AccessToken)
			if tt.wantToken != "" {
				require.NotNil(t, result.User)
				assert.Equal(t, "alice", result.User.Username)
			}
		})
	}
}

func TestClient_Login_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // соединение заведомо невозможно

	client := New(srv.URL, time.Second, newNoopLogger())
	_, err := client.Login(context.Background(), "alice", "secret123", "")

	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.False(t, IsUnauthorized(err))
}

func TestClient_BearerHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user": map[string]any{"username": "alice", "role_name": "Trader"},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, newNoopLogger())

	_, err := client.Profile(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth, "no header before SetToken")

	client.SetToken("tok123")
	_, err = client.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok123", gotAuth)

	client.ClearToken()
	_, err = client.Profile(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth, "no header after ClearToken")
}

func TestClient_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "expired"})
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, newNoopLogger())
	_, err := client.Profile(context.Background())

	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
}

func TestClient_SubscriptionStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/subscription/status", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"has_active_subscription": false,
			"has_pending_payment":     true,
			"pending_payment": map[string]any{
				"payment_id":  "p1",
				"amount":      120.5,
				"method_name": "bank transfer",
			},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, newNoopLogger())
	status, err := client.SubscriptionStatus(context.Background())

	require.NoError(t, err)
	assert.False(t, status.HasActiveSubscription)
	assert.True(t, status.HasPendingPayment)
	assert.False(t, status.Blocked())
	require.NotNil(t, status.PendingPayment)
	assert.Equal(t, 120.5, status.PendingPayment.Amount)
}

func TestClient_Complaints_QueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/complaints", r.URL.Path)
		assert.Equal(t, "open", r.URL.Query().Get("status"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"complaints": []map[string]any{{"complaint_id": "c1", "title": "late delivery"}},
			"total":      11,
			"page":       2,
			"pages":      3,
		})
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, newNoopLogger())
	list, err := client.Complaints(context.Background(), ComplaintListOptions{Status: "open", Page: 2})

	require.NoError(t, err)
	assert.Equal(t, 11, list.Total)
	require.Len(t, list.Complaints, 1)
	assert.Equal(t, "late delivery", list.Complaints[0].Title)
}
