package authflow

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tijarah/complaints-console/internal/api"
	"github.com/tijarah/complaints-console/internal/models"
)

type StoreMock struct{ mock.Mock }

func (m *StoreMock) Login(ctx context.Context, username, password, otpCode string) (*api.LoginResult, error) {
	args := m.Called(ctx, username, password, otpCode)
	result, _ := args.Get(0).(*api.LoginResult)
	return result, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func successResult() *api.LoginResult {
	return &api.LoginResult{
		AccessToken: "tok",
		User:        &models.User{Username: "alice", Role: models.RoleTrader},
	}
}

func TestFlow_SubmitCredentials_Classification(t *testing.T) {
	tests := []struct {
		name          string
		loginErr      error
		wantCategory  Category
		wantRemaining int
	}{
		{
			name: "invalid credentials with attempts counter",
			loginErr: &api.Error{
				Kind: api.KindInvalidCredentials, StatusCode: 401,
				Message: "bad credentials", FailedAttempts: 3,
			},
			wantCategory:  CategoryInvalidCredentials,
			wantRemaining: 2,
		},
		{
			name: "invalid credentials without counter",
			loginErr: &api.Error{
				Kind: api.KindInvalidCredentials, StatusCode: 401,
			},
			wantCategory:  CategoryInvalidCredentials,
			wantRemaining: -1,
		},
		{
			name: "rate limited",
			loginErr: &api.Error{
				Kind: api.KindRateLimited, StatusCode: 429,
			},
			wantCategory:  CategoryRateLimited,
			wantRemaining: -1,
		},
		{
			name:          "network failure",
			loginErr:      &api.Error{Kind: api.KindNetwork},
			wantCategory:  CategoryNetwork,
			wantRemaining: -1,
		},
		{
			name: "server fault",
			loginErr: &api.Error{
				Kind: api.KindServer, StatusCode: 500,
			},
			wantCategory:  CategoryServer,
			wantRemaining: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(StoreMock)
			flow := New(store, newNoopLogger())

			store.On("Login", mock.Anything, "alice", "secret123", "").
				Return(nil, tt.loginErr)

			outcome := flow.SubmitCredentials(context.Background(), "alice", "secret123")

			assert.False(t, outcome.Authenticated)
			assert.False(t, outcome.OTPRequired)
			assert.Equal(t, tt.wantCategory, outcome.Category)
			assert.Equal(t, tt.wantRemaining, outcome.RemainingAttempts)
			assert.Equal(t, StageCredentials, flow.Stage())
		})
	}
}

func TestFlow_ValidationFailure_NoNetworkCall(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "username too short", username: "ab", password: "secret123"},
		{name: "password too short", username: "alice", password: "12345"},
		{name: "empty username", username: "", password: "secret123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(StoreMock)
			flow := New(store, newNoopLogger())

			outcome := flow.SubmitCredentials(context.Background(), tt.username, tt.password)

			assert.Equal(t, CategoryValidation, outcome.Category)
			store.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestFlow_OTPChallenge(t *testing.T) {
	store := new(StoreMock)
	flow := New(store, newNoopLogger())

	store.On("Login", mock.Anything, "alice", "secret123", "").
		Return(&api.LoginResult{OTPRequired: true, Message: "enter the code"}, nil)

	outcome := flow.SubmitCredentials(context.Background(), "alice", "secret123")

	require.True(t, outcome.OTPRequired)
	assert.Equal(t, CategoryNone, outcome.Category, "second factor is never a failure")
	assert.False(t, outcome.Authenticated)
	assert.Equal(t, StageOTP, flow.Stage())

	// Код отправляется вместе с отложенными учётными данными.
	store.On("Login", mock.Anything, "alice", "secret123", "123456").
		Return(successResult(), nil)

	outcome = flow.SubmitOTP(context.Background(), "123456")

	assert.True(t, outcome.Authenticated)
	assert.Equal(t, StageCredentials, flow.Stage(), "flow resets after success")
}

func TestFlow_OTPValidation(t *testing.T) {
	store := new(StoreMock)
	flow := New(store, newNoopLogger())

	store.On("Login", mock.Anything, "alice", "secret123", "").
		Return(&api.LoginResult{OTPRequired: true}, nil)
	flow.SubmitCredentials(context.Background(), "alice", "secret123")

	for _, code := range []string{"", "12345", "1234567", "12ab56"} {
		outcome := flow.SubmitOTP(context.Background(), code)
		assert.Equal(t, CategoryValidation, outcome.Category, "code %q", code)
	}
	store.AssertNumberOfCalls(t, "Login", 1)
}

func TestFlow_SubmitOTP_WithoutChallenge(t *testing.T) {
	store := new(StoreMock)
	flow := New(store, newNoopLogger())

	outcome := flow.SubmitOTP(context.Background(), "123456")

	assert.Equal(t, CategoryValidation, outcome.Category)
	store.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFlow_Back_DiscardsPending(t *testing.T) {
	store := new(StoreMock)
	flow := New(store, newNoopLogger())

	store.On("Login", mock.Anything, "alice", "secret123", "").
		Return(&api.LoginResult{OTPRequired: true}, nil)
	flow.SubmitCredentials(context.Background(), "alice", "secret123")
	require.Equal(t, StageOTP, flow.Stage())

	flow.Back()

	assert.Equal(t, StageCredentials, flow.Stage())
	outcome := flow.SubmitOTP(context.Background(), "123456")
	assert.Equal(t, CategoryValidation, outcome.Category, "challenge was discarded")
}

func TestFlow_Lockout_BlocksSubmission(t *testing.T) {
	store := new(StoreMock)
	flow := New(store, newNoopLogger())

	until := time.Now().Add(10 * time.Minute)
	store.On("Login", mock.Anything, "alice", "secret123", "").
		Return(nil, &api.Error{
			Kind: api.KindAccountLocked, StatusCode: 403, LockoutUntil: until,
		}).Once()

	outcome := flow.SubmitCredentials(context.Background(), "alice", "secret123")

	assert.Equal(t, CategoryAccountLocked, outcome.Category)
	assert.Equal(t, until, outcome.LockedUntil)
	assert.True(t, flow.Locked(time.Now()))
	assert.False(t, flow.Locked(until.Add(time.Second)), "window elapses")

	// Пока окно блокировки не истекло, до сети не доходим.
	outcome = flow.SubmitCredentials(context.Background(), "alice", "secret123")
	assert.Equal(t, CategoryAccountLocked, outcome.Category)
	store.AssertNumberOfCalls(t, "Login", 1)
}

func TestFlow_Success_ResetsLockout(t *testing.T) {
	store := new(StoreMock)
	flow := New(store, newNoopLogger())

	store.On("Login", mock.Anything, "alice", "secret123", "").
		Return(successResult(), nil)

	outcome := flow.SubmitCredentials(context.Background(), "alice", "secret123")

	assert.True(t, outcome.Authenticated)
	assert.False(t, flow.Locked(time.Now()))
}
