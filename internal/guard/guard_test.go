package guard

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tijarah/complaints-console/internal/models"
)

type sessionStub struct {
	user *models.User
}

func (s *sessionStub) IsAuthenticated() bool { return s.user != nil }
func (s *sessionStub) User() *models.User    { return s.user }

type statusStub struct {
	status  *models.SubscriptionStatus
	fetched bool
}

func (s *statusStub) Status() (*models.SubscriptionStatus, bool) { return s.status, s.fetched }

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func trader() *models.User {
	return &models.User{Username: "alice", Role: models.RoleTrader}
}

func committee() *models.User {
	return &models.User{Username: "bob", Role: models.RoleHigherCommittee}
}

func activeStatus() *models.SubscriptionStatus {
	return &models.SubscriptionStatus{HasActiveSubscription: true}
}

func blockedStatus() *models.SubscriptionStatus {
	return &models.SubscriptionStatus{}
}

func pendingPaymentStatus() *models.SubscriptionStatus {
	return &models.SubscriptionStatus{HasPendingPayment: true}
}

func TestGuard_Decide(t *testing.T) {
	tests := []struct {
		name       string
		user       *models.User
		status     *models.SubscriptionStatus
		fetched    bool
		path       string
		wantAction Action
		wantFrom   string
	}{
		{
			name:       "unauthenticated redirects to login remembering path",
			path:       "/complaints",
			wantAction: ActionRedirectLogin,
			wantFrom:   "/complaints",
		},
		{
			name:       "public route always allowed",
			path:       "/login",
			wantAction: ActionAllow,
		},
		{
			name:       "unknown path is 404 regardless of auth",
			user:       committee(),
			path:       "/no-such-page",
			wantAction: ActionNotFound,
		},
		{
			name:       "no required roles admits any authenticated user",
			user:       committee(),
			path:       "/dashboard",
			wantAction: ActionAllow,
		},
		{
			name:       "trader on committee route gets forbidden in place",
			user:       trader(),
			status:     activeStatus(),
			fetched:    true,
			path:       "/reports",
			wantAction: ActionForbidden,
		},
		{
			name:       "blocked trader redirected to gate",
			user:       trader(),
			status:     blockedStatus(),
			fetched:    true,
			path:       "/complaints",
			wantAction: ActionRedirectGate,
		},
		{
			name:       "blocked trader on exempt path is not redirected",
			user:       trader(),
			status:     blockedStatus(),
			fetched:    true,
			path:       "/payment",
			wantAction: ActionAllow,
		},
		{
			name:       "pending payment admits trader",
			user:       trader(),
			status:     pendingPaymentStatus(),
			fetched:    true,
			path:       "/complaints",
			wantAction: ActionAllow,
		},
		{
			name:       "active subscription admits trader",
			user:       trader(),
			status:     activeStatus(),
			fetched:    true,
			path:       "/complaints",
			wantAction: ActionAllow,
		},
		{
			name:       "status still loading shows loading state",
			user:       trader(),
			path:       "/complaints",
			wantAction: ActionLoading,
		},
		{
			name:       "loading does not apply on exempt path",
			user:       trader(),
			path:       "/subscription-gate",
			wantAction: ActionAllow,
		},
		{
			name:       "committee skips subscription check entirely",
			user:       committee(),
			path:       "/complaints",
			wantAction: ActionAllow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(
				&sessionStub{user: tt.user},
				&statusStub{status: tt.status, fetched: tt.fetched},
				newNoopLogger(),
			)

			decision := g.Decide(tt.path)

			assert.Equal(t, tt.wantAction, decision.Action)
			assert.Equal(t, tt.wantFrom, decision.From)
			if tt.wantAction == ActionRedirectGate {
				assert.Equal(t, "/subscription-gate", decision.RedirectTo)
			}
		})
	}
}
