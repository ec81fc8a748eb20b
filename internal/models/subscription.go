package models

import "time"

// SubscriptionStatus — снимок состояния подписки трейдера с /api/subscription/status.
// Клиент его не изменяет, только перезапрашивает.
type SubscriptionStatus struct {
	HasActiveSubscription bool            `json:"has_active_subscription"`
	HasPendingPayment     bool            `json:"has_pending_payment"`
	Subscription          *Subscription   `json:"subscription,omitempty"`
	PendingPayment        *PendingPayment `json:"pending_payment,omitempty"`
}

// Blocked сообщает, должен ли шлюз подписки блокировать доступ:
// нет ни активной подписки, ни платежа на рассмотрении.
func (s *SubscriptionStatus) Blocked() bool {
	return !s.HasActiveSubscription && !s.HasPendingPayment
}

// Subscription описывает подписку пользователя.
type Subscription struct {
	ID                 string     `json:"subscription_id"`
	Plan               string     `json:"plan"`
	Status             string     `json:"status"`
	StartDate          time.Time  `json:"start_date"`
	EndDate            time.Time  `json:"end_date"`
	GracePeriodEnabled bool       `json:"grace_period_enabled"`
	GracePeriodEnd     *time.Time `json:"grace_period_end,omitempty"`
}

// PendingPayment описывает платёж, ожидающий подтверждения комитетом.
type PendingPayment struct {
	ID         string    `json:"payment_id"`
	Amount     float64   `json:"amount"`
	MethodName string    `json:"method_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// RenewalStatus — снимок с /api/renewal/check, используется только
// для ненавязчивого напоминания о продлении. Никогда не блокирует навигацию.
type RenewalStatus struct {
	NeedsRenewal       bool          `json:"needs_renewal"`
	InGracePeriod      bool          `json:"in_grace_period"`
	DaysRemaining      int           `json:"days_remaining"`
	GraceDaysRemaining int           `json:"grace_days_remaining"`
	Subscription       *Subscription `json:"subscription,omitempty"`
}
