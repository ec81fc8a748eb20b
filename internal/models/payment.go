package models

import "time"

// Payment представляет запись из истории платежей пользователя.
type Payment struct {
	ID         string    `json:"payment_id"`
	Amount     float64   `json:"amount"`
	MethodName string    `json:"method_name"`
	Status     string    `json:"status"`
	Reference  string    `json:"reference_number,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// PaymentMethod — доступный способ оплаты с /api/payment-methods.
type PaymentMethod struct {
	ID            string `json:"method_id"`
	Name          string `json:"method_name"`
	AccountNumber string `json:"account_number,omitempty"`
	Instructions  string `json:"instructions,omitempty"`
	IsActive      bool   `json:"is_active"`
}

// SubscriptionPrice — стоимость подписки с /api/subscription-price.
type SubscriptionPrice struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// DummyPayment используется для приёма данных платежа до валидации
// и отправки подтверждения оплаты на бэкенд.
type DummyPayment struct {
	MethodID  string  `json:"method_id" validate:"required"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Reference string  `json:"reference_number" validate:"required,min=3,max=100"`
}
