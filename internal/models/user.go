// Package models содержит доменные структуры клиента: профиль пользователя,
// статус подписки, жалобы и платежи. Все структуры — снимки данных бэкенда,
// получаемые по HTTP/JSON; клиент их не мутирует, только заменяет целиком.
package models

import "time"

// Роли пользователей, как их возвращает бэкенд в поле role_name.
const (
	RoleTrader             = "Trader"
	RoleTechnicalCommittee = "Technical Committee"
	RoleHigherCommittee    = "Higher Committee"
)

// User представляет профиль аутентифицированного пользователя.
// Профиль заменяется целиком при каждом запросе /api/profile.
type User struct {
	ID               string    `json:"user_id"`
	Username         string    `json:"username"`
	FullName         string    `json:"full_name"`
	Email            string    `json:"email"`
	PhoneNumber      string    `json:"phone_number,omitempty"`
	Address          string    `json:"address,omitempty"`
	Role             string    `json:"role_name"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
}

// IsCommittee сообщает, относится ли пользователь к ролям комитетов.
func (u *User) IsCommittee() bool {
	return u.Role == RoleTechnicalCommittee || u.Role == RoleHigherCommittee
}
