// Package guard решает, можно ли отрисовать запрошенное представление,
// исходя из состояния аутентификации, роли пользователя и статуса подписки.
// Неаутентифицированный пользователь перенаправляется на вход с запоминанием
// исходного пути; несоответствие роли даёт отказ на месте, без редиректа;
// трейдер без активной подписки и без платежа на рассмотрении отправляется
// на шлюз подписки. Пока статус подписки ещё запрашивается, возвращается
// состояние загрузки, чтобы не мелькал запрещённый контент.
package guard

import (
	"log/slog"

	"github.com/tijarah/complaints-console/internal/models"
	"github.com/tijarah/complaints-console/internal/routes"
)

// Action — вид решения охранника маршрута.
type Action int

const (
	// ActionAllow — представление можно отрисовать.
	ActionAllow Action = iota
	// ActionRedirectLogin — перенаправить на вход, запомнив исходный путь.
	ActionRedirectLogin
	// ActionForbidden — отказ на месте (роль не подходит), без редиректа.
	ActionForbidden
	// ActionRedirectGate — перенаправить трейдера на шлюз подписки.
	ActionRedirectGate
	// ActionLoading — статус подписки ещё запрашивается, показать загрузку.
	ActionLoading
	// ActionNotFound — такого маршрута нет.
	ActionNotFound
)

// Decision — решение по запрошенному пути. From заполняется при редиректе
// на вход и хранит путь для возврата после входа.
type Decision struct {
	Action     Action
	RedirectTo string
	From       string
}

// Session описывает состояние сессии, которое читает охранник.
type Session interface {
	IsAuthenticated() bool
	User() *models.User
}

// StatusProvider отдаёт последний полученный статус подписки.
// Второй результат ложен, пока статус ещё не получен.
type StatusProvider interface {
	Status() (*models.SubscriptionStatus, bool)
}

// Guard — охранник маршрутов клиентского приложения.
type Guard struct {
	session Session
	status  StatusProvider
	log     *slog.Logger
}

// New создает новый экземпляр Guard.
func New(session Session, status StatusProvider, log *slog.Logger) *Guard {
	return &Guard{
		session: session,
		status:  status,
		log:     log,
	}
}

// Decide возвращает решение по запрошенному пути.
func (g *Guard) Decide(path string) Decision {
	const op = "guard.Guard.Decide"

	route, ok := routes.Lookup(path)
	if !ok {
		return Decision{Action: ActionNotFound}
	}
	if route.Public {
		return Decision{Action: ActionAllow}
	}
	if !g.session.IsAuthenticated() {
		g.log.Debug("unauthenticated access", slog.String("op", op), slog.String("path", path))
		return Decision{Action: ActionRedirectLogin, RedirectTo: "/login", From: path}
	}

	user := g.session.User()
	if len(route.RequiredRoles) > 0 && !roleAllowed(user.Role, route.RequiredRoles) {
		g.log.Info("role not permitted",
			slog.String("op", op), slog.String("path", path), slog.String("role", user.Role))
		return Decision{Action: ActionForbidden}
	}

	if user.Role == models.RoleTrader && !routes.SubscriptionExempt(path) {
		status, fetched := g.status.Status()
		if !fetched {
			return Decision{Action: ActionLoading}
		}
		if status.Blocked() {
			g.log.Info("subscription inactive, redirecting to gate",
				slog.String("op", op), slog.String("path", path))
			return Decision{Action: ActionRedirectGate, RedirectTo: "/subscription-gate"}
		}
	}

	return Decision{Action: ActionAllow}
}

func roleAllowed(role string, required []string) bool {
	for _, r := range required {
		if r == role {
			return true
		}
	}
	return false
}
