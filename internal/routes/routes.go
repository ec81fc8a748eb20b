// Package routes описывает адресуемые состояния клиентского приложения:
// таблицу путей с требуемыми ролями, публичные страницы и список путей,
// освобождённых от проверки подписки. Освобождение проверяется строгим
// совпадением пути, не по префиксу.
package routes

import "github.com/tijarah/complaints-console/internal/models"

// Route — запись таблицы маршрутов клиента.
type Route struct {
	Path          string
	Public        bool
	RequiredRoles []string
}

var table = []Route{
	{Path: "/login", Public: true},
	{Path: "/register", Public: true},
	{Path: "/"},
	{Path: "/dashboard"},
	{Path: "/complaints"},
	{Path: "/complaints/new", RequiredRoles: []string{models.RoleTrader}},
	{Path: "/reports", RequiredRoles: []string{models.RoleTechnicalCommittee, models.RoleHigherCommittee}},
	{Path: "/admin/users", RequiredRoles: []string{models.RoleTechnicalCommittee, models.RoleHigherCommittee}},
	{Path: "/admin/payments", RequiredRoles: []string{models.RoleTechnicalCommittee, models.RoleHigherCommittee}},
	{Path: "/admin/payment-settings", RequiredRoles: []string{models.RoleTechnicalCommittee, models.RoleHigherCommittee}},
	{Path: "/subscription-gate"},
	{Path: "/payment"},
	{Path: "/profile"},
	{Path: "/settings"},
}

// subscriptionExempt — пути, доступные трейдеру без активной подписки.
var subscriptionExempt = map[string]struct{}{
	"/subscription-gate": {},
	"/payment":           {},
}

// Lookup возвращает запись таблицы для пути. Второй результат ложен для
// несуществующего маршрута (страница 404).
func Lookup(path string) (Route, bool) {
	for _, r := range table {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// SubscriptionExempt сообщает, освобождён ли путь от проверки подписки.
// Сравнение строгое: префиксные совпадения не считаются.
func SubscriptionExempt(path string) bool {
	_, ok := subscriptionExempt[path]
	return ok
}

// All возвращает копию таблицы маршрутов.
func All() []Route {
	out := make([]Route, len(table))
	copy(out, table)
	return out
}
