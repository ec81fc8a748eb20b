// Package sl содержит вспомогательные функции для работы с логгером slog.
// Упрощает формирование структурированных полей лога при работе клиента
// с HTTP-бэкендом: ошибки и статусы ответов.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и значением текста ошибки.
//
// Пример:
//
//	log.Error("profile fetch failed", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Status возвращает slog.Attr с ключом "status" и HTTP-статусом ответа бэкенда.
func Status(code int) slog.Attr {
	return slog.Attr{
		Key:   "status",
		Value: slog.IntValue(code),
	}
}
