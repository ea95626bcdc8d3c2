// Package sl содержит вспомогательные функции для логгера slog,
// общие для сервисов агрегатора парковок.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и текстом ошибки, чтобы
// ошибки во всех сервисах логировались одним и тем же полем.
//
// Пример:
//
//	log.Error("failed to close session", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}
