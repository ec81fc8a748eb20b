// Package session реализует единственный авторитетный источник состояния
// "кто вошёл в систему": учётный токен и профиль пользователя. Токен
// сохраняется в долговременном хранилище под одним фиксированным ключом —
// файлом на диске. Гонки "последний ответ побеждает" между параллельными
// запросами профиля закрываются монотонным счётчиком поколений.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileTokenStorage хранит токен в одном файле. Чтение и запись одного ключа,
// без обработки конкуренции сверх "последняя запись побеждает".
type FileTokenStorage struct {
	path string
}

// NewFileTokenStorage создаёт хранилище токена по указанному пути.
func NewFileTokenStorage(path string) *FileTokenStorage {
	return &FileTokenStorage{path: path}
}

// Load возвращает сохранённый токен. Отсутствие файла — не ошибка,
// возвращается пустая строка.
func (s *FileTokenStorage) Load() (string, error) {
	const op = "session.FileTokenStorage.Load"

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save записывает токен, создавая каталог при необходимости.
func (s *FileTokenStorage) Save(token string) error {
	const op = "session.FileTokenStorage.Save"

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Clear удаляет сохранённый токен. Отсутствие файла — не ошибка.
func (s *FileTokenStorage) Clear() error {
	const op = "session.FileTokenStorage.Clear"

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
