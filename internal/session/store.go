package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tijarah/complaints-console/internal/api"
	"github.com/tijarah/complaints-console/internal/lib/sl"
	"github.com/tijarah/complaints-console/internal/models"
)

// Backend описывает операции бэкенда, необходимые сессии.
type Backend interface {
	// Login выполняет вход; требование второго фактора — не ошибка.
	Login(ctx context.Context, username, password, otpCode string) (*api.LoginResult, error)
	// Profile возвращает профиль владельца токена целиком.
	Profile(ctx context.Context) (*models.User, error)
	// UpdateProfile отправляет изменения и возвращает новую версию профиля.
	UpdateProfile(ctx context.Context, req api.UpdateProfileRequest) (*models.User, error)
	// ChangePassword меняет пароль владельца токена.
	ChangePassword(ctx context.Context, current, newPassword string) error
	// SetToken устанавливает учётный заголовок по умолчанию.
	SetToken(token string)
	// ClearToken снимает учётный заголовок по умолчанию.
	ClearToken()
}

// TokenStorage описывает долговременное хранилище токена (один ключ).
type TokenStorage interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Store — единственный авторитетный источник сессии процесса.
// Конкурирующие входы не сериализуются: каждая операция независима,
// последняя запись побеждает.
type Store struct {
	backend Backend
	storage TokenStorage
	log     *slog.Logger

	mu    sync.RWMutex
	token string
	user  *models.User
	gen   uint64
}

// NewStore создает новый экземпляр Store.
func NewStore(backend Backend, storage TokenStorage, log *slog.Logger) *Store {
	return &Store{
		backend: backend,
		storage: storage,
		log:     log,
	}
}

// IsAuthenticated истинно тогда и только тогда, когда есть и токен, и профиль.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

// User возвращает текущий профиль или nil.
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Token возвращает текущий токен, пустая строка — токена нет.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Login выполняет вход. При успехе токен и профиль сохраняются, токен
// персистируется и устанавливается как учётный заголовок по умолчанию.
// Требование второго фактора и ошибки не изменяют сохранённую сессию.
func (s *Store) Login(ctx context.Context, username, password, otpCode string) (*api.LoginResult, error) {
	const op = "session.Store.Login"

	result, err := s.backend.Login(ctx, username, password, otpCode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if result.OTPRequired {
		s.log.Info("second factor required", slog.String("username", username))
		return result, nil
	}

	s.mu.Lock()
	s.token = result.AccessToken
	s.user = result.User
	s.gen++
	s.mu.Unlock()

	s.backend.SetToken(result.AccessToken)
	if err := s.storage.Save(result.AccessToken); err != nil {
		// Сессия уже установлена; неудача персистирования не отменяет вход.
		s.log.Warn("failed to persist token", sl.Err(err))
	}
	s.log.Info("login success", slog.String("username", username))
	return result, nil
}

// Logout очищает токен, профиль, запись в хранилище и учётный заголовок.
// Всегда успешен, обращений к бэкенду не делает.
func (s *Store) Logout() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.gen++
	s.mu.Unlock()

	s.backend.ClearToken()
	if err := s.storage.Clear(); err != nil {
		s.log.Warn("failed to clear stored token", sl.Err(err))
	}
	s.log.Info("logged out")
}

// Rehydrate восстанавливает сессию при старте процесса. Без сохранённого
// токена сетевых вызовов нет. Отказ в аутентификации (401/403) разрушает
// сессию; любая другая ошибка оставляет токен на месте, а профиль —
// отсутствующим: пользователя не наказывают за недоступность бэкенда.
func (s *Store) Rehydrate(ctx context.Context) error {
	const op = "session.Store.Rehydrate"

	token, err := s.storage.Load()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if token == "" {
		return nil
	}

	s.mu.Lock()
	s.token = token
	s.gen++
	gen := s.gen
	s.mu.Unlock()
	s.backend.SetToken(token)

	user, err := s.backend.Profile(ctx)
	if err != nil {
		if api.IsUnauthorized(err) {
			s.log.Info("stored token rejected, clearing session")
			s.Logout()
			return fmt.Errorf("%s: %w", op, err)
		}
		s.log.Warn("profile fetch failed, keeping session", sl.Err(err))
		return nil
	}

	s.commitProfile(gen, user)
	return nil
}

// Refresh перезапрашивает профиль целиком. Отказ в аутентификации разрушает
// сессию, прочие ошибки её не трогают.
func (s *Store) Refresh(ctx context.Context) error {
	const op = "session.Store.Refresh"

	if s.Token() == "" {
		return fmt.Errorf("%s: not logged in", op)
	}

	gen := s.nextGen()
	user, err := s.backend.Profile(ctx)
	if err != nil {
		if api.IsUnauthorized(err) {
			s.Logout()
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	s.commitProfile(gen, user)
	return nil
}

// UpdateProfile отправляет изменения профиля; при успехе сохранённый профиль
// заменяется целиком.
func (s *Store) UpdateProfile(ctx context.Context, req api.UpdateProfileRequest) error {
	const op = "session.Store.UpdateProfile"

	gen := s.nextGen()
	user, err := s.backend.UpdateProfile(ctx, req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.commitProfile(gen, user)
	return nil
}

// ChangePassword меняет пароль владельца токена; сессию не изменяет.
func (s *Store) ChangePassword(ctx context.Context, current, newPassword string) error {
	const op = "session.Store.ChangePassword"

	if err := s.backend.ChangePassword(ctx, current, newPassword); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// TokenExpiry возвращает срок действия токена из claim exp без проверки
// подписи. Нулевое время — токена нет или claim не читается.
func (s *Store) TokenExpiry() time.Time {
	token := s.Token()
	if token == "" {
		return time.Time{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// nextGen выдаёт поколение для нового запроса профиля.
func (s *Store) nextGen() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

// commitProfile применяет ответ запроса профиля, если он не устарел
// относительно последнего выданного поколения.
func (s *Store) commitProfile(gen uint64, user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.log.Debug("discarding stale profile response",
			slog.Uint64("gen", gen), slog.Uint64("latest", s.gen))
		return
	}
	s.user = user
}
