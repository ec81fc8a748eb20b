// Package authflow реализует машину состояний интерактивного входа:
// ввод учётных данных, опциональный второй фактор, классификация отказов
// для показа пользователю. Требование второго фактора никогда не подаётся
// как ошибка. Блокировка аккаунта задаётся бэкендом; до истечения её окна
// отправка формы запрещена.
package authflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator"

	"github.com/tijarah/complaints-console/internal/api"
	"github.com/tijarah/complaints-console/internal/lib/sl"
)

// Stage — этап формы входа.
type Stage int

const (
	// StageCredentials — ввод имени пользователя и пароля.
	StageCredentials Stage = iota
	// StageOTP — ввод шестизначного кода второго фактора.
	StageOTP
)

// Лимит неудачных попыток входа на стороне бэкенда; используется только
// для подсчёта оставшихся попыток в сообщении пользователю.
const maxLoginAttempts = 5

// Category — категория исхода для показа пользователю. Категории никогда
// не смешиваются: требование второго фактора не является отказом.
type Category int

const (
	// CategoryNone — исход без ошибки (успех или запрос второго фактора).
	CategoryNone Category = iota
	// CategoryValidation — ввод отклонён до обращения к сети.
	CategoryValidation
	// CategoryInvalidCredentials — неверные учётные данные.
	CategoryInvalidCredentials
	// CategoryAccountLocked — аккаунт заблокирован до срока, заданного бэкендом.
	CategoryAccountLocked
	// CategoryRateLimited — превышен лимит попыток.
	CategoryRateLimited
	// CategoryNetwork — ответа от бэкенда не было.
	CategoryNetwork
	// CategoryServer — сбой на стороне сервера.
	CategoryServer
)

// Outcome — результат отправки формы, готовый к показу пользователю.
//
// RemainingAttempts равен -1, когда бэкенд не сообщил счётчик попыток.
type Outcome struct {
	Authenticated     bool
	OTPRequired       bool
	Category          Category
	Message           string
	RemainingAttempts int
	LockedUntil       time.Time
}

// SessionStore описывает операцию входа хранилища сессии.
type SessionStore interface {
	Login(ctx context.Context, username, password, otpCode string) (*api.LoginResult, error)
}

type credentials struct {
	Username string `validate:"required,min=3,max=50"`
	Password string `validate:"required,min=6"`
}

type otpCode struct {
	Code string `validate:"required,len=6,numeric"`
}

// Flow — состояние одного экземпляра формы входа. Живёт только на время
// взаимодействия; после успеха или ухода со страницы отбрасывается.
type Flow struct {
	store    SessionStore
	log      *slog.Logger
	validate *validator.Validate

	stage           Stage
	pendingUsername string
	pendingPassword string
	lockedUntil     time.Time
}

// New создает новый экземпляр Flow в этапе ввода учётных данных.
func New(store SessionStore, log *slog.Logger) *Flow {
	return &Flow{
		store:    store,
		log:      log,
		validate: validator.New(),
	}
}

// Stage возвращает текущий этап формы.
func (f *Flow) Stage() Stage { return f.stage }

// Locked сообщает, запрещена ли отправка формы на момент now из-за
// блокировки, о которой сообщил бэкенд.
func (f *Flow) Locked(now time.Time) bool {
	return !f.lockedUntil.IsZero() && now.Before(f.lockedUntil)
}

// Back возвращает форму с этапа второго фактора к вводу учётных данных,
// отбрасывая отложенные данные.
func (f *Flow) Back() {
	f.stage = StageCredentials
	f.pendingUsername = ""
	f.pendingPassword = ""
}

// SubmitCredentials отправляет имя пользователя и пароль. Ввод, не прошедший
// валидацию, до сети не доходит.
func (f *Flow) SubmitCredentials(ctx context.Context, username, password string) Outcome {
	const op = "authflow.Flow.SubmitCredentials"
	log := f.log.With(slog.String("op", op))

	if f.Locked(time.Now()) {
		return Outcome{
			Category:          CategoryAccountLocked,
			LockedUntil:       f.lockedUntil,
			RemainingAttempts: -1,
		}
	}
	if err := f.validate.Struct(credentials{Username: username, Password: password}); err != nil {
		log.Debug("credentials rejected by validation", sl.Err(err))
		return Outcome{
			Category:          CategoryValidation,
			Message:           err.Error(),
			RemainingAttempts: -1,
		}
	}

	result, err := f.store.Login(ctx, username, password, "")
	if err != nil {
		return f.classify(err)
	}
	if result.OTPRequired {
		f.stage = StageOTP
		f.pendingUsername = username
		f.pendingPassword = password
		return Outcome{OTPRequired: true, Message: result.Message, RemainingAttempts: -1}
	}

	f.reset()
	return Outcome{Authenticated: true, RemainingAttempts: -1}
}

// SubmitOTP отправляет код второго фактора вместе с отложенными учётными
// данными. Вне этапа второго фактора отклоняется как ошибка валидации.
func (f *Flow) SubmitOTP(ctx context.Context, code string) Outcome {
	const op = "authflow.Flow.SubmitOTP"
	log := f.log.With(slog.String("op", op))

	if f.stage != StageOTP {
		return Outcome{
			Category:          CategoryValidation,
			Message:           "no second factor challenge is pending",
			RemainingAttempts: -1,
		}
	}
	if f.Locked(time.Now()) {
		return Outcome{
			Category:          CategoryAccountLocked,
			LockedUntil:       f.lockedUntil,
			RemainingAttempts: -1,
		}
	}
	if err := f.validate.Struct(otpCode{Code: code}); err != nil {
		log.Debug("otp code rejected by validation", sl.Err(err))
		return Outcome{
			Category:          CategoryValidation,
			Message:           "the one-time code must be six digits",
			RemainingAttempts: -1,
		}
	}

	result, err := f.store.Login(ctx, f.pendingUsername, f.pendingPassword, code)
	if err != nil {
		return f.classify(err)
	}
	if result.OTPRequired {
		// Бэкенд снова требует второй фактор: код не подошёл или истёк.
		return Outcome{OTPRequired: true, Message: result.Message, RemainingAttempts: -1}
	}

	f.reset()
	return Outcome{Authenticated: true, RemainingAttempts: -1}
}

func (f *Flow) reset() {
	f.stage = StageCredentials
	f.pendingUsername = ""
	f.pendingPassword = ""
	f.lockedUntil = time.Time{}
}

// classify переводит ошибку бэкенда в категорию исхода для пользователя.
func (f *Flow) classify(err error) Outcome {
	const op = "authflow.Flow.classify"
	log := f.log.With(slog.String("op", op))

	outcome := Outcome{RemainingAttempts: -1}

	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		log.Error("unclassified login failure", sl.Err(err))
		outcome.Category = CategoryServer
		return outcome
	}
	outcome.Message = apiErr.Message

	switch apiErr.Kind {
	case api.KindInvalidCredentials:
		outcome.Category = CategoryInvalidCredentials
		if apiErr.FailedAttempts > 0 {
			remaining := maxLoginAttempts - apiErr.FailedAttempts
			if remaining < 0 {
				remaining = 0
			}
			outcome.RemainingAttempts = remaining
		}
	case api.KindAccountLocked:
		outcome.Category = CategoryAccountLocked
		outcome.LockedUntil = apiErr.LockoutUntil
		f.lockedUntil = apiErr.LockoutUntil
	case api.KindRateLimited:
		outcome.Category = CategoryRateLimited
	case api.KindNetwork:
		outcome.Category = CategoryNetwork
	case api.KindServer:
		outcome.Category = CategoryServer
	default:
		outcome.Category = CategoryValidation
	}

	log.Info("login attempt failed",
		slog.Int("category", int(outcome.Category)), sl.Status(apiErr.StatusCode))
	return outcome
}
