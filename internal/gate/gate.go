// Package gate отвечает на вопрос, разрешён ли трейдеру дальнейший доступ:
// запрашивает статус подписки, опрашивает его с фиксированным периодом на
// время жизни представления и останавливается в момент, когда опрос видит
// активную подписку. Ошибки опроса логируются и проглатываются, к
// пользователю они никогда не доходят как блокирующие. Отдельное лёгкое
// напоминание о продлении чисто информационное и навигацию не блокирует.
package gate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tijarah/complaints-console/internal/lib/sl"
	"github.com/tijarah/complaints-console/internal/metrics"
	"github.com/tijarah/complaints-console/internal/models"
)

// Backend описывает операции бэкенда, нужные шлюзу подписки.
type Backend interface {
	SubscriptionStatus(ctx context.Context) (*models.SubscriptionStatus, error)
	RenewalCheck(ctx context.Context) (*models.RenewalStatus, error)
}

// Gate — запрос и опрос статуса подписки. Последний полученный статус
// хранится для охранника маршрутов; ответы устаревших запросов
// отбрасываются по счётчику поколений.
type Gate struct {
	backend Backend
	log     *slog.Logger

	mu      sync.RWMutex
	status  *models.SubscriptionStatus
	fetched bool
	gen     uint64
}

// New создает новый экземпляр Gate.
func New(backend Backend, log *slog.Logger) *Gate {
	return &Gate{
		backend: backend,
		log:     log,
	}
}

// Status возвращает последний полученный статус подписки. Второй результат
// ложен, пока ни один запрос ещё не завершился.
func (g *Gate) Status() (*models.SubscriptionStatus, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.status, g.fetched
}

// FetchStatus выполняет один запрос статуса, без повторов и backoff.
func (g *Gate) FetchStatus(ctx context.Context) (*models.SubscriptionStatus, error) {
	const op = "gate.Gate.FetchStatus"

	g.mu.Lock()
	g.gen++
	gen := g.gen
	g.mu.Unlock()

	status, err := g.backend.SubscriptionStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	g.commit(gen, status)
	return status, nil
}

// commit применяет ответ запроса статуса, если он не устарел относительно
// последнего выданного поколения.
func (g *Gate) commit(gen uint64, status *models.SubscriptionStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.gen {
		g.log.Debug("discarding stale subscription status",
			slog.Uint64("gen", gen), slog.Uint64("latest", g.gen))
		return
	}
	g.status = status
	g.fetched = true
	if status.HasActiveSubscription {
		metrics.SubscriptionActive.Set(1)
	} else {
		metrics.SubscriptionActive.Set(0)
	}
}

// Invalidate сбрасывает сохранённый статус, например после выхода из сессии.
func (g *Gate) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.status = nil
	g.fetched = false
	g.gen++
}

// Watch опрашивает статус с периодом interval на время жизни ctx. Каждый
// полученный статус отправляется в возвращаемый канал; канал закрывается при
// остановке. Опрос останавливается в момент, когда наблюдается активная
// подписка, либо при отмене ctx. Ошибки опроса проглатываются, опрос
// продолжается по расписанию.
func (g *Gate) Watch(ctx context.Context, interval time.Duration) <-chan models.SubscriptionStatus {
	const op = "gate.Gate.Watch"
	log := g.log.With(slog.String("op", op))

	updates := make(chan models.SubscriptionStatus, 1)
	go func() {
		defer close(updates)

		if done := g.poll(ctx, log, updates); done {
			return
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if done := g.poll(ctx, log, updates); done {
					return
				}
			}
		}
	}()
	return updates
}

// poll выполняет один тик опроса; истинный результат завершает цикл.
func (g *Gate) poll(ctx context.Context, log *slog.Logger, updates chan<- models.SubscriptionStatus) bool {
	metrics.GatePollsTotal.Inc()

	status, err := g.FetchStatus(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		metrics.GatePollFailures.Inc()
		log.Warn("subscription poll failed", sl.Err(err))
		return false
	}

	if status.HasActiveSubscription {
		metrics.GateActivations.Inc()
		log.Info("subscription activated, stopping poll")
		select {
		case updates <- *status:
		case <-ctx.Done():
		}
		return true
	}

	// Промежуточный статус: доставка по возможности, последний побеждает.
	select {
	case updates <- *status:
	default:
	}
	return false
}
