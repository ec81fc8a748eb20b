package gate

import (
	"context"
	"fmt"

	"github.com/tijarah/complaints-console/internal/models"
)

// ReminderLevel — степень настойчивости напоминания о продлении.
type ReminderLevel int

const (
	// ReminderNone — продление не требуется, напоминание не показывается.
	ReminderNone ReminderLevel = iota
	// ReminderInfo — до окончания подписки больше недели.
	ReminderInfo
	// ReminderWarning — подписка заканчивается в течение недели.
	ReminderWarning
	// ReminderUrgent — льготный период или меньше четырёх дней до окончания.
	ReminderUrgent
)

// Reminder — информационное напоминание о продлении. Никогда не блокирует
// навигацию; при Level == ReminderNone показывать нечего.
type Reminder struct {
	Level              ReminderLevel
	InGracePeriod      bool
	DaysRemaining      int
	GraceDaysRemaining int
}

// CheckRenewal запрашивает сведения о продлении и переводит их в напоминание.
func (g *Gate) CheckRenewal(ctx context.Context) (*Reminder, error) {
	const op = "gate.Gate.CheckRenewal"

	status, err := g.backend.RenewalCheck(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Reminder{
		Level:              reminderLevel(status),
		InGracePeriod:      status.InGracePeriod,
		DaysRemaining:      status.DaysRemaining,
		GraceDaysRemaining: status.GraceDaysRemaining,
	}, nil
}

func reminderLevel(status *models.RenewalStatus) ReminderLevel {
	switch {
	case !status.NeedsRenewal && !status.InGracePeriod:
		return ReminderNone
	case status.InGracePeriod, status.DaysRemaining <= 3:
		return ReminderUrgent
	case status.DaysRemaining <= 7:
		return ReminderWarning
	default:
		return ReminderInfo
	}
}
