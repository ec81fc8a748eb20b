// Package console реализует интерактивный клиент системы жалоб: форму входа
// с опциональным вторым фактором, навигацию по представлениям через охранник
// маршрутов, шлюз подписки и напоминание о продлении. Представления
// отрисовываются текстом; вся логика доступа живёт в пакетах session,
// authflow, guard и gate.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator"

	"github.com/tijarah/complaints-console/internal/api"
	"github.com/tijarah/complaints-console/internal/authflow"
	"github.com/tijarah/complaints-console/internal/config"
	"github.com/tijarah/complaints-console/internal/gate"
	"github.com/tijarah/complaints-console/internal/guard"
	"github.com/tijarah/complaints-console/internal/lib/sl"
	"github.com/tijarah/complaints-console/internal/models"
	"github.com/tijarah/complaints-console/internal/session"
)

// App — консольное приложение клиента.
type App struct {
	cfg      *config.Config
	client   *api.Client
	store    *session.Store
	gate     *gate.Gate
	guard    *guard.Guard
	flow     *authflow.Flow
	validate *validator.Validate
	logger   *slog.Logger

	in  *bufio.Scanner
	out io.Writer

	// Путь, запомненный при редиректе на вход, для возврата после входа.
	pendingPath string
}

// New собирает консольное приложение поверх стандартных ввода и вывода.
func New(cfg *config.Config, logger *slog.Logger, in io.Reader, out io.Writer) *App {
	client := api.New(cfg.BaseURL, cfg.Backend.Timeout, logger)
	storage := session.NewFileTokenStorage(cfg.TokenFile)
	store := session.NewStore(client, storage, logger)
	subscriptionGate := gate.New(client, logger)

	return &App{
		cfg:      cfg,
		client:   client,
		store:    store,
		gate:     subscriptionGate,
		guard:    guard.New(store, subscriptionGate, logger),
		flow:     authflow.New(store, logger),
		validate: validator.New(),
		logger:   logger,
		in:       bufio.NewScanner(in),
		out:      out,
	}
}

// Run восстанавливает сессию и входит в цикл команд.
func (a *App) Run(ctx context.Context) error {
	if err := a.store.Rehydrate(ctx); err != nil {
		// Отвергнутый токен уже очищен; продолжаем неаутентифицированными.
		a.logger.Info("session not restored", sl.Err(err))
	}
	if user := a.store.User(); user != nil {
		fmt.Fprintf(a.out, "welcome back, %s (%s)\n", user.FullName, user.Role)
	}

	fmt.Fprintln(a.out, `type "help" for commands`)
	for ctx.Err() == nil {
		fmt.Fprint(a.out, "> ")
		if !a.in.Scan() {
			return a.in.Err()
		}
		line := strings.TrimSpace(a.in.Text())
		if line == "" {
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch cmd {
		case "help":
			a.printHelp()
		case "login":
			a.cmdLogin(ctx, arg)
		case "otp":
			a.cmdOTP(ctx, arg)
		case "back":
			a.flow.Back()
			fmt.Fprintln(a.out, "back to credentials")
		case "register":
			a.cmdRegister(ctx)
		case "open":
			a.cmdOpen(ctx, arg)
		case "complain":
			a.cmdComplain(ctx)
		case "pay":
			a.cmdPay(ctx)
		case "status":
			a.cmdStatus(ctx)
		case "reminder":
			a.cmdReminder(ctx)
		case "gate":
			a.cmdGate(ctx)
		case "refresh":
			a.cmdRefresh(ctx)
		case "logout":
			a.store.Logout()
			a.gate.Invalidate()
			fmt.Fprintln(a.out, "logged out")
		case "quit", "exit":
			return nil
		default:
			fmt.Fprintf(a.out, "unknown command %q\n", cmd)
		}
	}
	return ctx.Err()
}

func (a *App) printHelp() {
	fmt.Fprintln(a.out, `commands:
  login <username>   sign in (password prompted)
  otp <code>         submit the six-digit second factor code
  back               return from the otp step to credentials
  register           request a new account
  open <path>        navigate to a view, e.g. open /complaints
  complain           file a new complaint
  pay                submit a subscription payment for review
  status             show subscription status
  reminder           show the renewal reminder
  gate               block on the subscription gate until activation
  refresh            re-fetch the profile
  logout             clear the session
  quit               exit`)
}

func (a *App) readLine(prompt string) string {
	fmt.Fprint(a.out, prompt)
	if !a.in.Scan() {
		return ""
	}
	return strings.TrimSpace(a.in.Text())
}

func (a *App) cmdLogin(ctx context.Context, username string) {
	if username == "" {
		username = a.readLine("username: ")
	}
	password := a.readLine("password: ")

	outcome := a.flow.SubmitCredentials(ctx, username, password)
	a.renderOutcome(outcome)
}

func (a *App) cmdOTP(ctx context.Context, code string) {
	outcome := a.flow.SubmitOTP(ctx, code)
	a.renderOutcome(outcome)
}

func (a *App) renderOutcome(outcome authflow.Outcome) {
	switch {
	case outcome.Authenticated:
		user := a.store.User()
		fmt.Fprintf(a.out, "signed in as %s (%s)\n", user.Username, user.Role)
		if a.pendingPath != "" {
			path := a.pendingPath
			a.pendingPath = ""
			a.cmdOpen(context.Background(), path)
		}
	case outcome.OTPRequired:
		fmt.Fprintln(a.out, "enter the six-digit code from your authenticator (otp <code>)")
	case outcome.Category == authflow.CategoryValidation:
		fmt.Fprintf(a.out, "invalid input: %s\n", outcome.Message)
	case outcome.Category == authflow.CategoryInvalidCredentials:
		if outcome.RemainingAttempts >= 0 {
			fmt.Fprintf(a.out, "wrong username or password, %d attempts remaining\n", outcome.RemainingAttempts)
		} else {
			fmt.Fprintln(a.out, "wrong username or password")
		}
	case outcome.Category == authflow.CategoryAccountLocked:
		fmt.Fprintf(a.out, "account locked until %s\n", outcome.LockedUntil.Format(time.RFC1123))
	case outcome.Category == authflow.CategoryRateLimited:
		fmt.Fprintln(a.out, "too many attempts, try again later")
	case outcome.Category == authflow.CategoryNetwork:
		fmt.Fprintln(a.out, "cannot reach the server, check your connection")
	default:
		fmt.Fprintln(a.out, "server error, try again later")
	}
}

// cmdOpen проводит путь через охранник маршрутов и отрисовывает решение.
func (a *App) cmdOpen(ctx context.Context, path string) {
	if path == "" {
		fmt.Fprintln(a.out, "usage: open <path>")
		return
	}
	for {
		decision := a.guard.Decide(path)
		switch decision.Action {
		case guard.ActionLoading:
			// Статус подписки ещё не получен: один запрос, затем новое решение.
			if _, err := a.gate.FetchStatus(ctx); err != nil {
				// Как и в исходной системе, недоступность проверки не
				// запирает пользователя: открываем представление.
				a.logger.Warn("subscription check failed", sl.Err(err))
				a.renderView(ctx, path)
				return
			}
			continue
		case guard.ActionRedirectLogin:
			a.pendingPath = decision.From
			fmt.Fprintln(a.out, "please sign in first (login <username>)")
			return
		case guard.ActionForbidden:
			fmt.Fprintln(a.out, "you do not have permission to access this page")
			return
		case guard.ActionRedirectGate:
			fmt.Fprintln(a.out, "subscription required, redirecting to the gate")
			a.renderView(ctx, decision.RedirectTo)
			return
		case guard.ActionNotFound:
			fmt.Fprintf(a.out, "404: no such page %s\n", path)
			return
		default:
			a.renderView(ctx, path)
			return
		}
	}
}

// renderView отрисовывает представление текстом. Разметка минимальна:
// содержимое страниц — не предмет этого клиента.
func (a *App) renderView(ctx context.Context, path string) {
	switch path {
	case "/", "/dashboard":
		stats, err := a.client.DashboardStats(ctx)
		if err != nil {
			fmt.Fprintln(a.out, "dashboard unavailable")
			return
		}
		fmt.Fprintf(a.out, "complaints: %d total, %d open, %d resolved, %d pending\n",
			stats.TotalComplaints, stats.OpenComplaints, stats.ResolvedComplaints, stats.PendingComplaints)
	case "/complaints":
		list, err := a.client.Complaints(ctx, api.ComplaintListOptions{PerPage: 10})
		if err != nil {
			fmt.Fprintln(a.out, "complaints unavailable")
			return
		}
		for _, c := range list.Complaints {
			fmt.Fprintf(a.out, "[%s] %s — %s\n", c.Status, c.Title, c.CreatedAt.Format("2006-01-02"))
		}
		fmt.Fprintf(a.out, "%d of %d complaints\n", len(list.Complaints), list.Total)
	case "/profile":
		user := a.store.User()
		if user == nil {
			fmt.Fprintln(a.out, "profile not loaded")
			return
		}
		fmt.Fprintf(a.out, "%s <%s>, role %s, 2fa enabled: %v\n",
			user.FullName, user.Email, user.Role, user.TwoFactorEnabled)
		if exp := a.store.TokenExpiry(); !exp.IsZero() {
			fmt.Fprintf(a.out, "session expires %s\n", exp.Format(time.RFC1123))
		}
	case "/subscription-gate":
		a.renderGateView(ctx)
	case "/payment":
		a.renderPaymentView(ctx)
	default:
		fmt.Fprintf(a.out, "opened %s\n", path)
	}
}

func (a *App) renderGateView(ctx context.Context) {
	status, ok := a.gate.Status()
	if !ok {
		var err error
		status, err = a.gate.FetchStatus(ctx)
		if err != nil {
			fmt.Fprintln(a.out, "subscription status unavailable")
			return
		}
	}
	switch {
	case status.HasActiveSubscription:
		fmt.Fprintln(a.out, "subscription active, you are all set")
	case status.HasPendingPayment:
		p := status.PendingPayment
		fmt.Fprintf(a.out, "payment of %.2f via %s is under review\n", p.Amount, p.MethodName)
	default:
		fmt.Fprintln(a.out, "no active subscription, submit a payment (open /payment) or wait here (gate)")
	}
}

func (a *App) renderPaymentView(ctx context.Context) {
	price, err := a.client.SubscriptionPrice(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "payment page unavailable")
		return
	}
	methods, err := a.client.PaymentMethods(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "payment page unavailable")
		return
	}
	fmt.Fprintf(a.out, "subscription price: %.2f %s\n", price.Amount, price.Currency)
	for _, m := range methods {
		if m.IsActive {
			fmt.Fprintf(a.out, "  %s (%s)\n", m.Name, m.AccountNumber)
		}
	}
}

func (a *App) cmdStatus(ctx context.Context) {
	status, err := a.gate.FetchStatus(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "subscription status unavailable")
		return
	}
	fmt.Fprintf(a.out, "active: %v, pending payment: %v\n",
		status.HasActiveSubscription, status.HasPendingPayment)
}

func (a *App) cmdReminder(ctx context.Context) {
	reminder, err := a.gate.CheckRenewal(ctx)
	if err != nil {
		// Напоминание информационное: при ошибке просто молчим.
		a.logger.Warn("renewal check failed", sl.Err(err))
		return
	}
	switch reminder.Level {
	case gate.ReminderNone:
		fmt.Fprintln(a.out, "subscription does not need renewal")
	case gate.ReminderUrgent:
		if reminder.InGracePeriod {
			fmt.Fprintf(a.out, "grace period: %d day(s) left, renew immediately\n", reminder.GraceDaysRemaining)
		} else {
			fmt.Fprintf(a.out, "urgent: subscription ends in %d day(s)\n", reminder.DaysRemaining)
		}
	case gate.ReminderWarning:
		fmt.Fprintf(a.out, "subscription ends in %d day(s), renew soon\n", reminder.DaysRemaining)
	default:
		fmt.Fprintf(a.out, "subscription ends in %d day(s)\n", reminder.DaysRemaining)
	}
}

// cmdGate блокируется на шлюзе подписки до активации или прерывания.
func (a *App) cmdGate(ctx context.Context) {
	fmt.Fprintf(a.out, "waiting for subscription activation (poll every %s, ctrl-c to stop)\n", a.cfg.PollInterval)
	for status := range a.gate.Watch(ctx, a.cfg.PollInterval) {
		if status.HasActiveSubscription {
			fmt.Fprintln(a.out, "subscription activated!")
			a.cmdOpen(ctx, "/dashboard")
			return
		}
		if status.HasPendingPayment {
			fmt.Fprintln(a.out, "payment under review...")
		}
	}
}

func (a *App) cmdRegister(ctx context.Context) {
	req := api.RegisterRequest{
		Username: a.readLine("username: "),
		Email:    a.readLine("email: "),
		Password: a.readLine("password: "),
		FullName: a.readLine("full name: "),
	}
	if err := a.validate.Struct(req); err != nil {
		fmt.Fprintf(a.out, "invalid input: %s\n", err)
		return
	}
	if err := a.client.Register(ctx, req); err != nil {
		fmt.Fprintln(a.out, "registration was not accepted")
		a.logger.Info("registration rejected", sl.Err(err))
		return
	}
	fmt.Fprintln(a.out, "registration submitted, you can sign in once the account is approved")
}

// cmdComplain подаёт новую жалобу; ввод, не прошедший валидацию,
// до сети не доходит.
func (a *App) cmdComplain(ctx context.Context) {
	decision := a.guard.Decide("/complaints/new")
	if decision.Action != guard.ActionAllow && decision.Action != guard.ActionLoading {
		a.cmdOpen(ctx, "/complaints/new")
		return
	}

	categories, err := a.client.Categories(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "categories unavailable, try again later")
		return
	}
	for _, c := range categories {
		fmt.Fprintf(a.out, "  %s: %s\n", c.ID, c.Name)
	}

	req := models.DummyComplaint{
		CategoryID:  a.readLine("category id: "),
		Title:       a.readLine("title: "),
		Description: a.readLine("description: "),
	}
	if err := a.validate.Struct(req); err != nil {
		fmt.Fprintf(a.out, "invalid input: %s\n", err)
		return
	}

	complaint, err := a.client.CreateComplaint(ctx, req)
	if err != nil {
		fmt.Fprintln(a.out, "complaint was not accepted")
		a.logger.Info("complaint rejected", sl.Err(err))
		return
	}
	fmt.Fprintf(a.out, "complaint %s filed\n", complaint.ID)
}

// cmdPay отправляет подтверждение оплаты подписки на рассмотрение.
func (a *App) cmdPay(ctx context.Context) {
	a.renderPaymentView(ctx)

	amountStr := a.readLine("amount: ")
	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil {
		fmt.Fprintln(a.out, "invalid input: amount must be a number")
		return
	}
	req := models.DummyPayment{
		MethodID:  a.readLine("method id: "),
		Amount:    amount,
		Reference: a.readLine("reference number: "),
	}
	if err := a.validate.Struct(req); err != nil {
		fmt.Fprintf(a.out, "invalid input: %s\n", err)
		return
	}

	if err := a.client.SubmitPayment(ctx, req); err != nil {
		fmt.Fprintln(a.out, "payment was not accepted")
		a.logger.Info("payment rejected", sl.Err(err))
		return
	}
	fmt.Fprintln(a.out, "payment submitted for review")
}

func (a *App) cmdRefresh(ctx context.Context) {
	if err := a.store.Refresh(ctx); err != nil {
		fmt.Fprintln(a.out, "profile refresh failed")
		return
	}
	if user := a.store.User(); user != nil {
		fmt.Fprintf(a.out, "profile refreshed: %s (%s)\n", user.Username, user.Role)
	}
}
