package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tijarah/complaints-console/internal/lib/sl"
	"github.com/tijarah/complaints-console/internal/models"
)

// Client — HTTP-клиент REST-бэкенда. После SetToken все последующие запросы
// несут заголовок Authorization: Bearer <token>.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger

	mu    sync.RWMutex
	token string
}

// New создаёт новый клиент бэкенда с заданным базовым URL и таймаутом.
func New(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// SetToken устанавливает учётный токен по умолчанию для всех последующих запросов.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// ClearToken снимает учётный токен по умолчанию.
func (c *Client) ClearToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}

// Token возвращает текущий учётный токен, пустая строка — токен не установлен.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

// do выполняет запрос и декодирует успешный ответ в out (если out != nil).
// Неуспешные ответы классифицируются в *Error, транспортные сбои — в KindNetwork.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("request transport failure",
			slog.String("path", req.URL.Path), sl.Err(err))
		return networkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body errorBody
		_ = json.NewDecoder(resp.Body).Decode(&body)
		apiErr := classify(resp.StatusCode, body)
		c.log.Debug("request rejected",
			slog.String("path", req.URL.Path), sl.Status(resp.StatusCode))
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return networkError(err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// LoginResult — исход вызова /api/login. OTPRequired выставляется, когда бэкенд
// требует второй фактор; это не ошибка, токен и профиль при этом отсутствуют.
type LoginResult struct {
	OTPRequired  bool
	Message      string
	AccessToken  string
	RefreshToken string
	User         *models.User
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	OTPCode  string `json:"otp_code,omitempty"`
}

type loginResponse struct {
	Requires2FA  bool         `json:"requires_2fa"`
	Message      string       `json:"message"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

// Login выполняет вход. Три исхода: успех (заполнены токены и профиль),
// требование второго фактора (OTPRequired) или классифицированная ошибка.
func (c *Client) Login(ctx context.Context, username, password, otpCode string) (*LoginResult, error) {
	var resp loginResponse
	err := c.postJSON(ctx, "/api/login", loginRequest{
		Username: username,
		Password: password,
		OTPCode:  otpCode,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Requires2FA {
		return &LoginResult{OTPRequired: true, Message: resp.Message}, nil
	}
	return &LoginResult{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         resp.User,
	}, nil
}

type profileResponse struct {
	User *models.User `json:"user"`
}

// Profile возвращает профиль владельца токена.
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var resp profileResponse
	if err := c.getJSON(ctx, "/api/profile", &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// UpdateProfileRequest — изменяемые поля профиля.
type UpdateProfileRequest struct {
	FullName    string `json:"full_name,omitempty" validate:"omitempty,min=2,max=255"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	PhoneNumber string `json:"phone_number,omitempty" validate:"omitempty,max=50"`
	Address     string `json:"address,omitempty"`
}

// UpdateProfile отправляет изменения профиля и возвращает его новую версию целиком.
func (c *Client) UpdateProfile(ctx context.Context, reqBody UpdateProfileRequest) (*models.User, error) {
	req, err := c.newRequest(ctx, http.MethodPut, "/api/profile", reqBody)
	if err != nil {
		return nil, err
	}
	var resp profileResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword меняет пароль владельца токена.
func (c *Client) ChangePassword(ctx context.Context, current, newPassword string) error {
	return c.postJSON(ctx, "/api/change-password", changePasswordRequest{
		CurrentPassword: current,
		NewPassword:     newPassword,
	}, nil)
}

// RegisterRequest — данные регистрации нового аккаунта.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required,min=2,max=255"`
}

// Register отправляет заявку на регистрацию. Успех не аутентифицирует:
// токен бэкенд при регистрации не выдаёт.
func (c *Client) Register(ctx context.Context, reqBody RegisterRequest) error {
	return c.postJSON(ctx, "/api/register", reqBody, nil)
}

// SubscriptionStatus возвращает снимок состояния подписки владельца токена.
func (c *Client) SubscriptionStatus(ctx context.Context) (*models.SubscriptionStatus, error) {
	var status models.SubscriptionStatus
	if err := c.getJSON(ctx, "/api/subscription/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// RenewalCheck возвращает сведения о необходимости продления подписки.
func (c *Client) RenewalCheck(ctx context.Context) (*models.RenewalStatus, error) {
	var status models.RenewalStatus
	if err := c.getJSON(ctx, "/api/renewal/check", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ComplaintListOptions — фильтры и пагинация списка жалоб.
type ComplaintListOptions struct {
	Status   string
	Category string
	Page     int
	PerPage  int
}

// ComplaintList — страница списка жалоб.
type ComplaintList struct {
	Complaints []models.Complaint `json:"complaints"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	Pages      int                `json:"pages"`
}

// Complaints возвращает страницу жалоб с учётом фильтров.
func (c *Client) Complaints(ctx context.Context, opts ComplaintListOptions) (*ComplaintList, error) {
	params := url.Values{}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Category != "" {
		params.Set("category", opts.Category)
	}
	if opts.Page > 0 {
		params.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PerPage > 0 {
		params.Set("per_page", strconv.Itoa(opts.PerPage))
	}
	path := "/api/complaints"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	var list ComplaintList
	if err := c.getJSON(ctx, path, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Complaint возвращает жалобу по идентификатору.
func (c *Client) Complaint(ctx context.Context, id string) (*models.Complaint, error) {
	var complaint models.Complaint
	if err := c.getJSON(ctx, "/api/complaints/"+url.PathEscape(id), &complaint); err != nil {
		return nil, err
	}
	return &complaint, nil
}

// CreateComplaint отправляет новую жалобу и возвращает созданную запись.
func (c *Client) CreateComplaint(ctx context.Context, reqBody models.DummyComplaint) (*models.Complaint, error) {
	var complaint models.Complaint
	if err := c.postJSON(ctx, "/api/complaints", reqBody, &complaint); err != nil {
		return nil, err
	}
	return &complaint, nil
}

type categoriesResponse struct {
	Categories []models.Category `json:"categories"`
}

// Categories возвращает справочник категорий жалоб.
func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	var resp categoriesResponse
	if err := c.getJSON(ctx, "/api/categories", &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

type paymentsResponse struct {
	Payments []models.Payment `json:"payments"`
}

// Payments возвращает историю платежей владельца токена.
func (c *Client) Payments(ctx context.Context) ([]models.Payment, error) {
	var resp paymentsResponse
	if err := c.getJSON(ctx, "/api/payments", &resp); err != nil {
		return nil, err
	}
	return resp.Payments, nil
}

type paymentMethodsResponse struct {
	Methods []models.PaymentMethod `json:"payment_methods"`
}

// PaymentMethods возвращает доступные способы оплаты.
func (c *Client) PaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	var resp paymentMethodsResponse
	if err := c.getJSON(ctx, "/api/payment-methods", &resp); err != nil {
		return nil, err
	}
	return resp.Methods, nil
}

// SubscriptionPrice возвращает действующую стоимость подписки.
func (c *Client) SubscriptionPrice(ctx context.Context) (*models.SubscriptionPrice, error) {
	var price models.SubscriptionPrice
	if err := c.getJSON(ctx, "/api/subscription-price", &price); err != nil {
		return nil, err
	}
	return &price, nil
}

// SubmitPayment отправляет подтверждение оплаты на рассмотрение комитета.
func (c *Client) SubmitPayment(ctx context.Context, reqBody models.DummyPayment) error {
	return c.postJSON(ctx, "/api/payment/submit", reqBody, nil)
}

// DashboardStats возвращает агрегированную статистику для главного экрана.
func (c *Client) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	if err := c.getJSON(ctx, "/api/dashboard/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
