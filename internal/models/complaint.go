package models

import "time"

// Complaint представляет жалобу трейдера, как её возвращает /api/complaints.
type Complaint struct {
	ID          string    `json:"complaint_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category_name"`
	Status      string    `json:"status_name"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// Category — справочная категория жалоб с /api/categories.
type Category struct {
	ID   string `json:"category_id"`
	Name string `json:"category_name"`
}

// DummyComplaint используется для приёма данных новой жалобы до валидации
// и отправки на бэкенд.
type DummyComplaint struct {
	Title       string `json:"title" validate:"required,min=5,max=255"`
	Description string `json:"description" validate:"required,min=10"`
	CategoryID  string `json:"category_id" validate:"required"`
}

// DashboardStats — агрегированная статистика для главного экрана.
type DashboardStats struct {
	TotalComplaints    int `json:"total_complaints"`
	OpenComplaints     int `json:"open_complaints"`
	ResolvedComplaints int `json:"resolved_complaints"`
	PendingComplaints  int `json:"pending_complaints"`
}
