package domain

import (
	"context"
	"time"
)

// User represents an account holder
type User struct {
	ID           int64
	Username     string // Unique username
	PasswordHash string // Bcrypt hashed password (never the plaintext)
	CreatedAt    time.Time
}

// Status is the lifecycle stage of a job application
type Status string

const (
	StatusWishlist     Status = "Wishlist"
	StatusApplied      Status = "Applied"
	StatusInterviewing Status = "Interviewing"
	StatusOffer        Status = "Offer"
	StatusRejected     Status = "Rejected"
)

// Statuses lists every valid status in board order
var Statuses = []Status{
	StatusWishlist,
	StatusApplied,
	StatusInterviewing,
	StatusOffer,
	StatusRejected,
}

// ValidStatus reports whether s is one of the five known statuses
func ValidStatus(s Status) bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Application is a single job-application record owned by exactly one user
type Application struct {
	ID          int64
	UserID      int64
	CompanyName string
	JobTitle    string
	Status      Status
	DateApplied string // free-text calendar date, may be empty
}

// UserRepository defines data access for users
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// ApplicationRepository defines data access for applications
type ApplicationRepository interface {
	Create(ctx context.Context, app *Application) error
	GetByID(ctx context.Context, id int64) (*Application, error)
	ListByUser(ctx context.Context, userID int64) ([]*Application, error)
	ListPage(ctx context.Context, userID int64, limit, offset int) ([]*Application, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
	Update(ctx context.Context, app *Application) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
	Delete(ctx context.Context, id int64) error
	StatusCounts(ctx context.Context, userID int64) (map[Status]int, error)
	GlobalStatusCounts(ctx context.Context) (map[Status]int, error)
	TopCompanies(ctx context.Context, userID int64, limit int) ([]ChartPoint, error)
}

// ChartPoint is one labeled bar in a chart series
type ChartPoint struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}
