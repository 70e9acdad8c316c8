package models

import "time"

// Admin panel users
type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	Name         string `gorm:"type:varchar(255);not null"`
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string `gorm:"type:varchar(255);not null"`
	Role         string `gorm:"type:varchar(20);not null;default:ADMIN"`
	Active       bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (User) TableName() string {
	return "users"
}

// Clients (customers). Tickets, quotes and testimonials reference a
// client through client_id; no database-level cascade is configured,
// the deletion order is owned by the application.
type Client struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"type:varchar(255);not null"`
	Email     string `gorm:"type:varchar(255);uniqueIndex;not null"`
	Phone     string `gorm:"type:varchar(50)"`
	Company   string `gorm:"type:varchar(255)"`
	Address   string `gorm:"type:varchar(500)"`
	Notes     string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Client) TableName() string {
	return "clients"
}

// Support tickets
type Ticket struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Reference   string `gorm:"type:varchar(100);uniqueIndex;not null"`
	ClientID    uint   `gorm:"index;not null"`
	Subject     string `gorm:"type:varchar(500);not null"`
	Description string `gorm:"type:text;not null"`
	Status      string `gorm:"type:varchar(20);not null;default:OPEN;index"`
	Priority    string `gorm:"type:varchar(20);not null;default:MEDIUM"`
	AssigneeID  *uint  `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Ticket) TableName() string {
	return "tickets"
}

// Ticket comments
type TicketComment struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	TicketID   uint   `gorm:"index;not null"`
	AuthorID   *uint  `gorm:"index"`
	AuthorName string `gorm:"type:varchar(255);not null"`
	Body       string `gorm:"type:text;not null"`
	Internal   bool   `gorm:"not null;default:false"`
	CreatedAt  time.Time
}

func (TicketComment) TableName() string {
	return "ticket_comments"
}

// Quote requests
type Quote struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Reference   string `gorm:"type:varchar(100);uniqueIndex;not null"`
	ClientID    uint   `gorm:"index;not null"`
	ServiceID   *uint  `gorm:"index"`
	Description string `gorm:"type:text;not null"`
	Status      string `gorm:"type:varchar(20);not null;default:PENDING;index"`
	Amount      *float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Quote) TableName() string {
	return "quotes"
}

// Testimonials with a 1-5 rating; only approved ones are public
type Testimonial struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	ClientID   uint   `gorm:"index;not null"`
	AuthorName string `gorm:"type:varchar(255);not null"`
	Content    string `gorm:"type:text;not null"`
	Rating     int    `gorm:"not null"`
	Approved   bool   `gorm:"not null;default:false;index"`
	CreatedAt  time.Time
}

func (Testimonial) TableName() string {
	return "testimonials"
}

// Service catalog shown on the public site
type Service struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"type:varchar(255);not null"`
	Slug        string `gorm:"type:varchar(255);uniqueIndex;not null"`
	Description string `gorm:"type:text"`
	Price       *float64
	Active      bool `gorm:"not null;default:true;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Service) TableName() string {
	return "services"
}

// JWT Blacklist
type JWTBlacklist struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Token     string    `gorm:"type:text;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}

func (JWTBlacklist) TableName() string {
	return "jwt_blacklist"
}

// Ticket statuses
const (
	TicketOpen       = "OPEN"
	TicketInProgress = "IN_PROGRESS"
	TicketResolved   = "RESOLVED"
	TicketClosed     = "CLOSED"
)

// Quote statuses
const (
	QuotePending  = "PENDING"
	QuoteSent     = "SENT"
	QuoteAccepted = "ACCEPTED"
	QuoteRejected = "REJECTED"
)

// User roles
const (
	RoleAdmin      = "ADMIN"
	RoleTechnician = "TECHNICIAN"
)
