package services

import (
	"errors"
	"fmt"
	"strings"

	"techfix-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrBadTicketStatus = errors.New("invalid ticket status")
)

type TicketService struct {
	db *gorm.DB
}

func NewTicketService(db *gorm.DB) *TicketService {
	return &TicketService{db: db}
}

var validStatuses = map[string]bool{
	models.TicketOpen:       true,
	models.TicketInProgress: true,
	models.TicketResolved:   true,
	models.TicketClosed:     true,
}

// NewReference builds a human-readable ticket reference like
// TF-5D3A2B1C from a random UUID.
func NewReference() string {
	id := uuid.New().String()
	return "TF-" + strings.ToUpper(id[:8])
}

func (s *TicketService) CreateTicket(clientID uint, subject, description, priority string) (*models.Ticket, error) {
	if priority == "" {
		priority = "MEDIUM"
	}

	ticket := models.Ticket{
		Reference:   NewReference(),
		ClientID:    clientID,
		Subject:     subject,
		Description: description,
		Status:      models.TicketOpen,
		Priority:    priority,
	}
	if err := s.db.Create(&ticket).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (s *TicketService) GetTicket(id uint) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := s.db.First(&ticket, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

// UpdateStatus moves a ticket to a new status after validating it is
// one of the known states.
func (s *TicketService) UpdateStatus(id uint, status string) (*models.Ticket, error) {
	if !validStatuses[status] {
		return nil, fmt.Errorf("%w: %s", ErrBadTicketStatus, status)
	}

	ticket, err := s.GetTicket(id)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(ticket).Update("status", status).Error; err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *TicketService) AddComment(ticketID uint, authorID *uint, authorName, body string, internal bool) (*models.TicketComment, error) {
	if _, err := s.GetTicket(ticketID); err != nil {
		return nil, err
	}

	comment := models.TicketComment{
		TicketID:   ticketID,
		AuthorID:   authorID,
		AuthorName: authorName,
		Body:       body,
		Internal:   internal,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *TicketService) ListComments(ticketID uint) ([]models.TicketComment, error) {
	if _, err := s.GetTicket(ticketID); err != nil {
		return nil, err
	}

	var comments []models.TicketComment
	err := s.db.Where("ticket_id = ?", ticketID).Order("created_at ASC, id ASC").Find(&comments).Error
	return comments, err
}

// DeleteTicket removes a ticket and its comments in one transaction,
// comments first so no orphaned rows survive a partial failure.
func (s *TicketService) DeleteTicket(id uint) error {
	if _, err := s.GetTicket(id); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ticket_id = ?", id).Delete(&models.TicketComment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Ticket{}, id).Error
	})
}
