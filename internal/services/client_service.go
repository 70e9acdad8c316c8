package services

import (
	"errors"

	"techfix-backend/internal/models"

	"gorm.io/gorm"
)

var ErrClientNotFound = errors.New("client not found")

type ClientService struct {
	db *gorm.DB
}

func NewClientService(db *gorm.DB) *ClientService {
	return &ClientService{db: db}
}

type DeletedClient struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type RelatedCounts struct {
	Tickets      int64 `json:"tickets"`
	Quotes       int64 `json:"quotes"`
	Testimonials int64 `json:"testimonials"`
}

// DeletionReport describes exactly what a cascade delete removed. The
// counts come from the transaction's own delete results, so they match
// what was deleted even if rows were created after the initial fetch.
type DeletionReport struct {
	Client  DeletedClient `json:"deletedClient"`
	Related RelatedCounts `json:"deletedRelatedData"`
}

// CascadeStep deletes one kind of dependent row for a client and
// reports how many rows went away.
type CascadeStep struct {
	Table string
	Run   func(tx *gorm.DB, clientID uint, ticketIDs []uint) (int64, error)
}

// CascadeOrder is the dependency order for removing everything that
// references a client. Comments reference tickets, so they go first;
// everything must go before the client row itself. Adding a new
// dependent entity means adding one step here.
var CascadeOrder = []CascadeStep{
	{
		Table: "ticket_comments",
		Run: func(tx *gorm.DB, clientID uint, ticketIDs []uint) (int64, error) {
			if len(ticketIDs) == 0 {
				return 0, nil
			}
			res := tx.Where("ticket_id IN ?", ticketIDs).Delete(&models.TicketComment{})
			return res.RowsAffected, res.Error
		},
	},
	{
		Table: "testimonials",
		Run: func(tx *gorm.DB, clientID uint, ticketIDs []uint) (int64, error) {
			res := tx.Where("client_id = ?", clientID).Delete(&models.Testimonial{})
			return res.RowsAffected, res.Error
		},
	},
	{
		Table: "tickets",
		Run: func(tx *gorm.DB, clientID uint, ticketIDs []uint) (int64, error) {
			res := tx.Where("client_id = ?", clientID).Delete(&models.Ticket{})
			return res.RowsAffected, res.Error
		},
	},
	{
		Table: "quotes",
		Run: func(tx *gorm.DB, clientID uint, ticketIDs []uint) (int64, error) {
			res := tx.Where("client_id = ?", clientID).Delete(&models.Quote{})
			return res.RowsAffected, res.Error
		},
	},
}

// DeleteClientCascade removes a client together with every row that
// references it, inside one transaction. Either everything goes or
// nothing does. Returns ErrClientNotFound when the id does not exist;
// any other error means the store rejected the transaction and the
// client is fully intact.
func (s *ClientService) DeleteClientCascade(clientID uint) (*DeletionReport, error) {
	var client models.Client
	if err := s.db.First(&client, clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	counts := make(map[string]int64, len(CascadeOrder))

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var ticketIDs []uint
		if err := tx.Model(&models.Ticket{}).Where("client_id = ?", clientID).Pluck("id", &ticketIDs).Error; err != nil {
			return err
		}

		for _, step := range CascadeOrder {
			n, err := step.Run(tx, clientID, ticketIDs)
			if err != nil {
				return err
			}
			counts[step.Table] = n
		}

		return tx.Delete(&models.Client{}, clientID).Error
	})
	if err != nil {
		return nil, err
	}

	return &DeletionReport{
		Client: DeletedClient{ID: client.ID, Name: client.Name, Email: client.Email},
		Related: RelatedCounts{
			Tickets:      counts["tickets"],
			Quotes:       counts["quotes"],
			Testimonials: counts["testimonials"],
		},
	}, nil
}

// FindOrCreateByEmail links public form submissions to an existing
// client record, creating one on first contact.
func (s *ClientService) FindOrCreateByEmail(name, email, phone string) (*models.Client, error) {
	var client models.Client
	err := s.db.Where("email = ?", email).First(&client).Error
	if err == nil {
		return &client, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	client = models.Client{Name: name, Email: email, Phone: phone}
	if err := s.db.Create(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

// ClientWithCounts is the admin detail view of a client.
type ClientWithCounts struct {
	models.Client
	Counts RelatedCounts `json:"related"`
}

func (s *ClientService) GetClientWithCounts(clientID uint) (*ClientWithCounts, error) {
	var client models.Client
	if err := s.db.First(&client, clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	out := &ClientWithCounts{Client: client}
	s.db.Model(&models.Ticket{}).Where("client_id = ?", clientID).Count(&out.Counts.Tickets)
	s.db.Model(&models.Quote{}).Where("client_id = ?", clientID).Count(&out.Counts.Quotes)
	s.db.Model(&models.Testimonial{}).Where("client_id = ?", clientID).Count(&out.Counts.Testimonials)
	return out, nil
}
