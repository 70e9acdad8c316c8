package services

import (
	"errors"
	"testing"

	"techfix-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// in-memory sqlite lives on a single connection
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.Ticket{},
		&models.TicketComment{},
		&models.Quote{},
		&models.Testimonial{},
		&models.Service{},
		&models.JWTBlacklist{},
	))

	return db
}

// seedClientGraph creates a client with 2 tickets (the first carrying
// 3 comments), 1 quote and 1 testimonial.
func seedClientGraph(t *testing.T, db *gorm.DB) *models.Client {
	t.Helper()

	client := models.Client{Name: "Ana Perez", Email: "a@b.com", Phone: "099123456"}
	require.NoError(t, db.Create(&client).Error)

	t1 := models.Ticket{Reference: "TF-AAAA0001", ClientID: client.ID, Subject: "PC no enciende", Description: "x", Status: models.TicketOpen, Priority: "HIGH"}
	t2 := models.Ticket{Reference: "TF-AAAA0002", ClientID: client.ID, Subject: "Pantalla rota", Description: "y", Status: models.TicketClosed, Priority: "LOW"}
	require.NoError(t, db.Create(&t1).Error)
	require.NoError(t, db.Create(&t2).Error)

	for i := 0; i < 3; i++ {
		comment := models.TicketComment{TicketID: t1.ID, AuthorName: "tech", Body: "seguimiento"}
		require.NoError(t, db.Create(&comment).Error)
	}

	quote := models.Quote{Reference: "QT-AAAA0001", ClientID: client.ID, Description: "presupuesto", Status: models.QuotePending}
	require.NoError(t, db.Create(&quote).Error)

	testimonial := models.Testimonial{ClientID: client.ID, AuthorName: client.Name, Content: "excelente", Rating: 5, Approved: true}
	require.NoError(t, db.Create(&testimonial).Error)

	return &client
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, cond string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if cond != "" {
		q = q.Where(cond, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func TestDeleteClientCascade(t *testing.T) {
	db := newTestDB(t)
	svc := NewClientService(db)
	client := seedClientGraph(t, db)

	report, err := svc.DeleteClientCascade(client.ID)
	require.NoError(t, err)

	assert.Equal(t, client.ID, report.Client.ID)
	assert.Equal(t, "Ana Perez", report.Client.Name)
	assert.Equal(t, "a@b.com", report.Client.Email)
	assert.Equal(t, int64(2), report.Related.Tickets)
	assert.Equal(t, int64(1), report.Related.Quotes)
	assert.Equal(t, int64(1), report.Related.Testimonials)

	// nothing referencing the client survives
	assert.Zero(t, countRows(t, db, &models.Ticket{}, "client_id = ?", client.ID))
	assert.Zero(t, countRows(t, db, &models.TicketComment{}, ""))
	assert.Zero(t, countRows(t, db, &models.Quote{}, "client_id = ?", client.ID))
	assert.Zero(t, countRows(t, db, &models.Testimonial{}, "client_id = ?", client.ID))
	assert.Zero(t, countRows(t, db, &models.Client{}, "id = ?", client.ID))
}

func TestDeleteClientCascadeIsolation(t *testing.T) {
	db := newTestDB(t)
	svc := NewClientService(db)
	doomed := seedClientGraph(t, db)

	other := models.Client{Name: "Otro", Email: "otro@b.com"}
	require.NoError(t, db.Create(&other).Error)
	otherTicket := models.Ticket{Reference: "TF-BBBB0001", ClientID: other.ID, Subject: "s", Description: "d", Status: models.TicketOpen, Priority: "LOW"}
	require.NoError(t, db.Create(&otherTicket).Error)
	otherComment := models.TicketComment{TicketID: otherTicket.ID, AuthorName: "tech", Body: "nota"}
	require.NoError(t, db.Create(&otherComment).Error)

	_, err := svc.DeleteClientCascade(doomed.ID)
	require.NoError(t, err)

	// the other client's graph is untouched
	assert.Equal(t, int64(1), countRows(t, db, &models.Ticket{}, "client_id = ?", other.ID))
	assert.Equal(t, int64(1), countRows(t, db, &models.TicketComment{}, "ticket_id = ?", otherTicket.ID))
}

func TestDeleteClientCascadeRollback(t *testing.T) {
	db := newTestDB(t)
	svc := NewClientService(db)
	client := seedClientGraph(t, db)

	// force the final client-row delete to fail inside the transaction
	err := db.Callback().Delete().Before("gorm:delete").Register("fail_client_delete", func(tx *gorm.DB) {
		if tx.Statement.Table == "clients" {
			tx.AddError(errors.New("simulated constraint violation"))
		}
	})
	require.NoError(t, err)
	defer db.Callback().Delete().Remove("fail_client_delete")

	_, err = svc.DeleteClientCascade(client.ID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrClientNotFound)

	// every dependent row is back: the transaction rolled back whole
	assert.Equal(t, int64(1), countRows(t, db, &models.Client{}, "id = ?", client.ID))
	assert.Equal(t, int64(2), countRows(t, db, &models.Ticket{}, "client_id = ?", client.ID))
	assert.Equal(t, int64(3), countRows(t, db, &models.TicketComment{}, ""))
	assert.Equal(t, int64(1), countRows(t, db, &models.Quote{}, "client_id = ?", client.ID))
	assert.Equal(t, int64(1), countRows(t, db, &models.Testimonial{}, "client_id = ?", client.ID))
}

func TestDeleteClientCascadeNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewClientService(db)
	seedClientGraph(t, db)

	before := countRows(t, db, &models.Ticket{}, "")

	report, err := svc.DeleteClientCascade(99999)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrClientNotFound)

	// zero writes happened
	assert.Equal(t, before, countRows(t, db, &models.Ticket{}, ""))
}

func TestDeleteClientCascadeReportCountsFromTransaction(t *testing.T) {
	db := newTestDB(t)
	svc := NewClientService(db)
	client := seedClientGraph(t, db)

	// a ticket created between the fetch and the transaction must still
	// be counted, since counts come from the deletes themselves
	extra := models.Ticket{Reference: "TF-CCCC0001", ClientID: client.ID, Subject: "late", Description: "z", Status: models.TicketOpen, Priority: "LOW"}
	require.NoError(t, db.Create(&extra).Error)

	report, err := svc.DeleteClientCascade(client.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), report.Related.Tickets)
}

func TestCascadeOrder(t *testing.T) {
	// comments depend on tickets, so they must come first; everything
	// precedes the client row, which is deleted outside the list
	tables := make([]string, 0, len(CascadeOrder))
	for _, step := range CascadeOrder {
		tables = append(tables, step.Table)
	}
	assert.Equal(t, []string{"ticket_comments", "testimonials", "tickets", "quotes"}, tables)
}

func TestFindOrCreateByEmail(t *testing.T) {
	db := newTestDB(t)
	svc := NewClientService(db)

	first, err := svc.FindOrCreateByEmail("Ana", "ana@b.com", "099")
	require.NoError(t, err)

	second, err := svc.FindOrCreateByEmail("Ana Maria", "ana@b.com", "098")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(1), countRows(t, db, &models.Client{}, ""))
}

func TestGetClientWithCounts(t *testing.T) {
	db := newTestDB(t)
	svc := NewClientService(db)
	client := seedClientGraph(t, db)

	out, err := svc.GetClientWithCounts(client.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Counts.Tickets)
	assert.Equal(t, int64(1), out.Counts.Quotes)
	assert.Equal(t, int64(1), out.Counts.Testimonials)

	_, err = svc.GetClientWithCounts(12345)
	assert.ErrorIs(t, err, ErrClientNotFound)
}
