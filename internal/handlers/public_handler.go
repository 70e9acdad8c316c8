package handlers

import (
	"net/http"

	"techfix-backend/configs"
	"techfix-backend/internal/cache"
	"techfix-backend/internal/models"
	"techfix-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PublicHandler serves the marketing site forms: ticket creation,
// quote requests, testimonials and the service catalog.
type PublicHandler struct {
	db            *gorm.DB
	clientService *services.ClientService
	ticketService *services.TicketService
	cache         *cache.CacheManager
}

func NewPublicHandler(db *gorm.DB, clientService *services.ClientService, ticketService *services.TicketService, cacheMgr *cache.CacheManager) *PublicHandler {
	return &PublicHandler{
		db:            db,
		clientService: clientService,
		ticketService: ticketService,
		cache:         cacheMgr,
	}
}

// CreateTicket handles the contact form: links the sender to a client
// record by email and opens a ticket.
func (h *PublicHandler) CreateTicket(c *gin.Context) {
	var req CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	client, err := h.clientService.FindOrCreateByEmail(req.Name, req.Email, req.Phone)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to register client"})
		return
	}

	ticket, err := h.ticketService.CreateTicket(client.ID, req.Subject, req.Message, req.Priority)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create ticket"})
		return
	}

	h.cache.CountTicketToday()
	h.cache.PublishTicketUpdate("ticket_created", ticket.Reference, ticket.ID)

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Ticket created successfully",
		Data:    map[string]interface{}{"reference": ticket.Reference, "id": ticket.ID},
	})
}

// CreateQuote handles the quote-request form.
func (h *PublicHandler) CreateQuote(c *gin.Context) {
	var req CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	if req.ServiceID != nil {
		var svc models.Service
		if err := h.db.First(&svc, *req.ServiceID).Error; err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Unknown service"})
			return
		}
	}

	client, err := h.clientService.FindOrCreateByEmail(req.Name, req.Email, req.Phone)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to register client"})
		return
	}

	quote := models.Quote{
		Reference:   "QT-" + uuid.New().String()[:8],
		ClientID:    client.ID,
		ServiceID:   req.ServiceID,
		Description: req.Description,
		Status:      models.QuotePending,
	}
	if err := h.db.Create(&quote).Error; err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create quote"})
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Quote request received",
		Data:    map[string]interface{}{"reference": quote.Reference, "id": quote.ID},
	})
}

// ListTestimonials returns approved testimonials, cached.
func (h *PublicHandler) ListTestimonials(c *gin.Context) {
	var cached []TestimonialView
	if found, err := h.cache.Get(cache.KeyTestimonials, &cached); found && err == nil {
		c.JSON(http.StatusOK, gin.H{"testimonials": cached})
		return
	}

	var rows []models.Testimonial
	if err := h.db.Where("approved = ?", true).Order("created_at DESC").Limit(50).Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch testimonials"})
		return
	}

	views := make([]TestimonialView, 0, len(rows))
	for _, row := range rows {
		views = append(views, TestimonialView{
			ID:         row.ID,
			AuthorName: row.AuthorName,
			Content:    row.Content,
			Rating:     row.Rating,
			CreatedAt:  row.CreatedAt.Format("2006-01-02"),
		})
	}

	h.cache.Set(cache.KeyTestimonials, views, configs.AppConfig.CacheTTL)

	c.JSON(http.StatusOK, gin.H{"testimonials": views})
}

// CreateTestimonial accepts a testimonial with a 1-5 rating; it stays
// hidden until an admin approves it.
func (h *PublicHandler) CreateTestimonial(c *gin.Context) {
	var req CreateTestimonialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	if req.Rating < 1 || req.Rating > 5 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Rating must be between 1 and 5"})
		return
	}

	client, err := h.clientService.FindOrCreateByEmail(req.Name, req.Email, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to register client"})
		return
	}

	testimonial := models.Testimonial{
		ClientID:   client.ID,
		AuthorName: req.Name,
		Content:    req.Content,
		Rating:     req.Rating,
	}
	if err := h.db.Create(&testimonial).Error; err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to save testimonial"})
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{Message: "Testimonial submitted for review"})
}

// ListServices returns the active service catalog, cached.
func (h *PublicHandler) ListServices(c *gin.Context) {
	var cached []models.Service
	if found, err := h.cache.Get(cache.KeyServices, &cached); found && err == nil {
		c.JSON(http.StatusOK, gin.H{"services": cached})
		return
	}

	var rows []models.Service
	if err := h.db.Where("active = ?", true).Order("name ASC").Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch services"})
		return
	}

	h.cache.Set(cache.KeyServices, rows, configs.AppConfig.CacheTTL)

	c.JSON(http.StatusOK, gin.H{"services": rows})
}

// Request/Response structures
type CreateTicketRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Subject  string `json:"subject" binding:"required"`
	Message  string `json:"message" binding:"required"`
	Priority string `json:"priority"`
}

type CreateQuoteRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Phone       string `json:"phone"`
	ServiceID   *uint  `json:"service_id"`
	Description string `json:"description" binding:"required"`
}

type CreateTestimonialRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Content string `json:"content" binding:"required"`
	Rating  int    `json:"rating" binding:"required"`
}

type TestimonialView struct {
	ID         uint   `json:"id"`
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
	Rating     int    `json:"rating"`
	CreatedAt  string `json:"created_at"`
}
