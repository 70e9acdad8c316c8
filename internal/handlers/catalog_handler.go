package handlers

import (
	"net/http"
	"time"

	"techfix-backend/internal/cache"
	"techfix-backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CatalogHandler groups the remaining admin surfaces: service catalog
// CRUD, quote management, testimonial moderation and dashboard stats.
type CatalogHandler struct {
	db    *gorm.DB
	cache *cache.CacheManager
}

func NewCatalogHandler(db *gorm.DB, cacheMgr *cache.CacheManager) *CatalogHandler {
	return &CatalogHandler{db: db, cache: cacheMgr}
}

// --- Services ---

func (h *CatalogHandler) ListServices(c *gin.Context) {
	var services []models.Service
	if err := h.db.Order("name ASC").Find(&services).Error; err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch services"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

func (h *CatalogHandler) CreateService(c *gin.Context) {
	var req ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	var existing models.Service
	if err := h.db.Where("slug = ?", req.Slug).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Slug already in use"})
		return
	}

	service := models.Service{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       req.Price,
		Active:      true,
	}
	if req.Active != nil {
		service.Active = *req.Active
	}
	if err := h.db.Create(&service).Error; err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create service"})
		return
	}

	h.cache.Delete(cache.KeyServices)

	c.JSON(http.StatusCreated, service)
}

func (h *CatalogHandler) UpdateService(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid service id"})
		return
	}

	var service models.Service
	if err := h.db.First(&service, id).Error; err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "service not found"})
		return
	}

	var req ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	service.Name = req.Name
	service.Slug = req.Slug
	service.Description = req.Description
	service.Price = req.Price
	if req.Active != nil {
		service.Active = *req.Active
	}

	if err := h.db.Save(&service).Error; err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to update service"})
		return
	}

	h.cache.Delete(cache.KeyServices)

	c.JSON(http.StatusOK, service)
}

func (h *CatalogHandler) DeleteService(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid service id"})
		return
	}

	var service models.Service
	if err := h.db.First(&service, id).Error; err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "service not found"})
		return
	}

	// quotes keep their service_id pointer; detach instead of cascading
	if err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Quote{}).Where("service_id = ?", id).Update("service_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&service).Error
	}); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to delete service", Details: err.Error()})
		return
	}

	h.cache.Delete(cache.KeyServices)

	c.JSON(http.StatusOK, SuccessResponse{Message: "Service deleted"})
}

// --- Quotes ---

func (h *CatalogHandler) ListQuotes(c *gin.Context) {
	query := h.db.Model(&models.Quote{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var quotes []models.Quote
	if err := query.Order("created_at DESC").Limit(200).Find(&quotes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch quotes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}

func (h *CatalogHandler) UpdateQuote(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid quote id"})
		return
	}

	var quote models.Quote
	if err := h.db.First(&quote, id).Error; err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "quote not found"})
		return
	}

	var req UpdateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	if req.Status != "" {
		switch req.Status {
		case models.QuotePending, models.QuoteSent, models.QuoteAccepted, models.QuoteRejected:
			quote.Status = req.Status
		default:
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid quote status"})
			return
		}
	}
	if req.Amount != nil {
		quote.Amount = req.Amount
	}

	if err := h.db.Save(&quote).Error; err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to update quote"})
		return
	}

	c.JSON(http.StatusOK, quote)
}

// --- Testimonials ---

func (h *CatalogHandler) ListPendingTestimonials(c *gin.Context) {
	var rows []models.Testimonial
	if err := h.db.Where("approved = ?", false).Order("created_at ASC").Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch testimonials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"testimonials": rows})
}

func (h *CatalogHandler) ApproveTestimonial(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid testimonial id"})
		return
	}

	var testimonial models.Testimonial
	if err := h.db.First(&testimonial, id).Error; err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "testimonial not found"})
		return
	}

	if err := h.db.Model(&testimonial).Update("approved", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to approve testimonial"})
		return
	}

	h.cache.Delete(cache.KeyTestimonials)

	c.JSON(http.StatusOK, SuccessResponse{Message: "Testimonial approved"})
}

func (h *CatalogHandler) DeleteTestimonial(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid testimonial id"})
		return
	}

	var testimonial models.Testimonial
	if err := h.db.First(&testimonial, id).Error; err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "testimonial not found"})
		return
	}

	if err := h.db.Delete(&testimonial).Error; err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to delete testimonial"})
		return
	}

	h.cache.Delete(cache.KeyTestimonials)

	c.JSON(http.StatusOK, SuccessResponse{Message: "Testimonial deleted"})
}

// --- Dashboard ---

// GetStats powers the admin dashboard counters. Cached briefly; the
// cache entry is invalidated whenever a ticket update is published.
func (h *CatalogHandler) GetStats(c *gin.Context) {
	var cached StatsResponse
	if found, err := h.cache.Get(cache.KeyStats, &cached); found && err == nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	var stats StatsResponse
	h.db.Model(&models.Client{}).Count(&stats.Clients)
	h.db.Model(&models.Ticket{}).Count(&stats.Tickets)
	h.db.Model(&models.Ticket{}).Where("status = ?", models.TicketOpen).Count(&stats.OpenTickets)
	h.db.Model(&models.Quote{}).Where("status = ?", models.QuotePending).Count(&stats.PendingQuotes)
	h.db.Model(&models.Testimonial{}).Where("approved = ?", false).Count(&stats.PendingTestimonials)
	stats.TicketsToday = h.cache.TicketsToday()
	stats.GeneratedAt = time.Now()

	h.cache.Set(cache.KeyStats, stats, 5*time.Minute)

	c.JSON(http.StatusOK, stats)
}

// Request/Response structures
type ServiceRequest struct {
	Name        string   `json:"name" binding:"required"`
	Slug        string   `json:"slug" binding:"required"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Active      *bool    `json:"active"`
}

type UpdateQuoteRequest struct {
	Status string   `json:"status"`
	Amount *float64 `json:"amount"`
}

type StatsResponse struct {
	Clients             int64     `json:"clients"`
	Tickets             int64     `json:"tickets"`
	OpenTickets         int64     `json:"open_tickets"`
	PendingQuotes       int64     `json:"pending_quotes"`
	PendingTestimonials int64     `json:"pending_testimonials"`
	TicketsToday        int64     `json:"tickets_today"`
	GeneratedAt         time.Time `json:"generated_at"`
}
