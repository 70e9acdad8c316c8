package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"techfix-backend/internal/cache"
	"techfix-backend/internal/models"
	"techfix-backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TicketHandler exposes the admin ticket views: listing with filters,
// status updates, comments and deletion.
type TicketHandler struct {
	db            *gorm.DB
	ticketService *services.TicketService
	cache         *cache.CacheManager
}

func NewTicketHandler(db *gorm.DB, ticketService *services.TicketService, cacheMgr *cache.CacheManager) *TicketHandler {
	return &TicketHandler{db: db, ticketService: ticketService, cache: cacheMgr}
}

func (h *TicketHandler) ListTickets(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "25"))
	if perPage < 1 || perPage > 100 {
		perPage = 25
	}

	query := h.db.Model(&models.Ticket{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if clientID := c.Query("client_id"); clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}

	var total int64
	query.Count(&total)

	var tickets []models.Ticket
	if err := query.Order("created_at DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&tickets).Error; err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch tickets"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tickets":  tickets,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

func (h *TicketHandler) GetTicket(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid ticket id"})
		return
	}

	ticket, err := h.ticketService.GetTicket(id)
	if err != nil {
		if errors.Is(err, services.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch ticket"})
		return
	}

	comments, err := h.ticketService.ListComments(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch comments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ticket": ticket, "comments": comments})
}

// UpdateTicket changes status, priority or assignee.
func (h *TicketHandler) UpdateTicket(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid ticket id"})
		return
	}

	var req UpdateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	ticket, err := h.ticketService.GetTicket(id)
	if err != nil {
		if errors.Is(err, services.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch ticket"})
		return
	}

	if req.Status != "" {
		if _, err := h.ticketService.UpdateStatus(id, req.Status); err != nil {
			if errors.Is(err, services.ErrBadTicketStatus) {
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to update status"})
			return
		}
		ticket.Status = req.Status
	}

	updates := map[string]interface{}{}
	if req.Priority != "" {
		updates["priority"] = req.Priority
	}
	if req.AssigneeID != nil {
		updates["assignee_id"] = req.AssigneeID
	}
	if len(updates) > 0 {
		if err := h.db.Model(ticket).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to update ticket"})
			return
		}
	}

	h.cache.PublishTicketUpdate("ticket_updated", ticket.Reference, ticket.ID)

	c.JSON(http.StatusOK, ticket)
}

func (h *TicketHandler) AddComment(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid ticket id"})
		return
	}

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	userID := c.GetUint("user_id")
	userEmail := c.GetString("user_email")

	comment, err := h.ticketService.AddComment(id, &userID, userEmail, req.Body, req.Internal)
	if err != nil {
		if errors.Is(err, services.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to add comment"})
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func (h *TicketHandler) ListComments(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid ticket id"})
		return
	}

	comments, err := h.ticketService.ListComments(id)
	if err != nil {
		if errors.Is(err, services.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch comments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// DeleteTicket removes a ticket and its comments.
func (h *TicketHandler) DeleteTicket(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid ticket id"})
		return
	}

	if err := h.ticketService.DeleteTicket(id); err != nil {
		if errors.Is(err, services.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to delete ticket", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Ticket deleted"})
}

// Request/Response structures
type UpdateTicketRequest struct {
	Status     string `json:"status"`
	Priority   string `json:"priority"`
	AssigneeID *uint  `json:"assignee_id"`
}

type AddCommentRequest struct {
	Body     string `json:"body" binding:"required"`
	Internal bool   `json:"internal"`
}
