package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"techfix-backend/internal/models"
	"techfix-backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ClientHandler exposes the admin client CRUD, including the cascading
// delete endpoint.
type ClientHandler struct {
	db            *gorm.DB
	clientService *services.ClientService
}

func NewClientHandler(db *gorm.DB, clientService *services.ClientService) *ClientHandler {
	return &ClientHandler{db: db, clientService: clientService}
}

// ListClients returns clients, newest first, with optional search on
// name/email and simple pagination.
func (h *ClientHandler) ListClients(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "25"))
	if perPage < 1 || perPage > 100 {
		perPage = 25
	}

	query := h.db.Model(&models.Client{})
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR email LIKE ?", like, like)
	}

	var total int64
	query.Count(&total)

	var clients []models.Client
	if err := query.Order("created_at DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&clients).Error; err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch clients"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"clients":  clients,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

// GetClient returns one client with counts of its related records.
func (h *ClientHandler) GetClient(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid client id"})
		return
	}

	client, err := h.clientService.GetClientWithCounts(id)
	if err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "client not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch client"})
		return
	}

	c.JSON(http.StatusOK, client)
}

func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	var existing models.Client
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Email already registered"})
		return
	}

	client := models.Client{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Company: req.Company,
		Address: req.Address,
		Notes:   req.Notes,
	}
	if err := h.db.Create(&client).Error; err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create client"})
		return
	}

	c.JSON(http.StatusCreated, client)
}

func (h *ClientHandler) UpdateClient(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid client id"})
		return
	}

	var client models.Client
	if err := h.db.First(&client, id).Error; err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "client not found"})
		return
	}

	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	client.Name = req.Name
	client.Email = req.Email
	client.Phone = req.Phone
	client.Company = req.Company
	client.Address = req.Address
	client.Notes = req.Notes

	if err := h.db.Save(&client).Error; err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to update client"})
		return
	}

	c.JSON(http.StatusOK, client)
}

// DeleteClient removes a client together with all of its tickets,
// ticket comments, quotes and testimonials in one transaction. This
// is destructive and irreversible; the UI asks for confirmation
// before calling it.
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid client id"})
		return
	}

	report, err := h.clientService.DeleteClientCascade(id)
	if err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "client not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to delete client",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":            "Client deleted successfully",
		"deletedClient":      report.Client,
		"deletedRelatedData": report.Related,
	})
}

func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return uint(id), err
}

// Request/Response structures
type ClientRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}
