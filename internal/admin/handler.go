package admin

import (
	"errors"
	"net/http"
	"strconv"

	"intellect/internal/db"
	"intellect/internal/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler serves the admin endpoints for advocate management and usage
// browsing.
type Handler struct {
	db db.Service
}

// NewHandler creates an admin handler.
func NewHandler(dbService db.Service) *Handler {
	return &Handler{db: dbService}
}

type advocateRequest struct {
	SlNo        int     `json:"sl_no"`
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"short_description"`
	Skills      string  `json:"skills"`
	Experience  int     `json:"experience"`
	Gender      string  `json:"gender"`
	Rating      float64 `json:"rating"`
	Country     string  `json:"country" binding:"required"`
	Email       string  `json:"email"`
}

// ListAdvocatesHandler returns a page of advocates.
func (h *Handler) ListAdvocatesHandler(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}

	advocates, total, err := h.db.ListAdvocates(page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list advocates"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"advocates": advocates, "total": total, "page": page, "limit": limit})
}

// CreateAdvocateHandler adds one advocate.
func (h *Handler) CreateAdvocateHandler(c *gin.Context) {
	var req advocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	advocate := model.Advocate{
		SlNo:        req.SlNo,
		Name:        req.Name,
		Description: req.Description,
		Skills:      req.Skills,
		Experience:  req.Experience,
		Gender:      req.Gender,
		Rating:      req.Rating,
		Country:     req.Country,
		Email:       req.Email,
	}
	if err := h.db.CreateAdvocate(&advocate); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create advocate"})
		return
	}
	c.JSON(http.StatusCreated, advocate)
}

// GetAdvocateHandler returns one advocate by ID.
func (h *Handler) GetAdvocateHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid advocate ID"})
		return
	}

	advocate, err := h.db.GetAdvocate(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Advocate not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load advocate"})
		return
	}
	c.JSON(http.StatusOK, advocate)
}

// UpdateAdvocateHandler updates one advocate.
func (h *Handler) UpdateAdvocateHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid advocate ID"})
		return
	}

	advocate, err := h.db.GetAdvocate(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Advocate not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load advocate"})
		return
	}

	var req advocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	advocate.SlNo = req.SlNo
	advocate.Name = req.Name
	advocate.Description = req.Description
	advocate.Skills = req.Skills
	advocate.Experience = req.Experience
	advocate.Gender = req.Gender
	advocate.Rating = req.Rating
	advocate.Country = req.Country
	advocate.Email = req.Email

	if err := h.db.UpdateAdvocate(advocate); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update advocate"})
		return
	}
	c.JSON(http.StatusOK, advocate)
}

// DeleteAdvocateHandler removes one advocate.
func (h *Handler) DeleteAdvocateHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid advocate ID"})
		return
	}

	if err := h.db.DeleteAdvocate(uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete advocate"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Advocate deleted"})
}

// ListUsageHandler returns recent usage ledger rows, optionally filtered by
// identity and action type.
func (h *Handler) ListUsageHandler(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit < 1 || limit > 1000 {
		limit = 100
	}

	records, err := h.db.ListUsageRecords(c.Query("identity"), c.Query("action"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list usage records"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}
