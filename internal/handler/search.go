package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/model"
	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/repository"
	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/service"
)

// SearchHandler handles search-related HTTP requests.
type SearchHandler struct {
	searchService *service.SearchService
	repo          *repository.PostgresRepository
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(searchService *service.SearchService, repo *repository.PostgresRepository) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		repo:          repo,
	}
}

// Search handles POST /api/v1/search.
func (h *SearchHandler) Search(c *gin.Context) {
	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	response, err := h.searchService.Search(c.Request.Context(), &req)
	if err != nil {
		// Internal detail never reaches the caller; both-sources-down maps
		// to a generic try-again response.
		if errors.Is(err, service.ErrRetrievalUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Search is temporarily unavailable, please try again"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// PurgeCache handles POST /api/v1/cache/purge. Called by upstream
// data-reload jobs after a bulk import.
func (h *SearchHandler) PurgeCache(c *gin.Context) {
	var req model.PurgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	purged := h.searchService.Purge(req.Prefix)
	c.JSON(http.StatusOK, model.PurgeResponse{Purged: purged})
}

// GetProperty handles GET /api/v1/properties/:id.
func (h *SearchHandler) GetProperty(c *gin.Context) {
	propertyIDStr := c.Param("id")
	propertyID, err := strconv.ParseInt(propertyIDStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
		return
	}

	property, err := h.repo.GetPropertyByID(c.Request.Context(), propertyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get property"})
		return
	}

	if property == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}

	c.JSON(http.StatusOK, property)
}
