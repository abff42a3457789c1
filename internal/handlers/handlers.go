package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/repack-io/backbreaker-api/internal/extraction"
	"github.com/repack-io/backbreaker-api/internal/repository"
	"github.com/repack-io/backbreaker-api/internal/series"
)

// RegisterRoutes wires the HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, seriesService *series.Service,
	extractionService *extraction.Service, authMiddleware gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/")
	if authMiddleware != nil {
		api.Use(authMiddleware)
	}

	api.POST("/series/:id/finalize", func(c *gin.Context) {
		seriesID, ok := parseID(c)
		if !ok {
			return
		}
		sync := c.Query("sync") == "true"

		result, err := seriesService.Finalize(c.Request.Context(), seriesID, sync)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "series not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	api.GET("/series/:id/report", func(c *gin.Context) {
		seriesID, ok := parseID(c)
		if !ok {
			return
		}

		snapshot, err := seriesService.GetReport(c.Request.Context(), seriesID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "no report for series"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, snapshot)
	})

	api.POST("/cards/:id/extract-details", func(c *gin.Context) {
		cardID, ok := parseID(c)
		if !ok {
			return
		}

		result, err := extractionService.ExtractCardDetails(c.Request.Context(), cardID)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
			case errors.Is(err, extraction.ErrAlreadyProcessed):
				c.JSON(http.StatusConflict, gin.H{"error": "card details already exist"})
			case errors.Is(err, extraction.ErrIncompleteExtraction):
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not extract required card attributes"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(http.StatusOK, result)
	})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
