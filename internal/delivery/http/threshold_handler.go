package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stockwatch/internal/domain"
	"stockwatch/internal/usecase"
)

type createThresholdRequest struct {
	Ticker    string      `json:"ticker" binding:"required"`
	Target    json.Number `json:"target" binding:"required"`
	Condition string      `json:"condition" binding:"required"`
}

type thresholdResponse struct {
	ID        uint      `json:"id"`
	Ticker    string    `json:"ticker"`
	Target    string    `json:"target"`
	Condition string    `json:"condition"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

// POST /thresholds
func (s *Server) createThreshold(c *gin.Context) {
	var req createThresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticker, target and condition are required"})
		return
	}

	threshold, err := s.thresholds.CreateThreshold(c.Request.Context(), currentUID(c), req.Ticker, req.Target.String(), req.Condition)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidTicker),
			errors.Is(err, usecase.ErrInvalidTarget),
			errors.Is(err, usecase.ErrInvalidCondition):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			s.logger.Error("failed to create threshold", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create threshold"})
		}
		return
	}

	c.JSON(http.StatusCreated, mapThresholdResponse(*threshold))
}

// GET /thresholds
func (s *Server) listThresholds(c *gin.Context) {
	thresholds, err := s.thresholds.ListThresholds(c.Request.Context(), currentUID(c))
	if err != nil {
		s.logger.Error("failed to list thresholds", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list thresholds"})
		return
	}

	out := make([]thresholdResponse, 0, len(thresholds))
	for _, threshold := range thresholds {
		out = append(out, mapThresholdResponse(threshold))
	}
	c.JSON(http.StatusOK, out)
}

// DELETE /thresholds/:id
func (s *Server) deleteThreshold(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid threshold id"})
		return
	}

	if err := s.thresholds.DeleteThreshold(c.Request.Context(), currentUID(c), uint(id)); err != nil {
		if errors.Is(err, usecase.ErrThresholdNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "threshold not found"})
			return
		}
		s.logger.Error("failed to delete threshold", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete threshold"})
		return
	}

	c.Status(http.StatusNoContent)
}

func mapThresholdResponse(threshold domain.Threshold) thresholdResponse {
	return thresholdResponse{
		ID:        threshold.ID,
		Ticker:    threshold.Ticker,
		Target:    threshold.Target,
		Condition: string(threshold.Condition),
		Enabled:   threshold.Enabled,
		CreatedAt: threshold.CreatedAt,
	}
}
