package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-floodline/consensus"
	"go-floodline/types"
)

// VerifyReport triggers one verification pass. The body may carry a vision
// signal (e.g. freshly captured drone imagery analysis) which takes
// precedence over the media-derived fetch.
func VerifyReport(c *gin.Context, engine *consensus.Engine) {
	var vision *types.VisionResult
	if c.Request.ContentLength > 0 {
		var request struct {
			Depth       float64 `json:"depth" binding:"gte=0"`
			Severity    string  `json:"severity" binding:"required"`
			Description string  `json:"description"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		vision = &types.VisionResult{
			Depth:       request.Depth,
			Severity:    request.Severity,
			Description: request.Description,
		}
	}

	inc, err := engine.RunVerification(c.Request.Context(), c.Param("id"), vision)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, inc)
}

// VoteReport records one crowd vote.
func VoteReport(c *gin.Context, engine *consensus.Engine) {
	var request struct {
		VoterID   string `json:"voterId" binding:"required"`
		Direction string `json:"direction" binding:"required,oneof=up down"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inc, err := engine.RecordVote(c.Param("id"), request.VoterID, types.VoteDirection(request.Direction))
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, inc)
}
