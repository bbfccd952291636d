package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	timelinedomain "github.com/orbitfall/tradewind/internal/timeline/domain"
)

// Timeline lays active contracts out into non-overlapping display lanes.
func (s *Server) Timeline(c *gin.Context) {
	start, err := requireTime(c, "start", false)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	end, err := requireTime(c, "end", true)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	placements, err := s.timelineSvc.Layout(c.Request.Context(), timelinedomain.Window{Start: start, End: end})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"placements": placements})
}
