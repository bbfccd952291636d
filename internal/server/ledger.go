package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	tradeledgerdomain "github.com/orbitfall/tradewind/internal/tradeledger/domain"
)

// LedgerSummary aggregates fulfilled contracts over an inclusive window.
// Bare dates in "to" snap to end of day so a whole date is covered.
func (s *Server) LedgerSummary(c *gin.Context) {
	from, err := requireTime(c, "from", false)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	to, err := requireTime(c, "to", true)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	summary, err := s.ledgerSvc.Summarize(c.Request.Context(), tradeledgerdomain.Window{From: from, To: to})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
