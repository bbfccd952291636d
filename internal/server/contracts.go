package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ListContracts returns the canonical view of every tracked contract.
func (s *Server) ListContracts(c *gin.Context) {
	states, err := s.contractSvc.ResolveAll(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contracts": states})
}

// ContractStats summarizes the tracked contract population.
func (s *Server) ContractStats(c *gin.Context) {
	stats, err := s.contractSvc.Stats(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetContract returns one contract's canonical state.
func (s *Server) GetContract(c *gin.Context) {
	state, err := s.contractSvc.Resolve(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// ContractHistory returns every observation recorded for one contract, in
// canonical precedence order.
func (s *Server) ContractHistory(c *gin.Context) {
	history, err := s.snapshotSvc.History(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": history})
}
