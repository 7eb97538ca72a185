package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pdrpinto/astar/graphs/transit"
)

type routeResponse struct {
	From     string   `json:"from"`
	FromID   string   `json:"from_id"`
	To       string   `json:"to"`
	ToID     string   `json:"to_id"`
	Found    bool     `json:"found"`
	Stations []string `json:"stations"`
	Cost     float64  `json:"cost"`
	Cached   bool     `json:"cached"`
}

func (s *Server) handleRoute(c *gin.Context) {
	if s.options.Planner == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no transit network loaded"})
		return
	}
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to are required"})
		return
	}

	plan, err := s.options.Planner.Plan(c.Request.Context(), from, to)
	switch {
	case errors.Is(err, transit.ErrUnknownStation):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case err != nil:
		s.logger.Error("route failed", "from", from, "to", to, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "route failed"})
		return
	}

	stations := plan.Entry.Stations
	if stations == nil {
		stations = []string{}
	}
	c.JSON(http.StatusOK, routeResponse{
		From:     plan.From.Name,
		FromID:   plan.From.ID,
		To:       plan.To.Name,
		ToID:     plan.To.ID,
		Found:    plan.Entry.Found,
		Stations: stations,
		Cost:     plan.Entry.Cost,
		Cached:   plan.Cached,
	})
}
