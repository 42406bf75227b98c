package stats

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const defaultLeaderboardLimit = 50

type StatsHandler struct {
	store *Store
}

func NewStatsHandler(store *Store) *StatsHandler {
	return &StatsHandler{store: store}
}

func (h *StatsHandler) LeaderboardHandler(ctx *gin.Context) {
	limit := defaultLeaderboardLimit
	if raw := ctx.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			ctx.String(http.StatusBadRequest, "invalid-limit")
			ctx.Abort()
			return
		}
		limit = parsed
	}

	ctx.JSON(http.StatusOK, h.store.Leaderboard(limit))
}
