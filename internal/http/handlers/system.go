package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shuttle/internal/utils"
)

func (h Handler) Health(c *gin.Context) {
	respondData(c, http.StatusOK, "campus shuttle backend is running", gin.H{
		"status": "ok",
		"time":   utils.NowUTC(),
	})
}

func (h Handler) DBCheck(c *gin.Context) {
	if h.Ping == nil {
		respondData(c, http.StatusOK, "no database configured", gin.H{"status": "skipped"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Ping(ctx); err != nil {
		utils.LogError(ctx, "http", "db_check", "database ping failed", err)
		respondError(c, http.StatusInternalServerError, "persistence_error", "database is unreachable", nil)
		return
	}
	respondData(c, http.StatusOK, "database connection OK", gin.H{"status": "ok"})
}
