package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /api/routes
func (h Handler) ListRoutes(c *gin.Context) {
	routes, err := h.Routes.ListRoutes(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondData(c, http.StatusOK, "", gin.H{"routes": routes})
}

// GET /api/routes/:id
func (h Handler) GetRoute(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	route, err := h.Routes.GetRoute(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondData(c, http.StatusOK, "", gin.H{"route": route})
}
