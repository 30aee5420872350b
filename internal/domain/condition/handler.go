package condition

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Handler exposes the condition aggregate over HTTP.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/conditions", h.List)
	api.POST("/conditions/save", h.Save)
	api.DELETE("/conditions/:id", h.Delete)
}

// List returns every condition. ?refresh=true bypasses the cache.
func (h *Handler) List(c echo.Context) error {
	force := c.QueryParam("refresh") == "true"
	conditions, err := h.service.List(c.Request().Context(), force)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load conditions")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":    true,
		"conditions": conditions,
	})
}

// Save applies one admin batch. A partially failed batch still returns the
// outcome so the client can see what landed.
func (h *Handler) Save(c echo.Context) error {
	var batch SaveBatch
	if err := c.Bind(&batch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid save payload")
	}
	outcome, err := h.service.Save(c.Request().Context(), &batch)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
			"outcome": outcome,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"outcome": outcome,
	})
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid condition id")
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete condition")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}
