package lookup

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	repo   Repository
	syncer *Syncer
}

func NewHandler(repo Repository, syncer *Syncer) *Handler {
	return &Handler{repo: repo, syncer: syncer}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/lookups/categories", h.ListCategories)
	api.GET("/lookups/dentist-types", h.ListDentistTypes)
	api.GET("/lookups/phases", h.ListPhases)
	api.GET("/lookups/patient-types", h.ListPatientTypes)
	api.GET("/lookups/products", h.ListProducts)
	api.POST("/lookups/:kind/sync", h.Sync)
}

func (h *Handler) ListCategories(c echo.Context) error {
	items, err := h.repo.ListCategories(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListDentistTypes(c echo.Context) error {
	items, err := h.repo.ListDentistTypes(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListPhases(c echo.Context) error {
	items, err := h.repo.ListPhases(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListPatientTypes(c echo.Context) error {
	items, err := h.repo.ListPatientTypes(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListProducts(c echo.Context) error {
	items, err := h.repo.ListProducts(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

type syncRequest struct {
	Names   []string `json:"names"`
	Renames []Rename `json:"renames,omitempty"`
}

// kindFromParam maps the URL segment to the lookup table.
func kindFromParam(p string) (Kind, bool) {
	switch p {
	case "categories":
		return KindCategory, true
	case "dentist-types":
		return KindDentistType, true
	case "phases":
		return KindPhase, true
	case "patient-types":
		return KindPatientType, true
	case "products":
		return KindProduct, true
	}
	return "", false
}

func (h *Handler) Sync(c echo.Context) error {
	kind, ok := kindFromParam(c.Param("kind"))
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown lookup kind")
	}
	var req syncRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.syncer.Sync(c.Request().Context(), kind, req.Names, req.Renames)
	if err != nil {
		// Partial results are still returned: the pass continues past
		// individual table failures.
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
			"result":  result,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"result":  result,
	})
}
