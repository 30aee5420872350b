package wizard

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dentiq/therawizard/pkg/pagination"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/wizard")
	g.GET("/conditions", h.Conditions)
	g.GET("/conditions/:name/patient-types", h.PatientTypes)
	g.GET("/conditions/:name/phases", h.Phases)
	g.GET("/recommendations", h.Recommend)
}

func (h *Handler) Conditions(c echo.Context) error {
	summaries, err := h.service.Conditions(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load conditions")
	}
	p := pagination.FromContext(c)
	start, end := p.Bounds(len(summaries))
	return c.JSON(http.StatusOK, pagination.NewResponse(summaries[start:end], len(summaries), p))
}

func (h *Handler) PatientTypes(c echo.Context) error {
	types, err := h.service.PatientTypes(c.Request().Context(), c.Param("name"))
	if err != nil {
		return wizardError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"patientTypes": types})
}

func (h *Handler) Phases(c echo.Context) error {
	phases, err := h.service.Phases(c.Request().Context(), c.Param("name"))
	if err != nil {
		return wizardError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"phases": phases})
}

func (h *Handler) Recommend(c echo.Context) error {
	name := c.QueryParam("condition")
	patientType := c.QueryParam("patientType")
	phase := c.QueryParam("phase")
	if name == "" || patientType == "" || phase == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "condition, patientType and phase are required")
	}
	rec, err := h.service.Recommend(c.Request().Context(), name, patientType, phase)
	if err != nil {
		return wizardError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func wizardError(err error) error {
	switch {
	case errors.Is(err, ErrConditionNotFound), errors.Is(err, ErrPhaseNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "wizard lookup failed")
	}
}
