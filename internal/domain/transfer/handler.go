package transfer

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// maxImportBytes bounds the request body; a full knowledge base export is
// well under this.
const maxImportBytes = 32 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/transfer")
	g.GET("/export", h.Export)
	g.POST("/import", h.Import)
}

func (h *Handler) Export(c echo.Context) error {
	doc, err := h.service.Export(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "export failed")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="therawizard-export.json"`)
	return c.JSON(http.StatusOK, doc)
}

func (h *Handler) Import(c echo.Context) error {
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxImportBytes))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read import body")
	}
	summary, err := h.service.Import(c.Request().Context(), raw)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"restored": summary,
	})
}
