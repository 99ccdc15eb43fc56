package export

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinichq/clinic-server/internal/domain/patient"
	"github.com/clinichq/clinic-server/internal/platform/auth"
)

type Handler struct {
	patients *patient.Service
}

func NewHandler(patients *patient.Service) *Handler {
	return &Handler{patients: patients}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/export.xlsx", h.ExportWorkbook)
	api.GET("/patients/:id/report.pdf", h.ExportReport)
	api.GET("/patients/:id/cards/:kind", h.PrintCard)
}

func (h *Handler) ExportWorkbook(c echo.Context) error {
	actor, _ := auth.ActorFromContext(c.Request().Context())
	patients, err := h.patients.List(c.Request().Context(), actor)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	data, err := Workbook(patients)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="patients.xlsx"`)
	return c.Blob(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *Handler) ExportReport(c echo.Context) error {
	p, err := h.fetch(c)
	if err != nil {
		return err
	}
	data, err := Report(p)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="report-%s.pdf"`, p.ClinicID))
	return c.Blob(http.StatusOK, "application/pdf", data)
}

func (h *Handler) PrintCard(c echo.Context) error {
	p, err := h.fetch(c)
	if err != nil {
		return err
	}
	data, err := Card(p, c.Param("kind"))
	if err != nil {
		if errors.Is(err, ErrUnknownKind) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.HTMLBlob(http.StatusOK, data)
}

func (h *Handler) fetch(c echo.Context) (*patient.Patient, error) {
	actor, _ := auth.ActorFromContext(c.Request().Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.patients.Get(c.Request().Context(), actor, id)
	if err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		if errors.Is(err, patient.ErrNotAuthenticated) {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return p, nil
}
