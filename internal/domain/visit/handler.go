package visit

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinichq/clinic-server/internal/domain/patient"
	"github.com/clinichq/clinic-server/internal/platform/auth"
	"github.com/clinichq/clinic-server/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients/:id/visits", h.Log)
	api.GET("/patients/:id/visits", h.ListByPatient)
	api.GET("/stats", h.GetStats)
}

func (h *Handler) Log(c echo.Context) error {
	actor, _ := auth.ActorFromContext(c.Request().Context())
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	v, err := h.svc.Log(c.Request().Context(), actor, patientID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	actor, _ := auth.ActorFromContext(c.Request().Context())
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p := pagination.FromContext(c)
	visits, total, err := h.svc.ListByPatient(c.Request().Context(), actor, patientID, p.Limit, p.Offset)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(visits, total, p.Limit, p.Offset))
}

func (h *Handler) GetStats(c echo.Context) error {
	actor, _ := auth.ActorFromContext(c.Request().Context())
	stats, err := h.svc.Stats(c.Request().Context(), actor)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, patient.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	case errors.Is(err, patient.ErrNotAuthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
