package alert

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/smartmed/smartmed/internal/domain/patient"
	"github.com/smartmed/smartmed/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	a := g.Group("/alerts")
	a.POST("/add", h.Create, auth.RequireRole(auth.RoleDoctor))
	a.GET("/doctor/all", h.ListUnresolved, auth.RequireRole(auth.RoleDoctor))
	a.GET("/patient/:patientId", h.ListByPatient, auth.RequireRole(auth.RoleDoctor, auth.RolePatient))
	a.PUT("/:id/resolve", h.Resolve, auth.RequireRole(auth.RoleDoctor))
}

func callerID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}
	return id, nil
}

func (h *Handler) Create(c echo.Context) error {
	creatorID, err := callerID(c)
	if err != nil {
		return err
	}

	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	a, err := h.svc.Create(c.Request().Context(), creatorID, in)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields), errors.Is(err, ErrInvalidLevel):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrPatientNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to add alert")
		}
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	list, err := h.svc.ListByPatient(c.Request().Context(), patientID, caller,
		auth.RoleFromContext(c.Request().Context()))
	if err != nil {
		switch {
		case errors.Is(err, patient.ErrAccessDenied):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, patient.ErrNoProfile):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to list alerts")
		}
	}
	if list == nil {
		list = []*Alert{}
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) ListUnresolved(c echo.Context) error {
	list, err := h.svc.ListUnresolved(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list alerts")
	}
	if list == nil {
		list = []*Alert{}
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) Resolve(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid alert id")
	}

	a, err := h.svc.Resolve(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to resolve alert")
	}
	return c.JSON(http.StatusOK, a)
}
