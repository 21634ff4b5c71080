package appointment

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

// RegisterRoutes mounts appointment routes. /doctor/all must be registered
// before /:patientId so "doctor" is not taken as a record id.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	a := g.Group("/appointments")
	a.POST("/add", h.Create, auth.RequireRole(auth.RoleDoctor))
	a.GET("/doctor/all", h.ListForDoctor, auth.RequireRole(auth.RoleDoctor))
	a.GET("/:patientId", h.ListByPatient, auth.RequireRole(auth.RoleDoctor, auth.RolePatient))
	a.DELETE("/:id", h.Delete, auth.RequireRole(auth.RoleDoctor))
}

func callerID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}
	return id, nil
}

func (h *Handler) Create(c echo.Context) error {
	doctorID, err := callerID(c)
	if err != nil {
		return err
	}

	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	a, err := h.svc.Create(c.Request().Context(), doctorID, in)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields),
			errors.Is(err, ErrInvalidDate),
			errors.Is(err, ErrInvalidTime),
			errors.Is(err, ErrInvalidStatus):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrPatientNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to schedule appointment")
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
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to list appointments")
		}
	}
	if list == nil {
		list = []*Appointment{}
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) ListForDoctor(c echo.Context) error {
	doctorID, err := callerID(c)
	if err != nil {
		return err
	}

	list, err := h.svc.ListForDoctor(c.Request().Context(), doctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list appointments")
	}
	if list == nil {
		list = []*Appointment{}
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}

	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete appointment")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Appointment deleted successfully"})
}
