package patient

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/smartmed/smartmed/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts patient routes. /profile/me must be registered
// before /:pid so "profile" is not taken as a PID.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	p := g.Group("/patients")
	p.POST("/add", h.Create, auth.RequireRole(auth.RoleDoctor))
	p.GET("/all", h.ListMine, auth.RequireRole(auth.RoleDoctor))
	p.GET("/profile/me", h.GetMyProfile, auth.RequireRole(auth.RolePatient))
	p.GET("/:pid", h.GetByPID, auth.RequireRole(auth.RoleDoctor, auth.RolePatient))
}

func (h *Handler) Create(c echo.Context) error {
	doctorID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}

	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.svc.Create(c.Request().Context(), doctorID, in)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields),
			errors.Is(err, ErrInvalidEmail),
			errors.Is(err, ErrInvalidGender),
			errors.Is(err, ErrUserExists):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "patient creation failed")
		}
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) ListMine(c echo.Context) error {
	doctorID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}

	patients, err := h.svc.ListMine(c.Request().Context(), doctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list patients")
	}
	if patients == nil {
		patients = []*Patient{}
	}
	return c.JSON(http.StatusOK, patients)
}

func (h *Handler) GetMyProfile(c echo.Context) error {
	userID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}

	p, err := h.svc.GetMyProfile(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNoProfile) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load profile")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetByPID(c echo.Context) error {
	p, err := h.svc.GetByPID(c.Request().Context(), c.Param("pid"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient id not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load patient")
	}
	return c.JSON(http.StatusOK, p)
}
