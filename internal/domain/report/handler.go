package report

import (
	"errors"
	"fmt"
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

// RegisterRoutes mounts report routes. /file/:fileName and /upload must be
// registered before /:patientId.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	r := g.Group("/reports")
	r.POST("/upload", h.Upload, auth.RequireRole(auth.RoleDoctor))
	r.GET("/file/:fileName", h.Download, auth.RequireRole(auth.RoleDoctor, auth.RolePatient))
	r.GET("/:patientId", h.ListByPatient, auth.RequireRole(auth.RoleDoctor, auth.RolePatient))
}

func callerID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}
	return id, nil
}

func (h *Handler) Upload(c echo.Context) error {
	uploaderID, err := callerID(c)
	if err != nil {
		return err
	}

	patientID, err := uuid.Parse(c.FormValue("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrMissingFile.Error())
	}
	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read uploaded file")
	}
	defer src.Close()

	rep, err := h.svc.Upload(c.Request().Context(), uploaderID, UploadInput{
		PatientID:   patientID,
		ReportTitle: c.FormValue("reportTitle"),
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Content:     src,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFile), errors.Is(err, ErrNotPDF), errors.Is(err, ErrTooLarge):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrPatientNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to upload report")
		}
	}
	return c.JSON(http.StatusCreated, rep)
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
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to list reports")
		}
	}
	if list == nil {
		list = []*Report{}
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) Download(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}

	rep, rc, err := h.svc.OpenFile(c.Request().Context(), c.Param("fileName"), caller,
		auth.RoleFromContext(c.Request().Context()))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, patient.ErrAccessDenied):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, patient.ErrNoProfile):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to open report file")
		}
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`inline; filename=%q`, rep.FileName))
	return c.Stream(http.StatusOK, rep.MimeType, rc)
}
