package aiengine

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/smartmed/smartmed/internal/platform/auth"
	"github.com/smartmed/smartmed/internal/platform/filestore"
)

// Handler exposes the AI proxy endpoints. All routes are doctor only.
type Handler struct {
	client *Client
	files  filestore.Store
	logger zerolog.Logger
}

// NewHandler creates a new AI proxy handler.
func NewHandler(client *Client, files filestore.Store, logger zerolog.Logger) *Handler {
	return &Handler{client: client, files: files, logger: logger}
}

// RegisterRoutes mounts the AI routes on the supplied group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	ai := g.Group("/ai", auth.RequireRole(auth.RoleDoctor))
	ai.POST("/treatment-suggestion", h.handleTreatmentSuggestion)
	ai.POST("/analyze-vitals", h.handleAnalyzeVitals)
	ai.POST("/suggest-medicines", h.handleSuggestMedicines)
	ai.POST("/summarize-report", h.handleSummarizeReport)
}

func (h *Handler) handleTreatmentSuggestion(c echo.Context) error {
	var req TreatmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Diagnosis == "" && req.Symptoms == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "diagnosis or symptoms is required")
	}

	out, err := h.client.GenerateTreatment(c.Request().Context(), req)
	if err != nil {
		h.logger.Error().Err(err).Msg("treatment suggestion failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "AI Error")
	}
	return c.JSONBlob(http.StatusOK, out)
}

func (h *Handler) handleAnalyzeVitals(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil || len(body) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if !json.Valid(body) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	out, err := h.client.AnalyzeVitals(c.Request().Context(), json.RawMessage(body))
	if err != nil {
		h.logger.Error().Err(err).Msg("vitals analysis failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "AI Error")
	}
	return c.JSONBlob(http.StatusOK, out)
}

func (h *Handler) handleSuggestMedicines(c echo.Context) error {
	var req MedicineRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Symptoms == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "symptoms is required")
	}

	out, err := h.client.SuggestMedicines(c.Request().Context(), req)
	if err != nil {
		h.logger.Error().Err(err).Msg("medicine suggestion failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "AI Error")
	}
	return c.JSONBlob(http.StatusOK, out)
}

type summarizeRequest struct {
	FileName string `json:"fileName"`
}

func (h *Handler) handleSummarizeReport(c echo.Context) error {
	var req summarizeRequest
	if err := c.Bind(&req); err != nil || req.FileName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "fileName is required")
	}

	rc, err := h.files.Open(c.Request().Context(), req.FileName)
	if err != nil {
		if errors.Is(err, filestore.ErrFileNotFound) || errors.Is(err, filestore.ErrInvalidFileName) {
			return echo.NewHTTPError(http.StatusNotFound, "report file not found")
		}
		h.logger.Error().Err(err).Str("file", req.FileName).Msg("open report file failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to summarize report")
	}
	defer rc.Close()

	out, err := h.client.SummarizeReport(c.Request().Context(), req.FileName, rc)
	if err != nil {
		h.logger.Error().Err(err).Str("file", req.FileName).Msg("report summarization failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to summarize report")
	}
	return c.JSONBlob(http.StatusOK, out)
}
