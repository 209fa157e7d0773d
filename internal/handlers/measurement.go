package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/athlete-performance-api/internal/dto"
	apierrors "github.com/yukikurage/athlete-performance-api/internal/errors"
	"github.com/yukikurage/athlete-performance-api/internal/middleware"
	"github.com/yukikurage/athlete-performance-api/internal/services"
	"github.com/yukikurage/athlete-performance-api/internal/utils"
	"go.uber.org/zap"
)

type MeasurementHandler struct {
	measurementService *services.MeasurementService
	log                *zap.Logger
}

func NewMeasurementHandler(measurementService *services.MeasurementService, log *zap.Logger) *MeasurementHandler {
	return &MeasurementHandler{
		measurementService: measurementService,
		log:                log,
	}
}

// ListMeasurements returns one page of measurements, newest first
func (h *MeasurementHandler) ListMeasurements(c *gin.Context) {
	q, ok := bindFilterQuery(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	input := q.listInput()
	input.Page = params.Page
	input.PageSize = params.Limit

	ms, total, err := h.measurementService.ListMeasurements(middleware.GetScope(c), input)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.MeasurementListResponse{
		Measurements: dto.ToMeasurementDTOs(ms),
		Pagination: dto.PaginationDTO{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// CreateMeasurement records one test result. The value is kept as the
// submitted literal so it can be validated before storage.
func (h *MeasurementHandler) CreateMeasurement(c *gin.Context) {
	type CreateMeasurementRequest struct {
		AthleteID     uint64      `json:"athlete_id" binding:"required"`
		Metric        string      `json:"metric" binding:"required"`
		Value         json.Number `json:"value" binding:"required"`
		Units         string      `json:"units"`
		Date          string      `json:"date" binding:"required"`
		FlyInDistance *float64    `json:"fly_in_distance"`
		Notes         string      `json:"notes"`
	}

	var req CreateMeasurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	date, err := time.Parse(dto.DateLayout, req.Date)
	if err != nil {
		apierrors.BadRequest(c, "date must be YYYY-MM-DD")
		return
	}

	m, affected, err := h.measurementService.CreateMeasurement(middleware.GetScope(c), services.CreateMeasurementInput{
		AthleteID:     req.AthleteID,
		Metric:        req.Metric,
		Value:         req.Value.String(),
		Units:         req.Units,
		Date:          date,
		FlyInDistance: req.FlyInDistance,
		Notes:         req.Notes,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewMutationResponse(dto.ToMeasurementDTO(*m), affected))
}

// UpdateMeasurement applies the fields present in the body
func (h *MeasurementHandler) UpdateMeasurement(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "measurement")
	if !ok {
		return
	}

	type UpdateMeasurementRequest struct {
		Metric        *string      `json:"metric"`
		Value         *json.Number `json:"value"`
		Units         *string      `json:"units"`
		Date          *string      `json:"date"`
		FlyInDistance *float64     `json:"fly_in_distance"`
		Notes         *string      `json:"notes"`
	}

	var req UpdateMeasurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateMeasurementInput{
		Metric:        req.Metric,
		Units:         req.Units,
		FlyInDistance: req.FlyInDistance,
		Notes:         req.Notes,
	}
	if req.Value != nil {
		v := req.Value.String()
		input.Value = &v
	}
	if req.Date != nil {
		date, err := time.Parse(dto.DateLayout, *req.Date)
		if err != nil {
			apierrors.BadRequest(c, "date must be YYYY-MM-DD")
			return
		}
		input.Date = &date
	}

	m, affected, err := h.measurementService.UpdateMeasurement(middleware.GetScope(c), id, input)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMutationResponse(dto.ToMeasurementDTO(*m), affected))
}

func (h *MeasurementHandler) DeleteMeasurement(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "measurement")
	if !ok {
		return
	}

	affected, err := h.measurementService.DeleteMeasurement(middleware.GetScope(c), id)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAffectedResponse(affected))
}
