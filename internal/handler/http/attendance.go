package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	TriggerCalculation(w http.ResponseWriter, r *http.Request)
	GetBatchStatus(w http.ResponseWriter, r *http.Request)
	RecalculateDay(w http.ResponseWriter, r *http.Request)
	ListDailyRecords(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	recalculationService attendance.RecalculationService
}

func NewAttendanceHandler(recalculationService attendance.RecalculationService) AttendanceHandler {
	return &attendanceHandlerImpl{
		recalculationService: recalculationService,
	}
}

// TriggerCalculation implements AttendanceHandler.
func (h *attendanceHandlerImpl) TriggerCalculation(w http.ResponseWriter, r *http.Request) {
	var req attendance.TriggerCalculationRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("TriggerCalculation decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.recalculationService.TriggerCalculation(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Accepted(w, "Recalculation scheduled", result)
}

// GetBatchStatus implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetBatchStatus(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")
	if batchID == "" {
		response.BadRequest(w, "Batch ID is required", nil)
		return
	}

	status, err := h.recalculationService.GetBatchStatus(r.Context(), batchID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, status)
}

// RecalculateDay implements AttendanceHandler.
func (h *attendanceHandlerImpl) RecalculateDay(w http.ResponseWriter, r *http.Request) {
	var req attendance.RecalculateDayRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("RecalculateDay decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	records, err := h.recalculationService.RecalculateDay(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance recalculated", records)
}

// ListDailyRecords implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListDailyRecords(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := attendance.DailyRecordFilter{
		EmployeeID: query.Get("employee_id"),
		Date:       query.Get("date"),
	}

	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	records, err := h.recalculationService.ListDailyRecords(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, records)
}
