package http

import (
	"encoding/json"
	"net/http"
	"time"

	"campus-assessment-service/internal/app"
	"campus-assessment-service/internal/domain"

	"go.uber.org/zap"
)

// APIHandler exposes the submission and reporting operations over plain
// HTTP. The caller's identity comes from the X-User-ID header; the service
// sits behind a gateway that authenticates requests before they reach us.
type APIHandler struct {
	service *app.AssessmentService
	logger  *zap.Logger
}

func NewAPIHandler(service *app.AssessmentService, logger *zap.Logger) *APIHandler {
	return &APIHandler{service: service, logger: logger}
}

func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/assessments/{id}/submissions", h.handleSubmit)
	mux.HandleFunc("GET /api/assessments/{id}/summary", h.handleSummary)
	mux.HandleFunc("GET /api/students/{id}/results", h.handleStudentResults)
	mux.HandleFunc("GET /api/courses/{id}/results", h.handleCourseResults)
}

type submitRequest struct {
	Answers json.RawMessage `json:"answers"`
}

type resultResponse struct {
	ID           string          `json:"id"`
	AssessmentID string          `json:"assessmentId"`
	CourseID     string          `json:"courseId"`
	UserID       string          `json:"userId"`
	Score        int             `json:"score"`
	Answers      json.RawMessage `json:"answers"`
	SubmittedAt  time.Time       `json:"submittedAt"`
	TimeTakenSec int             `json:"timeTakenSec"`
}

type submitResponse struct {
	Result    resultResponse         `json:"result"`
	Breakdown []domain.QuestionScore `json:"breakdown"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (h *APIHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing X-User-ID header", Code: "unauthorized"})
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Code: "malformed"})
		return
	}

	result, breakdown, err := h.service.Submit(r.Context(), userID, domain.Submission{
		AssessmentID: r.PathValue("id"),
		UserID:       userID,
		Answers:      req.Answers,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitResponse{Result: toResultResponse(result), Breakdown: breakdown})
}

func (h *APIHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetAssessmentSummary(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *APIHandler) handleStudentResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.GetStudentResults(r.Context(), r.PathValue("id"), r.URL.Query().Get("courseId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResultResponses(results))
}

func (h *APIHandler) handleCourseResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.GetCourseResults(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResultResponses(results))
}

func (h *APIHandler) writeError(w http.ResponseWriter, err error) {
	code := errorCode(err)
	status := http.StatusInternalServerError
	switch code {
	case "not_found":
		status = http.StatusNotFound
	case "conflict":
		status = http.StatusConflict
	case "expired":
		status = http.StatusUnprocessableEntity
	case "malformed":
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

func toResultResponse(result domain.Result) resultResponse {
	return resultResponse{
		ID:           result.ID,
		AssessmentID: result.AssessmentID,
		CourseID:     result.CourseID,
		UserID:       result.UserID,
		Score:        result.Score,
		Answers:      result.Answers,
		SubmittedAt:  result.SubmittedAt,
		TimeTakenSec: int(result.TimeTaken / time.Second),
	}
}

func toResultResponses(results []domain.Result) []resultResponse {
	out := make([]resultResponse, 0, len(results))
	for _, result := range results {
		out = append(out, toResultResponse(result))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
