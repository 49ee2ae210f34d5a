package handlers

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Its-me-GK/FaceMark/internal/attendance"
	"github.com/Its-me-GK/FaceMark/internal/database"
	"github.com/Its-me-GK/FaceMark/internal/imaging"
	"github.com/Its-me-GK/FaceMark/internal/recognition"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxBatchUploadSize bounds a multi-photo batch submission (64 MiB).
const maxBatchUploadSize = 64 << 20

// AttendanceHandler handles batch submission and attendance read/admin
// endpoints.
type AttendanceHandler struct {
	coordinator *recognition.Coordinator
	reconciler  *attendance.Reconciler
	store       database.AttendanceStore
	students    database.StudentStore
	uploadsDir  string
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(
	coordinator *recognition.Coordinator,
	reconciler *attendance.Reconciler,
	store database.AttendanceStore,
	students database.StudentStore,
	uploadsDir string,
) *AttendanceHandler {
	return &AttendanceHandler{
		coordinator: coordinator,
		reconciler:  reconciler,
		store:       store,
		students:    students,
		uploadsDir:  uploadsDir,
	}
}

// batchResponse is the result of one batch submission.
type batchResponse struct {
	Date       string             `json:"date"`
	Recognized []string           `json:"recognized"`
	Summary    attendance.Summary `json:"summary"`
	Annotated  []string           `json:"annotated"`
}

// SubmitBatch runs recognition over a multi-photo submission and reconciles
// the day's attendance. Expects multipart form data with one or more files
// under "photos" and an optional "date" field (defaults to today).
func (h *AttendanceHandler) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxBatchUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	day := time.Now()
	if d := r.FormValue("date"); d != "" {
		parsed, ok := parseDay(d)
		if !ok {
			respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	files := r.MultipartForm.File["photos"]
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, "no photos provided")
		return
	}

	photos := make([][]byte, 0, len(files))
	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to open file: %s", fileHeader.Filename))
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to read file: %s", fileHeader.Filename))
			return
		}
		photos = append(photos, data)
	}

	result, err := h.coordinator.Run(r.Context(), photos, nil)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "recognition failed: "+err.Error())
		return
	}

	roster, err := h.students.ListStudentIDs(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load roster")
		return
	}

	summary := h.reconciler.Reconcile(r.Context(), day, result.Recognized, roster)

	resp := batchResponse{
		Date:       attendance.Day(day),
		Recognized: result.RecognizedIDs(),
		Summary:    summary,
		Annotated:  h.saveAnnotatedImages(result.Annotated),
	}
	respondJSON(w, http.StatusOK, resp)
}

// saveAnnotatedImages writes the audit images to the uploads directory under
// generated names. Save failures only cost the audit trail, never the batch.
func (h *AttendanceHandler) saveAnnotatedImages(images []image.Image) []string {
	if err := os.MkdirAll(h.uploadsDir, 0o750); err != nil {
		log.Printf("attendance: failed to create uploads dir: %v", err)
		return nil
	}

	var paths []string
	for _, img := range images {
		data, err := imaging.EncodeJPEG(img)
		if err != nil {
			log.Printf("attendance: failed to encode annotated image: %v", err)
			continue
		}
		name := "annotated_" + uuid.NewString() + ".jpg"
		path := filepath.Join(h.uploadsDir, name)
		if err := os.WriteFile(path, data, 0o640); err != nil {
			log.Printf("attendance: failed to save annotated image: %v", err)
			continue
		}
		paths = append(paths, name)
	}
	return paths
}

// dayView is one day of the grouped attendance listing.
type dayView struct {
	Records []attendance.Record   `json:"records"`
	Summary attendance.DaySummary `json:"summary"`
}

// List returns attendance grouped by day. Optional query parameters:
// start_date, end_date (YYYY-MM-DD), start_time, end_time (HH:MM).
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter database.AttendanceFilter

	if d := r.URL.Query().Get("start_date"); d != "" {
		parsed, ok := parseDay(d)
		if !ok {
			respondError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
			return
		}
		filter.StartDate = parsed
	}
	if d := r.URL.Query().Get("end_date"); d != "" {
		parsed, ok := parseDay(d)
		if !ok {
			respondError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
			return
		}
		filter.EndDate = parsed
	}
	filter.StartTime = r.URL.Query().Get("start_time")
	filter.EndTime = r.URL.Query().Get("end_time")

	records, err := h.store.Query(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to query attendance")
		return
	}

	roster, err := h.students.ListStudentIDs(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load roster")
		return
	}

	grouped := attendance.GroupByDay(records)
	view := make(map[string]dayView, len(grouped))
	for day, recs := range grouped {
		view[day] = dayView{
			Records: recs,
			Summary: attendance.Summarize(len(roster), recs),
		}
	}

	respondJSON(w, http.StatusOK, view)
}

// Days lists the distinct attendance days on record.
func (h *AttendanceHandler) Days(w http.ResponseWriter, r *http.Request) {
	days, err := h.store.Days(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list days")
		return
	}
	if days == nil {
		days = []string{}
	}
	respondJSON(w, http.StatusOK, map[string][]string{"days": days})
}

// recordRequest is the body for manual record creation and edits.
type recordRequest struct {
	StudentID string `json:"student_id"`
	Status    string `json:"status"`
	Date      string `json:"date"`
}

func validStatus(s string) bool {
	return s == string(attendance.StatusPresent) || s == string(attendance.StatusAbsent)
}

// CreateRecord inserts a manual attendance record.
func (h *AttendanceHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.StudentID == "" || !validStatus(req.Status) {
		respondError(w, http.StatusBadRequest, "student_id and a valid status are required")
		return
	}

	day := time.Now()
	if req.Date != "" {
		parsed, ok := parseDay(req.Date)
		if !ok {
			respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	if _, err := h.students.GetStudent(r.Context(), req.StudentID); err != nil {
		if errors.Is(err, database.ErrStudentNotFound) {
			respondError(w, http.StatusNotFound, "student not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to look up student")
		return
	}

	id, err := h.store.Insert(r.Context(), attendance.Record{
		StudentID: req.StudentID,
		Status:    attendance.Status(req.Status),
		Timestamp: day,
	})
	if err != nil {
		respondError(w, http.StatusConflict, "failed to insert record (already exists for that day?)")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// UpdateRecord overwrites a record's status by ID.
func (h *AttendanceHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid record ID")
		return
	}

	var req recordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if !validStatus(req.Status) {
		respondError(w, http.StatusBadRequest, "status must be present or absent")
		return
	}

	if err := h.store.UpdateStatus(r.Context(), id, attendance.Status(req.Status)); err != nil {
		if errors.Is(err, database.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "record not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update record")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// DeleteRecord removes a record by ID.
func (h *AttendanceHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid record ID")
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "record not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete record")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
