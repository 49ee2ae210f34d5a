package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Its-me-GK/FaceMark/internal/database"
	"github.com/Its-me-GK/FaceMark/internal/recognition"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// RequestsHandler handles the registration request queue: teachers submit
// enrollments, admins approve or reject them.
type RequestsHandler struct {
	pipeline   *recognition.Pipeline
	gallery    database.GalleryStore
	students   database.StudentStore
	requests   database.RequestStore
	uploadsDir string
}

// NewRequestsHandler creates a new registration requests handler.
func NewRequestsHandler(
	pipeline *recognition.Pipeline,
	gallery database.GalleryStore,
	students database.StudentStore,
	requests database.RequestStore,
	uploadsDir string,
) *RequestsHandler {
	return &RequestsHandler{
		pipeline:   pipeline,
		gallery:    gallery,
		students:   students,
		requests:   requests,
		uploadsDir: uploadsDir,
	}
}

// Submit queues a registration request. Photos are validated for exactly one
// face up front so admins never review requests that cannot be enrolled, then
// stored on disk until the request is decided.
func (h *RequestsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxEnrollUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	req := database.RegistrationRequest{
		StudentID:   r.FormValue("student_id"),
		StudentName: r.FormValue("name"),
		Branch:      r.FormValue("branch"),
		Class:       r.FormValue("class"),
		RollNumber:  r.FormValue("roll_number"),
	}
	if req.StudentID == "" || req.StudentName == "" {
		respondError(w, http.StatusBadRequest, "student_id and name are required")
		return
	}

	if _, err := h.students.GetStudent(r.Context(), req.StudentID); err == nil {
		respondError(w, http.StatusConflict, "student already enrolled")
		return
	}

	files := r.MultipartForm.File["photos"]
	if len(files) != enrollmentPhotoCount {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("exactly %d photos are required", enrollmentPhotoCount))
		return
	}

	photos, err := readEnrollmentPhotos(files)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	for i, photo := range photos {
		if _, err := h.pipeline.ExtractEnrollmentEmbedding(r.Context(), photo); err != nil {
			if errors.Is(err, recognition.ErrNoFace) || errors.Is(err, recognition.ErrMultipleFaces) {
				respondError(w, http.StatusBadRequest, fmt.Sprintf("photo %d: %v", i+1, err))
				return
			}
			respondError(w, http.StatusInternalServerError, fmt.Sprintf("photo %d: face processing failed", i+1))
			return
		}
	}

	if err := os.MkdirAll(h.uploadsDir, 0o750); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to store request photos")
		return
	}
	for i, photo := range photos {
		name := fmt.Sprintf("request_%s_%d_%s.jpg", filepath.Base(req.StudentID), i+1, uuid.NewString())
		if err := os.WriteFile(filepath.Join(h.uploadsDir, name), photo, 0o640); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to store request photos")
			return
		}
		req.PhotoPaths[i] = name
	}

	id, err := h.requests.InsertRequest(r.Context(), req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to queue request")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]int64{"request_id": id})
}

// List returns all registration requests, pending first.
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	requests, err := h.requests.ListRequests(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list requests")
		return
	}
	if requests == nil {
		requests = []database.RegistrationRequest{}
	}
	respondJSON(w, http.StatusOK, requests)
}

// actionRequest is the body for an approve/reject decision.
type actionRequest struct {
	Action string `json:"action"` // "approve" or "reject"
}

// Action decides a pending request. Approval enrolls the student from the
// stored photos; rejection just closes the request.
func (h *RequestsHandler) Action(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request ID")
		return
	}

	var body actionRequest
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if body.Action != "approve" && body.Action != "reject" {
		respondError(w, http.StatusBadRequest, "action must be approve or reject")
		return
	}

	req, err := h.requests.GetRequest(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrRequestNotFound) {
			respondError(w, http.StatusNotFound, "request not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load request")
		return
	}
	if req.Status != database.RequestPending {
		respondError(w, http.StatusConflict, "request already processed")
		return
	}

	if body.Action == "reject" {
		if err := h.requests.SetRequestStatus(r.Context(), id, database.RequestRejected); err != nil {
			respondError(w, http.StatusConflict, "request already processed")
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
		return
	}

	if err := h.approve(r, req); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.requests.SetRequestStatus(r.Context(), id, database.RequestApproved); err != nil {
		respondError(w, http.StatusConflict, "request already processed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

// approve enrolls the requested student from the photos stored at submit
// time. Faces were validated on submission, but the photos are re-embedded
// here: the gallery only ever holds embeddings computed from bytes read back
// from disk.
func (h *RequestsHandler) approve(r *http.Request, req *database.RegistrationRequest) error {
	entries := make([]recognition.GalleryEntry, 0, len(req.PhotoPaths))
	for _, name := range req.PhotoPaths {
		photo, err := os.ReadFile(filepath.Join(h.uploadsDir, filepath.Base(name)))
		if err != nil {
			return fmt.Errorf("request photo missing: %s", filepath.Base(name))
		}
		embedding, err := h.pipeline.ExtractEnrollmentEmbedding(r.Context(), photo)
		if err != nil {
			return errors.New("failed to embed request photo")
		}
		entries = append(entries, recognition.GalleryEntry{
			StudentID: req.StudentID,
			Embedding: embedding,
			ImagePath: name,
		})
	}

	student := database.Student{
		StudentID:  req.StudentID,
		Name:       req.StudentName,
		Branch:     req.Branch,
		Class:      req.Class,
		RollNumber: req.RollNumber,
	}
	if err := h.students.InsertStudent(r.Context(), student); err != nil {
		if errors.Is(err, database.ErrStudentExists) {
			return errors.New("student already enrolled")
		}
		return errors.New("failed to insert student")
	}

	if err := h.gallery.InsertEntries(r.Context(), req.StudentID, entries); err != nil {
		if delErr := h.students.DeleteStudent(r.Context(), req.StudentID); delErr != nil {
			return errors.New("failed to store embeddings; manual cleanup needed")
		}
		return errors.New("failed to store face embeddings")
	}
	return nil
}
