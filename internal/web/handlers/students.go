package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Its-me-GK/FaceMark/internal/database"
	"github.com/Its-me-GK/FaceMark/internal/recognition"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// enrollmentPhotoCount is the number of reference photos per student. Three
// angles give the matcher a usable spread without bloating the gallery.
const enrollmentPhotoCount = 3

// maxEnrollUploadSize bounds an enrollment submission (16 MiB).
const maxEnrollUploadSize = 16 << 20

// StudentsHandler handles roster and enrollment endpoints.
type StudentsHandler struct {
	pipeline   *recognition.Pipeline
	gallery    database.GalleryStore
	students   database.StudentStore
	uploadsDir string
}

// NewStudentsHandler creates a new students handler. The pipeline should be
// configured with the enrollment threshold profile; reference photos are held
// to a stricter detector confidence than classroom batches.
func NewStudentsHandler(
	pipeline *recognition.Pipeline,
	gallery database.GalleryStore,
	students database.StudentStore,
	uploadsDir string,
) *StudentsHandler {
	return &StudentsHandler{
		pipeline:   pipeline,
		gallery:    gallery,
		students:   students,
		uploadsDir: uploadsDir,
	}
}

// readEnrollmentPhotos reads and size-checks the multipart photo files.
func readEnrollmentPhotos(files []*multipart.FileHeader) ([][]byte, error) {
	photos := make([][]byte, 0, len(files))
	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %s", fileHeader.Filename)
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %s", fileHeader.Filename)
		}
		photos = append(photos, data)
	}
	return photos, nil
}

// Enroll registers a student with three reference photos. Every photo must
// contain exactly one detectable face; the whole enrollment is rejected
// otherwise, before anything is stored.
func (h *StudentsHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxEnrollUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	student := database.Student{
		StudentID:  r.FormValue("student_id"),
		Name:       r.FormValue("name"),
		Branch:     r.FormValue("branch"),
		Class:      r.FormValue("class"),
		RollNumber: r.FormValue("roll_number"),
	}
	if student.StudentID == "" || student.Name == "" {
		respondError(w, http.StatusBadRequest, "student_id and name are required")
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

	// Validate and embed all photos before touching the database, so a bad
	// third photo cannot leave a half-enrolled student behind.
	embeddings := make([][]float32, 0, len(photos))
	for i, photo := range photos {
		embedding, err := h.pipeline.ExtractEnrollmentEmbedding(r.Context(), photo)
		if err != nil {
			if errors.Is(err, recognition.ErrNoFace) || errors.Is(err, recognition.ErrMultipleFaces) {
				respondError(w, http.StatusBadRequest, fmt.Sprintf("photo %d: %v", i+1, err))
				return
			}
			respondError(w, http.StatusInternalServerError, fmt.Sprintf("photo %d: face processing failed", i+1))
			return
		}
		embeddings = append(embeddings, embedding)
	}

	if err := h.students.InsertStudent(r.Context(), student); err != nil {
		if errors.Is(err, database.ErrStudentExists) {
			respondError(w, http.StatusConflict, "student already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to insert student")
		return
	}

	entries := make([]recognition.GalleryEntry, len(embeddings))
	for i, embedding := range embeddings {
		entries[i] = recognition.GalleryEntry{
			StudentID: student.StudentID,
			Embedding: embedding,
			ImagePath: h.savePhoto(student.StudentID, i, photos[i]),
		}
	}
	if err := h.gallery.InsertEntries(r.Context(), student.StudentID, entries); err != nil {
		// Roll back the roster insert so enrollment stays all-or-nothing.
		if delErr := h.students.DeleteStudent(r.Context(), student.StudentID); delErr != nil {
			log.Printf("students: rollback of %s failed: %v", sanitizeForLog(student.StudentID), delErr)
		}
		respondError(w, http.StatusInternalServerError, "failed to store face embeddings")
		return
	}

	respondJSON(w, http.StatusCreated, student)
}

// savePhoto writes a reference photo to the uploads directory. The stored
// path is advisory; enrollment proceeds even if the write fails.
func (h *StudentsHandler) savePhoto(studentID string, index int, data []byte) string {
	if err := os.MkdirAll(h.uploadsDir, 0o750); err != nil {
		log.Printf("students: failed to create uploads dir: %v", err)
		return ""
	}
	name := fmt.Sprintf("enroll_%s_%d_%s.jpg", filepath.Base(studentID), index+1, uuid.NewString())
	if err := os.WriteFile(filepath.Join(h.uploadsDir, name), data, 0o640); err != nil {
		log.Printf("students: failed to save reference photo: %v", err)
		return ""
	}
	return name
}

// List returns the full roster.
func (h *StudentsHandler) List(w http.ResponseWriter, r *http.Request) {
	students, err := h.students.ListStudents(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list students")
		return
	}
	if students == nil {
		students = []database.Student{}
	}
	respondJSON(w, http.StatusOK, students)
}

// Get returns one student.
func (h *StudentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")

	student, err := h.students.GetStudent(r.Context(), studentID)
	if err != nil {
		if errors.Is(err, database.ErrStudentNotFound) {
			respondError(w, http.StatusNotFound, "student not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get student")
		return
	}
	respondJSON(w, http.StatusOK, student)
}

// updateStudentRequest is the body for student detail edits.
type updateStudentRequest struct {
	Name       string `json:"name"`
	Branch     string `json:"branch"`
	Class      string `json:"class"`
	RollNumber string `json:"roll_number"`
}

// Update overwrites a student's descriptive fields. A multipart body may also
// carry three replacement photos, which re-enrolls the student's gallery
// entries in place.
func (h *StudentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		h.updateMultipart(w, r, studentID)
		return
	}

	var req updateStudentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := h.updateFields(r, studentID, req); err != nil {
		if errors.Is(err, database.ErrStudentNotFound) {
			respondError(w, http.StatusNotFound, "student not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update student")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *StudentsHandler) updateFields(r *http.Request, studentID string, req updateStudentRequest) error {
	return h.students.UpdateStudent(r.Context(), database.Student{
		StudentID:  studentID,
		Name:       req.Name,
		Branch:     req.Branch,
		Class:      req.Class,
		RollNumber: req.RollNumber,
	})
}

// updateMultipart handles a form-encoded update with optional re-enrollment
// photos. When photos are present, all three are validated before the roster
// row or the gallery is touched.
func (h *StudentsHandler) updateMultipart(w http.ResponseWriter, r *http.Request, studentID string) {
	if err := r.ParseMultipartForm(maxEnrollUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	req := updateStudentRequest{
		Name:       r.FormValue("name"),
		Branch:     r.FormValue("branch"),
		Class:      r.FormValue("class"),
		RollNumber: r.FormValue("roll_number"),
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	files := r.MultipartForm.File["photos"]
	var entries []recognition.GalleryEntry
	if len(files) > 0 {
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
			embedding, err := h.pipeline.ExtractEnrollmentEmbedding(r.Context(), photo)
			if err != nil {
				if errors.Is(err, recognition.ErrNoFace) || errors.Is(err, recognition.ErrMultipleFaces) {
					respondError(w, http.StatusBadRequest, fmt.Sprintf("photo %d: %v", i+1, err))
					return
				}
				respondError(w, http.StatusInternalServerError, fmt.Sprintf("photo %d: face processing failed", i+1))
				return
			}
			entries = append(entries, recognition.GalleryEntry{
				StudentID: studentID,
				Embedding: embedding,
				ImagePath: h.savePhoto(studentID, i, photo),
			})
		}
	}

	if err := h.updateFields(r, studentID, req); err != nil {
		if errors.Is(err, database.ErrStudentNotFound) {
			respondError(w, http.StatusNotFound, "student not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update student")
		return
	}

	if len(entries) > 0 {
		// Replaces the student's existing gallery entries.
		if err := h.gallery.InsertEntries(r.Context(), studentID, entries); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to store face embeddings")
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// Delete removes a student and their gallery entries. Students with
// attendance history cannot be deleted.
func (h *StudentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")

	if err := h.students.DeleteStudent(r.Context(), studentID); err != nil {
		switch {
		case errors.Is(err, database.ErrStudentNotFound):
			respondError(w, http.StatusNotFound, "student not found")
		case errors.Is(err, database.ErrStudentHasRecords):
			respondError(w, http.StatusConflict, "student has attendance records")
		default:
			respondError(w, http.StatusInternalServerError, "failed to delete student")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
