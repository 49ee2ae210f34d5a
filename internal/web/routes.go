package web

import (
	"github.com/Its-me-GK/FaceMark/internal/attendance"
	"github.com/Its-me-GK/FaceMark/internal/recognition"
	"github.com/Its-me-GK/FaceMark/internal/web/handlers"
	"github.com/go-chi/chi/v5"
)

func (s *Server) setupRoutes(
	coordinator *recognition.Coordinator,
	reconciler *attendance.Reconciler,
	enrollPipeline *recognition.Pipeline,
	stores Stores,
) {
	attendanceHandler := handlers.NewAttendanceHandler(
		coordinator, reconciler, stores.Attendance, stores.Students, s.config.Uploads.Dir)
	studentsHandler := handlers.NewStudentsHandler(
		enrollPipeline, stores.Gallery, stores.Students, s.config.Uploads.Dir)
	requestsHandler := handlers.NewRequestsHandler(
		enrollPipeline, stores.Gallery, stores.Students, stores.Requests, s.config.Uploads.Dir)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Attendance
		r.Post("/attendance/batch", attendanceHandler.SubmitBatch)
		r.Get("/attendance", attendanceHandler.List)
		r.Get("/attendance/days", attendanceHandler.Days)
		r.Post("/attendance/records", attendanceHandler.CreateRecord)
		r.Put("/attendance/records/{id}", attendanceHandler.UpdateRecord)
		r.Delete("/attendance/records/{id}", attendanceHandler.DeleteRecord)

		// Students
		r.Get("/students", studentsHandler.List)
		r.Post("/students", studentsHandler.Enroll)
		r.Get("/students/{id}", studentsHandler.Get)
		r.Put("/students/{id}", studentsHandler.Update)
		r.Delete("/students/{id}", studentsHandler.Delete)

		// Registration requests
		r.Get("/requests", requestsHandler.List)
		r.Post("/requests", requestsHandler.Submit)
		r.Post("/requests/{id}/action", requestsHandler.Action)
	})
}
