// Package cmd implements the facemark CLI.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/Its-me-GK/FaceMark/internal/config"
	"github.com/Its-me-GK/FaceMark/internal/database/postgres"
	"github.com/Its-me-GK/FaceMark/internal/model"
	"github.com/Its-me-GK/FaceMark/internal/recognition"
	"github.com/Its-me-GK/FaceMark/internal/web"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "facemark",
	Short: "Photo-based attendance tracking for classrooms",
	Long: `FaceMark marks daily attendance from classroom photos. Faces are
detected and embedded by an external model server, matched against the
enrolled-student gallery, and reconciled into one monotonic attendance
record per student per day.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// buildPipelines creates the batch and enrollment pipelines over one shared
// model client. Enrollment runs with its stricter threshold profile.
func buildPipelines(cfg *config.Config) (batch, enroll *recognition.Pipeline) {
	client := model.NewClient(cfg.Model.URL, time.Duration(cfg.Model.TimeoutSeconds)*time.Second)

	batch = recognition.NewPipeline(client, client, recognition.PipelineConfig{
		IoUThreshold:    cfg.Recognition.IoUThreshold,
		MinConfidence:   cfg.Recognition.MinConfidence,
		AcceptThreshold: cfg.Recognition.AcceptThreshold,
		FaceSize:        cfg.Model.InputSize,
		Enhance:         cfg.Recognition.Profile == "crowded",
	})

	ep := cfg.GetProfile("enrollment")
	enroll = recognition.NewPipeline(client, client, recognition.PipelineConfig{
		IoUThreshold:    ep.IoUThreshold,
		MinConfidence:   ep.MinConfidence,
		AcceptThreshold: ep.AcceptThreshold,
		FaceSize:        cfg.Model.InputSize,
	})

	return batch, enroll
}

// openStores connects to PostgreSQL, runs migrations, and wires the
// repositories. The caller owns the returned pool.
func openStores(cfg *config.Config) (*postgres.Pool, web.Stores, error) {
	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return nil, web.Stores{}, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	stores := web.Stores{
		Gallery:    postgres.NewGalleryRepository(pool),
		Attendance: postgres.NewAttendanceRepository(pool),
		Students:   postgres.NewStudentRepository(pool),
		Requests:   postgres.NewRequestRepository(pool),
	}
	return pool, stores, nil
}

// matcherFactory maps the configured matcher backend to a factory.
func matcherFactory(cfg *config.Config) recognition.MatcherFactory {
	if cfg.Recognition.Matcher == "hnsw" {
		return func(g []recognition.GalleryEntry) recognition.Matcher {
			return recognition.NewHNSWMatcher(g)
		}
	}
	return func(g []recognition.GalleryEntry) recognition.Matcher {
		return recognition.NewLinearMatcher(g)
	}
}
