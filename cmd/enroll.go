package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Its-me-GK/FaceMark/internal/config"
	"github.com/Its-me-GK/FaceMark/internal/database"
	"github.com/Its-me-GK/FaceMark/internal/recognition"
	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <photo1> <photo2> <photo3>",
	Short: "Enroll a student from three reference photos",
	Long: `Enroll a student into the face gallery. Each of the three photos must
contain exactly one face; the enrollment threshold profile applies, which
holds reference photos to a stricter detector confidence than classroom
batches.`,
	Args: cobra.ExactArgs(3),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("id", "", "Student ID (required)")
	enrollCmd.Flags().String("name", "", "Student name (required)")
	enrollCmd.Flags().String("branch", "", "Branch")
	enrollCmd.Flags().String("class", "", "Class")
	enrollCmd.Flags().String("roll", "", "Roll number")
	_ = enrollCmd.MarkFlagRequired("id")
	_ = enrollCmd.MarkFlagRequired("name")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	if cfg.Model.URL == "" {
		return errors.New("MODEL_URL environment variable is required")
	}

	student := database.Student{
		StudentID:  mustGetString(cmd, "id"),
		Name:       mustGetString(cmd, "name"),
		Branch:     mustGetString(cmd, "branch"),
		Class:      mustGetString(cmd, "class"),
		RollNumber: mustGetString(cmd, "roll"),
	}

	pool, stores, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	_, enrollPipeline := buildPipelines(cfg)
	ctx := context.Background()

	entries := make([]recognition.GalleryEntry, 0, len(args))
	for i, path := range args {
		photo, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		embedding, err := enrollPipeline.ExtractEnrollmentEmbedding(ctx, photo)
		if err != nil {
			return fmt.Errorf("photo %d (%s): %w", i+1, path, err)
		}
		entries = append(entries, recognition.GalleryEntry{
			StudentID: student.StudentID,
			Embedding: embedding,
			ImagePath: path,
		})
		fmt.Printf("Photo %d OK: one face, %d-dim embedding\n", i+1, len(embedding))
	}

	if err := stores.Students.InsertStudent(ctx, student); err != nil {
		if errors.Is(err, database.ErrStudentExists) {
			return fmt.Errorf("student %s already exists", student.StudentID)
		}
		return fmt.Errorf("inserting student: %w", err)
	}

	if err := stores.Gallery.InsertEntries(ctx, student.StudentID, entries); err != nil {
		return fmt.Errorf("storing embeddings: %w", err)
	}

	fmt.Printf("Enrolled %s (%s) with %d reference faces\n", student.Name, student.StudentID, len(entries))
	return nil
}
