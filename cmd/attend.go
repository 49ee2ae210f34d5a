package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Its-me-GK/FaceMark/internal/attendance"
	"github.com/Its-me-GK/FaceMark/internal/config"
	"github.com/Its-me-GK/FaceMark/internal/imaging"
	"github.com/Its-me-GK/FaceMark/internal/recognition"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var attendCmd = &cobra.Command{
	Use:   "attend <photo>...",
	Short: "Submit a batch of classroom photos and reconcile attendance",
	Long: `Run face recognition over classroom photos and mark attendance for the
day. Arguments may be photo files or directories; directories are scanned
for JPEG and PNG files non-recursively.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAttend,
}

func init() {
	rootCmd.AddCommand(attendCmd)

	attendCmd.Flags().String("date", "", "Attendance day as YYYY-MM-DD (defaults to today)")
	attendCmd.Flags().Bool("save-annotated", false, "Write annotated audit images to the uploads directory")
}

// collectPhotoFiles expands file and directory arguments into photo paths.
func collectPhotoFiles(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot read directory %s: %w", arg, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(e.Name())) {
			case ".jpg", ".jpeg", ".png":
				paths = append(paths, filepath.Join(arg, e.Name()))
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func runAttend(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	if cfg.Model.URL == "" {
		return errors.New("MODEL_URL environment variable is required")
	}

	day := time.Now()
	if d := mustGetString(cmd, "date"); d != "" {
		parsed, err := time.Parse(attendance.DayLayout, d)
		if err != nil {
			return fmt.Errorf("invalid --date, expected YYYY-MM-DD: %w", err)
		}
		day = parsed
	}

	paths, err := collectPhotoFiles(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("no photos found in the given arguments")
	}

	photos := make([][]byte, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		photos = append(photos, data)
	}

	pool, stores, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	batchPipeline, _ := buildPipelines(cfg)
	coordinator := recognition.NewCoordinator(batchPipeline, stores.Gallery, cfg.Recognition.Concurrency)
	coordinator.SetMatcherFactory(matcherFactory(cfg))

	bar := progressbar.NewOptions(len(photos),
		progressbar.OptionSetDescription("Recognizing faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	ctx := context.Background()
	result, err := coordinator.Run(ctx, photos, func(done, total int) {
		_ = bar.Set(done)
	})
	if err != nil {
		return fmt.Errorf("recognition failed: %w", err)
	}
	fmt.Println()

	roster, err := stores.Students.ListStudentIDs(ctx)
	if err != nil {
		return fmt.Errorf("loading roster: %w", err)
	}

	reconciler := attendance.NewReconciler(stores.Attendance)
	summary := reconciler.Reconcile(ctx, day, result.Recognized, roster)

	fmt.Printf("\nAttendance for %s:\n", attendance.Day(day))
	fmt.Printf("  Present:   %d\n", summary.Present)
	fmt.Printf("  Absent:    %d\n", summary.Absent)
	fmt.Printf("  Inserted:  %d, upgraded: %d, unchanged: %d\n", summary.Inserted, summary.Upgraded, summary.Unchanged)
	if summary.Failed > 0 {
		fmt.Printf("  FAILED:    %d (re-run the batch to retry)\n", summary.Failed)
	}

	ids := result.RecognizedIDs()
	sort.Strings(ids)
	fmt.Printf("  Recognized: %s\n", strings.Join(ids, ", "))

	if mustGetBool(cmd, "save-annotated") {
		if err := os.MkdirAll(cfg.Uploads.Dir, 0o750); err != nil {
			return fmt.Errorf("creating uploads dir: %w", err)
		}
		for _, img := range result.Annotated {
			data, err := imaging.EncodeJPEG(img)
			if err != nil {
				continue
			}
			name := filepath.Join(cfg.Uploads.Dir, "annotated_"+uuid.NewString()+".jpg")
			if err := os.WriteFile(name, data, 0o640); err != nil {
				return fmt.Errorf("saving annotated image: %w", err)
			}
			fmt.Printf("  Saved %s\n", name)
		}
	}

	return nil
}
