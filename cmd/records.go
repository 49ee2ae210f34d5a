package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Its-me-GK/FaceMark/internal/attendance"
	"github.com/Its-me-GK/FaceMark/internal/config"
	"github.com/Its-me-GK/FaceMark/internal/database"
	"github.com/spf13/cobra"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Print attendance records grouped by day",
	RunE:  runRecords,
}

func init() {
	rootCmd.AddCommand(recordsCmd)

	recordsCmd.Flags().String("from", "", "Start date as YYYY-MM-DD")
	recordsCmd.Flags().String("to", "", "End date as YYYY-MM-DD")
}

func runRecords(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	var filter database.AttendanceFilter
	if d := mustGetString(cmd, "from"); d != "" {
		parsed, err := time.Parse(attendance.DayLayout, d)
		if err != nil {
			return fmt.Errorf("invalid --from, expected YYYY-MM-DD: %w", err)
		}
		filter.StartDate = parsed
	}
	if d := mustGetString(cmd, "to"); d != "" {
		parsed, err := time.Parse(attendance.DayLayout, d)
		if err != nil {
			return fmt.Errorf("invalid --to, expected YYYY-MM-DD: %w", err)
		}
		filter.EndDate = parsed
	}

	pool, stores, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	ctx := context.Background()
	records, err := stores.Attendance.Query(ctx, filter)
	if err != nil {
		return fmt.Errorf("querying attendance: %w", err)
	}

	roster, err := stores.Students.ListStudentIDs(ctx)
	if err != nil {
		return fmt.Errorf("loading roster: %w", err)
	}

	grouped := attendance.GroupByDay(records)
	days := make([]string, 0, len(grouped))
	for day := range grouped {
		days = append(days, day)
	}
	sort.Strings(days)

	for _, day := range days {
		recs := grouped[day]
		summary := attendance.Summarize(len(roster), recs)
		fmt.Printf("%s: %d/%d present\n", day, summary.Present, summary.Total)
		for _, rec := range recs {
			fmt.Printf("  %-12s %-8s %s\n", rec.StudentID, rec.Status, rec.Name)
		}
	}

	if len(days) == 0 {
		fmt.Println("No attendance records found")
	}
	return nil
}
