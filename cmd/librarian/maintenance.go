package main

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aoideee/libraryhub/internal/validator"
)

func newRepairCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Drop structurally invalid records and rewrite the cleaned documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := s.store.Repair(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			clean := true
			for _, key := range slices.Sorted(maps.Keys(reports)) {
				report := reports[key]
				if report.Malformed {
					clean = false
					warn(out, "%s was unreadable and has been reinitialized", key)
				}
				for _, name := range slices.Sorted(maps.Keys(report.Dropped)) {
					clean = false
					warn(out, "%s: dropped %d invalid %s", key, report.Dropped[name], name)
				}
			}
			if clean {
				ok(out, "No invalid records found")
			}
			return nil
		},
	}
}

func newCleanupCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Discard collections that look like serialized arrays",
		Long: `Scan every stored collection for the corruption signature (objects keyed
by small integers). In reset mode the whole library document is replaced by
an empty one; in isolate mode only the affected collections are emptied.

Examples:
  librarian cleanup
  librarian cleanup --recovery isolate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := s.store.AggressiveCleanup(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(result.Collections) == 0 {
				ok(out, "No corrupted collections found")
				return nil
			}
			for _, name := range result.Collections {
				warn(out, "corrupted: %s", color.CyanString(name))
			}
			if result.Reset {
				warn(out, "library document reset to defaults")
			} else {
				ok(out, "emptied %d collection(s)", len(result.Collections))
			}
			return nil
		},
	}
}

func newOverdueCmd(s *session) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "overdue",
		Short: "Mark borrowed items past their due date as overdue",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if asOf != "" {
				t, valid := validator.ParseDate(asOf)
				if !valid {
					return fmt.Errorf("--as-of %q is not a date (YYYY-MM-DD)", asOf)
				}
				now = t
			}

			n, err := s.models.Borrowings.MarkOverdue(cmd.Context(), now)
			if err != nil {
				return err
			}
			ok(cmd.OutOrStdout(), "%d borrowing(s) marked overdue", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "Evaluate due dates against this date instead of today")
	return cmd
}
