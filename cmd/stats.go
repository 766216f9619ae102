package cmd

import (
	"context"
	"fmt"
	"sort"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/prepfunnel/internal/mastery"
	"github.com/abhisek/prepfunnel/internal/ui/theme"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a learner's concept mastery, highest priority first",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, err := learnerFlag(cmd)
		if err != nil {
			return err
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		st, err := mastery.NewRecorder(s.SnapshotRepo(), s.ResponseRepo(), log).Load(context.Background(), learner)
		if err != nil {
			return fmt.Errorf("load mastery: %w", err)
		}

		out := cmd.OutOrStdout()
		keys := st.Keys()
		if len(keys) == 0 {
			fmt.Fprintf(out, "No responses recorded for %s yet.\n", learner)
			return nil
		}
		fmt.Fprint(out, renderStats(learner, st))
		return nil
	},
}

// renderStats lays out one row per concept sorted by descending priority.
func renderStats(learner string, st *mastery.FunnelState) string {
	concepts := make([]mastery.ConceptState, 0, len(st.Concepts))
	for _, k := range st.Keys() {
		concepts = append(concepts, st.Concept(k))
	}
	sort.SliceStable(concepts, func(i, j int) bool {
		return concepts[i].Priority() > concepts[j].Priority()
	})

	tbl := theme.Table{
		Columns: []theme.Column{
			{Title: "Concept", Width: 28},
			{Title: "Mastery", Width: 7, Right: true},
			{Title: "Uncert.", Width: 7, Right: true},
			{Title: "Priority", Width: 8, Right: true},
			{Title: "Attempts", Width: 8, Right: true},
			{Title: "Avg s", Width: 6, Right: true},
			{Title: "Tutor", Width: 5, Right: true},
			{Title: "Last seen", Width: 16},
		},
	}
	levels := make([]float64, len(concepts))
	for i, c := range concepts {
		avg, last := "-", "-"
		if c.AvgResponseTimeMs != nil {
			avg = fmt.Sprintf("%.1f", *c.AvgResponseTimeMs/1000)
		}
		if c.LastSeenAt != nil {
			last = c.LastSeenAt.Local().Format("2006-01-02 15:04")
		}
		levels[i] = c.ExpectedMastery()
		tbl.Rows = append(tbl.Rows, []string{
			c.DisplayName,
			fmt.Sprintf("%.2f", c.ExpectedMastery()),
			fmt.Sprintf("%.3f", c.Uncertainty()),
			fmt.Sprintf("%.3f", c.Priority()),
			fmt.Sprintf("%d", c.Attempts),
			avg,
			fmt.Sprintf("%d", c.TutorTouches),
			last,
		})
	}
	tbl.Styles = func(row, col int) *lipgloss.Style {
		if col != 1 {
			return nil
		}
		st := lipgloss.NewStyle().Foreground(theme.Level(levels[row]))
		return &st
	}

	return theme.Title.Render("Mastery for "+learner) + "\n\n" + tbl.Render()
}
