package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepfunnel/internal/mastery"
	"github.com/abhisek/prepfunnel/internal/tutor"
	"github.com/abhisek/prepfunnel/internal/ui/theme"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Generate a study profile for a learner",
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

		ctx := context.Background()
		st, err := mastery.NewRecorder(s.SnapshotRepo(), s.ResponseRepo(), log).Load(ctx, learner)
		if err != nil {
			return fmt.Errorf("load mastery: %w", err)
		}
		var states []mastery.ConceptState
		for _, k := range st.Keys() {
			states = append(states, st.Concept(k))
		}
		if len(states) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No responses recorded for %s yet.\n", learner)
			return nil
		}

		p, err := newProvider(ctx, s.EventRepo())
		if err != nil {
			return err
		}
		prof, err := tutor.NewService(p, tutor.DefaultConfig(), tutor.DefaultProfileConfig()).
			Profile(ctx, tutor.ProfileInput{Concepts: states})
		if err != nil {
			return err
		}
		writeProfile(cmd.OutOrStdout(), learner, prof)
		return nil
	},
}

func writeProfile(w io.Writer, learner string, p *tutor.Profile) {
	fmt.Fprintln(w, theme.Title.Render("Study profile: "+learner))
	fmt.Fprintln(w, p.Summary)
	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintln(w, theme.Header.Render(title))
		fmt.Fprintln(w, "  - "+strings.Join(items, "\n  - "))
	}
	section("Strengths", p.Strengths)
	section("Weaknesses", p.Weaknesses)
	section("Next steps", p.NextSteps)
}

func init() {
	profileCmd.Flags().StringP("learner", "l", "", "Learner id")
}
