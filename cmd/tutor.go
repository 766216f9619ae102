package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepfunnel/internal/bank"
	"github.com/abhisek/prepfunnel/internal/mastery"
	"github.com/abhisek/prepfunnel/internal/tutor"
	"github.com/abhisek/prepfunnel/internal/ui/theme"
)

var tutorCmd = &cobra.Command{
	Use:   "tutor",
	Short: "Record that a learner asked for help, optionally explaining a question",
	Long: `Record a tutor touch on the given concepts. With --question the bank
item is explained by the configured LLM and its concepts are used when
--concept is not given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, err := learnerFlag(cmd)
		if err != nil {
			return err
		}
		concepts, _ := cmd.Flags().GetStringSlice("concept")
		questionID, _ := cmd.Flags().GetString("question")
		chosen, _ := cmd.Flags().GetString("chosen")
		if len(concepts) == 0 && questionID == "" {
			return fmt.Errorf("at least one --concept or a --question is required")
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		out := cmd.OutOrStdout()
		rec := mastery.NewRecorder(s.SnapshotRepo(), s.ResponseRepo(), log)

		if questionID != "" {
			item, err := bank.New(s.BankRepo(), appCfg.BankCacheTTL, log).Get(ctx, questionID)
			if err != nil {
				return err
			}
			if len(concepts) == 0 {
				concepts = item.Question.Concepts
			}

			st, err := rec.Load(ctx, learner)
			if err != nil {
				return fmt.Errorf("load mastery: %w", err)
			}
			var states []mastery.ConceptState
			for _, c := range item.Question.Concepts {
				states = append(states, st.Concept(mastery.NormalizeKey(c)))
			}

			p, err := newProvider(ctx, s.EventRepo())
			if err != nil {
				return err
			}
			ex, err := tutor.NewService(p, tutor.DefaultConfig(), tutor.DefaultProfileConfig()).
				Explain(ctx, tutor.ExplainInput{Question: item.Question, Chosen: chosen, Concepts: states})
			if err != nil {
				return err
			}
			writeExplanation(out, ex, item.Question.CorrectAnswer)
		}

		st, err := rec.RecordTutorTouch(ctx, learner, concepts)
		if err != nil {
			return err
		}
		for _, c := range concepts {
			cs := st.Concept(mastery.NormalizeKey(c))
			fmt.Fprintf(out, "%s: tutor touches %d\n", cs.DisplayName, cs.TutorTouches)
		}
		return nil
	},
}

func writeExplanation(w io.Writer, ex *tutor.Explanation, answer string) {
	fmt.Fprintln(w, theme.Title.Render(ex.Summary))
	fmt.Fprintf(w, "%s %s\n", theme.Correct.Render("Answer: "+answer), ex.WhyCorrect)
	for _, d := range ex.Distractors {
		fmt.Fprintf(w, "  %s %s\n", theme.Incorrect.Render(d.Option+":"), d.Why)
	}
	fmt.Fprintln(w, theme.Hint.Render("Remember: "+ex.KeyPoint))
	fmt.Fprintln(w, theme.Separator(60))
}

func init() {
	tutorCmd.Flags().StringP("learner", "l", "", "Learner id")
	tutorCmd.Flags().StringSliceP("concept", "c", nil, "Concepts the learner asked about")
	tutorCmd.Flags().StringP("question", "q", "", "Bank question id to explain")
	tutorCmd.Flags().String("chosen", "", "Option the learner picked")
}
