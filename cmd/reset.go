package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepfunnel/internal/mastery"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset learner data",
	Long:  "Delete a learner's mastery snapshot, response log and seen-question history.",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, err := learnerFlag(cmd)
		if err != nil {
			return err
		}
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("refusing to reset %s without --yes", learner)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		rec := mastery.NewRecorder(s.SnapshotRepo(), s.ResponseRepo(), log)
		if err := rec.Reset(ctx, learner); err != nil {
			return fmt.Errorf("reset mastery: %w", err)
		}
		if err := s.SeenRepo().Clear(ctx, learner); err != nil {
			return fmt.Errorf("clear seen questions: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reset learner %s.\n", learner)
		return nil
	},
}

func init() {
	resetCmd.Flags().StringP("learner", "l", "", "Learner id")
	resetCmd.Flags().Bool("yes", false, "Confirm the reset")
}
