package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/abhisek/prepfunnel/internal/mastery"
)

var respondCmd = &cobra.Command{
	Use:   "respond",
	Short: "Record a learner's answer and update concept mastery",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, err := learnerFlag(cmd)
		if err != nil {
			return err
		}
		eventID, _ := cmd.Flags().GetString("event")
		questionID, _ := cmd.Flags().GetString("question")
		concepts, _ := cmd.Flags().GetStringSlice("concept")
		ratingStr, _ := cmd.Flags().GetString("rating")
		correct, _ := cmd.Flags().GetBool("correct")
		timeMs, _ := cmd.Flags().GetInt64("time-ms")
		tutor, _ := cmd.Flags().GetBool("tutor")

		rating, err := parseRating(ratingStr)
		if err != nil {
			return err
		}
		if eventID == "" {
			eventID = uuid.NewString()
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		rec := mastery.NewRecorder(s.SnapshotRepo(), s.ResponseRepo(), log)
		st, applied, err := rec.Record(context.Background(), learner, mastery.Response{
			EventID:        eventID,
			QuestionID:     questionID,
			Concepts:       concepts,
			Rating:         rating,
			Correct:        correct,
			ResponseTimeMs: timeMs,
			TutorBefore:    tutor,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !applied {
			fmt.Fprintf(out, "Event %s was already recorded; mastery unchanged.\n", eventID)
			return nil
		}
		fmt.Fprintf(out, "Recorded %s (%s, %s).\n", eventID, rating, correctness(correct))
		if len(concepts) == 0 {
			concepts = []string{mastery.DefaultConcept}
		}
		seen := make(map[string]bool)
		for _, c := range concepts {
			key := mastery.NormalizeKey(c)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			cs := st.Concept(key)
			fmt.Fprintf(out, "  %-28s mastery %.2f  uncertainty %.3f  attempts %d\n",
				cs.DisplayName, cs.ExpectedMastery(), cs.Uncertainty(), cs.Attempts)
		}
		return nil
	},
}

// parseRating accepts a number 1-4 or again/hard/good/easy.
func parseRating(s string) (mastery.Rating, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "again":
		return mastery.RatingAgain, nil
	case "hard":
		return mastery.RatingHard, nil
	case "good", "":
		return mastery.RatingGood, nil
	case "easy":
		return mastery.RatingEasy, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid rating %q: use 1-4 or again, hard, good, easy", s)
	}
	return mastery.Rating(n).Clamp(), nil
}

func correctness(ok bool) string {
	if ok {
		return "correct"
	}
	return "incorrect"
}

func init() {
	respondCmd.Flags().StringP("learner", "l", "", "Learner id")
	respondCmd.Flags().String("event", "", "Response event id (default: a new UUID)")
	respondCmd.Flags().StringP("question", "q", "", "Question id")
	respondCmd.Flags().StringSliceP("concept", "c", nil, "Concept tags of the question")
	respondCmd.Flags().StringP("rating", "r", "good", "Confidence rating: 1-4 or again, hard, good, easy")
	respondCmd.Flags().Bool("correct", false, "The answer was correct")
	respondCmd.Flags().Int64("time-ms", 0, "Response time in milliseconds")
	respondCmd.Flags().Bool("tutor", false, "The learner asked the tutor before answering")
}
