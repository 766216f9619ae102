package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepfunnel/internal/bank"
	"github.com/abhisek/prepfunnel/internal/fingerprint"
	"github.com/abhisek/prepfunnel/internal/funnel"
	"github.com/abhisek/prepfunnel/internal/guide"
	"github.com/abhisek/prepfunnel/internal/mastery"
	"github.com/abhisek/prepfunnel/internal/problemgen"
	"github.com/abhisek/prepfunnel/internal/question"
	"github.com/abhisek/prepfunnel/internal/store"
	"github.com/abhisek/prepfunnel/internal/ui/theme"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Build a question batch for a learner",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, err := learnerFlag(cmd)
		if err != nil {
			return err
		}
		guidePath, _ := cmd.Flags().GetString("guide")
		modules, _ := cmd.Flags().GetStringSlice("module")
		concepts, _ := cmd.Flags().GetStringSlice("concept")
		count, _ := cmd.Flags().GetInt("count")
		difficulty, _ := cmd.Flags().GetString("difficulty")
		shuffle, _ := cmd.Flags().GetBool("shuffle")
		noGenerate, _ := cmd.Flags().GetBool("no-generate")
		asJSON, _ := cmd.Flags().GetBool("json")

		g, err := guide.Load(guidePath)
		if err != nil {
			return err
		}
		scope, err := g.Restrict(modules)
		if err != nil {
			return err
		}
		prefs := funnel.Preferences{QuestionCount: count, Difficulty: difficulty, Shuffle: shuffle}
		if err := prefs.Validate(); err != nil {
			return err
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		rec := mastery.NewRecorder(s.SnapshotRepo(), s.ResponseRepo(), log)
		st, err := rec.Load(ctx, learner)
		if err != nil {
			return fmt.Errorf("load mastery: %w", err)
		}
		seen, err := loadSeen(ctx, s.SeenRepo(), learner)
		if err != nil {
			return err
		}

		pools := bank.New(s.BankRepo(), appCfg.BankCacheTTL, log)
		var gen funnel.Generator
		if !noGenerate {
			gen, err = newGenerator(ctx, s.EventRepo())
			if err != nil {
				log.Warn("generation disabled", "error", err)
			}
		}

		o := funnel.New(pools, pools, gen, appCfg.Funnel, log)
		res, err := o.BuildBatch(ctx, funnel.Request{
			Content:          g.Content,
			Preferences:      prefs,
			Scope:            scope,
			GuideConcepts:    g.Concepts,
			ExtraConcepts:    concepts,
			Mastery:          st,
			SeenFingerprints: seen,
		})
		if err != nil {
			return err
		}

		if err := s.SeenRepo().Add(ctx, learner, res.Fingerprints); err != nil {
			log.Error("record seen fingerprints failed", "learner", learner, "error", err)
		}

		out := cmd.OutOrStdout()
		if asJSON {
			return writeBatchJSON(out, res)
		}
		writeBatchText(out, res)
		return nil
	},
}

// newGenerator builds the LLM-backed generation source from config.
func newGenerator(ctx context.Context, events store.EventRepo) (funnel.Generator, error) {
	p, err := newProvider(ctx, events)
	if err != nil {
		return nil, err
	}
	return problemgen.New(p, appCfg.Generator), nil
}

func loadSeen(ctx context.Context, repo store.SeenRepo, learner string) (fingerprint.Set, error) {
	fps, err := repo.Load(ctx, learner)
	if err != nil {
		return nil, fmt.Errorf("load seen questions: %w", err)
	}
	set := make(fingerprint.Set, len(fps))
	for _, fp := range fps {
		set.Add(fp)
	}
	return set, nil
}

type batchOutput struct {
	Questions []question.Question `json:"questions"`
	Meta      funnel.BatchMeta    `json:"meta"`
	Warning   string              `json:"warning,omitempty"`
}

func writeBatchJSON(w io.Writer, res *funnel.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(batchOutput{Questions: res.Questions, Meta: res.Meta, Warning: res.Warning})
}

func writeBatchText(w io.Writer, res *funnel.Result) {
	for i, q := range res.Questions {
		fmt.Fprintf(w, "%s %s\n", theme.Title.Render(fmt.Sprintf("Q%d.", i+1)), q.Stem)
		for j, opt := range q.Options {
			fmt.Fprintf(w, "   %c. %s\n", 'A'+j, opt)
		}
		fmt.Fprintln(w, theme.Hint.Render(fmt.Sprintf("   [%s] %s  id=%s", q.Source, strings.Join(q.Concepts, ", "), q.ID)))
		fmt.Fprintln(w)
	}

	m := res.Meta
	fmt.Fprintln(w, theme.Separator(60))
	fmt.Fprintf(w, "Delivered %d/%d  gold=%d prefab=%d generated=%d  backfill attempts=%d\n",
		m.Delivered, m.TotalRequested,
		m.SourceCounts[question.SourceGold], m.SourceCounts[question.SourcePrefab], m.SourceCounts[question.SourceGenerated],
		m.BackfillAttempts)
	fmt.Fprintf(w, "Focus: %s\n", strings.Join(m.FocusTargets, ", "))
	fmt.Fprintf(w, "Explore: %s\n", strings.Join(m.ExploreTargets, ", "))
	if res.Warning != "" {
		fmt.Fprintln(w, theme.Warning.Render(res.Warning))
	}
}

func init() {
	batchCmd.Flags().StringP("learner", "l", "", "Learner id")
	batchCmd.Flags().StringP("guide", "g", "", "Path to the study guide YAML")
	batchCmd.Flags().StringSliceP("module", "m", nil, "Restrict to these module ids (default: all modules of the guide)")
	batchCmd.Flags().StringSlice("concept", nil, "Extra concepts to include in targeting")
	batchCmd.Flags().IntP("count", "n", 10, "Number of questions")
	batchCmd.Flags().String("difficulty", "", "easy, medium, hard or mixed")
	batchCmd.Flags().Bool("shuffle", false, "Shuffle answer options")
	batchCmd.Flags().Bool("no-generate", false, "Only use curated and cached banks")
	batchCmd.Flags().Bool("json", false, "Print the batch as JSON")
	_ = batchCmd.MarkFlagRequired("guide")
}
