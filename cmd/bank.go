package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepfunnel/internal/bank"
	"github.com/abhisek/prepfunnel/internal/question"
	"github.com/abhisek/prepfunnel/internal/store"
	"github.com/abhisek/prepfunnel/internal/ui/theme"
)

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Manage curated and cached question banks",
}

var bankImportCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Import bank files (YAML or JSON)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		svc := bank.New(s.BankRepo(), appCfg.BankCacheTTL, log)
		out := cmd.OutOrStdout()
		for _, path := range args {
			f, err := bank.ParseFile(path)
			if err != nil {
				return err
			}
			res, err := svc.Import(context.Background(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: imported %d %s item(s)", path, res.Imported, f.Kind)
			if len(res.Rejected) > 0 {
				fmt.Fprintf(out, ", rejected %d", len(res.Rejected))
			}
			fmt.Fprintln(out)
			for _, r := range res.Rejected {
				fmt.Fprintln(out, theme.Hint.Render(fmt.Sprintf("  #%d %s: %s", r.Index+1, r.ID, r.Reason)))
			}
		}
		return nil
	},
}

var bankListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bank items",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		module, _ := cmd.Flags().GetString("module")
		guideID, _ := cmd.Flags().GetString("guide-id")
		active, _ := cmd.Flags().GetBool("active")

		f := store.BankFilter{
			Kind:       store.BankKind(strings.ToLower(kind)),
			ModuleID:   module,
			GuideID:    guideID,
			ActiveOnly: active,
		}
		if f.Kind != "" && f.Kind != store.BankGold && f.Kind != store.BankPrefab {
			return fmt.Errorf("invalid --kind %q: use gold or prefab", kind)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		items, err := bank.New(s.BankRepo(), appCfg.BankCacheTTL, log).List(context.Background(), f)
		if err != nil {
			return fmt.Errorf("list bank: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(items) == 0 {
			fmt.Fprintln(out, "No bank items found.")
			return nil
		}

		tbl := theme.Table{Columns: []theme.Column{
			{Title: "ID", Width: 36},
			{Title: "Kind", Width: 6},
			{Title: "Module", Width: 12},
			{Title: "Guide", Width: 12},
			{Title: "Status", Width: 14},
			{Title: "Stem", Width: 40},
		}}
		for _, it := range items {
			status := "active"
			if !it.Active {
				status = "retired:" + it.RetireReason
			}
			tbl.Rows = append(tbl.Rows, []string{
				it.Question.ID, string(it.Kind), it.Question.Provenance.ModuleID,
				it.Question.Provenance.GuideID, status, strings.Join(strings.Fields(it.Question.Stem), " "),
			})
		}
		fmt.Fprint(out, tbl.Render())
		return nil
	},
}

var bankRetireCmd = &cobra.Command{
	Use:   "retire <id>",
	Short: "Retire a bank item so it is no longer served",
	Long: "Retire a bank item. Reasons: " + reasonList() + ".\n" +
		"Reason \"other\" requires --note.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		note, _ := cmd.Flags().GetString("note")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		svc := bank.New(s.BankRepo(), appCfg.BankCacheTTL, log)
		if err := svc.Retire(context.Background(), args[0], reason, note); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Retired %s (%s).\n", args[0], reason)
		return nil
	},
}

func reasonList() string {
	rs := question.RetirementReasons()
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

func init() {
	bankListCmd.Flags().String("kind", "", "Filter by kind: gold or prefab")
	bankListCmd.Flags().String("module", "", "Filter by module id")
	bankListCmd.Flags().String("guide-id", "", "Filter by guide id")
	bankListCmd.Flags().Bool("active", false, "Only active items")

	bankRetireCmd.Flags().String("reason", "", "Retirement reason")
	bankRetireCmd.Flags().String("note", "", "Free-text note (required for reason other)")
	_ = bankRetireCmd.MarkFlagRequired("reason")

	bankCmd.AddCommand(bankImportCmd)
	bankCmd.AddCommand(bankListCmd)
	bankCmd.AddCommand(bankRetireCmd)
}
