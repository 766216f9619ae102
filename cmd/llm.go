package cmd

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepfunnel/internal/llm"
	"github.com/abhisek/prepfunnel/internal/store"
	"github.com/abhisek/prepfunnel/internal/ui/theme"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect LLM request/response events",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		events, err := s.EventRepo().QueryLLMEvents(ctx, store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No LLM events found.")
			return nil
		}

		tbl := theme.Table{Columns: []theme.Column{
			{Title: "ID", Width: 5, Right: true},
			{Title: "Timestamp", Width: 19},
			{Title: "Purpose", Width: 14},
			{Title: "Model", Width: 28},
			{Title: "In", Width: 6, Right: true},
			{Title: "Out", Width: 6, Right: true},
			{Title: "Ms", Width: 7, Right: true},
			{Title: "Cost", Width: 8, Right: true},
			{Title: "OK", Width: 2},
		}}
		for _, e := range events {
			if purpose != "" && e.Purpose != purpose {
				continue
			}
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			cost := "?"
			if c := llm.LookupCost(e.Model); c != nil {
				cost = formatCost(c.Cost(e.InputTokens, e.OutputTokens))
			}
			tbl.Rows = append(tbl.Rows, []string{
				fmt.Sprintf("%d", e.ID),
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Purpose,
				e.Model,
				fmt.Sprintf("%d", e.InputTokens),
				fmt.Sprintf("%d", e.OutputTokens),
				fmt.Sprintf("%d", e.LatencyMs),
				cost,
				ok,
			})
		}
		fmt.Fprint(out, tbl.Render())
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View full request/response for an LLM event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id int
		if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		e, err := s.EventRepo().GetLLMEvent(ctx, id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}

		out := cmd.OutOrStdout()
		sep := theme.Separator(60)

		fmt.Fprintf(out, "ID:        %d\n", e.ID)
		fmt.Fprintf(out, "Time:      %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Provider:  %s\n", e.Provider)
		fmt.Fprintf(out, "Model:     %s\n", e.Model)
		fmt.Fprintf(out, "Purpose:   %s\n", e.Purpose)
		fmt.Fprintf(out, "Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
		fmt.Fprintf(out, "Latency:   %dms\n", e.LatencyMs)
		fmt.Fprintf(out, "Success:   %v\n", e.Success)
		if e.ErrorMessage != "" {
			fmt.Fprintf(out, "Error:     %s\n", e.ErrorMessage)
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, sep)
		fmt.Fprintln(out, "REQUEST")
		fmt.Fprintln(out, sep)
		if e.RequestBody != "" {
			fmt.Fprintln(out, e.RequestBody)
		} else {
			fmt.Fprintln(out, "(not captured)")
		}

		fmt.Fprintln(out, sep)
		fmt.Fprintln(out, "RESPONSE")
		fmt.Fprintln(out, sep)
		if e.ResponseBody != "" {
			fmt.Fprintln(out, e.ResponseBody)
		} else {
			fmt.Fprintln(out, "(not captured)")
		}

		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated LLM token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		usage, err := s.EventRepo().LLMUsage(context.Background())
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(usage) == 0 {
			fmt.Fprintln(out, "No LLM usage recorded yet.")
			return nil
		}
		fmt.Fprint(out, renderUsage(usage))
		return nil
	},
}

// renderUsage prints usage per purpose followed by estimated cost per model.
func renderUsage(usage []store.LLMUsage) string {
	var b strings.Builder

	byPurpose := make(map[string]*store.LLMUsage)
	byModel := make(map[string]*store.LLMUsage)
	var purposes, models []string
	for _, u := range usage {
		p, ok := byPurpose[u.Purpose]
		if !ok {
			p = &store.LLMUsage{Purpose: u.Purpose}
			byPurpose[u.Purpose] = p
			purposes = append(purposes, u.Purpose)
		}
		// Weighted so the purpose average covers every model's calls.
		p.AvgLatencyMs = (p.AvgLatencyMs*int64(p.Calls) + u.AvgLatencyMs*int64(u.Calls)) / int64(p.Calls+u.Calls)
		p.Calls += u.Calls
		p.InputTokens += u.InputTokens
		p.OutputTokens += u.OutputTokens

		m, ok := byModel[u.Model]
		if !ok {
			m = &store.LLMUsage{Model: u.Model}
			byModel[u.Model] = m
			models = append(models, u.Model)
		}
		m.Calls += u.Calls
		m.InputTokens += u.InputTokens
		m.OutputTokens += u.OutputTokens
	}
	sort.Strings(purposes)
	sort.Strings(models)

	b.WriteString(theme.Title.Render("Usage by Purpose") + "\n")
	pt := theme.Table{Columns: []theme.Column{
		{Title: "Purpose", Width: 16},
		{Title: "Calls", Width: 6, Right: true},
		{Title: "Input", Width: 10, Right: true},
		{Title: "Output", Width: 10, Right: true},
		{Title: "Total", Width: 10, Right: true},
		{Title: "Avg Ms", Width: 8, Right: true},
	}}
	var totalCalls, totalIn, totalOut int
	for _, name := range purposes {
		p := byPurpose[name]
		pt.Rows = append(pt.Rows, []string{
			name, itoa(p.Calls), itoa(p.InputTokens), itoa(p.OutputTokens),
			itoa(p.InputTokens + p.OutputTokens), fmt.Sprintf("%d", p.AvgLatencyMs),
		})
		totalCalls += p.Calls
		totalIn += p.InputTokens
		totalOut += p.OutputTokens
	}
	pt.Rows = append(pt.Rows, []string{"TOTAL", itoa(totalCalls), itoa(totalIn), itoa(totalOut), itoa(totalIn + totalOut), ""})
	b.WriteString(pt.Render())

	b.WriteString("\n" + theme.Title.Render("Estimated Cost (USD)") + "\n")
	mt := theme.Table{Columns: []theme.Column{
		{Title: "Model", Width: 32},
		{Title: "Calls", Width: 6, Right: true},
		{Title: "Input", Width: 10, Right: true},
		{Title: "Output", Width: 10, Right: true},
		{Title: "Cost", Width: 10, Right: true},
	}}
	var totalCost float64
	var unknown []string
	for _, name := range models {
		m := byModel[name]
		cost := "?"
		if c := llm.LookupCost(name); c != nil {
			v := c.Cost(m.InputTokens, m.OutputTokens)
			totalCost += v
			cost = formatCost(v)
		} else {
			unknown = append(unknown, name)
		}
		mt.Rows = append(mt.Rows, []string{name, itoa(m.Calls), itoa(m.InputTokens), itoa(m.OutputTokens), cost})
	}
	label := "TOTAL"
	if len(unknown) > 0 {
		label = "TOTAL (partial)"
	}
	mt.Rows = append(mt.Rows, []string{label, "", "", "", formatCost(totalCost)})
	b.WriteString(mt.Render())

	if len(unknown) > 0 {
		fmt.Fprintf(&b, "\nPricing unavailable for: %s\n", strings.Join(unknown, ", "))
	}
	return b.String()
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (e.g. question-gen)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
