package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/learnedge/learnedge/internal/llm"
	"github.com/learnedge/learnedge/internal/store"
)

const timeLayout = "2006-01-02 15:04:05"

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded AI gateway calls",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent AI calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := store.QueryOpts{}
		opts.Limit, _ = cmd.Flags().GetInt("limit")
		opts.Purpose, _ = cmd.Flags().GetString("purpose")
		opts.FailedOnly, _ = cmd.Flags().GetBool("failed")

		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		printEvents(cmd.OutOrStdout(), events)
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the prompt and raw reply of one AI call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid event id %q", args[0])
		}

		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}
		printEvent(cmd.OutOrStdout(), e)
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage per purpose and estimated cost per model",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		byPurpose, err := s.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(byPurpose) == 0 {
			fmt.Fprintln(out, "No AI calls recorded yet.")
			return nil
		}
		byModel, err := s.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}

		printPurposeUsage(out, byPurpose)
		fmt.Fprintln(out)
		printModelCost(out, byModel)
		return nil
	},
}

func printEvents(w io.Writer, events []store.LLMRequestEvent) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No AI calls found.")
		return
	}
	fmt.Fprintf(w, "%-5s  %-19s  %-13s  %-28s  %6s  %6s  %7s  %s\n",
		"ID", "Time", "Purpose", "Model", "In", "Out", "Ms", "Result")
	fmt.Fprintln(w, strings.Repeat("─", 104))
	for _, e := range events {
		result := "ok"
		if !e.Success {
			result = "error: " + truncate(e.ErrorMessage, 40)
		}
		fmt.Fprintf(w, "%-5d  %-19s  %-13s  %-28s  %6d  %6d  %7d  %s\n",
			e.ID, e.CreatedAt.Local().Format(timeLayout), truncate(e.Purpose, 13), truncate(e.Model, 28),
			e.InputTokens, e.OutputTokens, e.LatencyMs, result)
	}
}

func printEvent(w io.Writer, e *store.LLMRequestEvent) {
	fmt.Fprintf(w, "ID:        %d\n", e.ID)
	fmt.Fprintf(w, "Time:      %s\n", e.CreatedAt.Local().Format(timeLayout))
	fmt.Fprintf(w, "Provider:  %s (%s)\n", e.Provider, e.Model)
	fmt.Fprintf(w, "Purpose:   %s\n", e.Purpose)
	fmt.Fprintf(w, "Tokens:    %d in, %d out\n", e.InputTokens, e.OutputTokens)
	fmt.Fprintf(w, "Latency:   %dms\n", e.LatencyMs)
	if e.Success {
		fmt.Fprintln(w, "Result:    ok")
	} else {
		fmt.Fprintf(w, "Result:    error: %s\n", e.ErrorMessage)
	}

	for _, part := range []struct{ title, body string }{
		{"PROMPT", e.RequestBody},
		{"REPLY", e.ResponseBody},
	} {
		fmt.Fprintf(w, "\n── %s %s\n", part.title, strings.Repeat("─", 56-len(part.title)))
		if part.body == "" {
			fmt.Fprintln(w, "(not captured)")
			continue
		}
		fmt.Fprintln(w, part.body)
	}
}

func printPurposeUsage(w io.Writer, rows []store.LLMUsage) {
	fmt.Fprintln(w, "Usage by purpose")
	fmt.Fprintf(w, "%-16s  %6s  %10s  %10s  %8s\n", "Purpose", "Calls", "Input", "Output", "Avg ms")
	fmt.Fprintln(w, strings.Repeat("─", 58))
	var calls, in, out int
	for _, r := range rows {
		fmt.Fprintf(w, "%-16s  %6d  %10d  %10d  %8d\n", truncate(r.Purpose, 16), r.Calls, r.InputTokens, r.OutputTokens, r.AvgLatencyMs)
		calls += r.Calls
		in += r.InputTokens
		out += r.OutputTokens
	}
	fmt.Fprintln(w, strings.Repeat("─", 58))
	fmt.Fprintf(w, "%-16s  %6d  %10d  %10d\n", "TOTAL", calls, in, out)
}

// printModelCost prices each model with the built-in table. Models missing
// from the table are listed and left out of the total.
func printModelCost(w io.Writer, rows []store.LLMUsage) {
	fmt.Fprintln(w, "Estimated cost (USD)")
	fmt.Fprintf(w, "%-32s  %6s  %10s\n", "Model", "Calls", "Cost")
	fmt.Fprintln(w, strings.Repeat("─", 52))
	var total float64
	var unpriced []string
	for _, r := range rows {
		cost := llm.LookupCost(r.Model)
		if cost == nil {
			unpriced = append(unpriced, r.Model)
			fmt.Fprintf(w, "%-32s  %6d  %10s\n", truncate(r.Model, 32), r.Calls, "?")
			continue
		}
		c := cost.Cost(r.InputTokens, r.OutputTokens)
		total += c
		fmt.Fprintf(w, "%-32s  %6d  %10s\n", truncate(r.Model, 32), r.Calls, formatCost(c))
	}
	fmt.Fprintln(w, strings.Repeat("─", 52))
	fmt.Fprintf(w, "%-32s  %6s  %10s\n", "TOTAL", "", formatCost(total))
	if len(unpriced) > 0 {
		fmt.Fprintf(w, "No pricing for: %s\n", strings.Join(unpriced, ", "))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of calls to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only show one purpose (analysis, question-gen, evaluation, explain, study-plan)")
	llmListCmd.Flags().Bool("failed", false, "Only show failed calls")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
