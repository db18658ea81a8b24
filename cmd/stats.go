package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/learnedge/learnedge/internal/mastery"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a user's topic progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")

		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		u, err := findUser(ctx, s, email)
		if err != nil {
			return err
		}
		rows, err := s.Progress().ListByRecency(ctx, nil, u.ID)
		if err != nil {
			return fmt.Errorf("query progress: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(rows) == 0 {
			fmt.Fprintf(out, "No progress recorded for %s.\n", u.Email)
			return nil
		}

		fmt.Fprintf(out, "%-28s  %7s  %10s  %8s  %7s  %-10s  %s\n",
			"Topic", "Mastery", "Confidence", "Attempts", "Success", "Band", "Last attempt")
		fmt.Fprintln(out, strings.Repeat("─", 100))
		for _, p := range rows {
			fmt.Fprintf(out, "%-28s  %7d  %10d  %8d  %6.0f%%  %-10s  %s\n",
				truncate(p.Topic, 28),
				p.MasteryLevel,
				p.Confidence,
				p.TotalAttempts,
				mastery.SuccessRate(p),
				mastery.BandOf(p.MasteryLevel),
				p.LastAttemptAt.Local().Format("2006-01-02 15:04"),
			)
		}
		fmt.Fprintln(out, strings.Repeat("─", 100))
		fmt.Fprintf(out, "Average mastery: %d\n", mastery.AverageMastery(rows))
		return nil
	},
}

func init() {
	statsCmd.Flags().String("email", "", "Email of the user (required)")
	_ = statsCmd.MarkFlagRequired("email")
}
