package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete a user's attempts and topic progress",
	Long: `Delete every answer attempt and progress row of one user.

Materials, questions and study plans are kept.`,
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

		var attempts, progress int64
		err = s.Transaction(ctx, func(tx *gorm.DB) error {
			var err error
			if attempts, err = s.Attempts().DeleteByUser(ctx, tx, u.ID); err != nil {
				return err
			}
			progress, err = s.Progress().DeleteByUser(ctx, tx, u.ID)
			return err
		})
		if err != nil {
			return fmt.Errorf("reset %s: %w", u.Email, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d attempts and %d progress rows for %s.\n", attempts, progress, u.Email)
		return nil
	},
}

func init() {
	resetCmd.Flags().String("email", "", "Email of the user (required)")
	_ = resetCmd.MarkFlagRequired("email")
}
