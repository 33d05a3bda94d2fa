package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowmesh/a2a-go/pkg/client"
)

var cardCmd = &cobra.Command{
	Use:   "card <agent-url>",
	Short: "Resolve and print a remote agent's card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		c, err := client.FromURL(ctx, args[0])
		if err != nil {
			return fmt.Errorf("resolve agent card: %w", err)
		}

		fmt.Println(c.Card.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cardCmd)
}
