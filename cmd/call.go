package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/flowmesh/a2a-go/pkg/client"
)

var (
	callContextID string
	callStream    bool

	callCmd = &cobra.Command{
		Use:   "call <agent-url> <message>",
		Short: "Send a message to a remote A2A agent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(cmd, args[0], args[1])
		},
	}
)

func init() {
	rootCmd.AddCommand(callCmd)

	callCmd.Flags().StringVar(&callContextID, "context", "", "existing context id to continue")
	callCmd.Flags().BoolVar(&callStream, "stream", false, "use message/stream instead of message/send")
}

func runCall(cmd *cobra.Command, url, text string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	c, err := client.FromURL(ctx, url)
	if err != nil {
		return fmt.Errorf("resolve agent card: %w", err)
	}

	var opts []client.SendOption
	if callContextID != "" {
		opts = append(opts, client.WithContextID(callContextID))
	}

	if !callStream {
		task, err := c.SendMessage(ctx, text, opts...)
		if err != nil {
			return fmt.Errorf("message/send: %w", err)
		}
		fmt.Println(task.String())
		return nil
	}

	stream, err := c.StreamMessage(ctx, text, opts...)
	if err != nil {
		return fmt.Errorf("message/stream: %w", err)
	}

	for {
		event, err := stream.Next(ctx)
		if err != nil {
			break
		}
		if event.StatusUpdate != nil {
			log.Info("status update", "state", event.StatusUpdate.Status.State, "final", event.StatusUpdate.Final)
		}
		if event.ArtifactUpdate != nil {
			log.Info("artifact update", "artifact", event.ArtifactUpdate.Artifact.Name)
		}
		if event.IsFinal() {
			break
		}
	}

	return nil
}
