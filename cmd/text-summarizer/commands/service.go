package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewHealthCommand creates the health command
func NewHealthCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the summarization service is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printEndpoint(cmd, "health", func(ctx context.Context) (map[string]any, error) {
				client, err := a.client()
				if err != nil {
					return nil, err
				}
				return client.Health(ctx)
			})
		},
	}
}

// NewInfoCommand creates the info command
func NewInfoCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show what the summarization service reports about itself",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printEndpoint(cmd, "info", func(ctx context.Context) (map[string]any, error) {
				client, err := a.client()
				if err != nil {
					return nil, err
				}
				return client.Info(ctx)
			})
		},
	}
}

func (a *app) printEndpoint(cmd *cobra.Command, name string, fetch func(context.Context) (map[string]any, error)) error {
	body, err := fetch(cmd.Context())
	if err != nil {
		return fmt.Errorf("%s check failed: %w", name, err)
	}

	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s response: %w", name, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
