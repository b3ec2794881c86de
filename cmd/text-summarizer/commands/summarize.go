package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/strrl/text-summarizer/internal/export"
	"github.com/strrl/text-summarizer/internal/panel"
	"github.com/strrl/text-summarizer/pkg/models"
)

// NewSummarizeCommand creates the summarize command
func NewSummarizeCommand(a *app) *cobra.Command {
	var (
		styleName string
		doExport  bool
	)

	cmd := &cobra.Command{
		Use:   "summarize [file]",
		Short: "Summarize a file or standard input without the TUI",
		Long: `Summarize the contents of a file, or of standard input when no file
(or "-") is given, and print the summary with its word counts.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			style, err := models.ParseStyle(styleName)
			if err != nil {
				return err
			}
			return a.runSummarize(cmd, args, style, doExport)
		},
	}

	cmd.Flags().StringVar(&styleName, "style", string(models.StyleConcise), "Summary style: concise, detailed or bullet_points")
	cmd.Flags().BoolVar(&doExport, "export", false, "Also save the summary document to the export directory")

	return cmd
}

func (a *app) runSummarize(cmd *cobra.Command, args []string, style models.Style, doExport bool) error {
	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	state := panel.New().SetStyle(style).SetInput(text)
	state, req, ok := state.Submit()
	if !ok {
		return state.Validate()
	}

	client, err := a.client()
	if err != nil {
		return err
	}

	resp, err := client.Summarize(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("failed to summarize: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate summary id: %w", err)
	}
	state = state.Succeed(*resp, id.String(), time.Now())
	sel := state.Selected()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, sel.Text)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Style:       %s\n", sel.Style.Label())
	fmt.Fprintf(out, "Words:       %d → %d\n", sel.WordCount.Original, sel.WordCount.Summary)
	fmt.Fprintf(out, "Compression: %v%%\n", sel.CompressionRatio)

	if !doExport {
		return nil
	}

	path, err := export.Save(a.cfg.ExportDir, *sel)
	if err != nil {
		return err
	}
	a.logger.Info("summary exported", slog.String("path", path))
	fmt.Fprintf(out, "Exported:    %s\n", path)
	return nil
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read standard input: %w", err)
	}
	return string(data), nil
}
