package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/contentpulse/pulsebridge/internal/config"
	"github.com/contentpulse/pulsebridge/internal/pulse"
)

var publishCmd = &cobra.Command{
	Use:   "publish [content-id]",
	Short: "Publish ready ContentPulse content",
	Long: "Without arguments, list ContentPulse content that is ready to publish. " +
		"With a content ID, ask ContentPulse to push that item to the connected site.",
	Args: cobra.MaximumNArgs(1),
	RunE: runPublish,
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	client := pulse.NewClient(cfg.ContentPulse.APIURL, cfg.ContentPulse.APIKey)
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		items, err := client.ReadyContents(cmd.Context())
		if err != nil {
			return fmt.Errorf("load ready contents: %w", err)
		}
		if len(items) == 0 {
			fmt.Fprintln(out, "No ready contents found right now.")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tUPDATED")
		for _, item := range items {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", item.ID, item.Title, item.Status, item.UpdatedAt)
		}
		return tw.Flush()
	}

	contentID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || contentID <= 0 {
		return fmt.Errorf("content ID must be a positive integer, got %q", args[0])
	}

	result, err := client.PublishReady(cmd.Context(), contentID)
	if err != nil {
		return fmt.Errorf("publish content %d: %w", contentID, err)
	}

	fmt.Fprintln(out, result.Message)
	if result.RemoteURL != "" {
		fmt.Fprintln(out, result.RemoteURL)
	}
	return nil
}
