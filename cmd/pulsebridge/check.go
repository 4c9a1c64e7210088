package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/contentpulse/pulsebridge/internal/config"
	"github.com/contentpulse/pulsebridge/internal/pulse"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Test the ContentPulse API connection",
	Long:  "Verify that the configured ContentPulse instance is reachable and accepts the configured API key.",
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	client := pulse.NewClient(cfg.ContentPulse.APIURL, cfg.ContentPulse.APIKey)
	result := client.Handshake(cmd.Context())

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Service version:  %s\n", Version)
	fmt.Fprintf(out, "Min API version:  %s\n", result.MinAPIVersion)
	fmt.Fprintf(out, "%s\n", result.Message)

	if !result.Compatible {
		return fmt.Errorf("handshake failed")
	}
	return nil
}
