package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"scenecast/internal/config"
)

// CreateValidateCmd creates the validate command.
func CreateValidateCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a session config file",
		Long:  `Parses a session config file and checks scenes, sources, destinations and bitrate settings without building a graph.`,
		Run: func(_ *cobra.Command, _ []string) {
			cfg, err := config.LoadSession(configFile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid: %v\n", err)
				os.Exit(1)
			}

			transition, _ := cfg.ParseTransitionDuration()
			interval, _ := cfg.ParseCheckInterval()

			fmt.Printf("valid: %s\n", configFile)
			fmt.Printf("  scenes:       %d\n", len(cfg.Scenes))
			for _, scene := range cfg.Scenes {
				fmt.Printf("    %s (%d sources)\n", scene.Name, len(scene.Sources))
			}
			fmt.Printf("  destinations: %d\n", len(cfg.Destinations))
			for _, dest := range cfg.Destinations {
				fmt.Printf("    %s %s\n", dest.Protocol, dest.Target)
			}
			fmt.Printf("  transition:   %s\n", transition)
			fmt.Printf("  bitrate:      %d kbps [%d, %d], check every %s\n",
				cfg.Bitrate.InitialKbps, cfg.Bitrate.MinKbps, cfg.Bitrate.MaxKbps, interval)
			if cfg.Overlay.Enabled {
				fmt.Printf("  overlay:      %d messages\n", len(cfg.Overlay.Messages))
			}
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "session.toml", "Path to session config file")

	return cmd
}
