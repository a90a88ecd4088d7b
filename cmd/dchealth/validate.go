package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dchealth/dchealth/internal/config"
	"github.com/dchealth/dchealth/internal/notify"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long:  "Loads the config, checks its structure, and verifies that every notify target's URL names a deliverable service. Nothing is sent.",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.Find(cfgFile())
		if err != nil {
			return err
		}
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}

		for _, n := range cfg.Notify {
			svc := cfg.Services[n.Service]
			t := notify.Target{ServiceName: n.Service, URL: svc.URL}
			if err := notify.Validate(t); err != nil {
				return fmt.Errorf("notify target %q: %w", n.Service, err)
			}
		}

		fmt.Printf("✓ %s is valid (target %s, %d notify target(s))\n", path, cfg.Target, len(cfg.Notify))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
