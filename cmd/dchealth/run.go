package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/dchealth/dchealth/internal/config"
	"github.com/dchealth/dchealth/internal/runner"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Audit the configured domain controller once",
	Long:  "Runs the full audit against the configured target, prints the report, and sends it to every notify target. Use --dry-run to validate notification targets without sending.",
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		logger := setupLogger()

		cfg, err := config.Resolve(cfgFile())
		if err != nil {
			return err
		}
		applyOptionFlags(cmd, cfg)

		r := runner.New(cfg, logger)
		res := r.Run(context.Background(), dryRun)
		printResult(res)

		if res.Failed() {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().Bool("dry-run", false, "validate notification targets without sending")
	registerOptionFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	alertStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

func styled() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

func printResult(r runner.Result) {
	if !r.Eligible {
		fmt.Printf("✗ %s is not a domain controller (or the directory did not answer)\n", r.Target)
		return
	}

	fmt.Println(r.Report)

	subject := r.Subject
	if styled() {
		if r.Alerts > 0 {
			subject = alertStyle.Render(subject)
		} else {
			subject = okStyle.Render(subject)
		}
	}
	fmt.Println(subject)

	if r.Err != nil {
		fmt.Printf("✗ Error (%s): %s\n", r.ErrStage, r.Err)
		return
	}

	if len(r.Notified) > 0 {
		label := "Notified"
		if r.DryRun {
			label = "Would notify"
		}
		fmt.Printf("  %s: %s\n", label, strings.Join(r.Notified, ", "))
	}
}
