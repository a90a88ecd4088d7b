package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/dchealth/dchealth/internal/config"
	"github.com/dchealth/dchealth/internal/runner"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run audits on the configured schedule",
	Long:  "Starts a scheduler that audits the target on the config's cron schedule. The config file is watched and reloaded on change. Stops on SIGINT or SIGTERM.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := setupLogger()

		path, err := config.Find(cfgFile())
		if err != nil {
			return err
		}
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		if cfg.Schedule == "" {
			return fmt.Errorf("config has no schedule; set one or use the run command")
		}

		var mu sync.Mutex
		r := runner.New(cfg, logger)

		audit := func() {
			mu.Lock()
			current := r
			mu.Unlock()
			res := current.Run(context.Background(), false)
			if res.Err != nil {
				logger.Error("scheduled audit failed", "stage", res.ErrStage, "error", res.Err)
			}
		}

		c := cron.New()
		if _, err := c.AddFunc(cfg.Schedule, audit); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("starting config watcher: %w", err)
		}
		defer watcher.Close()

		// Watch the directory, not the file: editors replace config files
		// and the inode-level watch dies with the old inode.
		if err := watcher.Add(filepath.Dir(path)); err != nil {
			return fmt.Errorf("watching config dir: %w", err)
		}

		go func() {
			for {
				select {
				case ev, ok := <-watcher.Events:
					if !ok {
						return
					}
					if filepath.Clean(ev.Name) != filepath.Clean(path) {
						continue
					}
					if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
						continue
					}
					fresh, err := config.Load(path)
					if err != nil {
						logger.Error("config reload failed, keeping previous config", "error", err)
						continue
					}
					if fresh.Schedule != cfg.Schedule {
						logger.Warn("schedule changes take effect on restart", "active", cfg.Schedule, "new", fresh.Schedule)
					}
					mu.Lock()
					r = runner.New(fresh, logger)
					mu.Unlock()
					logger.Info("config reloaded", "path", path)
				case err, ok := <-watcher.Errors:
					if !ok {
						return
					}
					logger.Error("config watcher error", "error", err)
				}
			}
		}()

		c.Start()
		logger.Info("scheduler started", "schedule", cfg.Schedule, "target", cfg.Target)

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		logger.Info("shutting down")
		<-c.Stop().Done()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
