// Package main provides the notify-bot command: it polls Jenkins for finished
// builds and posts status transitions to Chatwork rooms.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"jenkins-notify-bot/src/config"
	"jenkins-notify-bot/src/logger"
	"jenkins-notify-bot/src/mcp"
	"jenkins-notify-bot/src/tui"
)

var version = "dev"

var configPath string

// rootCmd runs the polling loop until interrupted.
var rootCmd = &cobra.Command{
	Use:   "notify-bot",
	Short: "Post Jenkins build status changes to Chatwork",
	Long: `notify-bot polls the Jenkins latest-builds feed, compares each job's
last build with the status it saw before, and posts one message per
notify option to its Chatwork rooms.

With no subcommand it runs forever, polling every "interval" seconds.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync(log)

		a, err := newApp(cfg, log)
		if err != nil {
			return explain(err)
		}
		defer a.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		go func() {
			select {
			case <-sigChan:
				log.Info("[NotifyBot] Shutdown signal received, stopping after the current cycle...")
				cancel()
			case <-ctx.Done():
			}
		}()

		log.Info("[NotifyBot] %s watching %s", version, cfg.JenkinsServerURL)
		return a.bot.Run(ctx, cfg.PollInterval())
	},
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single polling cycle and exit",
	Long: `Runs one cycle and exits. The exit status is non-zero when the cycle
fails (feed unreachable, status file corrupt, status not saved).
Suitable for cron.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync(log)

		a, err := newApp(cfg, log)
		if err != nil {
			return explain(err)
		}
		defer a.Close()

		res, err := a.bot.Process(cmd.Context())
		if err != nil {
			return explain(err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d jobs, %d reports, %d messages sent, %d delivery errors\n",
			res.Jobs, len(res.Reports), res.Delivered, res.DeliveryErrors)
		return nil
	},
}

var plainStatus bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last known status of every job",
	Long: `Opens an interactive board over the status store.
Keys: j/k move, tab toggles failing jobs only, r reloads, q quits.
Use --plain to print a table instead.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		st, err := openStore(cfg)
		if err != nil {
			return explain(err)
		}
		defer st.Close()

		if plainStatus {
			statuses, err := st.Load(cmd.Context())
			if err != nil {
				return explain(err)
			}
			return tui.WriteTable(cmd.OutOrStdout(), statuses)
		}

		driver, target := cfg.StoreTarget()
		return tui.Run(driver+": "+target, st.Load)
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the status store to MCP clients over stdio",
	Long: `Starts an MCP server on stdin/stdout with the tools
list_build_status, get_build_status and list_subscriptions.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		subs, err := cfg.Subscriptions()
		if err != nil {
			return err
		}

		st, err := openStore(cfg)
		if err != nil {
			return explain(err)
		}
		defer st.Close()

		return mcp.NewServer(st, subs, version).Run()
	},
}

// loadConfig loads the config file and builds the logger it describes.
func loadConfig() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the JSON config file")
	statusCmd.Flags().BoolVar(&plainStatus, "plain", false, "print a plain table instead of the interactive board")

	rootCmd.AddCommand(onceCmd, statusCmd, mcpCmd, tailCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
