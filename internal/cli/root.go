// Package cli provides the command-line interface for the relay.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tradingview-relay/internal/config"
	"tradingview-relay/internal/logging"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-05-01"
)

// App holds the application dependencies.
type App struct {
	ConfigFile string
	Config     config.Config
	Logger     zerolog.Logger
	debug      bool
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd() *cobra.Command {
	app := &App{Logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "tvrelay",
		Short: "TradingView webhook to Telegram relay",
		Long: `tvrelay receives TradingView alert webhooks and forwards them to a
Telegram chat as formatted messages with a chart link.

Credentials come from TELEGRAM_TOKEN and CHAT_ID (or a .env file);
everything else can be set in tvrelay.toml or TVRELAY_* variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app.ConfigFile, _ = cmd.Flags().GetString("config")
			app.debug, _ = cmd.Flags().GetBool("debug")
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./"+config.DefaultConfigFile+" if present)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newRenderCmd(app))
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// load reads the configuration and builds the logger. Logs go to the
// command's error stream so they never mix with command output.
func (a *App) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.ConfigFile)
	if err != nil {
		return err
	}
	if a.debug {
		cfg.Logging.Level = "debug"
	}
	a.Config = cfg

	logCfg := cfg.Logging.LogConfig()
	logCfg.Output = cmd.ErrOrStderr()
	a.Logger = logging.NewLoggerWithConfig(logCfg)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("tvrelay v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}
