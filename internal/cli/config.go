package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tradingview-relay/internal/config"
	"tradingview-relay/internal/security"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View, validate and create the relay configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long:  "Show the configuration after defaults, file and environment are merged. Credentials are masked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.load(cmd); err != nil {
				return err
			}
			cfg := maskedConfig(app.Config)

			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(cfg)
			}
			showConfig(output, cfg)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show which configuration file is used",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			path, exists := resolveConfigPath(app.ConfigFile)
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"path": path, "exists": exists})
			}
			if exists {
				output.Println(path)
			} else {
				output.Dim("%s (not found, using defaults and environment)", path)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.load(cmd); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}

			var warnings []string
			if err := security.ValidateBotToken(app.Config.Telegram.BotToken); err != nil {
				warnings = append(warnings, err.Error())
			}
			if err := security.ValidateChatID(app.Config.Telegram.ChatID); err != nil {
				warnings = append(warnings, err.Error())
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"valid": true, "warnings": warnings})
			}
			output.Success("✓ Configuration is valid")
			for _, w := range warnings {
				output.Warning("! %s (alerts will not be forwarded)", w)
			}
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a commented configuration template",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			path := config.DefaultConfigFile
			if len(args) == 1 {
				path = args[0]
			}
			if force {
				if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("removing %s: %w", path, err)
				}
			}
			if err := config.WriteTemplate(path); err != nil {
				output.Error("%v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": path})
			}
			output.Success("✓ Wrote %s", path)
			output.Dim("Set TELEGRAM_TOKEN and CHAT_ID in the environment or a .env file.")
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "replace an existing file")
	cmd.AddCommand(initCmd)

	return cmd
}

func resolveConfigPath(explicit string) (string, bool) {
	path := explicit
	if path == "" {
		path = config.DefaultConfigFile
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	_, err := os.Stat(path)
	return path, err == nil
}

func maskedConfig(cfg config.Config) config.Config {
	cfg.Telegram.BotToken = security.MaskCredential(cfg.Telegram.BotToken)
	return cfg
}

func showConfig(output *Output, cfg config.Config) {
	table := NewTable(output, "KEY", "VALUE")
	table.AddRow("server.addr", cfg.Server.Addr())
	table.AddRow("server.max_body_bytes", fmt.Sprint(cfg.Server.MaxBodyBytes))
	table.AddRow("server.read_timeout", cfg.Server.ReadTimeout.String())
	table.AddRow("server.write_timeout", cfg.Server.WriteTimeout.String())
	table.AddRow("server.shutdown_timeout", cfg.Server.ShutdownTimeout.String())
	table.AddRow("telegram.bot_token", orUnset(cfg.Telegram.BotToken))
	table.AddRow("telegram.chat_id", orUnset(cfg.Telegram.ChatID))
	table.AddRow("telegram.api_url", cfg.Telegram.APIURL)
	table.AddRow("telegram.timeout", cfg.Telegram.Timeout.String())
	table.AddRow("telegram.button_caption", cfg.Telegram.ButtonCaption)
	table.AddRow("telegram.disable_web_page_preview", fmt.Sprint(cfg.Telegram.DisableWebPagePreview))
	table.AddRow("chart.base_url", cfg.Chart.BaseURL)
	table.AddRow("logging.level", cfg.Logging.Level)
	table.AddRow("logging.format", cfg.Logging.Format)
	if cfg.Logging.File {
		table.AddRow("logging.file_path", cfg.Logging.FilePath)
	}
	table.Render()
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}
