package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tradingview-relay/internal/relay"
	"tradingview-relay/internal/security"
	"tradingview-relay/internal/server"
)

func newServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server",
		Long: `Run the HTTP server that accepts TradingView webhooks on POST /webhook
and forwards each alert to Telegram. Stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.load(cmd); err != nil {
				return err
			}
			cfg := app.Config
			logger := app.Logger

			if cfg.Telegram.Configured() {
				logger.Info().
					Str("chat_id", cfg.Telegram.ChatID).
					Str("bot_token", security.MaskCredential(cfg.Telegram.BotToken)).
					Msg("Telegram delivery enabled")
			} else {
				logger.Warn().Msg("TELEGRAM_TOKEN or CHAT_ID not set, alerts will be acknowledged but not forwarded")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(cfg.Server, relay.NewService(cfg, logger), logger)
			return srv.Run(ctx)
		},
	}
}
