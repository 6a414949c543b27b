package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tradingview-relay/internal/notify"
	"tradingview-relay/internal/relay"
)

func newRenderCmd(app *App) *cobra.Command {
	var (
		send        bool
		contentType string
	)

	cmd := &cobra.Command{
		Use:   "render [file|-]",
		Short: "Render a webhook body as the Telegram message",
		Long: `Run a webhook body through extraction, normalization and formatting and
print the resulting message. Reads stdin when no file or "-" is given.
With --send the message is also delivered to the configured chat.`,
		Example: `  echo '{"symbol":"BINANCE:BTCUSDT","price":67890.1,"condition":"buy"}' | tvrelay render
  tvrelay render alert.json --send`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.load(cmd); err != nil {
				return err
			}
			output := NewOutput(cmd)

			body, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			svc := relay.NewService(app.Config, app.Logger, relay.WithSender(notify.NewNoOpSender()))
			a, n, err := svc.Render(cmd.Context(), body, contentType)
			if err != nil {
				output.Error("Invalid JSON: %v", err)
				return err
			}

			result := map[string]interface{}{
				"alert":        a,
				"notification": n,
			}
			if !output.IsJSON() {
				output.Println(n.Text)
				if n.HasLink() {
					output.Dim("[%s] %s", app.Config.Telegram.ButtonCaption, n.LinkURL)
				}
			}

			if !send {
				if output.IsJSON() {
					return output.JSON(result)
				}
				return nil
			}

			res := notify.NewTelegramSender(app.Config.Telegram, app.Logger).Deliver(cmd.Context(), n)
			result["delivery"] = map[string]interface{}{
				"outcome":     res.Outcome,
				"status":      res.StatusCode,
				"duration_ms": res.Duration.Milliseconds(),
			}
			if output.IsJSON() {
				if err := output.JSON(result); err != nil {
					return err
				}
			}

			switch res.Outcome {
			case notify.OutcomeSent:
				if !output.IsJSON() {
					output.Success("Sent to chat %s", app.Config.Telegram.ChatID)
				}
				return nil
			case notify.OutcomeSkipped:
				if !output.IsJSON() {
					output.Warning("TELEGRAM_TOKEN or CHAT_ID not set, message not sent")
				}
				return res.Err
			default:
				if !output.IsJSON() {
					output.Error("Send failed: %v", res.Err)
				}
				return res.Err
			}
		},
	}

	cmd.Flags().BoolVar(&send, "send", false, "deliver the message to Telegram")
	cmd.Flags().StringVar(&contentType, "content-type", "", "treat the body as sent with this Content-Type")

	return cmd
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", args[0], err)
	}
	return data, nil
}
