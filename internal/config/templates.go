package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# TradingView -> Telegram relay configuration
# Every key can also be set through the environment as TVRELAY_<SECTION>_<KEY>,
# e.g. TVRELAY_LOGGING_LEVEL=debug.

[server]
host = "0.0.0.0"
# PORT in the environment overrides this value
port = 5000
# Largest accepted webhook body in bytes
max_body_bytes = 1048576
read_timeout = "10s"
write_timeout = "15s"
shutdown_timeout = "10s"

[telegram]
# Prefer TELEGRAM_TOKEN and CHAT_ID in the environment.
# WARNING: do not commit a filled-in bot token to version control.
bot_token = ""
chat_id = ""
api_url = "https://api.telegram.org"
# Upper bound for one sendMessage call
timeout = "5s"
button_caption = "📊 Open chart on TradingView"
disable_web_page_preview = true

[chart]
# The symbol is appended as ?symbol=<SYMBOL>
base_url = "https://www.tradingview.com/chart/"

[logging]
# debug, info, warn, error
level = "info"
# console or json
format = "console"
# Also write JSON logs to a rotating file
file = false
file_path = "logs/tvrelay.log"
max_size = 100
max_backups = 7
max_age = 30
`

// WriteTemplate writes the default configuration to path. An existing file is
// never overwritten.
func WriteTemplate(path string) error {
	if path == "" {
		path = DefaultConfigFile
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	// The file may end up holding the bot token.
	if err := os.WriteFile(path, []byte(configTemplate), 0600); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
