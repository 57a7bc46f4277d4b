package env

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	TelegramBotToken string
	TelegramChatID   int64

	DashboardURL string

	WatchlistPath string

	Port string
)

func loadEnvVariable(key string, isRequired bool) string {
	value := os.Getenv(key)
	if isRequired && value == "" {
		log.Fatalf("FATAL: Environment variable %s is required but not set.", key)
	}
	isHidden := key == "TELEGRAM_BOT_TOKEN"
	if value == "" {
		if !isRequired {
			log.Printf("INFO: Environment variable %s is not set.", key)
		}
	} else if isHidden {
		log.Printf("INFO: Loaded %s (value hidden)", key)
	} else {
		log.Printf("INFO: Loaded %s = %s", key, value)
	}
	return value
}

func loadInt64Env(key string) int64 {
	strValue := loadEnvVariable(key, false)
	if strValue == "" {
		return 0
	}
	id, err := strconv.ParseInt(strValue, 10, 64)
	if err != nil {
		log.Printf("WARN: Failed to parse int64 environment variable %s='%s': %v. Treating as unset.", key, strValue, err)
		return 0
	}
	return id
}

// LoadEnv reads the process environment (plus an optional .env file) and
// reports which outbound sinks are usable. Missing credentials disable the
// corresponding sink rather than failing startup.
func LoadEnv() error {
	err := godotenv.Load()
	if err != nil {
		log.Println("INFO: .env file not found or error loading, relying on system environment variables.")
	} else {
		log.Println("INFO: .env file loaded successfully.")
	}

	TelegramBotToken = loadEnvVariable("TELEGRAM_BOT_TOKEN", false)
	TelegramChatID = loadInt64Env("TELEGRAM_CHAT_ID")
	DashboardURL = loadEnvVariable("DASHBOARD_URL", false)
	WatchlistPath = loadEnvVariable("WATCHLIST_PATH", false)

	Port = loadEnvVariable("PORT", false)
	if Port == "" {
		Port = "8080"
		log.Printf("INFO: PORT not set, defaulting to %s", Port)
	}

	if TelegramBotToken == "" || TelegramChatID == 0 {
		log.Println("WARN: TELEGRAM_BOT_TOKEN and/or TELEGRAM_CHAT_ID missing. Telegram alerts are disabled.")
	} else {
		log.Println("INFO: Telegram alert sink is active.")
	}
	if DashboardURL == "" {
		log.Println("WARN: DASHBOARD_URL is not set. History recording is disabled.")
	} else {
		log.Println("INFO: Dashboard history sink is active.")
	}

	log.Println("INFO: Environment variables loading process complete.")
	return nil
}
