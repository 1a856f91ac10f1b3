package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Telegram  TelegramConfig
	CryptoPay CryptoPayConfig
	Fragment  FragmentConfig
	TON       TONConfig
}

type ServerConfig struct {
	Port         string
	Environment  string
	LogLevel     string
	AllowOrigins string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type TelegramConfig struct {
	BotToken    string
	WebAppURL   string
	SupportURL  string
	AdminChatID int64
}

type CryptoPayConfig struct {
	Token   string
	BaseURL string
}

type FragmentConfig struct {
	BaseURL string
	Seed    string
	Cookies string
}

type TONConfig struct {
	Testnet       bool
	WalletAddress string
}

func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	tonTestnet, _ := strconv.ParseBool(getEnv("TON_TESTNET", "false"))
	adminChatID, _ := strconv.ParseInt(getEnv("TELEGRAM_ADMIN_CHAT_ID", "0"), 10, 64)

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			LogLevel:     getEnv("LOG_LEVEL", "info"),
			AllowOrigins: getEnv("ALLOW_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "starshop"),
			Password: getEnv("DB_PASSWORD", "starshop"),
			Name:     getEnv("DB_NAME", "starshop"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Telegram: TelegramConfig{
			BotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
			WebAppURL:   getEnv("TELEGRAM_WEBAPP_URL", ""),
			SupportURL:  getEnv("SUPPORT_URL", "https://t.me/StarShopSupport"),
			AdminChatID: adminChatID,
		},
		CryptoPay: CryptoPayConfig{
			Token:   getEnv("CRYPTO_PAY_TOKEN", ""),
			BaseURL: getEnv("CRYPTO_PAY_BASE_URL", ""),
		},
		Fragment: FragmentConfig{
			BaseURL: getEnv("FRAGMENT_BASE_URL", ""),
			Seed:    getEnv("FRAGMENT_SEED", ""),
			Cookies: getEnv("FRAGMENT_COOKIES", ""),
		},
		TON: TONConfig{
			Testnet:       tonTestnet,
			WalletAddress: getEnv("TON_WALLET_ADDRESS", ""),
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// MinStarsAmount is the smallest purchasable star quantity.
const MinStarsAmount = 1
