package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/starshop/backend/internal/config"
)

const (
	TelegramUserKey = "telegram_user"
	UserIDKey       = "user_id"

	// initDataMaxAge rejects replayed init data.
	initDataMaxAge = time.Hour
)

// TelegramInitData is the validated identity extracted from Mini App init
// data.
type TelegramInitData struct {
	QueryID      string `json:"query_id"`
	UserID       int64  `json:"user_id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	LanguageCode string `json:"language_code"`
	AuthDate     int64  `json:"auth_date"`
	Hash         string `json:"hash"`
}

// TelegramAuth authenticates Mini App requests via the signed init data in
// the X-Telegram-Init-Data header (or "tma" Authorization scheme).
func TelegramAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		initData := c.Get("X-Telegram-Init-Data")
		if initData == "" {
			initData = c.Get("Authorization")
			if strings.HasPrefix(initData, "tma ") {
				initData = strings.TrimPrefix(initData, "tma ")
			}
		}

		if initData == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing telegram init data",
			})
		}

		userData, err := ValidateTelegramInitData(initData, cfg.Telegram.BotToken)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid telegram init data: " + err.Error(),
			})
		}

		c.Locals(TelegramUserKey, userData)
		c.Locals(UserIDKey, userData.UserID)

		return c.Next()
	}
}

// ValidateTelegramInitData checks the HMAC signature and freshness of raw
// init data and extracts the sender identity.
func ValidateTelegramInitData(initData, botToken string) (*TelegramInitData, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, err
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "missing hash")
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid auth_date")
	}
	if time.Now().Unix()-authDate > int64(initDataMaxAge.Seconds()) {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "auth_date expired")
	}

	// data-check-string: sorted key=value pairs joined by newlines, hash
	// excluded
	values.Del("hash")
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+values.Get(key))
	}
	dataCheckString := strings.Join(pairs, "\n")

	secretKey := hmac.New(sha256.New, []byte("WebAppData"))
	secretKey.Write([]byte(botToken))

	h := hmac.New(sha256.New, secretKey.Sum(nil))
	h.Write([]byte(dataCheckString))
	calculatedHash := hex.EncodeToString(h.Sum(nil))

	if !hmac.Equal([]byte(calculatedHash), []byte(hash)) {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid hash")
	}

	userData := &TelegramInitData{
		QueryID:  values.Get("query_id"),
		AuthDate: authDate,
		Hash:     hash,
	}

	if userJSON := values.Get("user"); userJSON != "" {
		var u struct {
			ID           int64  `json:"id"`
			Username     string `json:"username"`
			FirstName    string `json:"first_name"`
			LastName     string `json:"last_name"`
			LanguageCode string `json:"language_code"`
		}
		if err := json.Unmarshal([]byte(userJSON), &u); err != nil {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid user payload")
		}
		userData.UserID = u.ID
		userData.Username = u.Username
		userData.FirstName = u.FirstName
		userData.LastName = u.LastName
		userData.LanguageCode = u.LanguageCode
	}

	return userData, nil
}

func GetUserID(c *fiber.Ctx) int64 {
	userID, ok := c.Locals(UserIDKey).(int64)
	if !ok {
		return 0
	}
	return userID
}

func GetTelegramUser(c *fiber.Ctx) *TelegramInitData {
	userData, ok := c.Locals(TelegramUserKey).(*TelegramInitData)
	if !ok {
		return nil
	}
	return userData
}
