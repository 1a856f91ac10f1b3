package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBotToken = "12345:test-token"

func signInitData(t *testing.T, values url.Values, botToken string) string {
	t.Helper()

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+values.Get(key))
	}

	secretKey := hmac.New(sha256.New, []byte("WebAppData"))
	secretKey.Write([]byte(botToken))
	h := hmac.New(sha256.New, secretKey.Sum(nil))
	h.Write([]byte(strings.Join(pairs, "\n")))

	values.Set("hash", hex.EncodeToString(h.Sum(nil)))
	return values.Encode()
}

func validInitData(t *testing.T) string {
	values := url.Values{}
	values.Set("query_id", "AAH123")
	values.Set("auth_date", fmt.Sprintf("%d", time.Now().Unix()))
	values.Set("user", `{"id":42,"username":"alice","first_name":"Alice","last_name":"A","language_code":"en"}`)
	return signInitData(t, values, testBotToken)
}

func TestValidateTelegramInitData_Valid(t *testing.T) {
	data, err := ValidateTelegramInitData(validInitData(t), testBotToken)
	require.NoError(t, err)

	assert.Equal(t, int64(42), data.UserID)
	assert.Equal(t, "alice", data.Username)
	assert.Equal(t, "Alice", data.FirstName)
	assert.Equal(t, "en", data.LanguageCode)
	assert.Equal(t, "AAH123", data.QueryID)
}

func TestValidateTelegramInitData_WrongToken(t *testing.T) {
	_, err := ValidateTelegramInitData(validInitData(t), "other-token")
	assert.Error(t, err)
}

func TestValidateTelegramInitData_TamperedPayload(t *testing.T) {
	initData := validInitData(t)
	tampered := strings.Replace(initData, "alice", "mallory", 1)

	_, err := ValidateTelegramInitData(tampered, testBotToken)
	assert.Error(t, err)
}

func TestValidateTelegramInitData_MissingHash(t *testing.T) {
	values := url.Values{}
	values.Set("auth_date", fmt.Sprintf("%d", time.Now().Unix()))

	_, err := ValidateTelegramInitData(values.Encode(), testBotToken)
	assert.Error(t, err)
}

func TestValidateTelegramInitData_ExpiredAuthDate(t *testing.T) {
	values := url.Values{}
	values.Set("auth_date", fmt.Sprintf("%d", time.Now().Add(-2*time.Hour).Unix()))
	values.Set("user", `{"id":42}`)
	initData := signInitData(t, values, testBotToken)

	_, err := ValidateTelegramInitData(initData, testBotToken)
	assert.Error(t, err)
}

func TestValidateTelegramInitData_Garbage(t *testing.T) {
	_, err := ValidateTelegramInitData("%zz", testBotToken)
	assert.Error(t, err)
}
