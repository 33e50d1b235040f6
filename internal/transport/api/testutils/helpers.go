package testutils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// GenerateOverBytesUnderRunes генерирует строку, длина которой в рунах будет всегда меньше длины в байтах.
func GenerateOverBytesUnderRunes(count int) string {
	symbol := "😁" // 4 байта, 1 руна
	return strings.Repeat(symbol, count)
}

// DecodeJSON читает тело ответа в T и закрывает его.
func DecodeJSON[T any](resp *http.Response) (T, error) {
	defer resp.Body.Close()

	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return v, fmt.Errorf("decode response body: %w", err)
	}
	return v, nil
}
