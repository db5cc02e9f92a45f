package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
)

var errInvalidCoins = errors.New("invalid coin amount")

func parseCoins(raw string) (decimal.Decimal, error) {
	coins, err := decimal.NewFromString(raw)
	if err != nil || !coins.IsPositive() {
		return decimal.Zero, errInvalidCoins
	}
	if coins.Exponent() < -4 {
		return decimal.Zero, errInvalidCoins
	}
	return coins, nil
}

func queryInt(r *http.Request, key string, fallback, max int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	if max > 0 && value > max {
		return max
	}
	return value
}
