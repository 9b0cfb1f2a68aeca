package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// GenerateOrderNumber generates a random order number in the format
// ORD-XXXX-XXXX for callers that do not supply their own.
func GenerateOrderNumber() (string, error) {
	bytes := make([]byte, 4)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	hex := hex.EncodeToString(bytes)
	return fmt.Sprintf("ORD-%s-%s", strings.ToUpper(hex[0:4]), strings.ToUpper(hex[4:8])), nil
}

// RevisionOrderNumber derives a revision order number from the origin number.
// The suffix comes from the current time; the unique index on order_number
// backs up uniqueness if two revisions land in the same second.
func RevisionOrderNumber(origin string, now time.Time) string {
	suffix := strconv.FormatInt(now.Unix(), 36)
	return fmt.Sprintf("%s-R%s", origin, strings.ToUpper(suffix))
}
