package redsys

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

const orderLength = 12

var orderPattern = regexp.MustCompile(`^[0-9]{4}[0-9A-Z]{0,8}$`)

// ValidateOrderID checks the gateway's order format: 4 to 12 characters,
// the first four numeric, the rest digits or upper-case letters.
func ValidateOrderID(candidate string) (string, error) {
	if !orderPattern.MatchString(candidate) {
		return "", fmt.Errorf("%w: %q", ErrInvalidOrderID, candidate)
	}
	return candidate, nil
}

// GenerateOrderID derives a 12-digit order id from the current unix time and a
// random suffix. Uniqueness is best-effort; persistence must enforce it.
func GenerateOrderID() string {
	return generateOrderID(time.Now(), rand.Reader)
}

func generateOrderID(now time.Time, random io.Reader) string {
	var suffix int
	buf := make([]byte, 2)
	if _, err := io.ReadFull(random, buf); err == nil {
		suffix = int(binary.BigEndian.Uint16(buf)) % 10000
	} else {
		suffix = now.Nanosecond() / 1000 % 10000
	}
	id := fmt.Sprintf("%d%04d", now.Unix(), suffix)
	if len(id) < orderLength {
		id = strings.Repeat("0", orderLength-len(id)) + id
	}
	return id[len(id)-orderLength:]
}
