package shipments

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const awbPrefix = "LT"

// GenerateTrackingNumber mints an AWB of the form LT<yyyymmdd><8 hex chars>.
func GenerateTrackingNumber(now time.Time) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate awb suffix: %w", err)
	}
	suffix := strings.ToUpper(hex.EncodeToString(buf))
	return fmt.Sprintf("%s%s%s", awbPrefix, now.Format("20060102"), suffix), nil
}
