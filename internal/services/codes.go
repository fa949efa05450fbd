package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"shuttle/internal/utils"
)

const suffixLen = 6

func randomSuffix() string {
	s := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return s[:suffixLen]
}

// newBookingCode returns BK-YYYYMMDD-XXXXXX.
func newBookingCode(now time.Time) string {
	return "BK-" + utils.DateStamp(now) + "-" + randomSuffix()
}

// newFundingReference returns TXN-<unix millis>-XXXXXX.
func newFundingReference(now time.Time) string {
	return fmt.Sprintf("TXN-%d-%s", now.UnixMilli(), randomSuffix())
}

func refundReference(bookingCode string) string {
	return "REFUND-" + bookingCode
}
