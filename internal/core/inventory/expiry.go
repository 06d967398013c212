package inventory

import (
	"fmt"
	"strings"
	"time"

	"recipe-inventory/internal/core/domain"
)

const (
	// ExpiringThresholdDays 剩餘天數小於等於此值視為臨期
	ExpiringThresholdDays = 3

	DefaultTopN = 5
	MaxTopN     = 10

	// DateLayout 對外使用的日期格式
	DateLayout = "2006-01-02"
)

var expiryLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// civilDate 取日期部分，丟棄時間與時區
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseExpiryDate 解析儲存的過期日期
// 空字串回傳 ok=false 且無錯誤，表示不會過期
func ParseExpiryDate(raw string) (date time.Time, ok bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, nil
	}
	for _, layout := range expiryLayouts {
		if t, perr := time.Parse(layout, raw); perr == nil {
			return civilDate(t), true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unrecognized expiry date %q", raw)
}

// DaysBetween 回傳 to 與 from 相差的整日數
func DaysBetween(from, to time.Time) int {
	return int(civilDate(to).Sub(civilDate(from)).Hours() / 24)
}

// Classify 依剩餘天數分類
func Classify(days int) domain.ExpiryStatus {
	switch {
	case days <= 0:
		return domain.StatusExpired
	case days <= ExpiringThresholdDays:
		return domain.StatusExpiring
	default:
		return domain.StatusFresh
	}
}

// NormalizeTopN 超出 [1,10] 時回到預設值
func NormalizeTopN(n int) int {
	if n < 1 || n > MaxTopN {
		return DefaultTopN
	}
	return n
}
