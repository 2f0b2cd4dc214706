package covid

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

const unknownValue = "Unknown"

// FormatNumber 千分位格式化，0视为未知
func FormatNumber(n int64) string {
	if n == 0 {
		return unknownValue
	}
	return humanize.Comma(n)
}

// FormatDelta 带符号的千分位格式化，如 +1,234
func FormatDelta(n int64) string {
	if n < 0 {
		return humanize.Comma(n)
	}
	return "+" + humanize.Comma(n)
}

// FormatRate 死亡率：deaths / confirmed，保留两位小数
func FormatRate(deaths, confirmed int64) string {
	if confirmed == 0 {
		return unknownValue
	}
	return fmt.Sprintf("%.2f%%", float64(deaths)/float64(confirmed)*100)
}

var timeUnits = []struct {
	name string
	size time.Duration
}{
	{"years", 365 * 24 * time.Hour},
	{"months", 30 * 24 * time.Hour},
	{"days", 24 * time.Hour},
	{"hours", time.Hour},
	{"minutes", time.Minute},
}

// RelativeTime t相对now的描述：取数值大于1的最大单位，否则以秒计
func RelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	suffix := "ago"
	if diff < 0 {
		suffix = "from now"
		diff = -diff
	}
	for _, unit := range timeUnits {
		if v := float64(diff) / float64(unit.size); v > 1 {
			return fmt.Sprintf("%d %s %s", int64(v), unit.name, suffix)
		}
	}
	return fmt.Sprintf("%d seconds %s", int64(diff.Seconds()), suffix)
}
