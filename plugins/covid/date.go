package covid

import (
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"

	jnow "github.com/jinzhu/now"
)

const dateLayout = "2006-01-02"

// 时间序列中日期Key的格式，如 4/15/20
const timeseriesKeyLayout = "1/2/06"

// Zone 依据UTC偏移小时数构造时区
func Zone(offsetHours int) *time.Location {
	if offsetHours == 0 {
		return time.UTC
	}
	return time.FixedZone(fmt.Sprintf("UTC%+d", offsetHours), offsetHours*3600)
}

// ParseDate 解析日期：today、yesterday（相对now所在时区）或 YYYY-MM-DD
func ParseDate(token string, now time.Time) (time.Time, error) {
	switch token {
	case "today":
		return jnow.With(now).BeginningOfDay(), nil
	case "yesterday":
		return jnow.With(now).BeginningOfDay().AddDate(0, 0, -1), nil
	}
	if len(token) != len(dateLayout) {
		return time.Time{}, ErrorOfInvalidDate
	}
	t, err := time.ParseInLocation(dateLayout, token, now.Location())
	if err != nil {
		return time.Time{}, ErrorOfInvalidDate
	}
	return t, nil
}

// NormalizeDate 将日期参数规整为 YYYY-MM-DD
func NormalizeDate(token string, now time.Time) (string, error) {
	t, err := ParseDate(token, now)
	if err != nil {
		return "", err
	}
	return t.Format(dateLayout), nil
}

// LooksLikeDate 参数是否意图表示日期：today、yesterday或以数字开头
func LooksLikeDate(token string) bool {
	if token == "today" || token == "yesterday" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(token)
	return unicode.IsDigit(r)
}
