package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// StringLimit 限制字符串长度，若超出limit，返回前limit个码点+"..."
func StringLimit(s string, limit int) string {
	runeSlice := []rune(s)
	if len(runeSlice) <= limit {
		return s
	}
	return string(runeSlice[:limit]) + "..."
}

// StringSliceContain 字符串切片中是否含有指定字符串
func StringSliceContain(slices []string, substr string) bool {
	for _, str := range slices {
		if str == substr {
			return true
		}
	}
	return false
}

// StringRealLength 计算字符串的真实长度
func StringRealLength(s string) int {
	return utf8.RuneCountInString(s)
}

// PadRight 以空格将字符串右侧补齐至width个码点
func PadRight(s string, width int) string {
	if n := StringRealLength(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// CutFirstField 按空白切出首个字段，返回首字段与剩余部分（已去除两端空白）
func CutFirstField(s string) (first, rest string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}
