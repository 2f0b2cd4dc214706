package covid

import (
	"strings"
)

// Query 报告查询参数，空字段代表不作筛选
type Query struct {
	Date     string // YYYY-MM-DD
	Region   string // 地区ISO代码
	Province string
	City     string
}

// ParseQuery 按分隔符将查询拆分为 地区;省份;城市，至多三段
func ParseQuery(text, delimiter string) (Query, error) {
	var q Query
	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return q, nil
	}
	if len(delimiter) == 0 {
		delimiter = ";"
	}
	fields := strings.Split(text, delimiter)
	if len(fields) > 3 {
		return q, ErrorOfInvalidQuery
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	q.Region = fields[0]
	if len(fields) > 1 {
		q.Province = fields[1]
	}
	if len(fields) > 2 {
		q.City = fields[2]
	}
	return q, nil
}

// IsGlobal 是否未指定任何地区
func (q Query) IsGlobal() bool {
	return len(q.Region) == 0 && len(q.Province) == 0 && len(q.City) == 0
}

// Label 查询范围的展示名：地区代码大写，未指定时为Global
func (q Query) Label() string {
	if len(q.Region) == 0 {
		return "Global"
	}
	return strings.ToUpper(q.Region)
}

// String 查询描述，用于回复
func (q Query) String() string {
	var parts []string
	if len(q.Region) > 0 || (len(q.Province) == 0 && len(q.City) == 0) {
		parts = append(parts, q.Label())
	}
	if len(q.Province) > 0 {
		parts = append(parts, q.Province)
	}
	if len(q.City) > 0 {
		parts = append(parts, q.City)
	}
	s := strings.Join(parts, " / ")
	if len(q.Date) > 0 {
		s += " on " + q.Date
	}
	return s
}
