package covid

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const lastUpdateLayout = "2006-01-02 15:04:05"

// 展示的数据项：字段名与标签
type field struct {
	key   string
	label string
}

// 报告中展示的字段及顺序
var reportFields = []field{
	{"confirmed", "Confirmed"},
	{"deaths", "Deaths"},
	{"recovered", "Recovered"},
	{"active", "Active"},
}

// RenderReport 渲染报告：data为全球汇总对象或分地区报告数组，至多渲染limit个地区（limit<=0时不限制）
func RenderReport(q Query, data gjson.Result, now time.Time, limit int) string {
	var sb strings.Builder
	sb.WriteString("<h4>COVID-19 Report: ")
	sb.WriteString(html.EscapeString(q.String()))
	sb.WriteString("</h4>")
	if data.IsObject() {
		writeBlock(&sb, "Global", data, now, "")
		return sb.String()
	}
	entries := data.Array()
	shown := entries
	if limit > 0 && len(entries) > limit {
		shown = entries[:limit]
	}
	for _, entry := range shown {
		writeBlock(&sb, regionTitle(entry.Get("region")), entry, now, "")
		cities := entry.Get("region.cities").Array()
		if len(q.City) == 0 || len(cities) == 0 {
			continue
		}
		for _, city := range cities {
			sb.WriteString("<blockquote>")
			writeBlock(&sb, city.Get("name").String(), city, now, "  ")
			sb.WriteString("</blockquote>")
		}
	}
	if len(shown) < len(entries) {
		sb.WriteString(fmt.Sprintf("<i>… and %d more</i>", len(entries)-len(shown)))
	}
	return sb.String()
}

// 地区标题：名称 / 省份
func regionTitle(region gjson.Result) string {
	title := region.Get("name").String()
	if len(title) == 0 {
		title = strings.ToUpper(region.Get("iso").String())
	}
	if province := region.Get("province").String(); len(province) > 0 {
		title += " / " + province
	}
	return title
}

// 写入一个数据块：标题行与<pre>内对齐的各项数据
func writeBlock(sb *strings.Builder, title string, entry gjson.Result, now time.Time, indent string) {
	sb.WriteString("<b>")
	sb.WriteString(html.EscapeString(title))
	sb.WriteString("</b>")
	if updated := entry.Get("last_update").String(); len(updated) > 0 {
		if t, err := time.ParseInLocation(lastUpdateLayout, updated, now.Location()); err == nil {
			sb.WriteString(" (updated " + RelativeTime(t, now) + ")")
		}
	}
	sb.WriteString("<br/><pre>")
	sb.WriteString(html.EscapeString(strings.Join(alignRows(blockRows(entry), indent), "\n")))
	sb.WriteString("</pre>")
}

func blockRows(entry gjson.Result) [][]string {
	var rows [][]string
	for _, f := range reportFields {
		value := entry.Get(f.key)
		if !value.Exists() {
			continue
		}
		row := []string{f.label, FormatNumber(value.Int())}
		if diff := entry.Get(f.key + "_diff"); diff.Exists() {
			row = append(row, FormatDelta(diff.Int()))
		}
		rows = append(rows, row)
	}
	rows = append(rows, []string{"Fatality Rate",
		FormatRate(entry.Get("deaths").Int(), entry.Get("confirmed").Int())})
	return rows
}
