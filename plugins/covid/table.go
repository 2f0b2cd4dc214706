package covid

import (
	"strings"

	"github.com/RicheyJang/covid19bot/utils"
)

const columnGap = "  "

// RenderTable 渲染等宽文本表格：每列宽度为表头与各单元格的最大长度，所有单元格右侧补齐
func RenderTable(headers []string, rows [][]string) string {
	all := make([][]string, 0, len(rows)+1)
	if len(headers) > 0 {
		all = append(all, headers)
	}
	all = append(all, rows...)
	return strings.Join(alignRows(all, ""), "\n")
}

// 计算各列宽度
func columnWidths(rows [][]string) []int {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if l := utils.StringRealLength(cell); l > widths[i] {
				widths[i] = l
			}
		}
	}
	return widths
}

// 将各行按列宽对齐，每行前加indent
func alignRows(rows [][]string, indent string) []string {
	widths := columnWidths(rows)
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, len(widths))
		for i := range widths {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = utils.PadRight(cell, widths[i])
		}
		lines = append(lines, indent+strings.Join(cells, columnGap))
	}
	return lines
}
