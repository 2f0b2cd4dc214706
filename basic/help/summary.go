package help

import (
	"html"
	"sort"
	"strings"

	"github.com/RicheyJang/covid19bot/manager"
)

const defaultClassify = "general"

// 可展示的插件：非隐藏、非被动，超级用户专属插件仅对超级用户展示
func checkPluginCouldShow(plugin *manager.PluginCondition, isSuper bool) bool {
	if plugin.IsHidden || plugin.IsPassive {
		return false
	}
	return !plugin.IsSuperOnly || isSuper
}

// 插件的所有可用命令，每组命令以 / 连接别名
func pluginCommands(plugin *manager.PluginCondition, isSuper bool) []string {
	groups := plugin.NormalCmd
	if isSuper {
		groups = append(append([][]string{}, groups...), plugin.SuperCmd...)
	}
	var res []string
	for _, cmds := range groups {
		res = append(res, strings.Join(cmds, "/"))
	}
	return res
}

func formSummaryHelpMsg(plugins []*manager.PluginCondition, prefix string, isSuper bool) string {
	helps := make(map[string][]*manager.PluginCondition)
	for _, plugin := range plugins {
		if !checkPluginCouldShow(plugin, isSuper) {
			continue
		}
		classify := plugin.Classify
		if len(classify) == 0 {
			classify = defaultClassify
		}
		helps[classify] = append(helps[classify], plugin)
	}
	classifies := make([]string, 0, len(helps))
	for c := range helps {
		classifies = append(classifies, c)
	}
	sort.Strings(classifies)

	var sb strings.Builder
	sb.WriteString("<h4>COVID-19 Bot Help</h4>")
	for _, c := range classifies {
		sb.WriteString("<b>" + html.EscapeString(c) + "</b><ul>")
		items := helps[c]
		sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
		for _, plugin := range items {
			sb.WriteString("<li>" + html.EscapeString(plugin.Name))
			if cmds := pluginCommands(plugin, isSuper); len(cmds) > 0 {
				sb.WriteString(": <code>" + html.EscapeString(strings.Join(cmds, ", ")) + "</code>")
			}
			sb.WriteString("</li>")
		}
		sb.WriteString("</ul>")
	}
	sb.WriteString("Send <code>" + html.EscapeString(prefix) + " help &lt;command&gt;</code> for details")
	return sb.String()
}
