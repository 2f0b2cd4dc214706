package help

import (
	"html"
	"strings"

	"github.com/RicheyJang/covid19bot/manager"
)

func formSingleHelpMsg(plugins []*manager.PluginCondition, cmd string, isSuper bool) string {
	var selected *manager.PluginCondition
	for _, plugin := range plugins { // 优先找插件名
		if strings.EqualFold(plugin.Name, cmd) && checkPluginCouldShow(plugin, isSuper) {
			selected = plugin
			break
		}
	}
	if selected == nil { // 尝试通过命令
		for _, plugin := range plugins {
			if isCmdContains(plugin, cmd, isSuper) && checkPluginCouldShow(plugin, isSuper) {
				selected = plugin
				break
			}
		}
	}
	if selected == nil {
		return "No command found for <code>" + html.EscapeString(cmd) + "</code>"
	}
	res := "<h4>" + html.EscapeString(selected.Name) + "</h4><pre>" +
		html.EscapeString(strings.TrimSpace(selected.Usage)) + "</pre>"
	if isSuper && len(selected.SuperUsage) > 0 {
		res += "<b>superuser:</b><pre>" + html.EscapeString(strings.TrimSpace(selected.SuperUsage)) + "</pre>"
	}
	return res
}

func isCmdContains(plugin *manager.PluginCondition, cmd string, isSuper bool) bool {
	groups := plugin.NormalCmd
	if isSuper {
		groups = append(append([][]string{}, groups...), plugin.SuperCmd...)
	}
	for _, pCmds := range groups {
		for _, pCmd := range pCmds {
			if cmd == pCmd {
				return true
			}
		}
	}
	return false
}
