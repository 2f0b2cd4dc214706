package inspection

import (
	"html"
	"time"

	"github.com/RicheyJang/covid19bot/manager"

	"github.com/spf13/cast"
)

var proxy *manager.PluginProxy
var info = manager.PluginInfo{
	Name: "Inspection",
	Usage: `process and host status of the bot, superusers only
usage:
	status: show host, process and plugin status
	enable|disable <plugin key>: switch a plugin on or off

config-plugin:
	inspection.heartbeat.interval: interval of the heartbeat log, e.g. 1h; empty to disable`,
	IsSuperOnly: true,
}

var startTime = time.Now()

func init() {
	proxy = manager.RegisterPlugin(info)
	if proxy == nil {
		return
	}
	proxy.OnFullMatch([]string{"status", "check"}).SetBlock(true).SecondPriority().Handle(selfCheckHandler)
	proxy.OnCommands([]string{"enable", "disable"}).SetBlock(true).SecondPriority().Handle(switchHandler)
	proxy.AddConfig("heartbeat.interval", "1h")
	manager.WhenConfigFileChange(heartbeatConfigHook)
}

// 自检
func selfCheckHandler(ctx *manager.Ctx) {
	ctx.SendHTML(formResponse(CheckEnvironment(), CheckSelf(), CheckPlugins(manager.GetAllPluginConditions())))
}

// 启用或停用插件
func switchHandler(ctx *manager.Ctx) {
	key := ctx.Args()
	plugin := manager.GetPluginConditionByKey(key)
	if plugin == nil {
		ctx.SendHTML("No plugin found for <code>" + html.EscapeString(key) + "</code>")
		return
	}
	if key == proxy.Key() {
		ctx.SendText("Inspection can not be switched")
		return
	}
	if cast.ToString(ctx.State["matched"]) == "enable" {
		plugin.Enabled()
		ctx.SendHTML("Plugin <code>" + html.EscapeString(key) + "</code> enabled")
	} else {
		plugin.Disabled()
		ctx.SendHTML("Plugin <code>" + html.EscapeString(key) + "</code> disabled")
	}
	ctx.Log.Infof("插件<%v>状态已切换：%v", key, ctx.State["matched"])
}
