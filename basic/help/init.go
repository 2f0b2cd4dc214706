package help

import (
	"github.com/RicheyJang/covid19bot/manager"
)

var proxy *manager.PluginProxy
var info = manager.PluginInfo{
	Name: "Help",
	Usage: `usage:
	help: list all commands
	help <command or plugin>: usage of a single command`,
	IsHidden: true,
}

func init() {
	proxy = manager.RegisterPlugin(info)
	if proxy == nil {
		return
	}
	proxy.OnFullMatch([]string{""}).SetBlock(true).SetPriority(5).Handle(helpHandle) // 仅有前缀
	proxy.OnCommands([]string{"help"}).SetBlock(true).SetPriority(5).Handle(helpHandle)
}

func helpHandle(ctx *manager.Ctx) {
	isSuper := manager.IsSuperUser(ctx.Event.SenderID)
	arg := ctx.Args()
	if len(arg) == 0 {
		ctx.SendHTML(formSummaryHelpMsg(manager.GetAllPluginConditions(), manager.GetPrefix(), isSuper))
	} else {
		ctx.SendHTML(formSingleHelpMsg(manager.GetAllPluginConditions(), arg, isSuper))
	}
}
