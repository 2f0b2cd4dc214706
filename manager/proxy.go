package manager

import (
	"fmt"
	"time"

	"github.com/RicheyJang/covid19bot/utils"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cast"
	"github.com/syndtr/goleveldb/leveldb"
)

// PluginProxy 插件代理，呈现给插件，用于添加事件动作、读写配置、添加定时任务
// 插件在注册后，应只与此代理交互，与Manager再无交际
type PluginProxy struct {
	key string         // 插件Key
	u   *PluginManager // 所从属的插件管理器

	c PluginCondition // 插件状态（被管理器控制）
}

// Key 获取插件Key
func (p *PluginProxy) Key() string {
	return p.key
}

// ---- 事件动作 ----

// OnMessage 添加新的消息匹配器，所有前缀命令都会经过rules检查
func (p *PluginProxy) OnMessage(rules ...Rule) *Matcher {
	rules = p.checkRules(rules...)
	return p.u.engine.on(p.key, rules...)
}

// OnFullMatch 添加新的完全匹配器：命令文本与src之一完全一致
func (p *PluginProxy) OnFullMatch(src []string, rules ...Rule) *Matcher {
	p.recordCommands(src, rules...)
	rules = p.checkRules(append([]Rule{FullMatchRule(src...)}, rules...)...)
	return p.u.engine.on(p.key, rules...)
}

// OnCommands 添加新的命令匹配器：命令文本首字段为cmd之一，其后内容作为参数
func (p *PluginProxy) OnCommands(cmd []string, rules ...Rule) *Matcher {
	p.recordCommands(cmd, rules...)
	rules = p.checkRules(append([]Rule{CommandRule(cmd...)}, rules...)...)
	return p.u.engine.on(p.key, rules...)
}

// 添加命令记录，用于帮助
func (p *PluginProxy) recordCommands(cmd []string, rules ...Rule) {
	hasSuper := p.c.IsSuperOnly
	for _, rule := range rules {
		if utils.IsSameFunc(rule, SuperUserPermission) {
			hasSuper = true
			break
		}
	}
	if !hasSuper {
		p.c.NormalCmd = append(p.c.NormalCmd, cmd)
	} else {
		p.c.SuperCmd = append(p.c.SuperCmd, cmd)
	}
}

// 检查并添加必要的Rule
func (p *PluginProxy) checkRules(rules ...Rule) []Rule {
	// 是否为超级用户专属插件
	if p.c.IsSuperOnly {
		return append(rules, SuperUserPermission)
	}
	return rules
}

// ---- 配置 ----

// AddConfig 添加配置
func (p *PluginProxy) AddConfig(key string, defaultValue interface{}) {
	p.u.addConfig(fmt.Sprintf("plugins.%s", p.key), key, defaultValue)
}

// SetConfig 设置配置（仅内存中）
func (p *PluginProxy) SetConfig(key string, value interface{}) {
	p.u.setConfig(fmt.Sprintf("plugins.%s", p.key), key, value)
}

// GetConfig 获取配置
func (p *PluginProxy) GetConfig(key string) interface{} {
	return p.u.getConfig(fmt.Sprintf("plugins.%s", p.key), key)
}

// GetPluginConfig 获取其它插件的配置
func (p *PluginProxy) GetPluginConfig(pluginKey string, key string) interface{} {
	return p.u.getConfig(fmt.Sprintf("plugins.%s", pluginKey), key)
}

// GetConfigString 获取String配置
func (p *PluginProxy) GetConfigString(key string) string {
	return cast.ToString(p.GetConfig(key))
}

// GetConfigInt64 获取Int64配置
func (p *PluginProxy) GetConfigInt64(key string) int64 {
	return cast.ToInt64(p.GetConfig(key))
}

// GetConfigBool 获取Bool配置
func (p *PluginProxy) GetConfigBool(key string) bool {
	return cast.ToBool(p.GetConfig(key))
}

// GetConfigDuration 获取Duration配置，如"10s"
func (p *PluginProxy) GetConfigDuration(key string) time.Duration {
	return cast.ToDuration(p.GetConfig(key))
}

// GetConfigStringSlice 获取[]string配置
func (p *PluginProxy) GetConfigStringSlice(key string) []string {
	return cast.ToStringSlice(p.GetConfig(key))
}

// ---- 定时任务 ----

// AddScheduleFunc 添加cron表达式形式的定时任务，如"@every 1h"、"0 1 * * *"
func (p *PluginProxy) AddScheduleFunc(spec string, fn func()) (cron.EntryID, error) {
	return p.c.getSchedule().AddFunc(spec, fn)
}

// AddScheduleDailyFunc 添加每日定时任务，于每天hour:minute执行
func (p *PluginProxy) AddScheduleDailyFunc(hour, minute int, fn func()) (cron.EntryID, error) {
	return p.AddScheduleFunc(fmt.Sprintf("%d %d * * *", minute, hour), fn)
}

// AddScheduleEveryFunc 添加固定间隔的定时任务，如"30m"
func (p *PluginProxy) AddScheduleEveryFunc(every string, fn func()) (cron.EntryID, error) {
	return p.AddScheduleFunc("@every "+every, fn)
}

// DeleteSchedule 删除定时任务
func (p *PluginProxy) DeleteSchedule(id cron.EntryID) {
	if p.c.schedule != nil {
		p.c.schedule.Remove(id)
	}
}

// ---- 数据库 ----

// GetLevelDB 获取LevelDB，未初始化时为nil
func (p *PluginProxy) GetLevelDB() *leveldb.DB {
	return p.u.leveldb
}
