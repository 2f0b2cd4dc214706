package limiter

import (
	"fmt"
	"sync"
	"time"

	"github.com/RicheyJang/covid19bot/manager"
	"github.com/RicheyJang/covid19bot/utils/consts"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

var proxy *manager.PluginProxy
var info = manager.PluginInfo{
	Name:        "Rate limiter",
	Usage:       "per-sender cooldown of commands; set plugins.<key>.cd to limit a single plugin",
	IsPassive:   true,
	IsSuperOnly: true,
}
var plMap sync.Map // 插件Key -> *PluginLimiter

const globalKey = "@global" // 不会与插件Key冲突

func init() {
	proxy = manager.RegisterPlugin(info)
	if proxy == nil {
		return
	}
	proxy.AddConfig("globalCD", "350ms")
	proxy.AddConfig("globalBurst", 1)
	manager.AddPreHook(limiterHook)
	_, _ = proxy.AddScheduleEveryFunc("1m", gcAll)
}

func getPluginLimiter(plugin, initCD string) *PluginLimiter {
	if v, ok := plMap.Load(plugin); ok {
		return v.(*PluginLimiter)
	}
	cd, err := time.ParseDuration(initCD)
	if err != nil { // CD解析失败
		log.Warnf("CD设置出错，无法解析%v，err: %v", initCD, err)
		return nil
	}
	pl := NewPluginLimiter(cd, int(proxy.GetConfigInt64("globalBurst")))
	pl.Key = plugin
	actual, loaded := plMap.LoadOrStore(plugin, pl)
	if !loaded {
		log.Infof("创建<%v>的PluginLimiter, CD=%v", plugin, cd)
	}
	return actual.(*PluginLimiter)
}

// 检查插件的CD设置是否需要更新
func checkPluginCD(pl *PluginLimiter, newCD string) {
	if pl == nil || len(newCD) == 0 {
		return
	}
	cd, err := time.ParseDuration(newCD)
	if err != nil {
		log.Warnf("CD设置出错，无法解析%v，err: %v", newCD, err)
		return
	}
	if cd != pl.GetCD() {
		pl.ResetCD(cd)
		log.Infof("成功更新<%v>的CD：%v", pl.Key, newCD)
	}
}

func limiterHook(condition *manager.PluginCondition, ctx *manager.Ctx) error {
	if ctx.Event == nil {
		return nil
	}
	sender := ctx.Event.SenderID
	// 全局限流检查
	globalCD := proxy.GetConfigString("globalCD")
	if len(globalCD) > 0 {
		globalLimiter := getPluginLimiter(globalKey, globalCD)
		checkPluginCD(globalLimiter, globalCD)
		if globalLimiter != nil && !takeOrNotify(globalLimiter, ctx) {
			log.Warnf("limiter：用户%v频率超出全局限流", sender)
			return fmt.Errorf("limiter：频率超出全局限流")
		}
	}
	// 插件限流检查
	plCD := cast.ToString(proxy.GetPluginConfig(condition.Key, consts.PluginConfigCDKey))
	if len(plCD) == 0 { // 未设置CD
		return nil
	}
	pl := getPluginLimiter(condition.Key, plCD)
	checkPluginCD(pl, plCD)
	if pl != nil && !takeOrNotify(pl, ctx) {
		log.Warnf("limiter：用户%v频率超出<%v>插件限流", sender, condition.Key)
		return fmt.Errorf("limiter：频率超出<%v>插件限流", condition.Key)
	}
	return nil
}

// 获取令牌，失败时对本轮限流的首条命令回复冷却提示
func takeOrNotify(pl *PluginLimiter, ctx *manager.Ctx) bool {
	allowed, notify := pl.Take(ctx.Event.SenderID)
	if !allowed && notify {
		ctx.SendText(fmt.Sprintf("You are sending commands too quickly, please wait %v", pl.GetCD()))
	}
	return allowed
}

// 回收所有插件的过期限流器
func gcAll() {
	now := time.Now()
	plMap.Range(func(_, value interface{}) bool {
		if pl, ok := value.(*PluginLimiter); ok {
			if n := pl.GC(now); n > 0 {
				log.Debugf("<%v>回收了%d个过期限流器", pl.Key, n)
			}
		}
		return true
	})
}
