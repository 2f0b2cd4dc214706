package manager

import (
	"sync"

	"github.com/RicheyJang/covid19bot/utils"

	"github.com/robfig/cron/v3"
)

// PluginCondition 插件状况结构，
// Hook类型插件应该只与此结构交互
type PluginCondition struct {
	PluginInfo            // 插件信息（由插件提供，只读）
	Key        string     // 插件Key（包名）
	NormalCmd  [][]string // 普通用户专用命令
	SuperCmd   [][]string // 超级用户专用命令

	mu       sync.RWMutex // 保护disabled
	disabled bool         // 插件是否启用，默认false：启用
	schedule *cron.Cron   // 定时任务结构
}

// Enabled 启用插件
func (c *PluginCondition) Enabled() {
	c.mu.Lock()
	c.disabled = false
	c.mu.Unlock()
	c.StartCron()
}

// Disabled 停用插件
func (c *PluginCondition) Disabled() {
	c.mu.Lock()
	c.disabled = true
	c.mu.Unlock()
	c.StopCron()
}

// IsDisabled 插件是否被停用
func (c *PluginCondition) IsDisabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.disabled
}

// StartCron 开始所有定时任务
func (c *PluginCondition) StartCron() {
	if c.schedule != nil && !c.IsDisabled() { // 已有定时任务结构且插件启用
		c.schedule.Start()
	}
}

// StopCron 停止所有定时任务
func (c *PluginCondition) StopCron() {
	if c.schedule != nil {
		c.schedule.Stop()
	}
}

// 获取定时任务结构，不存在时创建
func (c *PluginCondition) getSchedule() *cron.Cron {
	if c.schedule == nil {
		c.schedule = cron.New(cron.WithLogger(utils.NewCronLogger()))
	}
	return c.schedule
}
