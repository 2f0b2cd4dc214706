package manager

import (
	"context"

	"github.com/syndtr/goleveldb/leveldb"
)

// PluginInfo 插件信息
type PluginInfo struct {
	Name        string // Need 插件名称
	Usage       string // Need 插件用法描述
	SuperUsage  string // Option 插件超级用户用法描述
	Classify    string // Option 插件分类，为空时代表默认分类
	IsHidden    bool   // Option 是否为隐藏插件
	IsPassive   bool   // Option 是否为被动插件（只提供Hook，没有命令）
	IsSuperOnly bool   // Option 是否为超级用户专属插件
}

// FlushConfig 从文件中刷新所有插件配置
func FlushConfig(configPath, configFileName string) error {
	return defaultManager.FlushConfig(configPath, configFileName)
}

// RegisterPlugin 注册一个插件至默认插件管理器，并返回插件代理
func RegisterPlugin(info PluginInfo) *PluginProxy {
	return defaultManager.RegisterPlugin(info)
}

// GetAllPluginConditions 获取所有插件的详细信息
func GetAllPluginConditions() []*PluginCondition {
	return defaultManager.GetAllPluginConditions()
}

// AddPreHook 添加前置hook
func AddPreHook(hook ...PluginHook) {
	defaultManager.AddPreHook(hook...)
}

// AddPostHook 添加后置hook
func AddPostHook(hook ...PluginHook) {
	defaultManager.AddPostHook(hook...)
}

// WhenConfigFileChange 添加配置文件变更时的hook
func WhenConfigFileChange(hook ...FileHook) {
	defaultManager.WhenConfigFileChange(hook...)
}

// SetupDatabase 初始化默认插件管理器的K-V数据库
func SetupDatabase(dir string) error {
	return defaultManager.SetupDatabase(dir)
}

// GetLevelDB 获取默认插件管理器的LevelDB
func GetLevelDB() *leveldb.DB {
	return defaultManager.GetLevelDB()
}

// SetPrefix 设置命令前缀
func SetPrefix(prefix string) {
	defaultManager.SetPrefix(prefix)
}

// GetPrefix 获取命令前缀
func GetPrefix() string {
	return defaultManager.GetPrefix()
}

// Dispatch 交由默认插件管理器处理一条入站消息
func Dispatch(ctx context.Context, ev *Event, replier Replier) bool {
	return defaultManager.Dispatch(ctx, ev, replier)
}

// Start 启动默认插件管理器的定时任务
func Start() {
	defaultManager.Start()
}

// Close 关闭默认插件管理器
func Close() error {
	return defaultManager.Close()
}

// GetPluginConditionByKey 按Key获取插件的详细信息，不存在时返回nil
func GetPluginConditionByKey(key string) *PluginCondition {
	return defaultManager.GetPluginConditionByKey(key)
}
