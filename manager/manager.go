package manager

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/RicheyJang/covid19bot/utils"
	"github.com/RicheyJang/covid19bot/utils/consts"

	"github.com/fsnotify/fsnotify"
	uuid "github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/syndtr/goleveldb/leveldb"
	levelopt "github.com/syndtr/goleveldb/leveldb/opt"
)

type PluginHook func(condition *PluginCondition, ctx *Ctx) error
type FileHook func(event fsnotify.Event) error

// FailureReply 处理命令时发生意外错误的通用回复
const FailureReply = "There was an error processing your command"

// PluginManager 插件管理器结构
type PluginManager struct {
	engine  *Engine      // 匹配器集合
	configs *viper.Viper // viper配置实例
	leveldb *leveldb.DB  // LevelDB实例

	mu     sync.RWMutex
	prefix string // 命令前缀

	plugins     map[string]*PluginProxy // plugin.key -> pluginContext
	preHooks    []PluginHook            // 插件Pre Hook
	postHooks   []PluginHook            // 插件Post Hook
	configHooks []FileHook              // 配置文件更改 Hook
}

// NewPluginManager 新建插件管理器
func NewPluginManager() *PluginManager {
	return &PluginManager{
		engine:  NewEngine(),
		configs: viper.New(),
		prefix:  consts.DefaultCommandPrefix,
		plugins: make(map[string]*PluginProxy),
	}
}

// RegisterPlugin 注册一个插件，并返回插件代理，用于添加事件动作、读写配置、添加定时任务
func (manager *PluginManager) RegisterPlugin(info PluginInfo) *PluginProxy {
	thisPkgName := utils.GetPkgNameByFunc(NewPluginManager)
	key := utils.CallerPackageName(thisPkgName) // 使用包名作为key值
	return manager.registerPluginWithKey(key, info)
}

func (manager *PluginManager) registerPluginWithKey(key string, info PluginInfo) *PluginProxy {
	if len(info.Name) == 0 { // 无名插件
		log.Errorf("插件注册失败：<%s>没有设置Name", key)
		return nil
	}
	if _, ok := manager.plugins[key]; ok { // 已存在同名插件
		log.Errorf("插件注册失败：已存在同名插件%s", key)
		return nil
	}
	proxy := &PluginProxy{ // 创建插件代理
		key: key,
		u:   manager,
		c: PluginCondition{
			Key:        key,
			PluginInfo: info,
		},
	}
	manager.plugins[key] = proxy
	log.Debugf("成功注册插件：%s", proxy.key)
	return proxy
}

// SetPrefix 设置命令前缀
func (manager *PluginManager) SetPrefix(prefix string) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	manager.prefix = prefix
}

// GetPrefix 获取命令前缀
func (manager *PluginManager) GetPrefix() string {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return manager.prefix
}

// FlushConfig 从文件中刷新所有插件配置，若文件不存在将会把配置写入该文件
func (manager *PluginManager) FlushConfig(configPath string, configFileName string) error {
	manager.configs.AddConfigPath(configPath)
	fullPath := filepath.Join(configPath, configFileName)
	manager.configs.SetConfigFile(fullPath)
	if utils.FileExists(fullPath) { // 配置文件已存在：合并自配置文件后重新写入
		err := manager.configs.MergeInConfig()
		if err != nil {
			log.Error("FlushConfig error in MergeInConfig err: ", err)
			return err
		}
		_ = manager.configs.WriteConfigAs(fullPath)
	} else { // 配置文件不存在：写入配置
		err := manager.configs.SafeWriteConfigAs(fullPath)
		if err != nil {
			log.Error("FlushConfig error in SafeWriteConfig err: ", err)
			return err
		}
	}
	manager.callAllConfigChangeHooks(fsnotify.Event{
		Name: fullPath,
		Op:   fsnotify.Create,
	})
	manager.configs.WatchConfig()
	manager.configs.OnConfigChange(func(in fsnotify.Event) {
		manager.callAllConfigChangeHooks(in)
		log.Infof("reload plugins config from %v", in.Name)
	})
	return nil
}

func (manager *PluginManager) callAllConfigChangeHooks(in fsnotify.Event) {
	for _, hook := range manager.configHooks { // 执行配置文件更改时的各个Hook
		err := hook(in)
		if err != nil {
			log.Errorf("处理配置文件(%v)变更时出错：%v", in.Name, err)
		}
	}
}

// SetupDatabase 初始化K-V数据库
func (manager *PluginManager) SetupDatabase(dir string) error {
	if _, err := utils.MakeDirWithMode(dir, 0o755); err != nil {
		log.Errorf("初始化创建LevelDB文件夹失败；%v", err)
		return err
	}
	levelDB, err := leveldb.OpenFile(dir, &levelopt.Options{
		WriteBuffer: 128 * levelopt.KiB,
	})
	if err != nil {
		log.Errorf("初始化GoLevelDB失败，err: %v", err)
		return err
	}
	manager.leveldb = levelDB
	log.Infof("初始化K-V数据库成功：goleveldb(%v)", dir)
	return nil
}

// Start 启动所有插件的定时任务
func (manager *PluginManager) Start() {
	for _, p := range manager.plugins {
		p.c.StartCron()
	}
}

// Close 停止所有定时任务并关闭数据库
func (manager *PluginManager) Close() error {
	for _, p := range manager.plugins {
		p.c.StopCron()
	}
	if manager.leveldb != nil {
		return manager.leveldb.Close()
	}
	return nil
}

// GetAllPluginConditions 获取所有插件的详细信息
func (manager *PluginManager) GetAllPluginConditions() []*PluginCondition {
	var res []*PluginCondition
	for _, c := range manager.plugins {
		if c == nil {
			continue
		}
		res = append(res, &c.c)
	}
	return res
}

// GetPluginConditionByKey 按Key获取插件的详细信息
func (manager *PluginManager) GetPluginConditionByKey(key string) *PluginCondition {
	if p, ok := manager.plugins[key]; ok {
		return &p.c
	}
	return nil
}

// AddPreHook 添加前置hook
func (manager *PluginManager) AddPreHook(hook ...PluginHook) {
	manager.preHooks = append(manager.preHooks, hook...)
}

// AddPostHook 添加后置hook
func (manager *PluginManager) AddPostHook(hook ...PluginHook) {
	manager.postHooks = append(manager.postHooks, hook...)
}

// WhenConfigFileChange 添加配置文件变更时的hook
func (manager *PluginManager) WhenConfigFileChange(hook ...FileHook) {
	manager.configHooks = append(manager.configHooks, hook...)
}

// GetLevelDB 获取LevelDB: 一个K-V数据库
func (manager *PluginManager) GetLevelDB() *leveldb.DB {
	return manager.leveldb
}

// Dispatch 处理一条入站消息：去除前缀后按优先级匹配，返回是否有匹配器处理了该消息
func (manager *PluginManager) Dispatch(c context.Context, ev *Event, replier Replier) bool {
	if ev == nil {
		return false
	}
	command, ok := trimCommandPrefix(ev.Body, manager.GetPrefix())
	if !ok {
		return false
	}
	entry := log.WithFields(log.Fields{
		"trace":    uuid.NewV4().String(),
		"platform": ev.Platform,
		"room":     ev.RoomID,
		"sender":   ev.SenderID,
	})
	ctx := newCtx(c, ev, replier, entry)
	handled := false
	for _, matcher := range manager.engine.sorted() {
		ctx.State = map[string]interface{}{"command": command}
		if manager.pluginDisabled(matcher.key) || !matcher.match(ctx) {
			continue
		}
		handled = true
		ctx.matcher = matcher
		manager.runMatcher(ctx, entry.WithField("plugin", matcher.key))
		if matcher.Block {
			break
		}
	}
	if !handled {
		entry.Debugf("没有匹配命令 %q 的插件", command)
	}
	return handled
}

// ---- 非公开方法 ----

// 默认插件管理器
var defaultManager = NewPluginManager()

// 插件是否已停用，停用插件的匹配器不参与匹配
func (manager *PluginManager) pluginDisabled(key string) bool {
	proxy, ok := manager.plugins[key]
	return ok && proxy.c.IsDisabled()
}

// 调用前置hook、处理函数与后置hook
func (manager *PluginManager) runMatcher(ctx *Ctx, entry *log.Entry) {
	ctx.Log = entry
	key := ctx.matcher.key
	proxy, ok := manager.plugins[key]
	entry.Infof("[Start] 命令 %q 即将被 <%s> 插件处理", ctx.Command(), key)
	if ok {
		for _, hook := range manager.preHooks {
			if err := hook(&proxy.c, ctx); err != nil {
				entry.Infof("[End] <%s> 插件处理被 pre hook 取消，原因: %v", key, err)
				return
			}
		}
	}
	manager.callHandler(ctx)
	entry.Infof("[End] 事件被 <%s> 插件处理完毕", key)
	if ok {
		for _, hook := range manager.postHooks {
			if err := hook(&proxy.c, ctx); err != nil {
				entry.Warnf("post hook err: %v", err)
			}
		}
	}
}

// 调用处理函数，panic时回复通用错误信息
func (manager *PluginManager) callHandler(ctx *Ctx) {
	defer func() {
		if e := recover(); e != nil {
			buf := make([]byte, 4096)
			buf = buf[:runtime.Stack(buf, false)]
			ctx.Log.Errorf("[PANIC] %v\n%s", e, buf)
			if !ctx.Replied() {
				ctx.SendText(FailureReply)
			}
		}
	}()
	ctx.matcher.Handler(ctx)
}

// 添加配置并设置默认值
func (manager *PluginManager) addConfig(prefix string, key string, defaultValue interface{}) {
	manager.configs.SetDefault(joinConfigKey(prefix, key), defaultValue)
}

// 设置配置（仅内存中，不写入文件）
func (manager *PluginManager) setConfig(prefix string, key string, value interface{}) {
	manager.configs.Set(joinConfigKey(prefix, key), value)
}

// 获取配置
func (manager *PluginManager) getConfig(prefix string, key string) interface{} {
	return manager.configs.Get(joinConfigKey(prefix, key))
}

func joinConfigKey(prefix, key string) string {
	if len(prefix) > 0 {
		return fmt.Sprintf("%s.%s", prefix, key)
	}
	return key
}
