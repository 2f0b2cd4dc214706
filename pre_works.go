package covid19bot

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/RicheyJang/covid19bot/manager"
	"github.com/RicheyJang/covid19bot/utils"
	"github.com/RicheyJang/covid19bot/utils/consts"

	"github.com/fsnotify/fsnotify"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func init() {
	pflag.StringP("config", "c", consts.DefaultConfigDir, "the directory of config files")
	pflag.StringP("log", "l", "info", "the level of logging")
	pflag.BoolP("daemon", "d", false, "run the bot as a service")
	pflag.Bool("matrix", false, "enable the matrix driver")
	pflag.Bool("onebot", false, "enable the onebot driver")
	pflag.StringSliceP("superuser", "u", []string{}, "all superusers' id")
}

// 设置主配置默认值
func setMainDefaults() {
	viper.SetDefault(consts.PrefixKey, consts.DefaultCommandPrefix)
	viper.SetDefault(consts.SuperUserKey, []string{})
	// 日志配置
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.date", 30)
	// 数据库配置
	viper.SetDefault("db.dir", consts.DefaultLevelDBDir)
	// Matrix配置
	viper.SetDefault("matrix.enable", false)
	viper.SetDefault("matrix.homeserver", "https://matrix.org")
	viper.SetDefault("matrix.user", "@covid19bot:matrix.org")
	viper.SetDefault("matrix.token", "")
	viper.SetDefault("matrix.device", "")
	viper.SetDefault("matrix.autojoin", true)
	// OneBot配置
	viper.SetDefault("onebot.enable", false)
	viper.SetDefault("onebot.server", "ws://127.0.0.1:6700/")
	viper.SetDefault("onebot.token", "")
	viper.SetDefault("onebot.nickname", "covid19bot")
}

// 将命令行参数绑定至主配置
func bindFlags(flags *pflag.FlagSet) {
	bind := func(key, flag string) {
		if f := flags.Lookup(flag); f != nil && f.Changed {
			_ = viper.BindPFlag(key, f)
		}
	}
	bind("log.level", "log")
	bind("matrix.enable", "matrix")
	bind("onebot.enable", "onebot")
	bind(consts.SuperUserKey, "superuser")
}

// ConfigDir 配置文件所在目录
func ConfigDir() string {
	dir, err := pflag.CommandLine.GetString("config")
	if err != nil || len(dir) == 0 {
		return consts.DefaultConfigDir
	}
	return dir
}

// DoPreWorks 进行全局初始化工作
func DoPreWorks() {
	pflag.Parse()
	// 检查是否以服务模式启动
	CheckDaemon()
	setMainDefaults()
	bindFlags(pflag.CommandLine)
	viper.SetEnvPrefix(consts.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	// 读取主配置
	created, err := flushMainConfig(ConfigDir(), consts.MainConfigFileName)
	if err != nil {
		log.Fatal("FlushMainConfig err: ", err)
		return
	}
	if created {
		log.SetFormatter(&utils.SimpleFormatter{})
		log.Fatalf("初始化配置文件%v完成，请对该配置文件进行配置后，重启本程序",
			utils.PathJoin(ConfigDir(), consts.MainConfigFileName))
	}
	// 初始化日志
	if err = setupLogger(); err != nil {
		log.Fatal("setupLogger err: ", err)
		return
	}
	manager.SetPrefix(viper.GetString(consts.PrefixKey))
}

// 设置日志
func setupLogger() error {
	log.SetLevel(parseLevel(viper.GetString("log.level")))
	log.SetFormatter(&utils.SimpleFormatter{})
	// 日志滚动切割
	logf, err := rotatelogs.New(
		utils.PathJoin(consts.DefaultLogDir, "bot-%Y-%m-%d.log"),
		rotatelogs.WithLinkName(utils.PathJoin(consts.DefaultLogDir, "bot.log")),
		rotatelogs.WithMaxAge(time.Duration(viper.GetInt("log.date"))*24*time.Hour),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		log.Error("Get rotate logs err: ", err)
		return err
	}
	var stdOuter io.Writer = os.Stdout
	log.SetOutput(io.MultiWriter(stdOuter, logf))
	return nil
}

var flagLToLevel = map[string]log.Level{
	"trace":   log.TraceLevel,
	"debug":   log.DebugLevel,
	"info":    log.InfoLevel,
	"warn":    log.WarnLevel,
	"warning": log.WarnLevel,
	"error":   log.ErrorLevel,
}

// 解析日志等级，无法识别时为info
func parseLevel(level string) log.Level {
	if l, ok := flagLToLevel[strings.ToLower(strings.TrimSpace(level))]; ok {
		return l
	}
	return log.InfoLevel
}

// 从文件中刷新所有主配置，若文件不存在将会把默认配置写入该文件并返回created=true
func flushMainConfig(configPath string, configFileName string) (created bool, err error) {
	if _, err = utils.MakeDirWithMode(configPath, 0o755); err != nil {
		return false, err
	}
	fullPath := utils.PathJoin(configPath, configFileName)
	viper.SetConfigFile(fullPath)
	if !utils.FileExists(fullPath) { // 配置文件不存在：写入配置
		if err = viper.SafeWriteConfigAs(fullPath); err != nil {
			log.Error("FlushMainConfig error in SafeWriteConfig err: ", err)
			return false, err
		}
		return true, nil
	}
	// 配置文件已存在：合并自配置文件后重新写入
	if err = viper.MergeInConfig(); err != nil {
		log.Error("FlushMainConfig error in MergeInConfig err: ", err)
		return false, err
	}
	_ = viper.WriteConfigAs(fullPath)
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) { // 配置文件发生变更之后会调用的回调函数
		_ = setupLogger()
		manager.SetPrefix(viper.GetString(consts.PrefixKey))
		log.Infof("reload main config from %v", e.Name)
	})
	return false, nil
}

// CheckDaemon 检查是否需要以服务方式运行(运行参数中包含-d)，若需要，启动服务并将本进程退出
func CheckDaemon() {
	if daemon, _ := pflag.CommandLine.GetBool("daemon"); !daemon {
		return
	}
	execArgs := make([]string, 0)
	for _, arg := range os.Args[1:] {
		if arg == "-d" || strings.HasPrefix(arg, "--daemon") {
			continue
		}
		execArgs = append(execArgs, arg)
	}

	proc := exec.Command(os.Args[0], execArgs...)
	if err := proc.Start(); err != nil {
		panic(err)
	}

	log.Info("PID: ", proc.Process.Pid)
	pidErr := os.WriteFile("./bot.pid", []byte(fmt.Sprintf("%d", proc.Process.Pid)), 0o644)
	if pidErr != nil {
		log.Errorf("save pid file error: %v", pidErr)
	}

	os.Exit(0)
}
