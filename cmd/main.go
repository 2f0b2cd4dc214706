package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	covid19bot "github.com/RicheyJang/covid19bot"
	"github.com/RicheyJang/covid19bot/driver"
	"github.com/RicheyJang/covid19bot/driver/matrix"
	"github.com/RicheyJang/covid19bot/driver/onebot"
	"github.com/RicheyJang/covid19bot/manager"
	"github.com/RicheyJang/covid19bot/utils/consts"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	// 基础插件
	_ "github.com/RicheyJang/covid19bot/basic/help"
	_ "github.com/RicheyJang/covid19bot/basic/limiter"

	// 普通插件
	_ "github.com/RicheyJang/covid19bot/plugins/covid"
	_ "github.com/RicheyJang/covid19bot/plugins/inspection"
	_ "github.com/RicheyJang/covid19bot/plugins/statistic"
)

func main() {
	covid19bot.DoPreWorks()
	// 插件配置与数据库
	if err := manager.FlushConfig(covid19bot.ConfigDir(), consts.PluginConfigFileName); err != nil {
		log.Fatal("FlushConfig err: ", err)
	}
	if err := manager.SetupDatabase(viper.GetString("db.dir")); err != nil {
		log.Fatal("SetupDatabase err: ", err)
	}
	manager.Start()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	drivers := setupDrivers()
	if len(drivers) == 0 {
		log.Fatal("没有启用任何聊天平台驱动，请在配置中开启matrix.enable或onebot.enable")
	}
	for _, d := range drivers {
		if err := d.Start(ctx); err != nil {
			log.Fatalf("启动%v驱动失败：%v", d.Name(), err)
		}
	}
	log.Infof("机器人已启动，命令前缀：%v", manager.GetPrefix())

	<-ctx.Done()
	log.Info("正在关闭...")
	for _, d := range drivers {
		d.Stop()
	}
	if err := manager.Close(); err != nil {
		log.Errorf("关闭插件管理器失败：%v", err)
	}
}

func setupDrivers() []driver.Driver {
	var drivers []driver.Driver
	if viper.GetBool("matrix.enable") {
		d, err := matrix.New(matrix.Config{
			Homeserver:  viper.GetString("matrix.homeserver"),
			UserID:      viper.GetString("matrix.user"),
			AccessToken: viper.GetString("matrix.token"),
			DeviceID:    viper.GetString("matrix.device"),
			AutoJoin:    viper.GetBool("matrix.autojoin"),
		}, manager.Dispatch)
		if err != nil {
			log.Fatal("matrix driver err: ", err)
		}
		drivers = append(drivers, d)
	}
	if viper.GetBool("onebot.enable") {
		drivers = append(drivers, onebot.New(onebot.Config{
			Server:   viper.GetString("onebot.server"),
			Token:    viper.GetString("onebot.token"),
			NickName: viper.GetString("onebot.nickname"),
		}, manager.Dispatch))
	}
	return drivers
}
