package inspection

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

var (
	heartbeatMu    sync.Mutex
	heartbeatID    cron.EntryID
	heartbeatEvery string
)

// 配置变更时按新的间隔重新设置心跳任务
func heartbeatConfigHook(_ fsnotify.Event) error {
	return resetHeartbeat(proxy.GetConfigString("heartbeat.interval"))
}

func resetHeartbeat(every string) error {
	heartbeatMu.Lock()
	defer heartbeatMu.Unlock()
	if every == heartbeatEvery {
		return nil
	}
	if heartbeatID != 0 {
		proxy.DeleteSchedule(heartbeatID)
		heartbeatID = 0
	}
	heartbeatEvery = every
	if len(every) == 0 {
		log.Info("心跳日志已关闭")
		return nil
	}
	interval, err := time.ParseDuration(every)
	if err != nil || interval < time.Minute {
		log.Warnf("心跳时间间隔inspection.heartbeat.interval格式错误或过短，重置为1分钟，err=%v", err)
		every = "1m"
	}
	heartbeatID, err = proxy.AddScheduleEveryFunc(every, heartbeat)
	if err != nil {
		return err
	}
	log.Infof("开启心跳日志，间隔%v", every)
	return nil
}

func heartbeat() {
	stat := CheckProcess()
	log.WithFields(log.Fields{
		"uptime":     time.Since(startTime).Round(time.Second).String(),
		"cpu":        formatPercent(stat.CPUPercent),
		"mem":        formatBytesSize(stat.RSS),
		"goroutines": stat.Goroutines,
	}).Info("心跳：机器人状态正常")
}
