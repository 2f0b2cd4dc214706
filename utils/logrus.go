package utils

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

// SimpleFormatter 单行日志格式：[时间] [等级] 消息 key=value...
type SimpleFormatter struct{}

func (f *SimpleFormatter) Format(entry *log.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}
	level := strings.ToUpper(entry.Level.String())
	_, _ = fmt.Fprintf(b, "[%s] [%s] %s", entry.Time.Format("2006-01-02 15:04:05"), level,
		strings.TrimRight(entry.Message, "\n"))
	// 字段按key排序输出，保证同类日志字段顺序稳定
	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

type LoggerCron struct{}

func NewCronLogger() *LoggerCron {
	return new(LoggerCron)
}

func (l *LoggerCron) Info(msg string, keysAndValues ...interface{}) {
	if msg == "wake" || msg == "run" {
		return
	}
	log.Info("cron msg: ", msg)
}

func (l *LoggerCron) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error("cron msg: ", msg, "err: ", err)
}
