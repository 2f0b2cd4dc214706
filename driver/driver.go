// Package driver 聊天平台驱动的公共定义
package driver

import (
	"context"

	"github.com/RicheyJang/covid19bot/manager"
)

// DispatchFunc 将入站事件交由插件管理器处理
type DispatchFunc func(ctx context.Context, ev *manager.Event, replier manager.Replier) bool

// Driver 聊天平台驱动
type Driver interface {
	Name() string
	Start(ctx context.Context) error
	Stop()
}
