package manager

import (
	"context"
	"sync"
	"time"

	"github.com/RicheyJang/covid19bot/utils/message"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

// Event 与具体聊天平台无关的入站消息事件，由各驱动构造
type Event struct {
	Platform string      // 来源平台：matrix、onebot
	RoomID   string      // 会话ID
	SenderID string      // 发送者ID
	EventID  string      // 消息ID
	Body     string      // 原始消息文本
	Time     time.Time   // 消息时间
	Raw      interface{} // 平台原始事件，供驱动构造回复
}

// Replier 将回复发送至事件所在会话，由各聊天平台驱动实现
type Replier interface {
	Reply(ctx context.Context, ev *Event, reply message.Reply) error
}

// ReplierFunc 函数形式的Replier
type ReplierFunc func(ctx context.Context, ev *Event, reply message.Reply) error

func (f ReplierFunc) Reply(ctx context.Context, ev *Event, reply message.Reply) error {
	return f(ctx, ev, reply)
}

// Ctx 单次命令处理的上下文
type Ctx struct {
	Event *Event
	State map[string]interface{}
	Log   *log.Entry // 携带trace等字段的日志入口

	ctx     context.Context
	replier Replier
	matcher *Matcher

	mu   sync.Mutex
	sent bool
}

func newCtx(c context.Context, ev *Event, replier Replier, entry *log.Entry) *Ctx {
	if c == nil {
		c = context.Background()
	}
	return &Ctx{
		Event:   ev,
		State:   make(map[string]interface{}),
		Log:     entry,
		ctx:     c,
		replier: replier,
	}
}

// Context 获取本次处理的context.Context
func (ctx *Ctx) Context() context.Context {
	return ctx.ctx
}

// Command 去除前缀后的命令文本（已小写、去除两端空白）
func (ctx *Ctx) Command() string {
	return cast.ToString(ctx.State["command"])
}

// Args 命令匹配后剩余的参数文本
func (ctx *Ctx) Args() string {
	return cast.ToString(ctx.State["args"])
}

// Replied 本次命令是否已回复
func (ctx *Ctx) Replied() bool {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return ctx.sent
}

// Send 发送回复，每条命令至多回复一次，重复发送将被忽略
func (ctx *Ctx) Send(reply message.Reply) bool {
	ctx.mu.Lock()
	if ctx.sent {
		ctx.mu.Unlock()
		ctx.Log.Warnf("重复回复已被忽略：%v", reply.Plain)
		return false
	}
	ctx.sent = true
	ctx.mu.Unlock()
	if ctx.replier == nil {
		ctx.Log.Warn("Send: replier is nil")
		return false
	}
	if err := ctx.replier.Reply(ctx.ctx, ctx.Event, reply); err != nil {
		ctx.Log.Errorf("Send reply err: %v", err)
		return false
	}
	return true
}

// SendHTML 发送HTML回复
func (ctx *Ctx) SendHTML(html string) bool {
	return ctx.Send(message.HTML(html))
}

// SendText 发送纯文本回复
func (ctx *Ctx) SendText(text string) bool {
	return ctx.Send(message.Text(text))
}
