package onebot

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/RicheyJang/covid19bot/driver"
	"github.com/RicheyJang/covid19bot/manager"
	"github.com/RicheyJang/covid19bot/utils/message"

	log "github.com/sirupsen/logrus"
	zero "github.com/wdvxdr1123/ZeroBot"
	zerodriver "github.com/wdvxdr1123/ZeroBot/driver"
	zeromsg "github.com/wdvxdr1123/ZeroBot/message"
)

const platform = "onebot"

// Config OneBot驱动配置
type Config struct {
	Server   string // 正向WebSocket地址，如 ws://127.0.0.1:6700/
	Token    string
	NickName string
}

// Driver OneBot驱动：通过ZeroBot接收消息，以引用回复的纯文本应答
type Driver struct {
	cfg      Config
	dispatch driver.DispatchFunc

	once    sync.Once
	mu      sync.RWMutex
	ctx     context.Context
	running bool
}

// New 新建OneBot驱动，dispatch为nil时使用默认插件管理器
func New(cfg Config, dispatch driver.DispatchFunc) *Driver {
	if dispatch == nil {
		dispatch = manager.Dispatch
	}
	return &Driver{cfg: cfg, dispatch: dispatch, ctx: context.Background()}
}

func (d *Driver) Name() string {
	return platform
}

// Start 连接OneBot服务端
func (d *Driver) Start(ctx context.Context) error {
	if len(d.cfg.Server) == 0 {
		return fmt.Errorf("onebot server address is empty")
	}
	d.mu.Lock()
	d.ctx = ctx
	d.running = true
	d.mu.Unlock()
	d.once.Do(func() {
		zero.OnMessage().Handle(d.handleMessage)
		zero.Run(zero.Config{
			NickName:      []string{d.cfg.NickName},
			CommandPrefix: "",
			Driver: []zero.Driver{
				zerodriver.NewWebSocketClient(d.cfg.Server, d.cfg.Token),
			},
		})
	})
	log.Infof("OneBot驱动已启动：%v", d.cfg.Server)
	return nil
}

// Stop 停止处理消息；ZeroBot的连接随进程退出
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = false
}

func (d *Driver) handleMessage(ctx *zero.Ctx) {
	d.mu.RLock()
	running, c := d.running, d.ctx
	d.mu.RUnlock()
	if !running || ctx.Event == nil {
		return
	}
	d.dispatch(c, toEvent(ctx.Event, ctx.ExtractPlainText(), ctx), d)
}

// 会话ID：群聊为group:群号，私聊为private:用户ID
func roomID(ev *zero.Event) string {
	if ev.GroupID != 0 {
		return "group:" + strconv.FormatInt(ev.GroupID, 10)
	}
	return "private:" + strconv.FormatInt(ev.UserID, 10)
}

func toEvent(ev *zero.Event, text string, raw interface{}) *manager.Event {
	return &manager.Event{
		Platform: platform,
		RoomID:   roomID(ev),
		SenderID: strconv.FormatInt(ev.UserID, 10),
		EventID:  fmt.Sprint(ev.MessageID),
		Body:     text,
		Time:     time.Unix(ev.Time, 0),
		Raw:      raw,
	}
}

// BuildMessage 构造回复消息：引用原消息并附带纯文本
func BuildMessage(reply message.Reply, messageID interface{}) zeromsg.Message {
	return zeromsg.Message{zeromsg.Reply(messageID), zeromsg.Text(reply.Plain)}
}

// Reply 以引用回复发送纯文本
func (d *Driver) Reply(_ context.Context, ev *manager.Event, reply message.Reply) error {
	ctx, ok := ev.Raw.(*zero.Ctx)
	if !ok || ctx == nil {
		return fmt.Errorf("onebot: event %v carries no bot context", ev.EventID)
	}
	ctx.SendChain(BuildMessage(reply, ctx.Event.MessageID)...)
	return nil
}
