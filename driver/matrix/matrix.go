package matrix

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RicheyJang/covid19bot/driver"
	"github.com/RicheyJang/covid19bot/manager"
	"github.com/RicheyJang/covid19bot/utils/message"

	log "github.com/sirupsen/logrus"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

const platform = "matrix"

// Config Matrix驱动配置
type Config struct {
	Homeserver  string
	UserID      string
	AccessToken string
	DeviceID    string
	AutoJoin    bool // 被邀请时自动加入房间
}

// Driver Matrix驱动：同步房间消息并以m.notice回复
type Driver struct {
	cfg      Config
	client   *mautrix.Client
	syncer   *mautrix.DefaultSyncer
	dispatch driver.DispatchFunc

	startTime time.Time // 早于此时间的事件将被忽略
	mu        sync.Mutex
	stop      context.CancelFunc
}

// New 新建Matrix驱动，dispatch为nil时使用默认插件管理器
func New(cfg Config, dispatch driver.DispatchFunc) (*Driver, error) {
	client, err := mautrix.NewClient(cfg.Homeserver, id.UserID(cfg.UserID), cfg.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create matrix client: %w", err)
	}
	if len(cfg.DeviceID) > 0 {
		client.DeviceID = id.DeviceID(cfg.DeviceID)
	}
	syncer, ok := client.Syncer.(*mautrix.DefaultSyncer)
	if !ok {
		return nil, fmt.Errorf("unexpected matrix syncer %T", client.Syncer)
	}
	if dispatch == nil {
		dispatch = manager.Dispatch
	}
	return &Driver{
		cfg:       cfg,
		client:    client,
		syncer:    syncer,
		dispatch:  dispatch,
		startTime: time.Now(),
	}, nil
}

func (d *Driver) Name() string {
	return platform
}

// Start 注册事件处理并在后台开始同步
func (d *Driver) Start(ctx context.Context) error {
	d.syncer.OnEventType(event.EventMessage, d.handleMessage)
	d.syncer.OnEventType(event.StateMember, d.handleMemberEvent)
	syncCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.stop = cancel
	d.mu.Unlock()
	go func() {
		err := d.client.SyncWithContext(syncCtx)
		if err != nil && syncCtx.Err() == nil {
			log.Errorf("matrix sync err: %v", err)
		}
	}()
	log.Infof("Matrix驱动已启动：%v@%v", d.cfg.UserID, d.cfg.Homeserver)
	return nil
}

// Stop 停止同步
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		d.stop()
		d.stop = nil
		log.Info("Matrix驱动已停止")
	}
}

func (d *Driver) handleMemberEvent(ctx context.Context, evt *event.Event) {
	member := evt.Content.AsMember()
	if !d.cfg.AutoJoin || member.Membership != event.MembershipInvite || evt.GetStateKey() != string(d.client.UserID) {
		return
	}
	if _, err := d.client.JoinRoomByID(ctx, evt.RoomID); err != nil {
		log.Errorf("加入房间%v失败：%v", evt.RoomID, err)
		return
	}
	log.Infof("已加入房间%v", evt.RoomID)
}

func (d *Driver) handleMessage(ctx context.Context, evt *event.Event) {
	ev, ok := d.toEvent(evt)
	if !ok {
		return
	}
	d.dispatch(ctx, ev, d)
}

// 将Matrix事件转换为入站事件：只接受他人发送的新m.text消息
func (d *Driver) toEvent(evt *event.Event) (*manager.Event, bool) {
	if evt == nil || evt.Sender == d.client.UserID {
		return nil, false
	}
	ts := time.UnixMilli(evt.Timestamp)
	if ts.Before(d.startTime) {
		return nil, false
	}
	msg := evt.Content.AsMessage()
	if msg == nil || (msg.RelatesTo != nil && msg.RelatesTo.Type == event.RelReplace) {
		return nil, false
	}
	if msg.MsgType != event.MsgText { // 不接受m.notice
		return nil, false
	}
	return &manager.Event{
		Platform: platform,
		RoomID:   evt.RoomID.String(),
		SenderID: evt.Sender.String(),
		EventID:  evt.ID.String(),
		Body:     msg.Body,
		Time:     ts,
		Raw:      evt,
	}, true
}

// Reply 以m.notice回复至事件所在房间
func (d *Driver) Reply(ctx context.Context, ev *manager.Event, reply message.Reply) error {
	content := BuildContent(reply, id.EventID(ev.EventID))
	_, err := d.client.SendMessageEvent(ctx, id.RoomID(ev.RoomID), event.EventMessage, content)
	if err != nil {
		return fmt.Errorf("failed to send matrix message: %w", err)
	}
	return nil
}

// BuildContent 构造回复内容：HTML作为formatted_body，纯文本作为body
func BuildContent(reply message.Reply, inReplyTo id.EventID) *event.MessageEventContent {
	content := &event.MessageEventContent{
		MsgType:       event.MsgNotice,
		Body:          reply.Plain,
		Format:        event.FormatHTML,
		FormattedBody: reply.HTML,
	}
	if len(inReplyTo) > 0 {
		content.RelatesTo = (&event.RelatesTo{}).SetReplyTo(inReplyTo)
	}
	return content
}
