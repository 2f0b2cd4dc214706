package manager

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/RicheyJang/covid19bot/utils/message"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder 记录所有回复的Replier
type recorder struct {
	mu      sync.Mutex
	replies []message.Reply
}

func (r *recorder) Reply(_ context.Context, _ *Event, reply message.Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, reply)
	return nil
}

func (r *recorder) plains() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []string
	for _, reply := range r.replies {
		res = append(res, reply.Plain)
	}
	return res
}

func newTestManager(t *testing.T) (*PluginManager, *PluginProxy) {
	t.Helper()
	m := NewPluginManager()
	p := m.registerPluginWithKey("tester", PluginInfo{Name: "tester", Usage: "test"})
	require.NotNil(t, p)
	return m, p
}

func event(body string) *Event {
	return &Event{Platform: "test", RoomID: "!room", SenderID: "@alice", Body: body}
}

func TestTrimCommandPrefix(t *testing.T) {
	tests := []struct {
		body string
		want string
		ok   bool
	}{
		{body: "!covid19 total", want: "total", ok: true},
		{body: "  !COVID19   Report Today  ", want: "report today", ok: true},
		{body: "!covid19", want: "", ok: true},
		{body: "!covid19total", ok: false},
		{body: "hello !covid19 total", ok: false},
		{body: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			got, ok := trimCommandPrefix(tt.body, "!covid19")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDispatchMatchesByPriority(t *testing.T) {
	m, p := newTestManager(t)
	var called []string
	p.OnCommands([]string{"total"}).SetBlock(true).SetPriority(5).Handle(func(ctx *Ctx) {
		called = append(called, "total:"+ctx.Args())
		ctx.SendText("ok")
	})
	p.OnMessage().SetPriority(1).Handle(func(ctx *Ctx) {
		called = append(called, "any")
	})
	rec := &recorder{}

	assert.True(t, m.Dispatch(context.Background(), event("!covid19 TOTAL 2020-04-15"), rec))
	assert.Equal(t, []string{"any", "total:2020-04-15"}, called)
	assert.Equal(t, []string{"ok"}, rec.plains())
}

func TestDispatchUnmatchedIsSilent(t *testing.T) {
	m, p := newTestManager(t)
	p.OnFullMatch([]string{"regions"}).Handle(func(ctx *Ctx) {
		ctx.SendText("regions")
	})
	rec := &recorder{}

	assert.False(t, m.Dispatch(context.Background(), event("!covid19 unknown"), rec))
	assert.False(t, m.Dispatch(context.Background(), event("regions"), rec))
	assert.False(t, m.Dispatch(context.Background(), event("!covid19 regions please"), rec))
	assert.Empty(t, rec.plains())
}

func TestCtxSendsOnce(t *testing.T) {
	m, p := newTestManager(t)
	p.OnFullMatch([]string{"twice"}).Handle(func(ctx *Ctx) {
		assert.True(t, ctx.SendText("first"))
		assert.False(t, ctx.SendText("second"))
	})
	p.OnFullMatch([]string{"twice"}).Handle(func(ctx *Ctx) {
		ctx.SendText("third")
	})
	rec := &recorder{}

	m.Dispatch(context.Background(), event("!covid19 twice"), rec)
	assert.Equal(t, []string{"first"}, rec.plains())
}

func TestPanicRepliesFailure(t *testing.T) {
	m, p := newTestManager(t)
	p.OnFullMatch([]string{"boom"}).Handle(func(ctx *Ctx) {
		panic("formatting exploded")
	})
	rec := &recorder{}

	assert.True(t, m.Dispatch(context.Background(), event("!covid19 boom"), rec))
	assert.Equal(t, []string{FailureReply}, rec.plains())
}

func TestHooks(t *testing.T) {
	m, p := newTestManager(t)
	var post []string
	m.AddPreHook(func(condition *PluginCondition, ctx *Ctx) error {
		if ctx.Args() == "blocked" {
			return errors.New("blocked by test")
		}
		return nil
	})
	m.AddPostHook(func(condition *PluginCondition, ctx *Ctx) error {
		post = append(post, condition.Key+":"+ctx.Args())
		return nil
	})
	p.OnCommands([]string{"echo"}).SetBlock(true).Handle(func(ctx *Ctx) {
		ctx.SendText(ctx.Args())
	})
	rec := &recorder{}

	m.Dispatch(context.Background(), event("!covid19 echo hi"), rec)
	m.Dispatch(context.Background(), event("!covid19 echo blocked"), rec)
	assert.Equal(t, []string{"hi"}, rec.plains())
	assert.Equal(t, []string{"tester:hi"}, post)
}

func TestSuperOnlyPlugin(t *testing.T) {
	m := NewPluginManager()
	p := m.registerPluginWithKey("secret", PluginInfo{Name: "secret", IsSuperOnly: true})
	require.NotNil(t, p)
	p.OnFullMatch([]string{"status"}).Handle(func(ctx *Ctx) {
		ctx.SendText("status")
	})
	viper.Set("superuser", []string{"@admin"})
	defer viper.Set("superuser", []string{})
	rec := &recorder{}

	assert.False(t, m.Dispatch(context.Background(), event("!covid19 status"), rec))
	ev := event("!covid19 status")
	ev.SenderID = "@admin"
	assert.True(t, m.Dispatch(context.Background(), ev, rec))
	assert.Equal(t, []string{"status"}, rec.plains())
	assert.Len(t, m.GetPluginConditionByKey("secret").SuperCmd, 1)
}

func TestRegisterPluginRejectsDuplicates(t *testing.T) {
	m, _ := newTestManager(t)
	assert.Nil(t, m.registerPluginWithKey("tester", PluginInfo{Name: "again"}))
	assert.Nil(t, m.registerPluginWithKey("nameless", PluginInfo{}))
	assert.Len(t, m.GetAllPluginConditions(), 1)
}

func TestPluginConfig(t *testing.T) {
	m, p := newTestManager(t)
	p.AddConfig("timeout", "10s")
	p.AddConfig("delimiter", ";")
	assert.Equal(t, "10s", p.GetConfigString("timeout"))
	assert.Equal(t, float64(10), p.GetConfigDuration("timeout").Seconds())
	p.SetConfig("delimiter", "|")
	assert.Equal(t, "|", p.GetConfigString("delimiter"))
	assert.Equal(t, "|", p.GetPluginConfig("tester", "delimiter"))
	assert.Nil(t, m.getConfig("plugins.other", "delimiter"))
}

func TestSetupDatabase(t *testing.T) {
	m, p := newTestManager(t)
	require.NoError(t, m.SetupDatabase(t.TempDir()))
	defer m.Close()
	require.NotNil(t, p.GetLevelDB())
	require.NoError(t, p.GetLevelDB().Put([]byte("k"), []byte("v"), nil))
	v, err := p.GetLevelDB().Get([]byte("k"), nil)
	require.NoError(t, err)
	assert.Equal(t, "v", string(v))
}

func TestDisableWhileDispatching(t *testing.T) {
	m, p := newTestManager(t)
	p.OnFullMatch([]string{"ping"}).Handle(func(ctx *Ctx) {
		ctx.SendText("pong")
	})
	rec := &recorder{}
	condition := m.GetPluginConditionByKey("tester")
	require.NotNil(t, condition)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			m.Dispatch(context.Background(), event("!covid19 ping"), rec)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			condition.Disabled()
			condition.Enabled()
		}
	}()
	wg.Wait()

	assert.False(t, condition.IsDisabled())
	assert.NotEmpty(t, rec.plains())
	condition.Disabled()
	n := len(rec.plains())
	assert.False(t, m.Dispatch(context.Background(), event("!covid19 ping"), rec))
	assert.Len(t, rec.plains(), n)
}
