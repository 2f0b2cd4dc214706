package manager

import (
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/RicheyJang/covid19bot/utils"
)

// Rule 匹配规则，返回true时代表匹配
type Rule func(ctx *Ctx) bool

// Handler 事件处理函数
type Handler func(ctx *Ctx)

const defaultPriority = 10

// Matcher 匹配器：所有Rules均满足时调用Handler
type Matcher struct {
	Block    bool // 处理后是否阻断低优先级匹配器
	Priority int  // 优先级，数字越小越先匹配
	Rules    []Rule
	Handler  Handler

	key string // 所属插件Key
}

// SetBlock 设置是否阻断后续匹配器
func (m *Matcher) SetBlock(block bool) *Matcher {
	m.Block = block
	return m
}

// SetPriority 设置优先级
func (m *Matcher) SetPriority(priority int) *Matcher {
	m.Priority = priority
	return m
}

// FirstPriority 设置为第一优先级
func (m *Matcher) FirstPriority() *Matcher {
	return m.SetPriority(1)
}

// SecondPriority 设置为第二优先级
func (m *Matcher) SecondPriority() *Matcher {
	return m.SetPriority(2)
}

// ThirdPriority 设置为第三优先级
func (m *Matcher) ThirdPriority() *Matcher {
	return m.SetPriority(3)
}

// Handle 设置处理函数
func (m *Matcher) Handle(handler Handler) *Matcher {
	m.Handler = handler
	return m
}

// Key 所属插件Key
func (m *Matcher) Key() string {
	return m.key
}

func (m *Matcher) match(ctx *Ctx) bool {
	if m.Handler == nil {
		return false
	}
	for _, rule := range m.Rules {
		if !rule(ctx) {
			return false
		}
	}
	return true
}

// Engine 匹配器集合
type Engine struct {
	mu       sync.RWMutex
	matchers []*Matcher
}

// NewEngine 新建匹配器集合
func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) on(key string, rules ...Rule) *Matcher {
	m := &Matcher{
		Priority: defaultPriority,
		Rules:    rules,
		key:      key,
	}
	e.mu.Lock()
	e.matchers = append(e.matchers, m)
	e.mu.Unlock()
	return m
}

// 按优先级排序后的匹配器快照
func (e *Engine) sorted() []*Matcher {
	e.mu.RLock()
	res := make([]*Matcher, len(e.matchers))
	copy(res, e.matchers)
	e.mu.RUnlock()
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Priority < res[j].Priority
	})
	return res
}

// ---- Rules ----

// FullMatchRule Rule生成器：命令文本与任一src完全一致
func FullMatchRule(src ...string) Rule {
	return func(ctx *Ctx) bool {
		cmd := ctx.Command()
		for _, s := range src {
			if cmd == s {
				ctx.State["matched"] = s
				ctx.State["args"] = ""
				return true
			}
		}
		return false
	}
}

// CommandRule Rule生成器：命令文本首字段与任一command一致，其余部分作为参数
func CommandRule(commands ...string) Rule {
	return func(ctx *Ctx) bool {
		first, rest := utils.CutFirstField(ctx.Command())
		for _, command := range commands {
			if first == command {
				ctx.State["matched"] = command
				ctx.State["args"] = rest
				return true
			}
		}
		return false
	}
}

// SuperUserPermission Rule：仅超级用户
func SuperUserPermission(ctx *Ctx) bool {
	if ctx.Event == nil {
		return false
	}
	return IsSuperUser(ctx.Event.SenderID)
}

// 去除命令前缀，返回前缀后的命令文本
// 前缀后须为空白或结尾，如 "!covid19 total"、"!covid19"
func trimCommandPrefix(body, prefix string) (string, bool) {
	body = strings.ToLower(strings.TrimSpace(body))
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if len(prefix) == 0 || !strings.HasPrefix(body, prefix) {
		return "", false
	}
	rest := body[len(prefix):]
	if len(rest) == 0 {
		return "", true
	}
	if r, _ := utf8.DecodeRuneInString(rest); !unicode.IsSpace(r) {
		return "", false
	}
	return strings.TrimSpace(rest), true
}
