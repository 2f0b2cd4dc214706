package limiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// PluginLimiter 插件级限流器，按发送者区分地管理插件的CD限流
type PluginLimiter struct {
	Key string // 插件Key，仅做log所用

	cd    time.Duration
	burst int

	limiters sync.Map // 发送者ID -> *subLimiter
	cdMux    sync.RWMutex
}

// NewPluginLimiter 新建PluginLimiter用于单个插件的限流
func NewPluginLimiter(cd time.Duration, burst int) *PluginLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &PluginLimiter{
		cd:    cd,
		burst: burst,
	}
}

// GetCD 获取当前CD
func (pl *PluginLimiter) GetCD() time.Duration {
	pl.cdMux.RLock()
	defer pl.cdMux.RUnlock()
	return pl.cd
}

// ResetCD 重置CD时间长度，已有的发送者限流状态将被清空
func (pl *PluginLimiter) ResetCD(cd time.Duration) {
	pl.cdMux.Lock()
	pl.cd = cd
	pl.cdMux.Unlock()
	pl.limiters.Range(func(key, _ interface{}) bool {
		pl.limiters.Delete(key)
		return true
	})
}

// Allow 判断指定发送者能否拿到令牌
func (pl *PluginLimiter) Allow(sender string) bool {
	allowed, _ := pl.Take(sender)
	return allowed
}

// Take 尝试为发送者获取令牌；被拒绝时，仅本轮限流中的首次拒绝返回notify=true
func (pl *PluginLimiter) Take(sender string) (allowed, notify bool) {
	return pl.getSubLimiter(sender).take()
}

// GC 回收在now之前已过期的发送者限流器，返回回收数量
func (pl *PluginLimiter) GC(now time.Time) int {
	count := 0
	pl.limiters.Range(func(key, value interface{}) bool {
		l, ok := value.(*subLimiter)
		if !ok || l.expired(now) {
			pl.limiters.Delete(key)
			count++
		}
		return true
	})
	return count
}

// ---- 内部方法 ----

// 子Limiter，指定了某个特定发送者
type subLimiter struct {
	limiter *rate.Limiter
	ttl     time.Duration

	mu       sync.Mutex
	lastGet  time.Time // 上一次获取token的时间
	notified bool      // 本轮限流是否已提醒过
}

// 根据发送者ID获取subLimiter
func (pl *PluginLimiter) getSubLimiter(sender string) *subLimiter {
	if value, ok := pl.limiters.Load(sender); ok {
		if l, ok := value.(*subLimiter); ok {
			return l
		}
	}
	pl.cdMux.RLock()
	l := newSubLimiter(pl.cd, pl.burst)
	pl.cdMux.RUnlock()
	actual, _ := pl.limiters.LoadOrStore(sender, l)
	return actual.(*subLimiter)
}

// 创建新的subLimiter
func newSubLimiter(cd time.Duration, burst int) *subLimiter {
	ttl := cd * 3 // 3倍CD作为subLimiter的过期间隔
	if ttl < time.Minute {
		ttl = time.Minute
	}
	return &subLimiter{
		limiter: rate.NewLimiter(rate.Every(cd), burst),
		lastGet: time.Now(),
		ttl:     ttl,
	}
}

// 判断rate，拿到令牌时重置提醒状态
func (l *subLimiter) take() (allowed, notify bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastGet = time.Now()
	if l.limiter.Allow() {
		l.notified = false
		return true, false
	}
	notify = !l.notified
	l.notified = true
	return false, notify
}

func (l *subLimiter) expired(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastGet.Add(l.ttl).Before(now)
}
