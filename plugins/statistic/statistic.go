package statistic

import (
	"encoding/binary"
	"fmt"
	"html"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/RicheyJang/covid19bot/manager"
	"github.com/RicheyJang/covid19bot/utils"

	log "github.com/sirupsen/logrus"
	"github.com/syndtr/goleveldb/leveldb"
	levelutil "github.com/syndtr/goleveldb/leveldb/util"
)

var proxy *manager.PluginProxy
var info = manager.PluginInfo{
	Name: "Statistics",
	Usage: `usage statistics of commands
usage:
	stats: all-time usage in every room
	stats today: today's usage in every room
	stats room [today]: usage in this room`,
	SuperUsage: `config:
	statistic.ignore: plugin keys excluded from statistics`,
	Classify: "bot",
}

func init() {
	proxy = manager.RegisterPlugin(info)
	if proxy == nil {
		return
	}
	manager.AddPostHook(statisticHook)
	proxy.OnCommands([]string{"stats", "statistics"}).SetBlock(true).SetPriority(4).Handle(statisticsHandler)
	_, _ = proxy.AddScheduleDailyFunc(0, 1, initialDailyStatistics)
	proxy.AddConfig("ignore", []string{"statistic", "help"})
}

const statisticPrefix = "statis"

// key为四段式：statisticPrefix.类型(总计g 或 当天d).范围(r会话ID 或 全局a).插件Key
// 值为调用次数，uint32类型

var mu sync.Mutex // 保证读取-累加-写入的原子性

func statisticHook(condition *manager.PluginCondition, ctx *manager.Ctx) error {
	db := proxy.GetLevelDB()
	if db == nil || ctx.Event == nil {
		return nil
	}
	initialDailyStatistics()
	mu.Lock()
	defer mu.Unlock()
	key := condition.Key
	batch := new(leveldb.Batch)
	scopes := []string{"a"}
	if len(ctx.Event.RoomID) > 0 {
		scopes = append(scopes, roomScope(ctx.Event))
	}
	for _, scope := range scopes {
		dailyKey := fmt.Sprintf("%v.d.%v.%v", statisticPrefix, scope, key)
		sumKey := fmt.Sprintf("%v.g.%v.%v", statisticPrefix, scope, key)
		putKVNum(batch, dailyKey, getKVNum(dailyKey)+1)
		putKVNum(batch, sumKey, getKVNum(sumKey)+1)
	}
	if err := db.Write(batch, nil); err != nil {
		log.Warnf("<%v> 统计记录失败，err=%v", key, err)
	}
	return nil
}

// 会话范围，会话ID中的.替换为_以免与key分隔符冲突
func roomScope(ev *manager.Event) string {
	return "r" + strings.ReplaceAll(ev.Platform+":"+ev.RoomID, ".", "_")
}

// 跨天时清空所有当天记录
func initialDailyStatistics() {
	db := proxy.GetLevelDB()
	if db == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	dateKey := []byte(fmt.Sprintf("%v.last.day", statisticPrefix))
	today := time.Now().Format("20060102")
	if last, err := db.Get(dateKey, nil); err == nil && string(last) == today {
		return
	}
	count := 0
	batch := new(leveldb.Batch)
	batch.Put(dateKey, []byte(today))
	iter := db.NewIterator(levelutil.BytesPrefix([]byte(statisticPrefix+".d.")), nil)
	for iter.Next() {
		batch.Delete(iter.Key())
		count++
	}
	iter.Release()
	if err := db.Write(batch, nil); err != nil {
		log.Warnf("统计记录每日初始化失败，err=%v", err)
	} else {
		log.Infof("统计记录每日初始化成功，涉及K-V：%v条", count)
	}
}

func statisticsHandler(ctx *manager.Ctx) {
	args := strings.Fields(ctx.Args())
	typ, scope, title := "g", "a", "Usage"
	for _, arg := range args {
		switch arg {
		case "today":
			typ = "d"
			title = "Today's " + strings.ToLower(title)
		case "room":
			scope = roomScope(ctx.Event)
			title += " in this room"
		default:
			ctx.SendHTML("Unknown option: <code>" + html.EscapeString(arg) + "</code>")
			return
		}
	}
	if proxy.GetLevelDB() == nil {
		ctx.SendText("Statistics are not available")
		return
	}
	ctx.SendHTML(dealStatistic(title, fmt.Sprintf("%v.%v.%v.", statisticPrefix, typ, scope)))
}

func dealStatistic(title string, prefix string) string {
	resMap := make(map[string]uint32)
	skips := proxy.GetConfigStringSlice("ignore")
	iter := proxy.GetLevelDB().NewIterator(levelutil.BytesPrefix([]byte(prefix)), nil)
	for iter.Next() {
		num := BytesToUInt32(iter.Value())
		if num == 0 || len(iter.Key()) <= len(prefix) {
			continue
		}
		key := string(iter.Key()[len(prefix):])
		if utils.StringSliceContain(skips, key) {
			continue
		}
		plugin := manager.GetPluginConditionByKey(key)
		if plugin == nil {
			continue
		}
		resMap[plugin.Name] += num
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		log.Warnf("iter err, prefix=%v, err=%v", prefix, err)
		return "Failed to read statistics, please try again later"
	}
	if len(resMap) == 0 {
		return "<h4>" + title + "</h4>No commands used yet"
	}
	return "<h4>" + title + "</h4><pre>" + html.EscapeString(formTable(resMap)) + "</pre>"
}

// 按调用次数降序排列的两列表格
func formTable(mp map[string]uint32) string {
	names := make([]string, 0, len(mp))
	width := 0
	var sum uint32
	for name, num := range mp {
		names = append(names, name)
		if l := utils.StringRealLength(name); l > width {
			width = l
		}
		sum += num
	}
	sort.Slice(names, func(i, j int) bool {
		if mp[names[i]] == mp[names[j]] {
			return names[i] < names[j]
		}
		return mp[names[i]] > mp[names[j]]
	})
	if width < len("Total") {
		width = len("Total")
	}
	var lines []string
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%s  %d", utils.PadRight(name, width), mp[name]))
	}
	lines = append(lines, fmt.Sprintf("%s  %d", utils.PadRight("Total", width), sum))
	return strings.Join(lines, "\n")
}

func getKVNum(key string) uint32 {
	v, err := proxy.GetLevelDB().Get([]byte(key), nil)
	if err != nil {
		return 0
	}
	return BytesToUInt32(v)
}

func putKVNum(batch *leveldb.Batch, key string, value uint32) {
	batch.Put([]byte(key), UInt32ToBytes(value))
}

func UInt32ToBytes(n uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, n)
	return b
}

func BytesToUInt32(b []byte) uint32 {
	for len(b) < 4 {
		b = append(b, byte(0))
	}
	return binary.LittleEndian.Uint32(b)
}
