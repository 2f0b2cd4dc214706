package inspection

import (
	"fmt"
	"html"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/RicheyJang/covid19bot/manager"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	log "github.com/sirupsen/logrus"
)

// CheckEnvironment 生成主机环境信息
func CheckEnvironment() string {
	env := "Host:\n"
	cpuCount, err := cpu.Counts(false)
	if err != nil {
		log.Warn("cpu Counts err: ", err)
	}
	logical, err := cpu.Counts(true)
	if err != nil {
		log.Warn("cpu Counts err: ", err)
	}
	cpuPercent := float64(0)
	if percent, err := cpu.Percent(time.Second, false); err == nil && len(percent) > 0 {
		cpuPercent = percent[0]
	} else {
		log.Warn("cpu percent err: ", err)
	}
	env += fmt.Sprintf("CPU: %v cores %v threads, %v used\n", cpuCount, logical, formatPercent(cpuPercent))

	memory, err := mem.VirtualMemory()
	if err != nil {
		log.Warn("virtual mem err: ", err)
		memory = &mem.VirtualMemoryStat{}
	}
	env += fmt.Sprintf("Memory: %v used (%v free of %v)\n",
		formatPercent(memory.UsedPercent), formatBytesSize(memory.Free), formatBytesSize(memory.Total))

	bootTime, err := host.BootTime()
	if err != nil {
		log.Warn("boot time err: ", err)
	}
	env += fmt.Sprintf("Booted: %v", formatTime(bootTime))
	return env
}

// ProcessStat 进程状态
type ProcessStat struct {
	Name       string
	CPUPercent float64
	MemPercent float64
	RSS        uint64
	Goroutines int
}

// CheckProcess 获取当前进程状态
func CheckProcess() ProcessStat {
	stat := ProcessStat{Goroutines: runtime.NumGoroutine()}
	pid, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("process err: ", err)
		return stat
	}
	stat.Name, _ = pid.Name()
	stat.CPUPercent, _ = pid.CPUPercent()
	memPercent, _ := pid.MemoryPercent()
	stat.MemPercent = float64(memPercent)
	if info, err := pid.MemoryInfo(); err == nil && info != nil {
		stat.RSS = info.RSS
	}
	return stat
}

// CheckSelf 生成机器人自身信息
func CheckSelf() string {
	stat := CheckProcess()
	return fmt.Sprintf("Process:\nName: %v\nCPU: %v\nMemory: %v (%v)\nGoroutines: %v\nStarted: %v (up %v)",
		stat.Name, formatPercent(stat.CPUPercent), formatBytesSize(stat.RSS), formatPercent(stat.MemPercent),
		stat.Goroutines, startTime.Format("2006-01-02 15:04:05"), time.Since(startTime).Round(time.Second))
}

// CheckPlugins 生成插件信息
func CheckPlugins(plugins []*manager.PluginCondition) string {
	var enabled, disabled []string
	for _, plugin := range plugins {
		if plugin.IsDisabled() {
			disabled = append(disabled, plugin.Key)
		} else {
			enabled = append(enabled, plugin.Key)
		}
	}
	res := fmt.Sprintf("Plugins: %d enabled", len(enabled))
	if len(disabled) > 0 {
		res += fmt.Sprintf(", %d disabled (%v)", len(disabled), strings.Join(disabled, ", "))
	}
	return res + "\nPrefix: " + manager.GetPrefix()
}

func formatTime(sec uint64) string {
	return time.Unix(int64(sec), 0).Format("2006-01-02 15:04:05")
}

func formatPercent(percent float64) string {
	return strconv.FormatFloat(percent, 'f', 2, 64) + "%"
}

func formatBytesSize(size uint64) string {
	return humanize.IBytes(size)
}

func formResponse(texts ...string) string {
	for i := range texts {
		texts[i] = html.EscapeString(texts[i])
	}
	return "<h4>Status</h4><pre>" + strings.Join(texts, "\n--------------------\n") + "</pre>"
}
