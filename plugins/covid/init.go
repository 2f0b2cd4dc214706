package covid

import (
	"time"

	"github.com/RicheyJang/covid19bot/manager"
)

var proxy *manager.PluginProxy
var info = manager.PluginInfo{
	Name: "COVID-19",
	Usage: `COVID-19 statistics from covid-api.com
usage:
	total [date]: global totals
	confirmed|deaths|recovered|active [date]: a single global figure
	country <iso>: totals of a region, e.g. country USA
	time <date>: global data on a date
	regions: all regions and their ISO codes
	provinces <iso>: provinces of a region
	report [date] [region;province;city]: detailed report with daily changes
date is today, yesterday or YYYY-MM-DD`,
	Classify: "statistics",
}

// 测试时可替换
var nowFunc = time.Now

func init() {
	proxy = manager.RegisterPlugin(info)
	if proxy == nil {
		return
	}
	proxy.OnCommands([]string{"total", "totals"}).SetBlock(true).ThirdPriority().Handle(totalHandler)
	proxy.OnCommands([]string{"confirmed"}).SetBlock(true).ThirdPriority().Handle(singleFieldHandler("confirmed", "Confirmed Cases"))
	proxy.OnCommands([]string{"deaths", "death", "dead", "died", "deceased"}).SetBlock(true).ThirdPriority().Handle(singleFieldHandler("deaths", "Deaths"))
	proxy.OnCommands([]string{"recovered", "recovery", "recover"}).SetBlock(true).ThirdPriority().Handle(singleFieldHandler("recovered", "Recovered"))
	proxy.OnCommands([]string{"active"}).SetBlock(true).ThirdPriority().Handle(singleFieldHandler("active", "Active Cases"))
	proxy.OnCommands([]string{"country"}).SetBlock(true).ThirdPriority().Handle(countryHandler)
	proxy.OnCommands([]string{"time"}).SetBlock(true).ThirdPriority().Handle(timeHandler)
	proxy.OnFullMatch([]string{"regions"}).SetBlock(true).ThirdPriority().Handle(regionsHandler)
	proxy.OnCommands([]string{"provinces", "province"}).SetBlock(true).ThirdPriority().Handle(provincesHandler)
	proxy.OnCommands([]string{"report"}).SetBlock(true).ThirdPriority().Handle(reportHandler)
	proxy.AddConfig("api", "https://covid-api.com/api")
	proxy.AddConfig("delimiter", ";")
	proxy.AddConfig("timezone", 0) // 相对UTC的小时偏移，用于today、yesterday
	proxy.AddConfig("timeout", "10s")
	proxy.AddConfig("report.limit", 20)
	proxy.AddConfig(pathTotal, "/reports/total")
	proxy.AddConfig(pathReports, "/reports")
	proxy.AddConfig(pathRegions, "/regions")
	proxy.AddConfig(pathProvinces, "/provinces")
	proxy.AddConfig(pathTimeseries, "/timeseries/global")
}

// 当前配置时区下的时间
func now() time.Time {
	return nowFunc().In(Zone(int(proxy.GetConfigInt64("timezone"))))
}
