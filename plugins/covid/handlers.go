package covid

import (
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/RicheyJang/covid19bot/manager"
	"github.com/RicheyJang/covid19bot/utils"

	"github.com/tidwall/gjson"
)

// 汇总数据展示的字段及顺序，值为0或不存在时省略
var totalFields = []field{
	{"confirmed", "Confirmed Cases"},
	{"active", "Active Cases"},
	{"deaths", "Deaths"},
	{"recovered", "Recovered"},
}

func totalHandler(ctx *manager.Ctx) {
	arg := ctx.Args()
	date, err := optionalDate(arg)
	if err != nil {
		replyError(ctx, err, arg)
		return
	}
	data, err := apiFromConfig().Total(ctx.Context(), date, "")
	if err != nil {
		replyError(ctx, err, arg)
		return
	}
	ctx.SendHTML("<h4>COVID-19 Totals</h4>" + totalLines(data, totalFields))
}

// 生成仅展示单项数据的Handler
func singleFieldHandler(key, title string) manager.Handler {
	return func(ctx *manager.Ctx) {
		arg := ctx.Args()
		date, err := optionalDate(arg)
		if err != nil {
			replyError(ctx, err, arg)
			return
		}
		data, err := apiFromConfig().Total(ctx.Context(), date, "")
		if err != nil {
			replyError(ctx, err, arg)
			return
		}
		ctx.SendHTML(fmt.Sprintf("<h4>COVID-19 %s</h4><b>%s</b>", title, FormatNumber(data.Get(key).Int())))
	}
}

func countryHandler(ctx *manager.Ctx) {
	iso := strings.ToUpper(ctx.Args())
	if len(iso) == 0 || strings.ContainsAny(iso, " \t") {
		replyError(ctx, ErrorOfInvalidQuery, ctx.Args())
		return
	}
	data, err := apiFromConfig().Fetch(ctx.Context(), pathTotal, url.Values{"iso": {iso}})
	if err != nil {
		replyError(ctx, err, iso)
		return
	}
	if !data.IsObject() || (data.Get("confirmed").Int() == 0 && data.Get("deaths").Int() == 0) {
		replyError(ctx, ErrorOfNoLocation, iso)
		return
	}
	ctx.SendHTML(fmt.Sprintf("<h4>COVID-19 Data for %s</h4>", html.EscapeString(iso)) + totalLines(data, totalFields))
}

func timeHandler(ctx *manager.Ctx) {
	arg := ctx.Args()
	t, err := ParseDate(arg, now())
	if err != nil {
		replyError(ctx, err, arg)
		return
	}
	data, err := apiFromConfig().Timeseries(ctx.Context())
	if err != nil {
		replyError(ctx, err, arg)
		return
	}
	key := t.Format(timeseriesKeyLayout)
	var found gjson.Result
	data.ForEach(func(_, value gjson.Result) bool {
		if v := value.Get(key); v.Exists() {
			found = v
			return false
		}
		return true
	})
	date := t.Format(dateLayout)
	if !found.Exists() {
		replyError(ctx, ErrorOfNoData, date)
		return
	}
	ctx.SendHTML(fmt.Sprintf("<h4>COVID-19 Global Data for Date %s</h4>", date) + totalLines(found, []field{
		{"confirmed", "Confirmed Cases"},
		{"deaths", "Deaths"},
		{"recovered", "Recovered"},
	}))
}

func regionsHandler(ctx *manager.Ctx) {
	data, err := apiFromConfig().Regions(ctx.Context())
	if err != nil {
		replyError(ctx, err, "")
		return
	}
	var rows [][]string
	data.ForEach(func(_, value gjson.Result) bool {
		rows = append(rows, []string{value.Get("iso").String(), value.Get("name").String()})
		return true
	})
	if len(rows) == 0 {
		replyError(ctx, ErrorOfNoData, "regions")
		return
	}
	ctx.SendHTML("<h4>COVID-19 Regions</h4><pre>" + html.EscapeString(RenderTable([]string{"ISO", "Name"}, rows)) + "</pre>")
}

func provincesHandler(ctx *manager.Ctx) {
	iso := strings.ToUpper(ctx.Args())
	if len(iso) == 0 || strings.ContainsAny(iso, " \t/") {
		replyError(ctx, ErrorOfInvalidQuery, ctx.Args())
		return
	}
	data, err := apiFromConfig().Provinces(ctx.Context(), iso)
	if err != nil {
		replyError(ctx, err, iso)
		return
	}
	var rows [][]string
	data.ForEach(func(_, value gjson.Result) bool {
		rows = append(rows, []string{value.Get("province").String(), value.Get("lat").String(), value.Get("long").String()})
		return true
	})
	if len(rows) == 0 {
		replyError(ctx, ErrorOfNoLocation, iso)
		return
	}
	ctx.SendHTML(fmt.Sprintf("<h4>COVID-19 Provinces of %s</h4><pre>", html.EscapeString(iso)) +
		html.EscapeString(RenderTable([]string{"Province", "Latitude", "Longitude"}, rows)) + "</pre>")
}

// report [date] [region;province;city]：日期可省略，首字段不像日期时整体作为查询条件
func reportHandler(ctx *manager.Ctx) {
	dateToken, rest := utils.CutFirstField(ctx.Args())
	if len(dateToken) > 0 && !LooksLikeDate(dateToken) {
		dateToken, rest = "", ctx.Args()
	}
	q, err := ParseQuery(rest, proxy.GetConfigString("delimiter"))
	if err != nil {
		replyError(ctx, err, rest)
		return
	}
	if len(dateToken) > 0 {
		if q.Date, err = NormalizeDate(dateToken, now()); err != nil {
			replyError(ctx, err, dateToken)
			return
		}
	}
	api := apiFromConfig()
	var data gjson.Result
	if q.IsGlobal() {
		data, err = api.Total(ctx.Context(), q.Date, "")
	} else {
		data, err = api.Reports(ctx.Context(), q)
		if err == nil && len(data.Array()) == 0 {
			err = ErrorOfNoData
		}
	}
	if err != nil {
		replyError(ctx, err, q.String())
		return
	}
	ctx.SendHTML(RenderReport(q, data, now(), int(proxy.GetConfigInt64("report.limit"))))
}

// 解析可选的日期参数，为空时不作筛选
func optionalDate(arg string) (string, error) {
	if len(arg) == 0 {
		return "", nil
	}
	return NormalizeDate(arg, now())
}

func totalLines(data gjson.Result, fields []field) string {
	var lines []string
	for _, f := range fields {
		if n := data.Get(f.key).Int(); n != 0 {
			lines = append(lines, fmt.Sprintf("<b>%s:</b> %s", f.label, FormatNumber(n)))
		}
	}
	return strings.Join(lines, "<br/>")
}

// 将错误转换为对应的回复
// 回显的用户输入最长码点数
const maxEchoLength = 64

func replyError(ctx *manager.Ctx, err error, token string) {
	code := "<code>" + html.EscapeString(utils.StringLimit(token, maxEchoLength)) + "</code>"
	switch {
	case errors.Is(err, ErrorOfInvalidDate):
		ctx.Log.Debugf("invalid date %q", token)
		ctx.SendHTML("Date was invalid: " + code)
	case errors.Is(err, ErrorOfInvalidQuery):
		ctx.Log.Debugf("invalid query %q", token)
		ctx.SendHTML("Query was invalid: " + code)
	case errors.Is(err, ErrorOfNoLocation):
		ctx.Log.Infof("no location %q", token)
		ctx.SendHTML("No location found for " + code)
	case errors.Is(err, ErrorOfNoData):
		ctx.Log.Infof("no data for %q", token)
		ctx.SendHTML("No data found for " + code)
	case errors.Is(err, ErrorOfFetch):
		ctx.Log.Errorf("fetch err: %v", err)
		ctx.SendText("There was an error fetching data, please try again later")
	case errors.Is(err, ErrorOfMalformedData):
		ctx.Log.Errorf("malformed data: %v", err)
		ctx.SendText("Error processing data")
	default:
		ctx.Log.Errorf("unexpected err: %v", err)
		ctx.SendText(manager.FailureReply)
	}
}
