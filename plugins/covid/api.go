package covid

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/RicheyJang/covid19bot/utils/client"

	"github.com/tidwall/gjson"
)

var (
	ErrorOfInvalidDate   = errors.New("invalid date")
	ErrorOfInvalidQuery  = errors.New("invalid query")
	ErrorOfFetch         = errors.New("fetch statistics failed")
	ErrorOfMalformedData = errors.New("malformed statistics data")
	ErrorOfNoData        = errors.New("no statistics data")
	ErrorOfNoLocation    = errors.New("no such location")
)

// 各接口路径的配置项Key
const (
	pathTotal      = "paths.total"
	pathReports    = "paths.reports"
	pathRegions    = "paths.regions"
	pathProvinces  = "paths.provinces"
	pathTimeseries = "paths.timeseries"
)

// API 统计数据接口
type API struct {
	Base  string            // 接口根地址，如 https://covid-api.com/api
	Paths map[string]string // 配置项Key -> 路径
	c     *client.HttpClient
}

// NewAPI 新建统计数据接口，所有请求携带 Accept: application/json
func NewAPI(base string, timeout time.Duration, paths map[string]string) *API {
	header := http.Header{}
	header.Set("Accept", "application/json")
	return &API{
		Base:  strings.TrimRight(base, "/"),
		Paths: paths,
		c:     client.NewHttpClient(&client.HttpOptions{Timeout: timeout, Header: header}),
	}
}

// 依据插件配置构造API
func apiFromConfig() *API {
	paths := make(map[string]string)
	for _, key := range []string{pathTotal, pathReports, pathRegions, pathProvinces, pathTimeseries} {
		paths[key] = proxy.GetConfigString(key)
	}
	return NewAPI(proxy.GetConfigString("api"), proxy.GetConfigDuration("timeout"), paths)
}

// URL 拼接完整请求地址
func (a *API) URL(pathKey string, params url.Values, elem ...string) string {
	u := a.Base + a.Paths[pathKey]
	for _, e := range elem {
		u += "/" + url.PathEscape(e)
	}
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// Fetch 请求并返回回包中的data字段
func (a *API) Fetch(ctx context.Context, pathKey string, params url.Values, elem ...string) (gjson.Result, error) {
	u := a.URL(pathKey, params, elem...)
	rsp, err := a.c.GetGJson(ctx, u)
	if errors.Is(err, client.ErrorOfInvalidJson) {
		return gjson.Result{}, fmt.Errorf("%w: %s", ErrorOfMalformedData, u)
	}
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %w", ErrorOfFetch, err)
	}
	data := rsp.Get("data")
	if !data.Exists() || data.Type == gjson.Null {
		return gjson.Result{}, fmt.Errorf("%w: no data field in %s", ErrorOfMalformedData, u)
	}
	return data, nil
}

// Total 获取汇总数据，date、iso为空时不作筛选
func (a *API) Total(ctx context.Context, date, iso string) (gjson.Result, error) {
	params := url.Values{}
	if len(date) > 0 {
		params.Set("date", date)
	}
	if len(iso) > 0 {
		params.Set("iso", strings.ToUpper(iso))
	}
	data, err := a.Fetch(ctx, pathTotal, params)
	if err != nil {
		return data, err
	}
	if !data.IsObject() {
		return gjson.Result{}, fmt.Errorf("%w: total data is not an object", ErrorOfMalformedData)
	}
	return data, nil
}

// Reports 按日期与地区获取分地区报告
func (a *API) Reports(ctx context.Context, q Query) (gjson.Result, error) {
	params := url.Values{}
	if len(q.Date) > 0 {
		params.Set("date", q.Date)
	}
	if len(q.Region) > 0 {
		params.Set("iso", strings.ToUpper(q.Region))
	}
	if len(q.Province) > 0 {
		params.Set("region_province", q.Province)
	}
	if len(q.City) > 0 {
		params.Set("city_name", q.City)
	}
	data, err := a.Fetch(ctx, pathReports, params)
	if err != nil {
		return data, err
	}
	if !data.IsArray() {
		return gjson.Result{}, fmt.Errorf("%w: reports data is not an array", ErrorOfMalformedData)
	}
	return data, nil
}

// Regions 获取所有地区
func (a *API) Regions(ctx context.Context) (gjson.Result, error) {
	return a.fetchArray(ctx, pathRegions, nil)
}

// Provinces 获取指定地区的所有省份
func (a *API) Provinces(ctx context.Context, iso string) (gjson.Result, error) {
	return a.fetchArray(ctx, pathProvinces, nil, strings.ToUpper(iso))
}

// Timeseries 获取全球时间序列：由 {日期: 数据} 单键对象组成的数组
func (a *API) Timeseries(ctx context.Context) (gjson.Result, error) {
	return a.fetchArray(ctx, pathTimeseries, nil)
}

func (a *API) fetchArray(ctx context.Context, pathKey string, params url.Values, elem ...string) (gjson.Result, error) {
	data, err := a.Fetch(ctx, pathKey, params, elem...)
	if err != nil {
		return data, err
	}
	if !data.IsArray() {
		return gjson.Result{}, fmt.Errorf("%w: %s data is not an array", ErrorOfMalformedData, pathKey)
	}
	return data, nil
}
