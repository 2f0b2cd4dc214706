package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

type HttpClient struct {
	HttpOptions
	client *http.Client
}

type HttpOptions struct {
	Timeout time.Duration
	Header  http.Header // 每个请求都会携带的Header
}

// ErrorOfStatus 回包状态码非2xx
type ErrorOfStatus struct {
	URL  string
	Code int
}

func (e *ErrorOfStatus) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.Code, e.URL)
}

// ErrorOfInvalidJson 回包不是合法的Json
var ErrorOfInvalidJson = errors.New("response body is not valid json")

// NewHttpClient 创建新Http请求器
func NewHttpClient(option *HttpOptions) *HttpClient {
	if option == nil {
		option = new(HttpOptions)
	}
	if option.Timeout == 0 {
		option.Timeout = 10 * time.Second
	}
	return &HttpClient{
		HttpOptions: *option,
		client:      &http.Client{Timeout: option.Timeout},
	}
}

// Do 携带默认Header发送请求，不做重试
func (c HttpClient) Do(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("req is nil")
	}
	for k, vs := range c.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return c.client.Do(req)
}

func (c HttpClient) GetWithContext(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// GetGJson 通过Get请求获取Json回包，非2xx状态码视为错误
func (c HttpClient) GetGJson(ctx context.Context, url string) (gjson.Result, error) {
	res, err := c.GetWithContext(ctx, url)
	if err != nil {
		return gjson.Result{}, err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return gjson.Result{}, &ErrorOfStatus{URL: url, Code: res.StatusCode}
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		log.Debugf("GetGJson invalid body from %s: %.64q", url, body)
		return gjson.Result{}, ErrorOfInvalidJson
	}
	return gjson.ParseBytes(body), nil
}
