package covid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/RicheyJang/covid19bot/manager"
	"github.com/RicheyJang/covid19bot/utils/message"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockAPI 按路径返回固定回包的统计接口
type mockAPI struct {
	mu       sync.Mutex
	routes   map[string]string
	requests []*url.URL
	status   int
}

func newMockAPI(t *testing.T, routes map[string]string) *mockAPI {
	t.Helper()
	m := &mockAPI{routes: routes, status: http.StatusOK}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.requests = append(m.requests, r.URL)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		body, ok := m.routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(m.status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	proxy.SetConfig("api", srv.URL)
	nowFunc = func() time.Time { return time.Date(2020, 4, 16, 0, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { nowFunc = time.Now })
	return m
}

func (m *mockAPI) setRoute(path, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[path] = body
}

func (m *mockAPI) setStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
}

func (m *mockAPI) hits() []*url.URL {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests
}

// 模拟一条入站消息，返回所有回复
func dispatch(t *testing.T, body string) []message.Reply {
	t.Helper()
	var replies []message.Reply
	manager.Dispatch(context.Background(), &manager.Event{Platform: "test", RoomID: "!room", SenderID: "@alice", Body: body},
		manager.ReplierFunc(func(_ context.Context, _ *manager.Event, reply message.Reply) error {
			replies = append(replies, reply)
			return nil
		}))
	return replies
}

func dispatchOne(t *testing.T, body string) message.Reply {
	t.Helper()
	replies := dispatch(t, body)
	require.Len(t, replies, 1, body)
	return replies[0]
}

func TestTotal(t *testing.T) {
	api := newMockAPI(t, map[string]string{"/reports/total": `{"data":{"confirmed":100,"deaths":5}}`})

	reply := dispatchOne(t, "!covid19 total")
	assert.Contains(t, reply.HTML, "<h4>COVID-19 Totals</h4>")
	assert.Contains(t, reply.Plain, "Confirmed Cases: 100")
	assert.Contains(t, reply.Plain, "Deaths: 5")
	assert.NotContains(t, reply.Plain, "Active")
	assert.NotContains(t, reply.Plain, "Recovered")

	dispatchOne(t, "!covid19 TOTALS 2020-04-15")
	hits := api.hits()
	require.Len(t, hits, 2)
	assert.Empty(t, hits[0].Query().Get("date"))
	assert.Equal(t, "2020-04-15", hits[1].Query().Get("date"))
}

func TestInvalidDateMakesNoRequest(t *testing.T) {
	api := newMockAPI(t, map[string]string{})
	for body, token := range map[string]string{
		"!covid19 total 2020-13-45":    "2020-13-45",
		"!covid19 deaths tomorrow":     "tomorrow",
		"!covid19 time 15/04/2020":     "15/04/2020",
		"!covid19 report 2020-4-1 usa": "2020-4-1",
		"!covid19 confirmed last week": "last week",
	} {
		reply := dispatchOne(t, body)
		assert.Equal(t, "Date was invalid: "+token, reply.Plain)
		assert.Contains(t, reply.HTML, "<code>"+token+"</code>")
	}
	assert.Empty(t, api.hits())
}

func TestSingleField(t *testing.T) {
	newMockAPI(t, map[string]string{"/reports/total": `{"data":{"confirmed":1234567,"deaths":5,"active":0}}`})
	assert.Equal(t, "COVID-19 Confirmed Cases\n1,234,567", dispatchOne(t, "!covid19 confirmed").Plain)
	assert.Equal(t, "COVID-19 Deaths\n5", dispatchOne(t, "!covid19 DECEASED").Plain)
	assert.Equal(t, "COVID-19 Recovered\nUnknown", dispatchOne(t, "!covid19 recovery yesterday").Plain)
	assert.Equal(t, "COVID-19 Active Cases\nUnknown", dispatchOne(t, "!covid19 active").Plain)
}

func TestCountry(t *testing.T) {
	api := newMockAPI(t, map[string]string{"/reports/total": `{"data":{"confirmed":100,"deaths":5,"recovered":20}}`})
	reply := dispatchOne(t, "!covid19 country usa")
	assert.Equal(t, "COVID-19 Data for USA\nConfirmed Cases: 100\nDeaths: 5\nRecovered: 20", reply.Plain)
	assert.Equal(t, "USA", api.hits()[0].Query().Get("iso"))

	api.setRoute("/reports/total", `{"data":[]}`)
	assert.Equal(t, "No location found for XYZ", dispatchOne(t, "!covid19 country xyz").Plain)
	assert.Equal(t, "Query was invalid:", dispatchOne(t, "!covid19 country").Plain)
}

func TestTime(t *testing.T) {
	newMockAPI(t, map[string]string{"/timeseries/global": `{"data":[
		{"4/14/20":{"confirmed":1,"deaths":1,"recovered":0}},
		{"4/15/20":{"confirmed":2000,"deaths":100,"recovered":500}}
	]}`})
	reply := dispatchOne(t, "!covid19 time 2020-04-15")
	assert.Equal(t, "COVID-19 Global Data for Date 2020-04-15\nConfirmed Cases: 2,000\nDeaths: 100\nRecovered: 500", reply.Plain)
	assert.Contains(t, dispatchOne(t, "!covid19 time yesterday").Plain, "Confirmed Cases: 2,000")
	assert.Equal(t, "No data found for 2020-05-01", dispatchOne(t, "!covid19 time 2020-05-01").Plain)
}

func TestRegionsAndProvinces(t *testing.T) {
	api := newMockAPI(t, map[string]string{
		"/regions": `{"data":[{"iso":"USA","name":"US"},{"iso":"CHN","name":"China"}]}`,
		"/provinces/USA": `{"data":[
			{"iso":"USA","name":"US","province":"New York","lat":"42.1657","long":"-74.9481"},
			{"iso":"USA","name":"US","province":"Washington","lat":"47.4009","long":"-121.4905"}
		]}`,
		"/provinces/ATA": `{"data":[]}`,
	})
	reply := dispatchOne(t, "!covid19 regions")
	assert.Contains(t, reply.Plain, "ISO  Name \nUSA  US   \nCHN  China")
	assert.Contains(t, reply.HTML, "<pre>")

	reply = dispatchOne(t, "!covid19 provinces usa")
	assert.Contains(t, reply.Plain, "Province    Latitude  Longitude")
	assert.Contains(t, reply.Plain, "New York    42.1657   -74.9481 ")
	assert.Equal(t, "/provinces/USA", api.hits()[1].Path)

	assert.Equal(t, "No location found for ATA", dispatchOne(t, "!covid19 province ata").Plain)
	assert.Empty(t, dispatch(t, "!covid19 regions please"))
}

func TestReport(t *testing.T) {
	api := newMockAPI(t, map[string]string{
		"/reports":       `{"data":` + newYorkReport + `}`,
		"/reports/total": `{"data":{"confirmed":2000,"deaths":100,"last_update":"2020-04-15 23:00:00"}}`,
	})

	reply := dispatchOne(t, "!covid19 report 2020-04-15 usa;new york;kings")
	assert.Contains(t, reply.Plain, "US / New York (updated 2 hours ago)")
	assert.Contains(t, reply.Plain, "Kings (updated 2 hours ago)")
	query := api.hits()[0].Query()
	assert.Equal(t, "2020-04-15", query.Get("date"))
	assert.Equal(t, "USA", query.Get("iso"))
	assert.Equal(t, "new york", query.Get("region_province"))
	assert.Equal(t, "kings", query.Get("city_name"))

	reply = dispatchOne(t, "!covid19 report")
	assert.Contains(t, reply.Plain, "Global (updated 60 minutes ago)")
	assert.Equal(t, "/reports/total", api.hits()[1].Path)

	assert.Equal(t, "Query was invalid: a;b;c;d", dispatchOne(t, "!covid19 report today a;b;c;d").Plain)

	reply = dispatchOne(t, "!covid19 report today ;new york")
	assert.Contains(t, reply.Plain, "US / New York")
	query = api.hits()[2].Query()
	assert.Equal(t, "2020-04-16", query.Get("date"))
	assert.False(t, query.Has("iso"))
	assert.Equal(t, "new york", query.Get("region_province"))

	reply = dispatchOne(t, "!covid19 report usa; new york")
	assert.Contains(t, reply.Plain, "US / New York")
	query = api.hits()[3].Query()
	assert.False(t, query.Has("date"))
	assert.Equal(t, "USA", query.Get("iso"))
	assert.Equal(t, "new york", query.Get("region_province"))

	api.setRoute("/reports", `{"data":[]}`)
	assert.Equal(t, "No data found for CHN on 2020-04-16", dispatchOne(t, "!covid19 report today chn").Plain)
	assert.Equal(t, "No data found for hubei on 2020-04-16", dispatchOne(t, "!covid19 report today ;hubei").Plain)
	assert.Equal(t, "Date was invalid: 2020-4-1", dispatchOne(t, "!covid19 report 2020-4-1").Plain)
}

func TestFetchErrors(t *testing.T) {
	api := newMockAPI(t, map[string]string{"/reports/total": `{"data":{"confirmed":1}}`})
	api.setStatus(http.StatusInternalServerError)
	assert.Equal(t, "There was an error fetching data, please try again later", dispatchOne(t, "!covid19 total").Plain)

	api.setStatus(http.StatusOK)
	api.setRoute("/reports/total", `not json`)
	assert.Equal(t, "Error processing data", dispatchOne(t, "!covid19 total").Plain)
	api.setRoute("/reports/total", `{"message":"ok"}`)
	assert.Equal(t, "Error processing data", dispatchOne(t, "!covid19 deaths").Plain)
	api.setRoute("/reports/total", `{"data":[1,2]}`)
	assert.Equal(t, "Error processing data", dispatchOne(t, "!covid19 total").Plain)
}

func TestUnknownCommandIsSilent(t *testing.T) {
	api := newMockAPI(t, map[string]string{})
	assert.Empty(t, dispatch(t, "!covid19 vaccines"))
	assert.Empty(t, dispatch(t, "covid19 total"))
	assert.Empty(t, api.hits())
}
