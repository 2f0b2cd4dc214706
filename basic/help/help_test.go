package help

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/RicheyJang/covid19bot/manager"
	"github.com/RicheyJang/covid19bot/utils/message"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlugins() []*manager.PluginCondition {
	return []*manager.PluginCondition{
		{
			PluginInfo: manager.PluginInfo{Name: "COVID-19", Usage: "total [date]", Classify: "statistics"},
			Key:        "covid",
			NormalCmd:  [][]string{{"total", "totals"}, {"regions"}},
		},
		{
			PluginInfo: manager.PluginInfo{Name: "Inspection", Usage: "status", IsSuperOnly: true},
			Key:        "inspection",
			SuperCmd:   [][]string{{"status"}},
		},
		{
			PluginInfo: manager.PluginInfo{Name: "Rate limiter", IsPassive: true},
			Key:        "limiter",
		},
		{
			PluginInfo: manager.PluginInfo{Name: "Help", IsHidden: true},
			Key:        "help",
			NormalCmd:  [][]string{{"help"}},
		},
	}
}

func TestSummary(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(formSummaryHelpMsg(testPlugins(), "!covid19", false)))
	require.NoError(t, err)
	require.Equal(t, 1, doc.Find("li").Length())
	assert.Equal(t, "COVID-19: total/totals, regions", doc.Find("li").Text())
	assert.Equal(t, "statistics", doc.Find("b").Text())
	assert.Contains(t, doc.Text(), "!covid19 help <command>")

	doc, err = goquery.NewDocumentFromReader(strings.NewReader(formSummaryHelpMsg(testPlugins(), "!covid19", true)))
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Find("li").Length())
	assert.Equal(t, "Inspection: status", doc.Find("li").First().Text())
}

func TestSingle(t *testing.T) {
	plugins := testPlugins()
	assert.Equal(t, "<h4>COVID-19</h4><pre>total [date]</pre>", formSingleHelpMsg(plugins, "totals", false))
	assert.Equal(t, "<h4>COVID-19</h4><pre>total [date]</pre>", formSingleHelpMsg(plugins, "covid-19", false))
	assert.Contains(t, formSingleHelpMsg(plugins, "status", false), "No command found")
	assert.Contains(t, formSingleHelpMsg(plugins, "status", true), "<h4>Inspection</h4>")
}

func TestBarePrefixShowsHelp(t *testing.T) {
	var replies []message.Reply
	replier := manager.ReplierFunc(func(_ context.Context, _ *manager.Event, reply message.Reply) error {
		replies = append(replies, reply)
		return nil
	})
	assert.True(t, manager.Dispatch(context.Background(), &manager.Event{SenderID: "@alice", Body: " !COVID19 "}, replier))
	assert.True(t, manager.Dispatch(context.Background(), &manager.Event{SenderID: "@alice", Body: "!covid19 help"}, replier))
	require.Len(t, replies, 2)
	for _, reply := range replies {
		assert.True(t, strings.HasPrefix(reply.Plain, "COVID-19 Bot Help"))
	}
}
