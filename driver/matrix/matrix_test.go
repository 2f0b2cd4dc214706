package matrix

import (
	"context"
	"testing"
	"time"

	"github.com/RicheyJang/covid19bot/manager"
	"github.com/RicheyJang/covid19bot/utils/message"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

func newTestDriver(t *testing.T) *Driver {
	t.Helper()
	d, err := New(Config{Homeserver: "https://matrix.example.org", UserID: "@bot:example.org", AccessToken: "token"},
		func(context.Context, *manager.Event, manager.Replier) bool { return false })
	require.NoError(t, err)
	return d
}

func textEvent(sender string, ts time.Time, content *event.MessageEventContent) *event.Event {
	return &event.Event{
		Sender:    id.UserID(sender),
		RoomID:    id.RoomID("!room:example.org"),
		ID:        id.EventID("$event"),
		Timestamp: ts.UnixMilli(),
		Type:      event.EventMessage,
		Content:   event.Content{Parsed: content},
	}
}

func TestBuildContent(t *testing.T) {
	content := BuildContent(message.HTML("<h4>COVID-19 Totals</h4><b>Deaths:</b> 5"), "$origin")
	assert.Equal(t, event.MsgNotice, content.MsgType)
	assert.Equal(t, event.FormatHTML, content.Format)
	assert.Equal(t, "<h4>COVID-19 Totals</h4><b>Deaths:</b> 5", content.FormattedBody)
	assert.Equal(t, "COVID-19 Totals\nDeaths: 5", content.Body)
	require.NotNil(t, content.RelatesTo)
	assert.Equal(t, id.EventID("$origin"), content.RelatesTo.GetReplyTo())

	assert.Nil(t, BuildContent(message.Text("hi"), "").RelatesTo)
}

func TestToEvent(t *testing.T) {
	d := newTestDriver(t)
	now := time.Now().Add(time.Second)

	ev, ok := d.toEvent(textEvent("@alice:example.org", now, &event.MessageEventContent{MsgType: event.MsgText, Body: "!covid19 total"}))
	require.True(t, ok)
	assert.Equal(t, "matrix", ev.Platform)
	assert.Equal(t, "!room:example.org", ev.RoomID)
	assert.Equal(t, "@alice:example.org", ev.SenderID)
	assert.Equal(t, "$event", ev.EventID)
	assert.Equal(t, "!covid19 total", ev.Body)

	_, ok = d.toEvent(textEvent("@bot:example.org", now, &event.MessageEventContent{MsgType: event.MsgText, Body: "!covid19 total"}))
	assert.False(t, ok, "own message")
	_, ok = d.toEvent(textEvent("@alice:example.org", now.Add(-time.Hour), &event.MessageEventContent{MsgType: event.MsgText, Body: "!covid19 total"}))
	assert.False(t, ok, "historical message")
	_, ok = d.toEvent(textEvent("@alice:example.org", now, &event.MessageEventContent{
		MsgType:   event.MsgText,
		Body:      "!covid19 total",
		RelatesTo: &event.RelatesTo{Type: event.RelReplace, EventID: "$old"},
	}))
	assert.False(t, ok, "edit")
	_, ok = d.toEvent(textEvent("@alice:example.org", now, &event.MessageEventContent{MsgType: event.MsgImage, Body: "a.png"}))
	assert.False(t, ok, "image")
	_, ok = d.toEvent(textEvent("@otherbot:example.org", now, &event.MessageEventContent{MsgType: event.MsgNotice, Body: "!covid19 total"}))
	assert.False(t, ok, "notice")
}
