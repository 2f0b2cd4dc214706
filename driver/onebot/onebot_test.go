package onebot

import (
	"context"
	"testing"

	"github.com/RicheyJang/covid19bot/manager"
	"github.com/RicheyJang/covid19bot/utils/message"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	zero "github.com/wdvxdr1123/ZeroBot"
)

func TestToEvent(t *testing.T) {
	group := toEvent(&zero.Event{GroupID: 123, UserID: 456, MessageID: 789, Time: 1586995200}, "!covid19 total", nil)
	assert.Equal(t, "onebot", group.Platform)
	assert.Equal(t, "group:123", group.RoomID)
	assert.Equal(t, "456", group.SenderID)
	assert.Equal(t, "789", group.EventID)
	assert.Equal(t, "!covid19 total", group.Body)
	assert.Equal(t, int64(1586995200), group.Time.Unix())

	private := toEvent(&zero.Event{UserID: 456}, "", nil)
	assert.Equal(t, "private:456", private.RoomID)
}

func TestBuildMessage(t *testing.T) {
	msg := BuildMessage(message.HTML("<h4>COVID-19 Deaths</h4><b>5</b>"), 789)
	require.Len(t, msg, 2)
	assert.Equal(t, "reply", msg[0].Type)
	assert.Equal(t, "text", msg[1].Type)
	assert.Equal(t, "COVID-19 Deaths\n5", msg[1].Data["text"])
}

func TestReplyWithoutContext(t *testing.T) {
	d := New(Config{}, nil)
	err := d.Reply(context.Background(), &manager.Event{EventID: "1"}, message.Text("hi"))
	assert.Error(t, err)
	assert.Error(t, d.Start(context.Background()))
}
