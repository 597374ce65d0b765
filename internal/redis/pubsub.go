package redisx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// ShowsPubSub broadcasts seat-map changes so other instances can drop their
// cached availability for a show.
type ShowsPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewShowsPubSub(rdb *redis.Client) *ShowsPubSub {
	return &ShowsPubSub{
		rdb:     rdb,
		channel: ChannelShowsChanged(),
	}
}

type showChangedMsg struct {
	Type   string `json:"type"`
	ShowID int64  `json:"show_id"`
	TsUnix int64  `json:"ts_unix"`
}

func (p *ShowsPubSub) PublishShowChanged(ctx context.Context, showID int64) error {
	msg := showChangedMsg{
		Type:   "show_changed",
		ShowID: showID,
		TsUnix: time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

func (p *ShowsPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, showID int64)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var ev showChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &ev); err == nil &&
				ev.ShowID != 0 {
				handler(ctx, ev.ShowID)
			}
		}
	}
}
