package websocket

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RunRedisBridge доставляет опубликованные балансы подписчикам этого
// инстанса. Все публикации идут через Redis, поэтому порядок в пределах
// комнаты одинаков на всех инстансах.
func (h *Hub) RunRedisBridge(ctx context.Context, rdb *redis.Client) {
	pubsub := rdb.PSubscribe(ctx, BalanceChannelPattern)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			roomID, err := roomIDFromChannel(msg.Channel)
			if err != nil {
				logrus.WithField("channel", msg.Channel).Warn("balance bridge: unparseable channel name")
				continue
			}

			var update BalanceUpdate
			if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
				logrus.WithError(err).WithField("channel", msg.Channel).Warn("balance bridge: bad payload")
				continue
			}

			h.PublishBalance(roomID, update.VirtualBalance)
		}
	}
}

func roomIDFromChannel(channel string) (uuid.UUID, error) {
	name := strings.TrimPrefix(channel, "room:")
	name = strings.TrimSuffix(name, ":balance")
	return uuid.Parse(name)
}
