package broadcast

import (
	"context"

	"github.com/coder/websocket"
)

// wsObserver adapts a websocket connection to the Observer interface.
type wsObserver struct {
	ctx  context.Context
	conn *websocket.Conn
}

func (o *wsObserver) Deliver(data []byte) error {
	return o.conn.Write(o.ctx, websocket.MessageText, data)
}

// ServeConn subscribes the websocket to the hub and pumps its control
// messages until the peer disconnects.
func (h *Hub) ServeConn(ctx context.Context, conn *websocket.Conn) {
	obs := &wsObserver{ctx: ctx, conn: conn}
	h.Subscribe(obs)
	defer h.Unsubscribe(obs)

	h.logger.Info("dashboard observer connected")
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			h.logger.Info("dashboard observer disconnected")
			return
		}
		h.HandleControl(ctx, obs, data)
	}
}
