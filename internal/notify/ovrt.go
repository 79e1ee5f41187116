package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// OVRT sends notifications to the OVR Toolkit overlay over its websocket API.
type OVRT struct {
	url    string
	dialer *websocket.Dialer
	conn   *websocket.Conn
}

type ovrtNotification struct {
	Title string  `json:"title"`
	Body  string  `json:"body"`
	Icon  *string `json:"icon"`
}

type ovrtMessage struct {
	MessageType string `json:"messageType"`
	JSON        string `json:"json"`
}

func NewOVRT(url string) *OVRT {
	return &OVRT{
		url:    url,
		dialer: &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
	}
}

func (o *OVRT) Kind() TransportKind {
	return KindOVRT
}

func ovrtPayload(n Notification) (ovrtMessage, error) {
	inner, err := json.Marshal(ovrtNotification{
		Title: n.Event.Title(),
		Body:  n.Event.Body(),
	})
	if err != nil {
		return ovrtMessage{}, err
	}
	return ovrtMessage{MessageType: "notification", JSON: string(inner)}, nil
}

func (o *OVRT) Send(ctx context.Context, n Notification) error {
	if o.conn == nil {
		conn, _, err := o.dialer.DialContext(ctx, o.url, nil)
		if err != nil {
			return fmt.Errorf("failed to connect to OVRT: %w", err)
		}
		o.conn = conn
	}

	msg, err := ovrtPayload(n)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := o.conn.SetWriteDeadline(deadline); err != nil {
			o.reset()
			return fmt.Errorf("failed to set OVRT write deadline: %w", err)
		}
	}
	if err := o.conn.WriteJSON(msg); err != nil {
		o.reset()
		return fmt.Errorf("failed to send notification to OVRT: %w", err)
	}
	return nil
}

func (o *OVRT) reset() {
	if o.conn != nil {
		o.conn.Close()
	}
	o.conn = nil
}

func (o *OVRT) Close() error {
	o.reset()
	return nil
}
