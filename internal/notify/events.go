package notify

import (
	"context"

	"github.com/TheCacophonyProject/event-reporter/v3/eventclient"
	"github.com/TheCacophonyProject/vr-battery-monitor/internal/battery"
)

const (
	dischargeEventType      = "vrBatteryDischarge"
	monitorStartedEventType = "vrBatteryMonitorStarted"
)

// Events records notifications with the local event reporter so there is a
// log of when devices were unplugged.
type Events struct {
	addEvent func(eventclient.Event) error
}

func NewEvents() *Events {
	return &Events{addEvent: eventclient.AddEvent}
}

func (e *Events) Kind() TransportKind {
	return KindEvents
}

func toReporterEvent(ev battery.NotificationEvent) eventclient.Event {
	eventType := monitorStartedEventType
	details := map[string]interface{}{
		"id": ev.ID,
	}
	if ev.Kind == battery.DischargeStarted {
		eventType = dischargeEventType
		details["serial"] = ev.DeviceSerial
		details["name"] = ev.DeviceName
		details["level"] = ev.Level
	}
	return eventclient.Event{
		Timestamp: ev.Time,
		Type:      eventType,
		Details:   details,
	}
}

func (e *Events) Send(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.addEvent(toReporterEvent(n.Event))
}

func (e *Events) Close() error {
	return nil
}
