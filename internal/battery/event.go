package battery

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventKind int

const (
	MonitorStarted EventKind = iota
	DischargeStarted
)

func (k EventKind) String() string {
	switch k {
	case MonitorStarted:
		return "monitorStarted"
	case DischargeStarted:
		return "dischargeStarted"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// NotificationEvent is handed to the notification transports.
type NotificationEvent struct {
	ID           string
	Kind         EventKind
	DeviceName   string
	DeviceSerial string
	Level        float64
	Time         time.Time
}

func NewMonitorStartedEvent() NotificationEvent {
	return NotificationEvent{
		ID:   uuid.NewString(),
		Kind: MonitorStarted,
		Time: time.Now(),
	}
}

func NewDischargeEvent(sample DeviceSample) NotificationEvent {
	return NotificationEvent{
		ID:           uuid.NewString(),
		Kind:         DischargeStarted,
		DeviceName:   sample.Name(),
		DeviceSerial: sample.Serial,
		Level:        sample.Level,
		Time:         time.Now(),
	}
}

func (e NotificationEvent) Title() string {
	if e.Kind == MonitorStarted {
		return "Monitor started"
	}
	return "Battery warning"
}

func (e NotificationEvent) Body() string {
	if e.Kind == MonitorStarted {
		return "Battery monitor has started."
	}
	return fmt.Sprintf("Device %s just started discharging!", e.DeviceName)
}
