package notify

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsName   = "org.freedesktop.Notifications"
	notificationsPath   = "/org/freedesktop/Notifications"
	notificationsMethod = notificationsName + ".Notify"

	defaultSoundName = "message-new-instant"
)

// Desktop shows notifications through the freedesktop notification service
// on the session bus.
type Desktop struct {
	appName string
	icon    string
	conn    *dbus.Conn
	obj     dbus.BusObject
	dial    func() (*dbus.Conn, error)
}

func NewDesktop(appName, icon string) *Desktop {
	return &Desktop{
		appName: appName,
		icon:    icon,
		dial: func() (*dbus.Conn, error) {
			return dbus.ConnectSessionBus()
		},
	}
}

func (d *Desktop) Kind() TransportKind {
	return KindDesktop
}

func (d *Desktop) connect() error {
	if d.obj != nil {
		return nil
	}
	conn, err := d.dial()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	d.conn = conn
	d.obj = conn.Object(notificationsName, notificationsPath)
	return nil
}

func (d *Desktop) Send(ctx context.Context, n Notification) error {
	if err := d.connect(); err != nil {
		return err
	}
	if err := d.notify(ctx, d.obj, n); err != nil {
		d.reset()
		return err
	}
	return nil
}

func (d *Desktop) notify(ctx context.Context, obj dbus.BusObject, n Notification) error {
	hints := map[string]dbus.Variant{}
	if n.PlaySound {
		hints["sound-name"] = dbus.MakeVariant(defaultSoundName)
	} else {
		hints["suppress-sound"] = dbus.MakeVariant(true)
	}
	if n.Event.DeviceSerial != "" {
		hints["urgency"] = dbus.MakeVariant(byte(2))
	}
	call := obj.CallWithContext(ctx, notificationsMethod, 0,
		d.appName,
		uint32(0), // replaces_id
		d.icon,
		n.Event.Title(),
		n.Event.Body(),
		[]string{}, // actions
		hints,
		int32(-1), // expire_timeout, server default
	)
	return call.Err
}

func (d *Desktop) reset() {
	if d.conn != nil {
		d.conn.Close()
	}
	d.conn = nil
	d.obj = nil
}

func (d *Desktop) Close() error {
	d.reset()
	return nil
}
