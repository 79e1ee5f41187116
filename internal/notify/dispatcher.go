/*
vr-battery-monitor - Notifies when VR devices start discharging
Copyright (C) 2024, The Cacophony Project

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package notify delivers notification events to the user through one or
// more transports.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/TheCacophonyProject/vr-battery-monitor/internal/battery"
	"github.com/TheCacophonyProject/vr-battery-monitor/internal/logging"
	"github.com/TheCacophonyProject/vr-battery-monitor/internal/metrics"
)

var log = logging.NewLogger("info")

func SetLogger(l *logging.Logger) {
	log = l
}

type TransportKind string

const (
	KindDesktop TransportKind = "desktop"
	KindOVRT    TransportKind = "ovrt"
	KindMQTT    TransportKind = "mqtt"
	KindEvents  TransportKind = "events"
)

// TransportSet is the set of transports a notification should go to.
type TransportSet map[TransportKind]bool

func NewTransportSet(kinds ...TransportKind) TransportSet {
	s := TransportSet{}
	for _, k := range kinds {
		s[k] = true
	}
	return s
}

func (s TransportSet) Has(k TransportKind) bool {
	return s[k]
}

// Notification is an event along with how it should be presented.
type Notification struct {
	Event     battery.NotificationEvent
	PlaySound bool
}

// Transport delivers notifications somewhere. Send is only ever called from
// one goroutine at a time, so a transport may keep connection state without
// locking. A transport that fails should drop its connection so the next
// Send reconnects.
type Transport interface {
	Kind() TransportKind
	Send(ctx context.Context, n Notification) error
	Close() error
}

const (
	defaultQueueSize   = 16
	defaultSendTimeout = 10 * time.Second
)

type worker struct {
	transport Transport
	queue     chan Notification
}

// Dispatcher fans notifications out to its transports. Each transport has
// its own queue and goroutine.
type Dispatcher struct {
	mu          sync.Mutex
	closed      bool
	workers     []*worker
	wg          sync.WaitGroup
	sendTimeout time.Duration
}

func NewDispatcher(transports ...Transport) *Dispatcher {
	d := &Dispatcher{sendTimeout: defaultSendTimeout}
	for _, t := range transports {
		w := &worker{transport: t, queue: make(chan Notification, defaultQueueSize)}
		d.workers = append(d.workers, w)
		d.wg.Add(1)
		go d.run(w)
	}
	return d
}

func (d *Dispatcher) run(w *worker) {
	defer d.wg.Done()
	kind := string(w.transport.Kind())
	for n := range w.queue {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
		err := w.transport.Send(ctx, n)
		cancel()
		metrics.NotificationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.NotificationsSent.WithLabelValues(kind, "error").Inc()
			log.Warnf("Failed to send %s notification %s via %s: %v", n.Event.Kind, n.Event.ID, kind, err)
			continue
		}
		metrics.NotificationsSent.WithLabelValues(kind, "ok").Inc()
		log.Debugf("Sent %s notification %s via %s", n.Event.Kind, n.Event.ID, kind)
	}
}

// Dispatch queues the event for every enabled transport and returns
// straight away. Delivery is best effort; a full queue drops the event.
func (d *Dispatcher) Dispatch(event battery.NotificationEvent, enabled TransportSet, playSound bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	n := Notification{Event: event, PlaySound: playSound}
	for _, w := range d.workers {
		kind := w.transport.Kind()
		if !enabled.Has(kind) {
			continue
		}
		select {
		case w.queue <- n:
		default:
			metrics.NotificationsDropped.WithLabelValues(string(kind)).Inc()
			log.Warnf("Notification queue for %s is full, dropping %s notification", kind, event.Kind)
		}
	}
}

// Close stops accepting notifications, waits for queued ones to be
// attempted and then closes every transport.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, w := range d.workers {
		close(w.queue)
	}
	d.mu.Unlock()

	d.wg.Wait()
	for _, w := range d.workers {
		if err := w.transport.Close(); err != nil {
			log.Debugf("Error closing %s transport: %v", w.transport.Kind(), err)
		}
	}
}
