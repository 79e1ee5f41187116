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

// Package source reads battery samples from the VR runtime.
package source

import (
	"errors"
	"fmt"

	"github.com/TheCacophonyProject/vr-battery-monitor/internal/battery"
	"github.com/TheCacophonyProject/vr-battery-monitor/internal/logging"
)

var log = logging.NewLogger("info")

// SetLogger replaces the package logger.
func SetLogger(l *logging.Logger) {
	log = l
}

// ErrUnavailable is returned when the runtime isn't running or has shut down.
var ErrUnavailable = errors.New("vr runtime unavailable")

// PropertyError is returned when one property of one device can't be read.
// The device is skipped for that poll.
type PropertyError struct {
	Index    int
	Property string
	Code     int
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("device %d: reading %s failed with code %d", e.Index, e.Property, e.Code)
}

// Source is a VR runtime that can be asked for battery samples.
type Source interface {
	// Initialize connects to the runtime. It returns true only when a new
	// connection was made, and false when already connected or the runtime
	// can't be reached.
	Initialize() bool
	// Poll returns the current samples, or ErrUnavailable when not connected.
	Poll() ([]battery.DeviceSample, error)
	// DrainEvents handles pending runtime events and returns ErrUnavailable
	// once the runtime has asked us to quit.
	DrainEvents() error
	Close() error
}

const (
	KindOpenVR = "openvr"
	KindReplay = "replay"
)

// New returns the source of the given kind. scenario is only used by replay.
func New(kind, scenario string) (Source, error) {
	switch kind {
	case KindOpenVR, "":
		return NewOpenVR(), nil
	case KindReplay:
		sc, err := LoadScenario(scenario)
		if err != nil {
			return nil, err
		}
		return NewReplay(sc), nil
	default:
		return nil, fmt.Errorf("unknown source '%s'", kind)
	}
}
