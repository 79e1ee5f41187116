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

package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// LogArgs can be embedded in a go-arg Args struct to add a log level flag.
type LogArgs struct {
	LogLevel string `arg:"--log-level" default:"info" help:"Set the logging level (debug, info, warn, error)"`
}

type Logger = logrus.Logger

// NewLogger returns a logger writing to stderr at the given level.
// An unknown level falls back to info.
func NewLogger(level string) *Logger {
	l := logrus.New()
	l.Out = os.Stderr
	l.Formatter = &logrus.TextFormatter{
		DisableTimestamp: true,
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		l.Warnf("unknown log level '%s', using info", level)
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}
