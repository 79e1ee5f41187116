//go:build !openvr || !cgo

package source

import "github.com/TheCacophonyProject/vr-battery-monitor/internal/battery"

// OpenVR is unavailable in builds without the openvr tag; it reports the
// runtime as permanently unreachable.
type OpenVR struct {
	warned bool
}

func NewOpenVR() *OpenVR {
	return &OpenVR{}
}

func (o *OpenVR) Initialize() bool {
	if !o.warned {
		log.Warn("Built without OpenVR support, rebuild with '-tags openvr' to read devices")
		o.warned = true
	}
	return false
}

func (o *OpenVR) Poll() ([]battery.DeviceSample, error) {
	return nil, ErrUnavailable
}

func (o *OpenVR) DrainEvents() error {
	return nil
}

func (o *OpenVR) Close() error {
	return nil
}
