//go:build openvr && cgo

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

package source

/*
#cgo LDFLAGS: -lopenvr_api
#include <stdint.h>
#include <stdbool.h>
#include <stdio.h>
#include <stdlib.h>
#include <openvr_capi.h>

static struct VR_IVRSystem_FnTable *vrsys = NULL;

static int bm_init(void) {
	EVRInitError err = EVRInitError_VRInitError_None;
	VR_InitInternal(&err, EVRApplicationType_VRApplication_Background);
	if (err != EVRInitError_VRInitError_None) {
		return (int)err;
	}
	char name[128];
	snprintf(name, sizeof(name), "FnTable:%s", IVRSystem_Version);
	vrsys = (struct VR_IVRSystem_FnTable *)VR_GetGenericInterface(name, &err);
	if (err != EVRInitError_VRInitError_None || vrsys == NULL) {
		vrsys = NULL;
		VR_ShutdownInternal();
		return err != EVRInitError_VRInitError_None ? (int)err : -1;
	}
	return 0;
}

static void bm_shutdown(void) {
	vrsys = NULL;
	VR_ShutdownInternal();
}

static uint32_t bm_max_devices(void) {
	return k_unMaxTrackedDeviceCount;
}

static int bm_device_class(uint32_t idx) {
	return (int)vrsys->GetTrackedDeviceClass(idx);
}

static int bm_serial(uint32_t idx, char *buf, uint32_t len) {
	ETrackedPropertyError perr = ETrackedPropertyError_TrackedProp_Success;
	vrsys->GetStringTrackedDeviceProperty(idx, ETrackedDeviceProperty_Prop_SerialNumber_String, buf, len, &perr);
	return (int)perr;
}

static int bm_charging(uint32_t idx, bool *out) {
	ETrackedPropertyError perr = ETrackedPropertyError_TrackedProp_Success;
	*out = vrsys->GetBoolTrackedDeviceProperty(idx, ETrackedDeviceProperty_Prop_DeviceIsCharging_Bool, &perr);
	return (int)perr;
}

static int bm_level(uint32_t idx, float *out) {
	ETrackedPropertyError perr = ETrackedPropertyError_TrackedProp_Success;
	*out = vrsys->GetFloatTrackedDeviceProperty(idx, ETrackedDeviceProperty_Prop_DeviceBatteryPercentage_Float, &perr);
	return (int)perr;
}

static int bm_quit_requested(void) {
	struct VREvent_t ev;
	int quit = 0;
	while (vrsys->PollNextEvent(&ev, sizeof(ev))) {
		if (ev.eventType == EVREventType_VREvent_Quit) {
			quit = 1;
		}
	}
	return quit;
}

static void bm_ack_quit(void) {
	vrsys->AcknowledgeQuit_Exiting();
}
*/
import "C"

import (
	"unsafe"

	"github.com/TheCacophonyProject/vr-battery-monitor/internal/battery"
)

const serialBufferSize = 256

// OpenVR reads battery properties from SteamVR as a background application.
type OpenVR struct {
	initialized bool
}

func NewOpenVR() *OpenVR {
	return &OpenVR{}
}

func (o *OpenVR) Initialize() bool {
	if o.initialized {
		return false
	}
	if code := C.bm_init(); code != 0 {
		log.Debugf("Failed to initialize OpenVR, init error %d", int(code))
		return false
	}
	o.initialized = true
	log.Info("OpenVR initialized")
	return true
}

func (o *OpenVR) Poll() ([]battery.DeviceSample, error) {
	if !o.initialized {
		return nil, ErrUnavailable
	}
	samples := []battery.DeviceSample{}
	for idx := C.uint32_t(0); idx < C.bm_max_devices(); idx++ {
		class := int(C.bm_device_class(idx))
		if class == classInvalid {
			continue
		}
		sample, err := o.readDevice(idx, class)
		if err != nil {
			log.Debug(err)
			continue
		}
		log.Debugf("%d %s charging=%t level=%.2f", sample.Index, sample.Serial, sample.Charging, sample.Level)
		samples = append(samples, sample)
	}
	return samples, nil
}

func (o *OpenVR) readDevice(idx C.uint32_t, class int) (battery.DeviceSample, error) {
	buf := (*C.char)(C.malloc(serialBufferSize))
	defer C.free(unsafe.Pointer(buf))

	if code := C.bm_serial(idx, buf, serialBufferSize); code != 0 {
		return battery.DeviceSample{}, &PropertyError{Index: int(idx), Property: "serial", Code: int(code)}
	}
	var charging C.bool
	if code := C.bm_charging(idx, &charging); code != 0 {
		return battery.DeviceSample{}, &PropertyError{Index: int(idx), Property: "charging", Code: int(code)}
	}
	var level C.float
	if code := C.bm_level(idx, &level); code != 0 {
		return battery.DeviceSample{}, &PropertyError{Index: int(idx), Property: "battery level", Code: int(code)}
	}
	return battery.DeviceSample{
		Index:    int(idx),
		Serial:   C.GoString(buf),
		Class:    className(class),
		Charging: bool(charging),
		Level:    float64(level),
	}, nil
}

func (o *OpenVR) DrainEvents() error {
	if !o.initialized {
		return nil
	}
	if C.bm_quit_requested() == 0 {
		return nil
	}
	log.Info("Received SteamVR quit event")
	C.bm_ack_quit()
	o.shutdown()
	return ErrUnavailable
}

func (o *OpenVR) Close() error {
	if o.initialized {
		o.shutdown()
	}
	return nil
}

func (o *OpenVR) shutdown() {
	C.bm_shutdown()
	o.initialized = false
	log.Info("OpenVR uninitialized")
}
