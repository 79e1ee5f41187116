package source

// Tracked device classes as numbered by OpenVR.
const (
	classInvalid           = 0
	classHMD               = 1
	classController        = 2
	classGenericTracker    = 3
	classTrackingReference = 4
	classDisplayRedirect   = 5
)

func className(class int) string {
	switch class {
	case classHMD:
		return "HMD"
	case classController:
		return "Controller"
	case classGenericTracker:
		return "Tracker"
	case classTrackingReference:
		return "Base Station"
	case classDisplayRedirect:
		return "DisplayRedirect"
	default:
		return "Unknown"
	}
}
