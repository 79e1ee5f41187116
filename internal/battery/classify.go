package battery

// Classify folds a new sample into the previous state of a device and reports
// whether the device has just started discharging.
//
// A discharge start is signalled when the charging flag goes from true to
// false, or when the level falls on the tick directly after it was rising.
// The second case catches devices that don't report the charging flag
// reliably. Equal levels leave the direction untouched so a single flat
// sample can't hide a reversal on the following tick.
func Classify(previous *DeviceState, sample DeviceSample) (DeviceState, bool) {
	if previous == nil {
		return DeviceState{LastSample: sample, Direction: DirectionUnknown}, false
	}

	next := DeviceState{LastSample: sample, Direction: previous.Direction}
	prev := previous.LastSample

	stoppedCharging := prev.Charging && !sample.Charging

	reversed := false
	switch {
	case sample.Level < prev.Level:
		reversed = previous.Direction == DirectionRising
		next.Direction = DirectionFalling
	case sample.Level > prev.Level:
		next.Direction = DirectionRising
	}

	return next, stoppedCharging || reversed
}
