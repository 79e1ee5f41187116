package battery

import "sort"

// Result is the outcome of classifying one sample.
type Result struct {
	State            DeviceState
	DischargeStarted bool
}

// Registry keeps the state of every device seen since it was last cleared.
// It is not safe for concurrent use; the monitor loop is its only user.
type Registry struct {
	states map[int]DeviceState
}

func NewRegistry() *Registry {
	return &Registry{states: map[int]DeviceState{}}
}

// Update classifies each sample against the stored state for its device
// index. Devices missing from samples are kept as they are.
func (r *Registry) Update(samples []DeviceSample) []Result {
	if r.states == nil {
		r.states = map[int]DeviceState{}
	}
	results := make([]Result, 0, len(samples))
	for _, sample := range samples {
		var previous *DeviceState
		if state, ok := r.states[sample.Index]; ok {
			previous = &state
		}
		state, started := Classify(previous, sample)
		r.states[sample.Index] = state
		results = append(results, Result{State: state, DischargeStarted: started})
	}
	return results
}

// Clear forgets every device. It is called when the runtime goes away so
// that a reconnect doesn't compare against stale readings.
func (r *Registry) Clear() {
	r.states = map[int]DeviceState{}
}

// Devices returns a copy of the tracked states ordered by device index.
func (r *Registry) Devices() []DeviceState {
	devices := make([]DeviceState, 0, len(r.states))
	for _, state := range r.states {
		devices = append(devices, state)
	}
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].LastSample.Index < devices[j].LastSample.Index
	})
	return devices
}

func (r *Registry) Len() int {
	return len(r.states)
}
