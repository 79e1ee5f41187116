package battery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startedSerials(results []Result) []string {
	var serials []string
	for _, r := range results {
		if r.DischargeStarted {
			serials = append(serials, r.State.LastSample.Serial)
		}
	}
	return serials
}

func TestRegistryScenarios(t *testing.T) {
	r := NewRegistry()

	assert.Empty(t, startedSerials(r.Update([]DeviceSample{
		{Index: 0, Serial: "A", Charging: true, Level: 0.80},
		{Index: 1, Serial: "B", Charging: false, Level: 0.40},
	})))
	assert.Empty(t, startedSerials(r.Update([]DeviceSample{
		{Index: 0, Serial: "A", Charging: true, Level: 0.90},
		{Index: 1, Serial: "B", Charging: false, Level: 0.50},
	})))
	assert.Equal(t, []string{"A", "B"}, startedSerials(r.Update([]DeviceSample{
		{Index: 0, Serial: "A", Charging: false, Level: 0.88},
		{Index: 1, Serial: "B", Charging: false, Level: 0.45},
	})))
	assert.Equal(t, 2, r.Len())
}

func TestRegistryKeepsUnreportedDevices(t *testing.T) {
	r := NewRegistry()
	r.Update([]DeviceSample{
		{Index: 0, Serial: "A", Charging: true, Level: 0.5},
		{Index: 3, Serial: "C", Charging: true, Level: 0.5},
	})
	r.Update([]DeviceSample{{Index: 3, Serial: "C", Charging: true, Level: 0.6}})
	require.Equal(t, 2, r.Len())

	// Device 0 comes back and is compared against its last known reading.
	results := r.Update([]DeviceSample{{Index: 0, Serial: "A", Charging: false, Level: 0.5}})
	assert.Equal(t, []string{"A"}, startedSerials(results))
}

func TestRegistryClearForgetsState(t *testing.T) {
	r := NewRegistry()
	r.Update([]DeviceSample{{Index: 0, Serial: "A", Charging: true, Level: 0.5}})
	r.Clear()
	assert.Equal(t, 0, r.Len())

	results := r.Update([]DeviceSample{{Index: 0, Serial: "A", Charging: false, Level: 0.4}})
	require.Len(t, results, 1)
	assert.False(t, results[0].DischargeStarted)
	assert.Equal(t, DirectionUnknown, results[0].State.Direction)
}

func TestRegistryDevicesSorted(t *testing.T) {
	var r Registry
	r.Update([]DeviceSample{
		{Index: 5, Serial: "E"},
		{Index: 1, Serial: "B"},
		{Index: 3, Serial: "D"},
	})
	var serials []string
	for _, d := range r.Devices() {
		serials = append(serials, d.LastSample.Serial)
	}
	assert.Equal(t, []string{"B", "D", "E"}, serials)
}
