package battery

import "sort"

// MuteSet holds the serials of devices the user doesn't want to be warned about.
type MuteSet map[string]struct{}

func NewMuteSet(serials ...string) MuteSet {
	m := MuteSet{}
	for _, s := range serials {
		m[s] = struct{}{}
	}
	return m
}

func (m MuteSet) IsMuted(serial string) bool {
	_, ok := m[serial]
	return ok
}

func (m MuteSet) Mute(serial string) {
	m[serial] = struct{}{}
}

func (m MuteSet) Unmute(serial string) {
	delete(m, serial)
}

// Toggle flips the mute state of serial and returns the new state.
func (m MuteSet) Toggle(serial string) bool {
	if m.IsMuted(serial) {
		m.Unmute(serial)
		return false
	}
	m.Mute(serial)
	return true
}

// Serials returns the muted serials in sorted order.
func (m MuteSet) Serials() []string {
	serials := make([]string, 0, len(m))
	for s := range m {
		serials = append(serials, s)
	}
	sort.Strings(serials)
	return serials
}

func (m MuteSet) Clone() MuteSet {
	c := make(MuteSet, len(m))
	for s := range m {
		c[s] = struct{}{}
	}
	return c
}
