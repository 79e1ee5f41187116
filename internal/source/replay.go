package source

import (
	"fmt"
	"os"

	"github.com/TheCacophonyProject/vr-battery-monitor/internal/battery"
	"gopkg.in/yaml.v3"
)

// Tick is one poll worth of scripted runtime behaviour.
type Tick struct {
	// Unavailable makes the runtime unreachable for this tick.
	Unavailable bool `yaml:"unavailable"`
	// Quit makes the runtime ask us to quit after this tick's samples.
	Quit    bool                   `yaml:"quit"`
	Devices []battery.DeviceSample `yaml:"devices"`
}

// Scenario is a scripted sequence of ticks, used to replay recorded or
// hand written sessions without a headset.
type Scenario struct {
	Ticks []Tick `yaml:"ticks"`
}

func LoadScenario(path string) (*Scenario, error) {
	if path == "" {
		return nil, fmt.Errorf("replay source needs a scenario file")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	sc := &Scenario{}
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	return sc, nil
}

// Replay plays back a Scenario one tick per Poll.
type Replay struct {
	scenario    *Scenario
	pos         int
	connected   bool
	quitPending bool
}

func NewReplay(sc *Scenario) *Replay {
	return &Replay{scenario: sc}
}

func (r *Replay) current() *Tick {
	if r.pos >= len(r.scenario.Ticks) {
		return nil
	}
	return &r.scenario.Ticks[r.pos]
}

func (r *Replay) Initialize() bool {
	if r.connected {
		return false
	}
	t := r.current()
	if t == nil || t.Unavailable {
		return false
	}
	r.connected = true
	return true
}

func (r *Replay) Poll() ([]battery.DeviceSample, error) {
	t := r.current()
	if t == nil {
		return nil, ErrUnavailable
	}
	if t.Unavailable {
		r.pos++
		r.connected = false
		return nil, fmt.Errorf("tick %d: %w", r.pos, ErrUnavailable)
	}
	if !r.connected {
		return nil, ErrUnavailable
	}
	r.pos++
	r.quitPending = t.Quit
	samples := make([]battery.DeviceSample, len(t.Devices))
	copy(samples, t.Devices)
	return samples, nil
}

func (r *Replay) DrainEvents() error {
	if !r.quitPending {
		return nil
	}
	r.quitPending = false
	r.connected = false
	return ErrUnavailable
}

// Done reports whether every tick has been played.
func (r *Replay) Done() bool {
	return r.current() == nil
}

func (r *Replay) Close() error {
	r.connected = false
	return nil
}
