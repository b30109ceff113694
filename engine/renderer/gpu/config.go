package gpu

import "fmt"

// PresentMode controls how rendered frames are delivered to the display.
type PresentMode int

const (
	// PresentModeVSync waits for the vertical blank before presenting.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents immediately and may tear.
	PresentModeUncapped
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeVSync:
		return "vsync"
	case PresentModeUncapped:
		return "uncapped"
	default:
		return fmt.Sprintf("PresentMode(%d)", int(m))
	}
}

// ParsePresentMode parses the names returned by PresentMode.String.
func ParsePresentMode(s string) (PresentMode, error) {
	switch s {
	case "vsync", "":
		return PresentModeVSync, nil
	case "uncapped":
		return PresentModeUncapped, nil
	default:
		return 0, fmt.Errorf("gpu: unknown present mode %q", s)
	}
}

// QueueFamilies records which queues the device exposes. WebGPU exposes a single queue that
// serves every role; other backends may report dedicated compute or transfer families.
type QueueFamilies struct {
	Graphics uint32
	Compute  uint32
	Transfer uint32

	DedicatedCompute  bool
	DedicatedTransfer bool
}

// DeviceConfig is selected once at startup and passed by value to every component that needs it.
type DeviceConfig struct {
	AdapterName    string
	Backend        string
	PresentMode    PresentMode
	SampleCount    uint32
	DepthFormat    string
	FramesInFlight int
	Queues         QueueFamilies
}

// DefaultFramesInFlight is used when a DeviceConfig does not request a frame count.
const DefaultFramesInFlight = 2

// Frames returns the requested frames in flight, falling back to DefaultFramesInFlight.
func (c DeviceConfig) Frames() int {
	if c.FramesInFlight < 1 {
		return DefaultFramesInFlight
	}
	return c.FramesInFlight
}
