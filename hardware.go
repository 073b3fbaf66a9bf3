package rf24

// SPI is the bus the radio sits on. Implementations drive CSN around every
// call: one Tx is one command frame.
type SPI interface {
	// Tx clocks w out and the chip's reply into r, STATUS first.
	// len(r) must be >= len(w). w and r may be the same slice.
	Tx(w, r []byte) error
}

// Pin is a GPIO line. The driver uses CE as an output and IRQ as an input
// pulled up (the chip pulls IRQ low while an interrupt is pending).
type Pin interface {
	// Out drives the pin.
	Out(l Level) error
	// In makes the pin an input.
	In(pull Pull) error
	// Read samples the pin.
	Read() Level
	// Watch calls handler on every edge until Unwatch.
	Watch(edge Edge, handler func()) error
	Unwatch() error
}

// Level is the logical level of a pin.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "High"
	}
	return "Low"
}

// Pull selects the input bias resistor.
type Pull uint8

const (
	PullNoChange Pull = iota
	PullFloat
	PullDown
	PullUp
)

// Edge selects the transitions Watch reports.
type Edge uint8

const (
	NoEdge Edge = iota
	RisingEdge
	FallingEdge
	BothEdges
)

// HardwareConfig is the radio configuration plus the GPIO lines the driver
// owns for its lifetime.
type HardwareConfig struct {
	RadioConfig
	// CE switches the chip between standby and active RX/TX.
	CE Pin
	// IRQ is optional. Without it ReceiveBlocking polls.
	IRQ Pin
}
