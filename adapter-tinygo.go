//go:build tinygo

package rf24

import (
	"machine"
)

// tinygoPin wraps a machine.Pin to satisfy the Pin interface.
type tinygoPin struct {
	pin machine.Pin
}

func (p *tinygoPin) Out(l Level) error {
	p.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.pin.Set(bool(l))
	return nil
}

func (p *tinygoPin) In(pull Pull) error {
	mode := machine.PinInput
	switch pull {
	case PullUp:
		mode = machine.PinInputPullup
	case PullDown:
		mode = machine.PinInputPulldown
	}
	p.pin.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (p *tinygoPin) Read() Level {
	return Level(p.pin.Get())
}

func (p *tinygoPin) Watch(edge Edge, handler func()) error {
	var change machine.PinChange
	switch edge {
	case RisingEdge:
		change = machine.PinRising
	case FallingEdge:
		change = machine.PinFalling
	case BothEdges:
		change = machine.PinToggle
	default:
		return nil
	}

	return p.pin.SetInterrupt(change, func(machine.Pin) {
		handler()
	})
}

// Unwatch removes the interrupt handler; a nil callback disables it.
func (p *tinygoPin) Unwatch() error {
	return p.pin.SetInterrupt(0, nil)
}

// tinygoSPI drives CSN around every transaction.
type tinygoSPI struct {
	spi *machine.SPI
	csn machine.Pin
}

func (s *tinygoSPI) Tx(w, r []byte) error {
	s.csn.Low()
	err := s.spi.Tx(w, r)
	s.csn.High()
	return err
}

// NewTinyGo creates a new nRF24L01+ driver for TinyGo systems. The SPI bus
// must already be configured (mode 0, up to 10MHz). irq may be machine.NoPin.
func NewTinyGo(c RadioConfig, spi *machine.SPI, csn, ce, irq machine.Pin) (*Device, error) {
	// Configure CSN as output and set high (inactive)
	csn.Configure(machine.PinConfig{Mode: machine.PinOutput})
	csn.High()

	hw := HardwareConfig{
		RadioConfig: c,
		CE:          &tinygoPin{pin: ce},
	}
	if irq != machine.NoPin {
		hw.IRQ = &tinygoPin{pin: irq}
	}

	return NewWithHardware(hw, &tinygoSPI{spi: spi, csn: csn})
}
