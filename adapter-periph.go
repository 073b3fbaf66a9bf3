//go:build !tinygo

package rf24

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const (
	defaultSpiBusPath = "/dev/spidev0.0"
	defaultSpiClockHz = 1000000
	defaultCEPin      = 25
	// edgePollInterval bounds how long Unwatch waits for the watcher goroutine.
	edgePollInterval = 100 * time.Millisecond
)

// periphPin wraps a gpio.PinIO to satisfy the Pin interface.
type periphPin struct {
	gpio.PinIO
	stopWatch chan struct{}
	done      chan struct{}
}

func toPeriphPull(pull Pull) gpio.Pull {
	switch pull {
	case PullFloat:
		return gpio.Float
	case PullDown:
		return gpio.PullDown
	case PullUp:
		return gpio.PullUp
	default:
		return gpio.PullNoChange
	}
}

func toPeriphEdge(edge Edge) gpio.Edge {
	switch edge {
	case RisingEdge:
		return gpio.RisingEdge
	case FallingEdge:
		return gpio.FallingEdge
	case BothEdges:
		return gpio.BothEdges
	default:
		return gpio.NoEdge
	}
}

func (p *periphPin) Out(l Level) error {
	return p.PinIO.Out(gpio.Level(l))
}

func (p *periphPin) In(pull Pull) error {
	return p.PinIO.In(toPeriphPull(pull), gpio.NoEdge)
}

func (p *periphPin) Read() Level {
	return Level(p.PinIO.Read())
}

// Watch runs handler from a goroutine on every detected edge. The IRQ line
// of the nRF24L01+ is open drain and active low, so the pin is pulled up.
func (p *periphPin) Watch(edge Edge, handler func()) error {
	if p.stopWatch != nil {
		return errors.New("pin already watched")
	}
	if err := p.PinIO.In(gpio.PullUp, toPeriphEdge(edge)); err != nil {
		return errors.Wrapf(err, "%s: edge detection", p.PinIO.Name())
	}

	stop, done := make(chan struct{}), make(chan struct{})
	p.stopWatch, p.done = stop, done

	go func() {
		defer close(done)
		for {
			got := p.PinIO.WaitForEdge(edgePollInterval)
			select {
			case <-stop:
				return
			default:
			}
			if got {
				handler()
			}
		}
	}()
	return nil
}

func (p *periphPin) Unwatch() error {
	if p.stopWatch != nil {
		close(p.stopWatch)
		<-p.done
		p.stopWatch, p.done = nil, nil
	}
	// Disable edge detection
	return p.PinIO.In(gpio.PullUp, gpio.NoEdge)
}

// Config holds the configuration for the Linux/periph.io driver.
type Config struct {
	RadioConfig
	// CEPin is the GPIO pin number (BCM numbering) for the Chip Enable (CE) pin.
	// Defaults to 25 if not provided.
	CEPin int `json:"cePin"`
	// IRQPin is the GPIO pin number (BCM numbering) for the Interrupt Request (IRQ) pin.
	// Optional. If not provided, polling is used.
	IRQPin int `json:"irqPin"`
	// SpiBusPath is the path to the SPI bus (e.g., "/dev/spidev0.0").
	// Defaults to "/dev/spidev0.0" if not provided.
	SpiBusPath string `json:"spiBusPath"`
	// SpiClockHz is the SPI clock frequency in Hz. The chip accepts up to 10MHz.
	// Defaults to 1000000 (1MHz) if not provided.
	SpiClockHz int `json:"spiClockHz"`
}

func (c *Config) applyDefaults() {
	if c.SpiBusPath == "" {
		c.SpiBusPath = defaultSpiBusPath
	}
	if c.SpiClockHz == 0 {
		c.SpiClockHz = defaultSpiClockHz
	}
	if c.CEPin == 0 {
		c.CEPin = defaultCEPin
	}
}

func openPin(number int) (*periphPin, error) {
	name := fmt.Sprintf("GPIO%d", number)
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, errors.Wrapf(wrapErr(ErrInvalidConfig), "pin %s not found", name)
	}
	return &periphPin{PinIO: p}, nil
}

// New creates and initializes a new nRF24L01+ driver for Linux systems.
// It applies configuration defaults, initializes the GPIO and SPI interfaces using periph.io,
// and configures the radio module.
// It returns the initialized driver or an error if hardware initialization fails.
func New(c Config) (*Device, error) {
	c.applyDefaults()

	// Required for both SPI and GPIO
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(wrapErr(err), "failed to initialize periph.io host")
	}

	p, err := spireg.Open(c.SpiBusPath)
	if err != nil {
		return nil, errors.Wrapf(wrapErr(err), "failed to open SPI port %s", c.SpiBusPath)
	}

	// Mode 0, 8 bits, CSN driven by the SPI controller
	conn, err := p.Connect(physic.Frequency(c.SpiClockHz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		p.Close()
		return nil, errors.Wrap(wrapErr(err), "failed to create SPI connection")
	}

	ce, err := openPin(c.CEPin)
	if err != nil {
		p.Close()
		return nil, errors.WithMessage(err, "CE")
	}

	var irq Pin
	if c.IRQPin != 0 {
		pin, err := openPin(c.IRQPin)
		if err != nil {
			p.Close()
			return nil, errors.WithMessage(err, "IRQ")
		}
		irq = pin
	}

	dev, err := NewWithHardware(HardwareConfig{
		RadioConfig: c.RadioConfig,
		CE:          ce,
		IRQ:         irq,
	}, conn)
	if err != nil {
		p.Close()
		return nil, err
	}

	// Store the port closer so we can close it later
	dev.port = p
	return dev, nil
}
