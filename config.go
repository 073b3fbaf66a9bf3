//go:build !tinygo

package rf24

import (
	"os"

	"github.com/flynn/json5"
	"github.com/pkg/errors"
)

// LoadConfig reads a JSON5 file into a Config. Comments and trailing commas
// are allowed; addresses are written as "E7:E7:E7:E7:E7". Settings left out
// keep their defaults.
//
//	{
//	  // pin numbers use BCM numbering
//	  cePin: 25,
//	  spiBusPath: "/dev/spidev0.0",
//	  channel: 76,
//	  txAddr: "D2:F2:F2:F2:F2",
//	}
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(wrapErr(err), "LoadConfig")
	}
	return ParseConfig(data)
}

// ParseConfig decodes and validates JSON5 configuration data.
func ParseConfig(data []byte) (Config, error) {
	var c Config
	if err := json5.Unmarshal(data, &c); err != nil {
		return Config{}, errors.Wrap(wrapErr(err), "ParseConfig: json5.Unmarshal")
	}
	if err := c.Validate(); err != nil {
		return Config{}, errors.WithMessage(err, "ParseConfig")
	}
	if c.CEPin < 0 || c.IRQPin < 0 || c.SpiClockHz < 0 {
		return Config{}, errors.Wrap(wrapErr(ErrInvalidConfig), "ParseConfig: negative pin number or clock")
	}
	c.applyDefaults()
	return c, nil
}
