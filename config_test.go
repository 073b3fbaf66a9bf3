//go:build !tinygo

package rf24

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

const testConfig = `{
  // radio hat on the first SPI bus
  cePin: 22,
  irqPin: 24,
  spiClockHz: 8000000,

  channel: 110,
  txAddr: "D2:F2:F2:F2:F2",
  rxAddr: "E1:F0:F0",
  dataRate: "250kbps",
  paLevel: "-6dBm",
  crcLength: "8bit",
  addressWidth: 3,
  autoRetransmitDelay: 750,
  disableAckPayload: true,
}`

func TestParseConfig(t *testing.T) {
	c, err := ParseConfig([]byte(testConfig))
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}

	if c.CEPin != 22 || c.IRQPin != 24 || c.SpiClockHz != 8000000 {
		t.Errorf("Unexpected hardware settings: %+v", c)
	}
	if c.SpiBusPath != "/dev/spidev0.0" {
		t.Errorf("Expected default SPI bus, got %q", c.SpiBusPath)
	}
	if c.ChannelNumber != 110 {
		t.Errorf("Expected channel 110, got %d", c.ChannelNumber)
	}
	if c.TxAddr != (Address{0xD2, 0xF2, 0xF2, 0xF2, 0xF2}) {
		t.Errorf("Unexpected TX address %s", c.TxAddr)
	}
	if c.RxAddr != (Address{0xE1, 0xF0, 0xF0}) {
		t.Errorf("Unexpected RX address %s", c.RxAddr)
	}
	if c.DataRate != DataRate250kbps || c.PALevel != PALevelHigh || c.CRCLength != CRCLength8 {
		t.Errorf("Unexpected RF settings: %s %s %s", c.DataRate, c.PALevel, c.CRCLength)
	}
	if c.AddressWidth != 3 || c.AutoRetransmitDelay != 750 || !c.DisableAckPayload {
		t.Errorf("Unexpected protocol settings: %+v", c.RadioConfig)
	}
}

func TestParseConfigDefaults(t *testing.T) {
	c, err := ParseConfig([]byte(`{}`))
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	if c.CEPin != 25 || c.SpiBusPath != "/dev/spidev0.0" || c.SpiClockHz != 1000000 {
		t.Errorf("Unexpected defaults: %+v", c)
	}
	if c.IRQPin != 0 {
		t.Errorf("Expected no IRQ pin by default, got %d", c.IRQPin)
	}
	// Radio defaults are resolved by the driver
	if c.RadioConfig != (RadioConfig{}) {
		t.Errorf("Expected a zero radio configuration, got %+v", c.RadioConfig)
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		config bool // matches ErrInvalidConfig
	}{
		{"syntax", `{channel: }`, false},
		{"channel", `{channel: 200}`, true},
		{"payload size", `{payloadSize: 33}`, true},
		{"address width", `{addressWidth: 2}`, true},
		{"negative pin", `{cePin: -1}`, true},
		{"short address", `{txAddr: "E7:E7"}`, false},
		{"bad address", `{txAddr: "E7:E7:XX"}`, false},
		{"data rate", `{dataRate: "3mbps"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.data))
			if err == nil {
				t.Fatalf("Expected an error")
			}
			if tt.config && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
			if !errors.Is(err, ErrPkg) {
				t.Errorf("Expected ErrPkg, got %v", err)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radio.json5")
	if err := os.WriteFile(path, []byte(testConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if c.ChannelNumber != 110 {
		t.Errorf("Expected channel 110, got %d", c.ChannelNumber)
	}

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.json5"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist, got %v", err)
	}
	if !errors.Is(err, ErrPkg) {
		t.Errorf("Expected ErrPkg, got %v", err)
	}
}

func TestSettingsText(t *testing.T) {
	var a Address
	if err := a.UnmarshalText([]byte("e7:E7:1:ff:00")); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if a != (Address{0xE7, 0xE7, 0x01, 0xFF, 0x00}) {
		t.Errorf("Unexpected address %s", a)
	}
	text, _ := a.MarshalText()
	if string(text) != "E7:E7:01:FF:00" {
		t.Errorf("Expected E7:E7:01:FF:00, got %s", text)
	}
	if err := a.UnmarshalText([]byte("E7:E7:E7:E7:E7:E7")); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for 6 bytes, got %v", err)
	}

	var rate DataRate
	if err := rate.UnmarshalText([]byte("2MBPS")); err != nil || rate != DataRate2mbps {
		t.Errorf("Expected 2mbps, got %s %v", rate, err)
	}
	var level PALevel
	if err := level.UnmarshalText([]byte("0dBm")); err != nil || level != PALevelMax {
		t.Errorf("Expected 0dBm, got %s %v", level, err)
	}
	var crc CRCLength
	if err := crc.UnmarshalText([]byte("disabled")); err != nil || crc != CRCLengthDisabled {
		t.Errorf("Expected disabled, got %s %v", crc, err)
	}
	if err := crc.UnmarshalText([]byte("32bit")); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
	if DataRate(0).String() != "unknown" {
		t.Errorf("Expected unknown for the zero data rate")
	}
}

func TestLogrusLogger(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.Out = &buf
	l.Formatter = &logrus.TextFormatter{DisableTimestamp: true}
	l.Level = logrus.DebugLevel

	SetLogger(NewLogrusLogger(l))
	defer SetLogger(nil)

	dev, sim := newTestDevice(t, RadioConfig{})
	sim.outcome = simMaxRetries
	_ = dev.SendPayload([]byte("x"), true)

	out := buf.String()
	if !strings.Contains(out, "level=warning") || !strings.Contains(out, "Max retransmissions reached") {
		t.Errorf("Expected a warning, got %q", out)
	}
	if !strings.Contains(out, "component=rf24") {
		t.Errorf("Expected the component field, got %q", out)
	}
}
