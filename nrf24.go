package rf24

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Address is a pipe address as written on the SPI bus, least significant
// byte first. Only the first AddressWidth bytes are used.
type Address [5]byte

func (a Address) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X", a[0], a[1], a[2], a[3], a[4])
}

// IsZero reports whether the address is all zero bytes.
func (a Address) IsZero() bool { return a == Address{} }

// MarshalText encodes the address as E7:E7:E7:E7:E7.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses 3 to 5 colon separated hex bytes. Missing trailing
// bytes are left zero.
func (a *Address) UnmarshalText(text []byte) error {
	parts := strings.Split(string(text), ":")
	if len(parts) < 3 || len(parts) > 5 {
		return fmt.Errorf("%w: %w: address %q must have 3 to 5 bytes", ErrPkg, ErrInvalidConfig, text)
	}
	var out Address
	for i, p := range parts {
		b, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return fmt.Errorf("%w: %w: address %q: %w", ErrPkg, ErrInvalidConfig, text, err)
		}
		out[i] = byte(b)
	}
	*a = out
	return nil
}

type (
	DataRate  byte
	PALevel   byte
	CRCLength byte
)

type setting interface {
	~byte
	String() string
}

// parseSetting matches text against the String form of each value.
func parseSetting[T setting](text []byte, kind string, values ...T) (T, error) {
	for _, v := range values {
		if strings.EqualFold(string(text), v.String()) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: %w: unknown %s %q", ErrPkg, ErrInvalidConfig, kind, text)
}

// The zero value of each setting selects the Initialize default.
const (
	// DataRate1mbps represents a data rate of 1mbps
	DataRate1mbps DataRate = iota + 1
	// DataRate2mbps represents a data rate of 2mbps
	DataRate2mbps
	// DataRate250kbps represents a data rate of 250kbps
	DataRate250kbps
)

func (d DataRate) String() string {
	switch d {
	case DataRate250kbps:
		return "250kbps"
	case DataRate1mbps:
		return "1mbps"
	case DataRate2mbps:
		return "2mbps"
	default:
		return "unknown"
	}
}

func (d DataRate) valid() bool { return d >= DataRate1mbps && d <= DataRate250kbps }

func (d DataRate) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText accepts "250kbps", "1mbps" and "2mbps".
func (d *DataRate) UnmarshalText(text []byte) (err error) {
	*d, err = parseSetting(text, "data rate", DataRate1mbps, DataRate2mbps, DataRate250kbps)
	return err
}

const (
	// PALevelMin represents a power amplifier level of -18dBm
	PALevelMin PALevel = iota + 1
	// PALevelLow represents a power amplifier level of -12dBm
	PALevelLow
	// PALevelHigh represents a power amplifier level of -6dBm
	PALevelHigh
	// PALevelMax represents a power amplifier level of 0dBm
	PALevelMax
)

func (p PALevel) String() string {
	switch p {
	case PALevelMin:
		return "-18dBm"
	case PALevelLow:
		return "-12dBm"
	case PALevelHigh:
		return "-6dBm"
	case PALevelMax:
		return "0dBm"
	default:
		return "unknown"
	}
}

func (p PALevel) valid() bool { return p >= PALevelMin && p <= PALevelMax }

func (p PALevel) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText accepts "-18dBm", "-12dBm", "-6dBm" and "0dBm".
func (p *PALevel) UnmarshalText(text []byte) (err error) {
	*p, err = parseSetting(text, "PA level", PALevelMin, PALevelLow, PALevelHigh, PALevelMax)
	return err
}

const (
	// CRCLengthDisabled disables CRC
	CRCLengthDisabled CRCLength = iota + 1
	// CRCLength8 enables 8-bit CRC
	CRCLength8
	// CRCLength16 enables 16-bit CRC
	CRCLength16
)

func (c CRCLength) String() string {
	switch c {
	case CRCLengthDisabled:
		return "disabled"
	case CRCLength8:
		return "8bit"
	case CRCLength16:
		return "16bit"
	default:
		return "unknown"
	}
}

func (c CRCLength) valid() bool { return c >= CRCLengthDisabled && c <= CRCLength16 }

func (c CRCLength) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText accepts "disabled", "8bit" and "16bit".
func (c *CRCLength) UnmarshalText(text []byte) (err error) {
	*c, err = parseSetting(text, "CRC length", CRCLengthDisabled, CRCLength8, CRCLength16)
	return err
}

// Defaults written by Initialize.
const (
	DefaultChannel             = 76
	DefaultAddressWidth        = 5
	DefaultAutoRetransmitDelay = 1500 // us
	DefaultAutoRetransmitCount = 15
	DefaultWritePayloadTimeout = 60 * time.Millisecond
)

const (
	powerUpDelay    = 5 * time.Millisecond // Tpd2stby is 4.5ms
	cePulseWidth    = 15 * time.Microsecond
	rxSettlingDelay = 130 * time.Microsecond
)

var (
	// Pipe 0 addresses a fresh device starts with. Copied per device.
	defaultAddrP0 = [...]byte{0xE7, 0xE7, 0xE7, 0xE7, 0xE7}
)

type RadioConfig struct {
	// ChannelNumber selects the RF frequency, 2400 + ChannelNumber MHz.
	// Range: 0 to 127 (the chip is specified up to 125).
	// Defaults to 76 if not provided.
	ChannelNumber byte `json:"channel"`
	// TxAddr is the address messages are sent to. The writing pipe is left
	// untouched when zero.
	TxAddr Address `json:"txAddr"`
	// RxAddr is the address of this radio module (pipe 1).
	// The chip reset address C2:C2:C2:C2:C2 is kept when zero.
	RxAddr Address `json:"rxAddr"`
	// DisableDynamicPayload switches every pipe to static payloads of PayloadSize bytes.
	// Ack payloads need dynamic payloads and are disabled as well.
	DisableDynamicPayload bool `json:"disableDynamicPayload"`
	// PayloadSize is the payload size in bytes of the static pipes.
	// Range: 1 to 32.
	// Defaults to 32 if not provided.
	PayloadSize byte `json:"payloadSize"`
	// DisableAutoAck turns off hardware auto-acknowledgements on every pipe.
	DisableAutoAck bool `json:"disableAutoAck"`
	// DisableAckPayload turns off payloads carried by acknowledgements.
	DisableAckPayload bool `json:"disableAckPayload"`
	// DataRate sets the data rate.
	// Defaults to DataRate1mbps if not provided.
	DataRate DataRate `json:"dataRate"`
	// PALevel sets the power amplifier level.
	// Defaults to PALevelMax if not provided.
	PALevel PALevel `json:"paLevel"`
	// AutoRetransmitDelay sets the auto-retransmit delay.
	// The value is in microseconds and must be a multiple of 250.
	// Range: 250 to 4000.
	// Defaults to 1500 if not provided.
	AutoRetransmitDelay uint16 `json:"autoRetransmitDelay"`
	// AutoRetransmitCount sets the auto-retransmit count.
	// Range: 0 to 15. Zero keeps the default, use SetAutoRetransmit to turn
	// retransmission off.
	// Defaults to 15 if not provided.
	AutoRetransmitCount byte `json:"autoRetransmitCount"`
	// AddressWidth sets the address width.
	// Range: 3 to 5.
	// Defaults to 5 if not provided.
	AddressWidth byte `json:"addressWidth"`
	// CRCLength sets the CRC length.
	// Defaults to CRCLength16 if not provided.
	CRCLength CRCLength `json:"crcLength"`
	// WritePayloadTimeoutMs bounds the wait for an acknowledged transmission.
	// Defaults to 60 if not provided.
	WritePayloadTimeoutMs int `json:"writePayloadTimeoutMs"`
}

// Validate checks the ranges of the non-zero settings.
func (c RadioConfig) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %w: "+format, append([]any{ErrPkg, ErrInvalidConfig}, args...)...)
	}
	if c.ChannelNumber > RFChannel.Mask() {
		return invalid("channel number %d must be between 0 and %d", c.ChannelNumber, RFChannel.Mask())
	}
	if c.PayloadSize > MaxPayloadSize {
		return &PayloadSizeError{Size: int(c.PayloadSize), Max: MaxPayloadSize}
	}
	if d := c.AutoRetransmitDelay; d != 0 && (d < 250 || d > 4000 || d%250 != 0) {
		return invalid("delay must be between 250 and 4000 us and multiple of 250")
	}
	if c.AutoRetransmitCount > ARC.Mask() {
		return invalid("count must be between 0 and 15")
	}
	if w := c.AddressWidth; w != 0 && (w < 3 || w > 5) {
		return invalid("AddressWidth must be 3, 4, or 5")
	}
	if c.DataRate != 0 && !c.DataRate.valid() {
		return invalid("unknown data rate %d", c.DataRate)
	}
	if c.PALevel != 0 && !c.PALevel.valid() {
		return invalid("unknown PA level %d", c.PALevel)
	}
	if c.CRCLength != 0 && !c.CRCLength.valid() {
		return invalid("unknown CRC length %d", c.CRCLength)
	}
	if c.WritePayloadTimeoutMs < 0 {
		return invalid("write payload timeout must not be negative")
	}
	return nil
}

// withDefaults returns c with every zero setting replaced by its default.
func (c RadioConfig) withDefaults() RadioConfig {
	if c.ChannelNumber == 0 {
		c.ChannelNumber = DefaultChannel
	}
	if c.PayloadSize == 0 {
		c.PayloadSize = MaxPayloadSize
	}
	if c.DataRate == 0 {
		c.DataRate = DataRate1mbps
	}
	if c.PALevel == 0 {
		c.PALevel = PALevelMax
	}
	if c.AutoRetransmitDelay == 0 {
		c.AutoRetransmitDelay = DefaultAutoRetransmitDelay
	}
	if c.AutoRetransmitCount == 0 {
		c.AutoRetransmitCount = DefaultAutoRetransmitCount
	}
	if c.AddressWidth == 0 {
		c.AddressWidth = DefaultAddressWidth
	}
	if c.CRCLength == 0 {
		c.CRCLength = CRCLength16
	}
	if c.WritePayloadTimeoutMs == 0 {
		c.WritePayloadTimeoutMs = int(DefaultWritePayloadTimeout / time.Millisecond)
	}
	return c
}

// Device is an nRF24L01+ transceiver on an SPI bus.
type Device struct {
	config  HardwareConfig
	conn    SPI
	irqChan chan struct{}
	port    io.Closer
	mu      sync.Mutex
	scratch [MaxPayloadSize + 1]byte // Max payload (32) + 1 status byte

	// listening is true between StartListening and StopListening.
	listening bool
	// Pipe 0 serves two purposes: receiving while listening, and catching
	// auto-acks addressed to TX_ADDR while transmitting. Both values are kept
	// and swapped into RX_ADDR_P0 on every mode change.
	txAddrP0 []byte
	rxAddrP0 []byte

	writePayloadTimeout time.Duration
	sleep               func(time.Duration)
}

// NewWithHardware creates and initializes a new nRF24L01+ driver with the provided hardware interfaces.
// The radio is left powered up in TX mode; call StartListening to receive.
func NewWithHardware(c HardwareConfig, conn SPI) (*Device, error) {
	if conn == nil {
		return nil, fmt.Errorf("%w: %w: SPI connection not configured", ErrPkg, ErrInvalidConfig)
	}
	if c.CE == nil {
		return nil, fmt.Errorf("%w: %w: CE pin not configured", ErrPkg, ErrInvalidConfig)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.RadioConfig = c.RadioConfig.withDefaults()

	dev := newDevice(c, conn)

	globalLogger.Info("Initializing nRF24L01+ SPI communication...")

	if err := dev.setCE(false); err != nil {
		return nil, err
	}

	if dev.config.IRQ != nil {
		if err := dev.watchIRQ(); err != nil {
			return nil, err
		}
	}

	if err := dev.initialize(); err != nil {
		dev.release()
		return nil, err
	}
	if err := dev.applyConfig(); err != nil {
		dev.release()
		return nil, err
	}

	// Read back the channel to ensure SPI write/read is working
	ch, err := dev.channel()
	if err != nil {
		dev.release()
		return nil, err
	}
	if ch != dev.config.ChannelNumber {
		dev.release()
		return nil, wrapErr(ErrNotDetected)
	}

	globalLogger.Info("nRF24L01+ initialized and powered up. Ready to operate.")
	return dev, nil
}

func newDevice(c HardwareConfig, conn SPI) *Device {
	return &Device{
		config:              c,
		conn:                conn,
		txAddrP0:            append([]byte(nil), defaultAddrP0[:]...),
		rxAddrP0:            append([]byte(nil), defaultAddrP0[:]...),
		writePayloadTimeout: time.Duration(c.WritePayloadTimeoutMs) * time.Millisecond,
		sleep:               time.Sleep,
	}
}

func (d *Device) watchIRQ() error {
	if err := d.config.IRQ.In(PullUp); err != nil {
		return fmt.Errorf("%w: failed to configure IRQ pin: %w", ErrPkg, err)
	}
	ch := make(chan struct{}, 1)
	d.irqChan = ch
	// Watch starts a goroutine that calls the handler on edge
	err := d.config.IRQ.Watch(FallingEdge, func() {
		select {
		case ch <- struct{}{}:
		default:
			// Channel full
		}
	})
	if err != nil {
		return fmt.Errorf("%w: failed to watch IRQ pin: %w", ErrPkg, err)
	}
	return nil
}

// applyConfig writes the non-default parts of the configuration on top of
// the Initialize state.
func (d *Device) applyConfig() error {
	c := d.config.RadioConfig
	if err := d.setCRCLength(c.CRCLength); err != nil {
		return err
	}
	if err := d.setAddressWidth(c.AddressWidth); err != nil {
		return err
	}
	if err := d.setAutoRetransmit(c.AutoRetransmitDelay, c.AutoRetransmitCount); err != nil {
		return err
	}
	if err := d.setChannel(c.ChannelNumber); err != nil {
		return err
	}
	if err := d.setDataRateAndPALevel(c.DataRate, c.PALevel); err != nil {
		return err
	}
	if c.DisableDynamicPayload {
		if err := d.setDynamicPayloads(false); err != nil {
			return err
		}
		if err := d.updateFlag(EnAckPay, false); err != nil {
			return err
		}
	}
	if c.DisableAckPayload {
		if err := d.updateFlag(EnAckPay, false); err != nil {
			return err
		}
	}
	if c.DisableAutoAck {
		if err := d.writeRegister(RegEnAA, 0); err != nil {
			return err
		}
	}
	for _, p := range []Pipe{P0, P1} {
		if err := d.writeRegister(p.rxPwRegister(), c.PayloadSize); err != nil {
			return err
		}
	}
	if !c.RxAddr.IsZero() {
		if err := d.openReadingPipe(P1, c.RxAddr[:c.AddressWidth], int(c.PayloadSize)); err != nil {
			return err
		}
	}
	if !c.TxAddr.IsZero() {
		if err := d.openWritingPipe(c.TxAddr[:c.AddressWidth]); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) String() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return fmt.Sprintf("nRF24L01+(Channel=%d, DataRate=%s, PALevel=%s, CRC=%s, RxAddr=%s, DynamicPayload=%v, AutoAck=%v, Listening=%v)",
		d.config.ChannelNumber,
		d.config.DataRate,
		d.config.PALevel,
		d.config.CRCLength,
		d.config.RxAddr,
		!d.config.DisableDynamicPayload,
		!d.config.DisableAutoAck,
		d.listening,
	)
}

// Close cleans up the resources used by the nRF24L01+ driver.
// It powers down the radio, closes the SPI connection, and releases GPIO pins.
// This method is concurrent safe.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.powerDown()
	if err == nil {
		globalLogger.Info("nRF24L01+ powered down.")
	}
	d.listening = false
	d.release()
	return err
}

// release closes the SPI port and stops the IRQ watcher.
func (d *Device) release() {
	if d.port != nil {
		if err := d.port.Close(); err != nil {
			globalLogger.Warn("Failed to close SPI port: " + err.Error())
		} else {
			globalLogger.Info("SPI bus closed.")
		}
		d.port = nil
	}
	if d.config.IRQ != nil && d.irqChan != nil {
		if err := d.config.IRQ.Unwatch(); err != nil {
			globalLogger.Warn("Failed to release IRQ pin: " + err.Error())
		}
		d.irqChan = nil
	}
}

// --- SPI command plumbing ---

// transfer runs one full-duplex transaction on the first n+1 scratch bytes.
// scratch[1:n+1] must already hold the data bytes. The returned slice
// aliases scratch and is only valid until the next transfer.
func (d *Device) transfer(op string, cmd Command, arg byte, n int) (Status, []byte, error) {
	if err := cmd.CheckDataLength(n); err != nil {
		return 0, nil, err
	}
	d.scratch[0] = cmd.Opcode(arg)
	slice := d.scratch[:n+1]
	if err := d.conn.Tx(slice, slice); err != nil {
		globalLogger.Error("SPI transfer error: " + op)
		return 0, nil, fmt.Errorf("%w: %s: %w", ErrPkg, op, err)
	}
	return Status(d.scratch[0]), d.scratch[1 : n+1], nil
}

// command sends cmd followed by data.
func (d *Device) command(cmd Command, arg byte, data []byte) (Status, error) {
	if len(data) > MaxPayloadSize {
		return 0, cmd.CheckDataLength(len(data))
	}
	copy(d.scratch[1:], data)
	status, _, err := d.transfer(cmd.String(), cmd, arg, len(data))
	return status, err
}

// query sends cmd and clocks n bytes back out of the chip.
func (d *Device) query(op string, cmd Command, arg byte, n int) (Status, []byte, error) {
	if n > 0 && n <= MaxPayloadSize {
		for i := 1; i <= n; i++ {
			d.scratch[i] = CmdNOP.Opcode(0)
		}
	}
	status, data, err := d.transfer(op, cmd, arg, n)
	if err != nil {
		return status, nil, err
	}
	out := make([]byte, len(data))
	copy(out, data)
	return status, out, nil
}

func (d *Device) readRegisterBytes(r Register) ([]byte, error) {
	_, data, err := d.query(CmdRRegister.String()+" "+r.Name(), CmdRRegister, byte(r), r.Width())
	return data, err
}

func (d *Device) readRegister(r Register) (byte, error) {
	_, data, err := d.query(CmdRRegister.String()+" "+r.Name(), CmdRRegister, byte(r), 1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

func (d *Device) writeRegister(r Register, v byte) error {
	if err := CheckRegisterMask(r, v); err != nil {
		return err
	}
	d.scratch[1] = v
	_, _, err := d.transfer(CmdWRegister.String()+" "+r.Name(), CmdWRegister, byte(r), 1)
	return err
}

func (d *Device) writeRegisterBytes(r Register, data []byte) error {
	if len(data) > r.Width() {
		return &CommandLengthError{Command: CmdWRegister, Length: len(data), Min: 1, Max: r.Width()}
	}
	copy(d.scratch[1:], data)
	_, _, err := d.transfer(CmdWRegister.String()+" "+r.Name(), CmdWRegister, byte(r), len(data))
	return err
}

// updateField is a read-modify-write of a single field.
func (d *Device) updateField(f Field, v byte) error {
	r := f.Register()
	val, err := d.readRegister(r)
	if err != nil {
		return err
	}
	val, err = SetField(val, f, v)
	if err != nil {
		return err
	}
	return d.writeRegister(r, val)
}

func (d *Device) updateFlag(f Field, on bool) error {
	var v byte
	if on {
		v = 1
	}
	return d.updateField(f, v)
}

func (d *Device) readFlag(f Field) (bool, error) {
	val, err := d.readRegister(f.Register())
	if err != nil {
		return false, err
	}
	return Flag(val, f), nil
}

func (d *Device) nop() (Status, error) {
	return d.command(CmdNOP, 0, nil)
}

func (d *Device) flushTX() error {
	_, err := d.command(CmdFlushTx, 0, nil)
	return err
}

func (d *Device) flushRX() error {
	_, err := d.command(CmdFlushRx, 0, nil)
	return err
}

// STATUS interrupt bits are cleared by writing 1.
const (
	irqRX  = 1 << 6
	irqTX  = 1<<5 | 1<<4
	irqAll = irqRX | irqTX
)

func (d *Device) clearInterrupts(flags byte) error {
	return d.writeRegister(RegStatus, flags&irqAll)
}

func (d *Device) setCE(level bool) error {
	l := Low
	if level {
		l = High
	}
	if err := d.config.CE.Out(l); err != nil {
		globalLogger.Error("CE pin error")
		return fmt.Errorf("%w: CE: %w", ErrPkg, err)
	}
	return nil
}

// --- Raw register access ---

// ReadRegister reads a one byte register.
// This method is concurrent safe.
func (d *Device) ReadRegister(r Register) (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readRegister(r)
}

// ReadRegisterBytes reads the full width of a register (5 bytes for the
// address registers of pipes 0-1 and TX_ADDR).
// This method is concurrent safe.
func (d *Device) ReadRegisterBytes(r Register) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readRegisterBytes(r)
}

// WriteRegister writes a one byte register. Values setting reserved bits are
// rejected with a *RegisterMaskError before any bus access.
// This method is concurrent safe.
func (d *Device) WriteRegister(r Register, v byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeRegister(r, v)
}

// WriteRegisterBytes writes up to the register width bytes.
// This method is concurrent safe.
func (d *Device) WriteRegisterBytes(r Register, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeRegisterBytes(r, data)
}

// SendCommand issues cmd with data and returns the status byte. arg is the
// register address or pipe number for the commands that take one.
// This method is concurrent safe.
func (d *Device) SendCommand(cmd Command, arg byte, data []byte) (Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.command(cmd, arg, data)
}

// --- Initialization and power management ---

// Initialize puts the chip in a known state: power down, CONFIG reset,
// 16-bit CRC, 5 byte addresses, 15 retransmits every 1500us, channel 76,
// 1Mbps at 0dBm, dynamic payloads and auto-ack on all pipes, ack payloads,
// interrupts cleared and both FIFOs flushed, then powers up in TX mode.
// Calling it again yields the same state. A listening device is switched
// back to TX mode first. Settings passed to the constructor are lost, except
// for the pipe addresses, the static payload size and the write timeout.
// This method is concurrent safe.
func (d *Device) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.initialize(); err != nil {
		return err
	}
	d.resetRadioConfig()
	return nil
}

// resetRadioConfig brings the cached settings in line with what initialize
// wrote to the chip.
func (d *Device) resetRadioConfig() {
	c := &d.config.RadioConfig
	c.ChannelNumber = DefaultChannel
	c.DataRate = DataRate1mbps
	c.PALevel = PALevelMax
	c.CRCLength = CRCLength16
	c.AddressWidth = DefaultAddressWidth
	c.AutoRetransmitDelay = DefaultAutoRetransmitDelay
	c.AutoRetransmitCount = DefaultAutoRetransmitCount
	c.DisableDynamicPayload = false
	c.DisableAutoAck = false
	c.DisableAckPayload = false
}

func (d *Device) initialize() error {
	if d.listening {
		// RX_ADDR_P0 must mirror TX_ADDR again
		if err := d.stopListening(); err != nil {
			return err
		}
	}
	steps := []func() error{
		d.powerDown,
		func() error { return d.writeRegister(RegConfig, RegConfig.ResetValue()) },
		func() error { return d.setCRCLength(CRCLength16) },
		func() error { return d.setAddressWidth(DefaultAddressWidth) },
		func() error { return d.setAutoRetransmit(DefaultAutoRetransmitDelay, DefaultAutoRetransmitCount) },
		func() error { return d.setChannel(DefaultChannel) },
		func() error { return d.setDataRateAndPALevel(DataRate1mbps, PALevelMax) },
		func() error { return d.setDynamicPayloads(true) },
		func() error { return d.updateFlag(EnAckPay, true) },
		// Always enable Dynamic ACK feature to support TransmitNoAck
		func() error { return d.updateFlag(EnDynAck, true) },
		func() error { return d.clearInterrupts(irqAll) },
		d.flushRX,
		d.flushTX,
		d.powerUp,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	d.listening = false
	return nil
}

// PowerDown puts the nRF24L01+ into Power Down mode.
// CE is driven low first so nothing is transmitted while reconfiguring.
// In this mode, the radio is disabled with minimal current consumption (approx. 900nA).
// This method is concurrent safe.
func (d *Device) PowerDown() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	globalLogger.Debug("Power down")
	return d.powerDown()
}

func (d *Device) powerDown() error {
	if err := d.setCE(false); err != nil {
		return err
	}
	return d.updateFlag(PwrUp, false)
}

// PowerUp wakes the nRF24L01+ from Power Down mode and waits for the crystal
// oscillator to settle. Nothing is written and no delay is spent if the chip
// is already powered up.
// This method is concurrent safe.
func (d *Device) PowerUp() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	globalLogger.Debug("Power up")
	return d.powerUp()
}

func (d *Device) powerUp() error {
	up, err := d.readFlag(PwrUp)
	if err != nil || up {
		return err
	}
	if err := d.updateFlag(PwrUp, true); err != nil {
		return err
	}
	d.sleep(powerUpDelay)
	return nil
}

// --- Configuration ---

// SetCRCLength enables or disables the CRC and selects its length.
// This method is concurrent safe.
func (d *Device) SetCRCLength(length CRCLength) error {
	if !length.valid() {
		return fmt.Errorf("%w: %w: unknown CRC length %d", ErrPkg, ErrInvalidConfig, length)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.setCRCLength(length); err != nil {
		return err
	}
	d.config.CRCLength = length
	return nil
}

func (d *Device) setCRCLength(length CRCLength) error {
	val, err := d.readRegister(RegConfig)
	if err != nil {
		return err
	}
	if val, err = SetFlag(val, EnCRC, length != CRCLengthDisabled); err != nil {
		return err
	}
	if val, err = SetFlag(val, CRCO, length == CRCLength16); err != nil {
		return err
	}
	return d.writeRegister(RegConfig, val)
}

// CRCLength reads the CRC setting from CONFIG.
// This method is concurrent safe.
func (d *Device) CRCLength() (CRCLength, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	val, err := d.readRegister(RegConfig)
	if err != nil {
		return 0, err
	}
	switch {
	case !Flag(val, EnCRC):
		return CRCLengthDisabled, nil
	case Flag(val, CRCO):
		return CRCLength16, nil
	default:
		return CRCLength8, nil
	}
}

// SetAddressWidth sets the address width (3, 4, or 5 bytes).
// This method is concurrent safe.
func (d *Device) SetAddressWidth(width byte) error {
	if width < 3 || width > 5 {
		return fmt.Errorf("%w: %w: AddressWidth must be 3, 4, or 5", ErrPkg, ErrInvalidConfig)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.setAddressWidth(width); err != nil {
		return err
	}
	d.config.AddressWidth = width
	return nil
}

func (d *Device) setAddressWidth(width byte) error {
	return d.updateField(AW, width-2)
}

// AddressWidth reads the address width in bytes from SETUP_AW.
// This method is concurrent safe.
func (d *Device) AddressWidth() (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addressWidth()
}

func (d *Device) addressWidth() (byte, error) {
	val, err := d.readRegister(RegSetupAW)
	if err != nil {
		return 0, err
	}
	aw := GetField(val, AW)
	if aw == 0 {
		return 0, fmt.Errorf("%w: %w: SETUP_AW holds the illegal value 00", ErrPkg, ErrInvalidConfig)
	}
	return aw + 2, nil
}

// SetAutoRetransmit configures the automatic retransmission parameters.
// delay: 250 to 4000 microseconds (must be multiple of 250).
// count: 0 to 15 retransmits.
// This method is concurrent safe.
func (d *Device) SetAutoRetransmit(delay uint16, count byte) error {
	if delay < 250 || delay > 4000 || delay%250 != 0 {
		return fmt.Errorf("%w: %w: delay must be between 250 and 4000 us and multiple of 250", ErrPkg, ErrInvalidConfig)
	}
	if count > 15 {
		return fmt.Errorf("%w: %w: count must be between 0 and 15", ErrPkg, ErrInvalidConfig)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.setAutoRetransmit(delay, count); err != nil {
		return err
	}
	d.config.AutoRetransmitDelay = delay
	d.config.AutoRetransmitCount = count
	return nil
}

func (d *Device) setAutoRetransmit(delay uint16, count byte) error {
	val, err := SetField(0, ARD, byte(delay/250-1))
	if err != nil {
		return err
	}
	if val, err = SetField(val, ARC, count); err != nil {
		return err
	}
	return d.writeRegister(RegSetupRetr, val)
}

// AutoRetransmit returns the retransmit delay in microseconds and count.
// This method is concurrent safe.
func (d *Device) AutoRetransmit() (delay uint16, count byte, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	val, err := d.readRegister(RegSetupRetr)
	if err != nil {
		return 0, 0, err
	}
	return (uint16(GetField(val, ARD)) + 1) * 250, GetField(val, ARC), nil
}

// SetChannel changes the radio channel (frequency 2400 + channel MHz).
// channel must be between 0 and 127.
// This method is concurrent safe.
func (d *Device) SetChannel(channel byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.setChannel(channel); err != nil {
		return err
	}
	d.config.ChannelNumber = channel
	return nil
}

func (d *Device) setChannel(channel byte) error {
	val, err := SetField(0, RFChannel, channel)
	if err != nil {
		return err
	}
	return d.writeRegister(RegRFCh, val)
}

// Channel reads the current channel from RF_CH.
// This method is concurrent safe.
func (d *Device) Channel() (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.channel()
}

func (d *Device) channel() (byte, error) {
	val, err := d.readRegister(RegRFCh)
	return GetField(val, RFChannel), err
}

// SetDataRate changes the air data rate.
// This method is concurrent safe.
func (d *Device) SetDataRate(rate DataRate) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setDataRateAndPALevelLocked(rate, d.config.PALevel)
}

// SetPALevel changes the power amplifier level.
// This method is concurrent safe.
func (d *Device) SetPALevel(level PALevel) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setDataRateAndPALevelLocked(d.config.DataRate, level)
}

// SetDataRateAndPALevel writes both RF_SETUP settings at once.
// This method is concurrent safe.
func (d *Device) SetDataRateAndPALevel(rate DataRate, level PALevel) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setDataRateAndPALevelLocked(rate, level)
}

func (d *Device) setDataRateAndPALevelLocked(rate DataRate, level PALevel) error {
	if err := d.setDataRateAndPALevel(rate, level); err != nil {
		return err
	}
	d.config.DataRate = rate
	d.config.PALevel = level
	return nil
}

func (d *Device) setDataRateAndPALevel(rate DataRate, level PALevel) error {
	if !rate.valid() {
		return fmt.Errorf("%w: %w: unknown data rate %d", ErrPkg, ErrInvalidConfig, rate)
	}
	if !level.valid() {
		return fmt.Errorf("%w: %w: unknown PA level %d", ErrPkg, ErrInvalidConfig, level)
	}
	val, err := d.readRegister(RegRFSetup)
	if err != nil {
		return err
	}
	// RF_DR_LOW has priority over RF_DR_HIGH
	low, high := false, false
	switch rate {
	case DataRate1mbps:
		// RF_DR_HIGH = 0, RF_DR_LOW = 0
	case DataRate2mbps:
		high = true
	case DataRate250kbps:
		low = true
	}
	if val, err = SetFlag(val, RFDRLow, low); err != nil {
		return err
	}
	if val, err = SetFlag(val, RFDRHigh, high); err != nil {
		return err
	}
	if val, err = SetField(val, RFPwr, byte(level-PALevelMin)); err != nil {
		return err
	}
	return d.writeRegister(RegRFSetup, val)
}

// DataRate reads the air data rate from RF_SETUP.
// This method is concurrent safe.
func (d *Device) DataRate() (DataRate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	val, err := d.readRegister(RegRFSetup)
	if err != nil {
		return 0, err
	}
	switch {
	case Flag(val, RFDRLow):
		return DataRate250kbps, nil
	case Flag(val, RFDRHigh):
		return DataRate2mbps, nil
	default:
		return DataRate1mbps, nil
	}
}

// PALevel reads the power amplifier level from RF_SETUP.
// This method is concurrent safe.
func (d *Device) PALevel() (PALevel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	val, err := d.readRegister(RegRFSetup)
	if err != nil {
		return 0, err
	}
	return PALevelMin + PALevel(GetField(val, RFPwr)), nil
}

// SetWritePayloadTimeout bounds how long an acknowledged send waits for the
// chip to report TX_DS or MAX_RT.
// This method is concurrent safe.
func (d *Device) SetWritePayloadTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: %w: write payload timeout must be positive", ErrPkg, ErrInvalidConfig)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writePayloadTimeout = timeout
	d.config.WritePayloadTimeoutMs = int(timeout / time.Millisecond)
	return nil
}

// WritePayloadTimeout returns the acknowledged send timeout.
// This method is concurrent safe.
func (d *Device) WritePayloadTimeout() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writePayloadTimeout
}

// --- Diagnostics ---

// GetStatus returns the STATUS register, read with a NOP.
// This is useful for debugging or polling the radio state.
// This method is concurrent safe.
func (d *Device) GetStatus() (Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.nop()
}

// GetRetransmissionCounters returns the number of lost packets and the number of retransmissions
// for the last sent packet.
// lostPackets: Number of packets lost (count resets when changing channel).
// currentRetries: Number of retransmissions for the latest transmission.
// This method is concurrent safe.
func (d *Device) GetRetransmissionCounters() (lostPackets byte, currentRetries byte, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	val, err := d.readRegister(RegObserveTX)
	if err != nil {
		return 0, 0, err
	}
	return GetField(val, PLOSCnt), GetField(val, ARCCnt), nil
}

// IsCarrierDetected returns true if a carrier is detected on the current channel.
// This is useful for checking if a channel is clear before transmitting or for
// simple collision avoidance. On nRF24L01+, it detects signals > -64dBm.
// This method is concurrent safe.
func (d *Device) IsCarrierDetected() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readFlag(RPDFlag)
}

// FlushTX clears the transmit FIFO buffer.
// This method is concurrent safe.
func (d *Device) FlushTX() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flushTX()
}

// FlushRX clears the receive FIFO buffer.
// This method is concurrent safe.
func (d *Device) FlushRX() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flushRX()
}

// ClearInterrupts clears RX_DR, TX_DS and MAX_RT.
// This method is concurrent safe.
func (d *Device) ClearInterrupts() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clearInterrupts(irqAll)
}

// ClearRxInterrupt clears RX_DR.
// This method is concurrent safe.
func (d *Device) ClearRxInterrupt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clearInterrupts(irqRX)
}

// ClearTxInterrupt clears TX_DS and MAX_RT.
// This method is concurrent safe.
func (d *Device) ClearTxInterrupt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clearInterrupts(irqTX)
}

// --- Mode switching ---

// Listening reports whether the device is in RX mode.
// This method is concurrent safe.
func (d *Device) Listening() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listening
}

// StartListening switches to RX mode. Pipe 0 gets its receive address back.
// This method is concurrent safe.
func (d *Device) StartListening() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.startListening()
}

func (d *Device) startListening() error {
	steps := []func() error{
		func() error { return d.clearInterrupts(irqAll) },
		d.flushRX,
		d.flushTX,
		func() error { return d.writeRegisterBytes(RegRxAddrP0, d.rxAddrP0) },
		func() error { return d.updateFlag(PrimRx, true) },
		func() error { return d.setCE(true) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	d.sleep(rxSettlingDelay)
	d.listening = true
	globalLogger.Debug("Listening")
	return nil
}

// StopListening switches to TX mode. Pipe 0 gets the writing pipe address
// back so auto-acks are recognized.
// This method is concurrent safe.
func (d *Device) StopListening() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopListening()
}

func (d *Device) stopListening() error {
	steps := []func() error{
		func() error { return d.setCE(false) },
		func() error { return d.updateFlag(PrimRx, false) },
		func() error { return d.writeRegisterBytes(RegRxAddrP0, d.txAddrP0) },
		func() error { return d.clearInterrupts(irqAll) },
		d.flushRX,
		d.flushTX,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	d.listening = false
	globalLogger.Debug("Stopped listening")
	return nil
}
