package rf24

import "fmt"

type readingPipeOptions struct {
	payloadSize int
}

// ReadingPipeOption configures OpenReadingPipe and OpenReadingPipeLSB.
type ReadingPipeOption func(*readingPipeOptions)

// WithPayloadSize sets the static payload size of the pipe (1-32). It is
// ignored by the chip while the pipe uses dynamic payloads.
func WithPayloadSize(n int) ReadingPipeOption {
	return func(o *readingPipeOptions) { o.payloadSize = n }
}

func readingPipeOpts(opts []ReadingPipeOption) (readingPipeOptions, error) {
	o := readingPipeOptions{payloadSize: MaxPayloadSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.payloadSize < 1 || o.payloadSize > MaxPayloadSize {
		return o, &PayloadSizeError{Size: o.payloadSize, Max: MaxPayloadSize}
	}
	return o, nil
}

func checkPipe(p Pipe) error {
	if !p.Valid() {
		return fmt.Errorf("%w: %w: got %d", ErrPkg, ErrInvalidPipe, p)
	}
	return nil
}

// checkAddressLength compares addr with the width configured in SETUP_AW.
func (d *Device) checkAddressLength(pipe int, addr []byte) error {
	aw, err := d.addressWidth()
	if err != nil {
		return err
	}
	if len(addr) != int(aw) {
		return &AddressLengthError{Pipe: pipe, Length: len(addr), Want: int(aw)}
	}
	return nil
}

// OpenWritingPipe sets the address packets are sent to. Its length must match
// the configured address width. Pipe 0 mirrors it while not listening so
// auto-acks from the receiver are recognized.
// This method is concurrent safe.
func (d *Device) OpenWritingPipe(addr []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.openWritingPipe(addr)
}

func (d *Device) openWritingPipe(addr []byte) error {
	if err := d.checkAddressLength(-1, addr); err != nil {
		return err
	}
	if err := d.writeRegisterBytes(RegTxAddr, addr); err != nil {
		return err
	}
	d.txAddrP0 = append(d.txAddrP0[:0], addr...)
	// While listening, RX_ADDR_P0 is restored on StopListening
	if !d.listening {
		return d.writeRegisterBytes(RegRxAddrP0, addr)
	}
	return nil
}

// OpenReadingPipe enables pipe 0 or 1 with a full address of the configured
// width. Pipes 2-5 only own the least significant address byte and are opened
// with OpenReadingPipeLSB.
// The pipe 0 address is written to the chip when listening starts, since
// pipe 0 holds the writing pipe address in TX mode.
// This method is concurrent safe.
func (d *Device) OpenReadingPipe(pipe Pipe, addr []byte, opts ...ReadingPipeOption) error {
	if err := checkPipe(pipe); err != nil {
		return err
	}
	if pipe > P1 {
		return &PipeAddressWidthError{Pipe: pipe, Full: true}
	}
	o, err := readingPipeOpts(opts)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.openReadingPipe(pipe, addr, o.payloadSize)
}

func (d *Device) openReadingPipe(pipe Pipe, addr []byte, payloadSize int) error {
	if err := d.checkAddressLength(int(pipe), addr); err != nil {
		return err
	}
	if pipe == P0 {
		d.rxAddrP0 = append(d.rxAddrP0[:0], addr...)
		if d.listening {
			if err := d.writeRegisterBytes(RegRxAddrP0, addr); err != nil {
				return err
			}
		}
	} else if err := d.writeRegisterBytes(pipe.rxAddrRegister(), addr); err != nil {
		return err
	}
	return d.enablePipe(pipe, payloadSize)
}

// OpenReadingPipeLSB enables one of pipes 2-5. They share the upper address
// bytes with pipe 1, lsb is the first byte sent over the air.
// This method is concurrent safe.
func (d *Device) OpenReadingPipeLSB(pipe Pipe, lsb byte, opts ...ReadingPipeOption) error {
	if err := checkPipe(pipe); err != nil {
		return err
	}
	if pipe < P2 {
		return &PipeAddressWidthError{Pipe: pipe}
	}
	o, err := readingPipeOpts(opts)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.writeRegister(pipe.rxAddrRegister(), lsb); err != nil {
		return err
	}
	return d.enablePipe(pipe, o.payloadSize)
}

// enablePipe sets the static payload width and the EN_RXADDR bit.
func (d *Device) enablePipe(pipe Pipe, payloadSize int) error {
	width, err := SetField(0, pipe.payloadWidthField(), byte(payloadSize))
	if err != nil {
		return err
	}
	if err := d.writeRegister(pipe.rxPwRegister(), width); err != nil {
		return err
	}
	return d.updateFlag(pipe.enableField(), true)
}

// CloseReadingPipe disables a data pipe and clears its payload width.
// This method is concurrent safe.
func (d *Device) CloseReadingPipe(pipe Pipe) error {
	if err := checkPipe(pipe); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.updateFlag(pipe.enableField(), false); err != nil {
		return err
	}
	return d.writeRegister(pipe.rxPwRegister(), 0)
}

// EnableRxPipes sets the EN_RXADDR bit of each pipe. Only pipes 0 and 1 are
// enabled after reset.
// This method is concurrent safe.
func (d *Device) EnableRxPipes(pipes ...Pipe) error {
	var mask byte
	for _, p := range pipes {
		if err := checkPipe(p); err != nil {
			return err
		}
		mask |= p.Mask()
	}
	if mask == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	val, err := d.readRegister(RegEnRxAddr)
	if err != nil {
		return err
	}
	return d.writeRegister(RegEnRxAddr, val|mask)
}

// allPipes is the EN_AA / EN_RXADDR / DYNPD value selecting every pipe.
const allPipes = 0b0011_1111

// setDynamicPayloads switches FEATURE.EN_DPL and the DYNPD bits of every
// pipe. Dynamic payloads need auto-ack, so enabling also sets EN_AA.
func (d *Device) setDynamicPayloads(on bool) error {
	if err := d.updateFlag(EnDPL, on); err != nil {
		return err
	}
	if !on {
		return d.writeRegister(RegDynPD, 0)
	}
	if err := d.writeRegister(RegDynPD, allPipes); err != nil {
		return err
	}
	return d.writeRegister(RegEnAA, allPipes)
}

// EnableDynamicPayloads enables dynamic payload length and auto-ack on all pipes.
// This method is concurrent safe.
func (d *Device) EnableDynamicPayloads() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.setDynamicPayloads(true); err != nil {
		return err
	}
	d.config.DisableDynamicPayload = false
	d.config.DisableAutoAck = false
	return nil
}

// DisableDynamicPayloads switches every pipe to its static payload width.
// This method is concurrent safe.
func (d *Device) DisableDynamicPayloads() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.setDynamicPayloads(false); err != nil {
		return err
	}
	d.config.DisableDynamicPayload = true
	return nil
}

// EnableAutoAck enables auto-acknowledgement on all pipes.
// This method is concurrent safe.
func (d *Device) EnableAutoAck() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.writeRegister(RegEnAA, allPipes); err != nil {
		return err
	}
	d.config.DisableAutoAck = false
	return nil
}

// DisableAutoAck disables auto-acknowledgement on all pipes.
// This method is concurrent safe.
func (d *Device) DisableAutoAck() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.writeRegister(RegEnAA, 0); err != nil {
		return err
	}
	d.config.DisableAutoAck = true
	return nil
}

// SetPipeAutoAck switches auto-acknowledgement of one pipe.
// This method is concurrent safe.
func (d *Device) SetPipeAutoAck(pipe Pipe, on bool) error {
	if err := checkPipe(pipe); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updateFlag(pipe.autoAckField(), on)
}

// SetPipeDynamicPayload switches dynamic payload length of one pipe.
// FEATURE.EN_DPL must also be set for it to take effect.
// This method is concurrent safe.
func (d *Device) SetPipeDynamicPayload(pipe Pipe, on bool) error {
	if err := checkPipe(pipe); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updateFlag(pipe.dynamicPayloadField(), on)
}

// EnableAckPayload allows payloads on acknowledgement packets.
// This method is concurrent safe.
func (d *Device) EnableAckPayload() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.updateFlag(EnAckPay, true); err != nil {
		return err
	}
	d.config.DisableAckPayload = false
	return nil
}

// DisableAckPayload turns ack payloads off.
// This method is concurrent safe.
func (d *Device) DisableAckPayload() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.updateFlag(EnAckPay, false); err != nil {
		return err
	}
	d.config.DisableAckPayload = true
	return nil
}

// EnableNoAckCommand allows W_TX_PAYLOAD_NOACK (TransmitNoAck).
// This method is concurrent safe.
func (d *Device) EnableNoAckCommand() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updateFlag(EnDynAck, true)
}

// DisableNoAckCommand makes the chip ignore W_TX_PAYLOAD_NOACK.
// This method is concurrent safe.
func (d *Device) DisableNoAckCommand() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updateFlag(EnDynAck, false)
}

// IsDynamicPayloadEnabled reports FEATURE.EN_DPL.
// This method is concurrent safe.
func (d *Device) IsDynamicPayloadEnabled() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readFlag(EnDPL)
}

// IsAckPayloadEnabled reports FEATURE.EN_ACK_PAY.
// This method is concurrent safe.
func (d *Device) IsAckPayloadEnabled() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readFlag(EnAckPay)
}

// IsPipeDynamicPayloadEnabled reports the DYNPD bit of a pipe.
// This method is concurrent safe.
func (d *Device) IsPipeDynamicPayloadEnabled(pipe Pipe) (bool, error) {
	if err := checkPipe(pipe); err != nil {
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readFlag(pipe.dynamicPayloadField())
}

// IsPipeAutoAckEnabled reports the EN_AA bit of a pipe.
// This method is concurrent safe.
func (d *Device) IsPipeAutoAckEnabled(pipe Pipe) (bool, error) {
	if err := checkPipe(pipe); err != nil {
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readFlag(pipe.autoAckField())
}
