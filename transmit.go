package rf24

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// WritePayload loads payload into the TX FIFO without transmitting it. With
// ackRequested false the packet is sent with the NO_ACK flag (needs
// FEATURE.EN_DYN_ACK). Fails with ErrInvalidMode while listening.
// This method is concurrent safe.
func (d *Device) WritePayload(ackRequested bool, payload []byte) (Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writePayload(ackRequested, payload)
}

func (d *Device) writePayload(ackRequested bool, payload []byte) (Status, error) {
	if d.listening {
		return 0, fmt.Errorf("%w: %w: cannot write a TX payload while listening", ErrPkg, ErrInvalidMode)
	}
	cmd := CmdWTxPayload
	if !ackRequested {
		cmd = CmdWTxPayloadNoAck
	}
	return d.command(cmd, 0, payload)
}

// WriteAckPayload queues a payload to be returned with the next
// acknowledgement sent on pipe. The device must be listening and ack payloads
// enabled. Up to three ack payloads can be pending.
// This method is concurrent safe.
func (d *Device) WriteAckPayload(pipe Pipe, payload []byte) (Status, error) {
	if err := checkPipe(pipe); err != nil {
		return 0, err
	}
	if err := CmdWAckPayload.CheckDataLength(len(payload)); err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.listening {
		return 0, fmt.Errorf("%w: %w: ack payloads are only sent while listening", ErrPkg, ErrInvalidMode)
	}
	on, err := d.readFlag(EnAckPay)
	if err != nil {
		return 0, err
	}
	if !on {
		return 0, fmt.Errorf("%w: %w: %s", ErrPkg, ErrFeatureNotEnabled, EnAckPay)
	}
	copy(d.scratch[1:], payload)
	status, _, err := d.transfer(fmt.Sprintf("%s %s", CmdWAckPayload, pipe), CmdWAckPayload, byte(pipe), len(payload))
	return status, err
}

// ReuseTxPayload makes the chip resend the last transmitted payload on every
// CE pulse until the TX FIFO is written or flushed.
// This method is concurrent safe.
func (d *Device) ReuseTxPayload() (Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.command(CmdReuseTxPl, 0, nil)
}

// pulseCE starts the transmission of the TX FIFO head. CE must stay high
// for at least 10us.
func (d *Device) pulseCE() error {
	if err := d.setCE(true); err != nil {
		return err
	}
	d.sleep(cePulseWidth)
	return d.setCE(false)
}

// SendPayload transmits payload to the writing pipe. With ackRequested the
// call waits for the outcome: nil when the packet was acknowledged,
// ErrMaxRetries when the auto-retransmit count ran out, ErrTimeout when the
// chip reported nothing within the write payload timeout. Without ack the
// call returns once the packet is handed to the chip.
// TX_DS and MAX_RT are cleared on every path.
// This method is concurrent safe.
func (d *Device) SendPayload(payload []byte, ackRequested bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sendPayload(payload, ackRequested)
}

func (d *Device) sendPayload(payload []byte, ackRequested bool) error {
	if _, err := d.writePayload(ackRequested, payload); err != nil {
		return err
	}
	if err := d.pulseCE(); err != nil {
		return err
	}
	if !ackRequested {
		return d.clearInterrupts(irqTX)
	}

	err := d.waitTxOutcome(d.writePayloadTimeout)
	if cerr := d.clearInterrupts(irqTX); err == nil {
		err = cerr
	}
	if errors.Is(err, ErrMaxRetries) || errors.Is(err, ErrTimeout) {
		// The failed payload stays in the TX FIFO otherwise
		if ferr := d.flushTX(); ferr != nil {
			globalLogger.Warn("Failed to flush TX FIFO: " + ferr.Error())
		}
	}
	return err
}

// waitTxOutcome polls STATUS until TX_DS or MAX_RT is set or timeout
// elapses.
func (d *Device) waitTxOutcome(timeout time.Duration) error {
	start := time.Now()
	for {
		status, err := d.nop()
		if err != nil {
			return err
		}
		switch {
		case status.DataSent():
			return nil
		case status.MaxRetries():
			globalLogger.Warn("Max retransmissions reached")
			return wrapErr(ErrMaxRetries)
		case time.Since(start) > timeout:
			globalLogger.Warn("Timeout waiting for TX_DS or MAX_RT")
			return wrapErr(ErrTimeout)
		}
	}
}

// SendPayloadAndReadAck sends an acknowledged payload and returns the payload
// piggy-backed on the acknowledgement. An empty slice means the receiver had
// nothing queued. Ack payloads must be enabled.
// This method is concurrent safe.
func (d *Device) SendPayloadAndReadAck(payload []byte) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	on, err := d.readFlag(EnAckPay)
	if err != nil {
		return nil, err
	}
	if !on {
		return nil, fmt.Errorf("%w: %w: %s", ErrPkg, ErrFeatureNotEnabled, EnAckPay)
	}
	if err := d.sendPayload(payload, true); err != nil {
		return nil, err
	}

	available, err := d.isRxDataAvailable()
	if err != nil {
		return nil, err
	}
	if !available {
		return []byte{}, nil
	}
	n, err := d.getDynamicPayloadSize()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Nothing to read, the slot can only be dropped with a flush
		return []byte{}, d.flushRX()
	}
	return d.readPayload(int(n))
}

// Transmit sends an acknowledged message to destAddr.
// The device switches to TX mode for the send and returns to RX mode if it was
// listening. Static payloads are zero padded to the configured payload size.
// Switching modes flushes the RX FIFO, so read pending packets with Receive
// before transmitting from RX mode.
// It returns an error if you are trying to send a message bigger than the max payload size.
// This method is concurrent safe.
func (d *Device) Transmit(destAddr Address, p []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transmit(destAddr, p, true)
}

// TransmitNoAck sends a message with a "No Acknowledgement" flag in the packet header.
// Unlike a regular Transmit with auto-ack disabled, this method explicitly tells
// the receiver NOT to send an ACK packet. This is the preferred method for broadcasting
// to multiple receivers or for high-speed, low-reliability data as it prevents receivers
// from wasting power and airtime sending ACKs that the transmitter isn't listening for.
// Like Transmit, it drops unread packets when called in RX mode.
// This method is concurrent safe.
func (d *Device) TransmitNoAck(destAddr Address, p []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transmit(destAddr, p, false)
}

func (d *Device) transmit(destAddr Address, p []byte, ack bool) error {
	payload, err := d.framePayload(p)
	if err != nil {
		return err
	}

	wasListening := d.listening
	if wasListening {
		if err := d.stopListening(); err != nil {
			return err
		}
	}

	err = d.openWritingPipe(destAddr[:d.config.AddressWidth])
	if err == nil {
		err = d.sendPayload(payload, ack)
	}

	if wasListening {
		if lerr := d.startListening(); lerr != nil && err == nil {
			err = lerr
		}
	}
	if err != nil {
		return fmt.Errorf("failed to send data: %w", err)
	}
	return nil
}

// framePayload checks p against the payload limit and pads static payloads.
func (d *Device) framePayload(p []byte) ([]byte, error) {
	dynamic, err := d.readFlag(EnDPL)
	if err != nil {
		return nil, err
	}
	limit := MaxPayloadSize
	if !dynamic {
		limit = int(d.config.PayloadSize)
	}
	if len(p) == 0 || len(p) > limit {
		return nil, &PayloadSizeError{Size: len(p), Max: limit}
	}
	if dynamic || len(p) == limit {
		return p, nil
	}
	padded := make([]byte, limit)
	copy(padded, p)
	return padded, nil
}

// Ping sends a single byte to addr and reports whether it was acknowledged.
// A missing acknowledgement is not an error.
// This method is concurrent safe.
func (d *Device) Ping(ctx context.Context, addr Address) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Send a single "null" byte (0x00) as a ping
	err := d.transmit(addr, []byte{0x00}, true)
	switch {
	case err == nil:
		globalLogger.Info("Ping Success")
		return true, nil
	case errors.Is(err, ErrMaxRetries):
		globalLogger.Info("Ping Failed")
		return false, nil
	default:
		return false, err
	}
}
