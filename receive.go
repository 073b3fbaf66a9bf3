package rf24

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const receivePollInterval = 5 * time.Millisecond

// IsRxDataAvailable reports whether the RX FIFO holds at least one payload.
// This method is concurrent safe.
func (d *Device) IsRxDataAvailable() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.isRxDataAvailable()
}

func (d *Device) isRxDataAvailable() (bool, error) {
	empty, err := d.readFlag(RxEmpty)
	return !empty, err
}

// IsRxDataAvailableOnPipe reports whether the payload at the head of the RX
// FIFO arrived on pipe.
// This method is concurrent safe.
func (d *Device) IsRxDataAvailableOnPipe(pipe Pipe) (bool, error) {
	if err := checkPipe(pipe); err != nil {
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	available, err := d.isRxDataAvailable()
	if err != nil || !available {
		return false, err
	}
	status, err := d.nop()
	if err != nil {
		return false, err
	}
	return status.RxPipe() == int(pipe), nil
}

// GetDynamicPayloadSize returns the width of the payload at the head of the
// RX FIFO. A width above 32 means the FIFO is corrupt: it is flushed and
// ErrRxFifoOversize returned.
// This method is concurrent safe.
func (d *Device) GetDynamicPayloadSize() (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.getDynamicPayloadSize()
}

func (d *Device) getDynamicPayloadSize() (byte, error) {
	_, data, err := d.query(CmdRRxPlWid.String(), CmdRRxPlWid, 0, 1)
	if err != nil {
		return 0, err
	}
	size := data[0]
	if size > MaxPayloadSize {
		globalLogger.Warn("RX FIFO reported payload width " + strconv.Itoa(int(size)) + ", flushing")
		if err := d.flushRX(); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %w: got %d", ErrPkg, ErrRxFifoOversize, size)
	}
	return size, nil
}

// ReadPayload reads n bytes from the RX FIFO and clears RX_DR.
// This method is concurrent safe.
func (d *Device) ReadPayload(n int) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readPayload(n)
}

func (d *Device) readPayload(n int) ([]byte, error) {
	_, data, err := d.query(CmdRRxPayload.String(), CmdRRxPayload, 0, n)
	if err != nil {
		return nil, err
	}
	if err := d.clearInterrupts(irqRX); err != nil {
		return nil, err
	}
	return data, nil
}

// Receive tries to receive a packet from the nRF24L01+ module.
// This method is non-blocking and assumes the radio is listening (see StartListening).
// It returns the packet and true if a message is available, otherwise nil and false.
// The payload width is read from the chip for pipes using dynamic payloads and
// taken from RX_PW_Px otherwise.
// This method is concurrent safe.
func (d *Device) Receive() ([]byte, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.receive()
}

func (d *Device) receive() ([]byte, bool, error) {
	available, err := d.isRxDataAvailable()
	if err != nil || !available {
		return nil, false, err
	}
	status, err := d.nop()
	if err != nil {
		return nil, false, err
	}
	p := status.RxPipe()
	if p < 0 {
		return nil, false, nil
	}
	pipe := Pipe(p)

	size, err := d.payloadWidth(pipe)
	if err != nil {
		return nil, false, err
	}
	if size == 0 {
		// If the radio says data is available but the size is 0, it's either an empty packet
		// or a glitch. Since we can't "read" 0 bytes to advance the FIFO, we flush.
		if err := d.flushRX(); err != nil {
			return nil, false, err
		}
		return nil, false, d.clearInterrupts(irqRX)
	}

	payload, err := d.readPayload(int(size))
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// payloadWidth returns the width of the next payload received on pipe.
func (d *Device) payloadWidth(pipe Pipe) (byte, error) {
	feature, err := d.readRegister(RegFeature)
	if err != nil {
		return 0, err
	}
	dynpd, err := d.readRegister(RegDynPD)
	if err != nil {
		return 0, err
	}
	if Flag(feature, EnDPL) && Flag(dynpd, pipe.dynamicPayloadField()) {
		return d.getDynamicPayloadSize()
	}
	val, err := d.readRegister(pipe.rxPwRegister())
	return GetField(val, pipe.payloadWidthField()), err
}

// WaitForInterrupt blocks until the IRQ pin goes low (active) or the context is cancelled.
// It returns the content of the STATUS register.
// If the IRQ pin is not configured, it returns ErrIRQNotConfigured.
// After Close it returns ErrIRQNotConfigured as well.
// This method is concurrent safe.
func (d *Device) WaitForInterrupt(ctx context.Context) (Status, error) {
	d.mu.Lock()
	irq, irqChan := d.config.IRQ, d.irqChan
	d.mu.Unlock()
	if irq == nil || irqChan == nil {
		return 0, wrapErr(ErrIRQNotConfigured)
	}

	// Check if interrupt is already active (low = false)
	if irq.Read() == Low {
		return d.GetStatus()
	}

	// Wait for signal from the Watch callback or context
	select {
	case <-irqChan:
		return d.GetStatus()
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// ReceiveBlocking waits for a packet to arrive or for the context to be cancelled.
// It blocks efficiently using the IRQ pin if configured, or falls back to polling.
// This method is concurrent safe.
func (d *Device) ReceiveBlocking(ctx context.Context) ([]byte, error) {
	dataReady := false
	for {
		// Check for cancellation
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		// 1. Check if data is already available
		data, ok, err := d.Receive()
		if err != nil {
			return nil, err
		}
		if ok {
			return data, nil
		}
		if dataReady {
			// RX_DR is set but the FIFO is empty, e.g. after FlushRX
			if err := d.ClearRxInterrupt(); err != nil {
				return nil, err
			}
			dataReady = false
		}

		// 2. Wait for data
		if d.config.IRQ != nil {
			status, err := d.WaitForInterrupt(ctx)
			if err != nil {
				return nil, err
			}
			if status.DataReady() {
				// Loop again to call Receive() and fetch data
				dataReady = true
				continue
			}
			// If it was another interrupt (e.g. MaxRT), clear it so we don't get stuck
			if err := d.ClearTxInterrupt(); err != nil {
				return nil, err
			}
			continue
		}

		// Polling fallback
		timer := time.NewTimer(receivePollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
