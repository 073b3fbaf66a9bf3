package rf24

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// --- Simulated nRF24L01+ ---

type simOutcome int

const (
	simAcked simOutcome = iota
	simMaxRetries
	simSilent
)

type simPacket struct {
	pipe int
	data []byte
}

// simChip is an in-memory nRF24L01+ register file. It implements SPI and is
// also used as the CE pin: a rising CE edge in TX mode resolves the head of
// the TX FIFO according to outcome.
type simChip struct {
	mu sync.Mutex

	regs map[Register][]byte
	irq  byte // RX_DR | TX_DS | MAX_RT
	rx   []simPacket
	tx   [][]byte
	ack  [][]byte
	ce   Level

	outcome  simOutcome
	ackReply []byte // pushed to the RX FIFO on an acknowledged send
	plWid    int    // overrides R_RX_PL_WID when > 0
	failOp   int    // opcode that fails with failErr, -1 for none
	failErr  error

	events       []string // frames in hex and CE changes, in order
	frames       [][]byte
	trace        []byte
	nops         int
	pollsAfterCE int
	pulses       int
	statusWrites []byte
	flushTX      int
	flushRX      int
}

func newSimChip() *simChip {
	s := &simChip{regs: map[Register][]byte{}, failOp: -1}
	for r := RegConfig; r <= RegFeature; r++ {
		if r.Valid() {
			s.regs[r] = r.Reset()
		}
	}
	return s
}

func (s *simChip) status() byte {
	st := s.irq
	pipe := byte(7)
	if len(s.rx) > 0 {
		pipe = byte(s.rx[0].pipe)
	}
	st |= pipe << 1
	if len(s.tx) >= 3 {
		st |= 1
	}
	return st
}

func (s *simChip) fifoStatus() byte {
	var v byte
	if len(s.tx) == 0 {
		v |= 1 << 4
	}
	if len(s.tx) >= 3 {
		v |= 1 << 5
	}
	if len(s.rx) == 0 {
		v |= 1 << 0
	}
	if len(s.rx) >= 3 {
		v |= 1 << 1
	}
	return v
}

func (s *simChip) read(r Register) []byte {
	switch r {
	case RegStatus:
		return []byte{s.status()}
	case RegFIFOStatus:
		return []byte{s.fifoStatus()}
	}
	if v, ok := s.regs[r]; ok {
		return v
	}
	return []byte{0}
}

func (s *simChip) write(r Register, data []byte) {
	switch r {
	case RegStatus:
		s.statusWrites = append(s.statusWrites, data[0])
		s.irq &^= data[0] & 0x70
	case RegFIFOStatus, RegObserveTX, RegRPD:
		// read-only
	default:
		if v, ok := s.regs[r]; ok {
			copy(v, data)
		}
	}
}

func (s *simChip) Tx(w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	frame := append([]byte(nil), w...)
	if len(frame) == 0 {
		return nil
	}
	op := frame[0]
	// Status polling loops are recorded once
	if !(op == 0xFF && s.lastFrameIsNOP()) {
		s.frames = append(s.frames, frame)
		s.trace = append(s.trace, frame...)
		s.events = append(s.events, fmt.Sprintf("% X", frame))
	}
	if s.failErr != nil && int(op) == s.failOp {
		return s.failErr
	}

	resp := make([]byte, len(frame))
	resp[0] = s.status()
	data := frame[1:]
	switch {
	case op <= 0x1F:
		copy(resp[1:], s.read(Register(op&0x1F)))
	case op <= 0x3F:
		s.write(Register(op&0x1F), data)
	case op == 0x60:
		width := 0
		if len(s.rx) > 0 {
			width = len(s.rx[0].data)
		}
		if s.plWid > 0 {
			width = s.plWid
		}
		if len(resp) > 1 {
			resp[1] = byte(width)
		}
	case op == 0x61:
		if len(s.rx) > 0 {
			copy(resp[1:], s.rx[0].data)
			s.rx = s.rx[1:]
		}
	case op == 0xA0, op == 0xB0:
		if len(s.tx) < 3 {
			s.tx = append(s.tx, append([]byte(nil), data...))
		}
	case op >= 0xA8 && op <= 0xAD:
		s.ack = append(s.ack, append([]byte(nil), data...))
	case op == 0xE1:
		s.tx = nil
		s.flushTX++
	case op == 0xE2:
		s.rx = nil
		s.flushRX++
	case op == 0xFF:
		s.nops++
		s.pollsAfterCE++
	}
	copy(r, resp)
	return nil
}

func (s *simChip) lastFrameIsNOP() bool {
	if len(s.frames) == 0 {
		return false
	}
	last := s.frames[len(s.frames)-1]
	return len(last) == 1 && last[0] == 0xFF
}

// receive puts a packet in the RX FIFO as if it arrived on pipe.
func (s *simChip) receive(pipe int, data string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rx = append(s.rx, simPacket{pipe: pipe, data: []byte(data)})
	s.irq |= 0x40
}

func (s *simChip) reg(r Register) byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(r)[0]
}

func (s *simChip) regBytes(r Register) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.read(r)...)
}

func (s *simChip) setReg(r Register, v byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs[r][0] = v
}

// resetTrace drops everything recorded so far.
func (s *simChip) resetTrace() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events, s.frames, s.trace = nil, nil, nil
	s.nops, s.pollsAfterCE, s.pulses = 0, 0, 0
	s.statusWrites = nil
	s.flushTX, s.flushRX = 0, 0
}

func (s *simChip) countStatusWrites(v byte) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, w := range s.statusWrites {
		if w == v {
			n++
		}
	}
	return n
}

// CE pin

func (s *simChip) Out(l Level) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rising := l == High && s.ce == Low
	s.ce = l
	if l == High {
		s.events = append(s.events, "CE:high")
	} else {
		s.events = append(s.events, "CE:low")
	}
	if rising {
		s.startTX()
	}
	return nil
}

func (s *simChip) startTX() {
	config := s.regs[RegConfig][0]
	primRX, pwrUp := config&0x01 != 0, config&0x02 != 0
	if primRX || !pwrUp || len(s.tx) == 0 {
		return
	}
	s.pulses++
	s.pollsAfterCE = 0
	switch s.outcome {
	case simAcked:
		s.tx = s.tx[1:]
		s.irq |= 0x20
		if s.ackReply != nil && s.regs[RegFeature][0]&0x02 != 0 {
			s.rx = append(s.rx, simPacket{pipe: 0, data: append([]byte(nil), s.ackReply...)})
			s.irq |= 0x40
		}
	case simMaxRetries:
		s.irq |= 0x10
	}
}

func (s *simChip) Read() Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ce
}

func (s *simChip) In(pull Pull) error                    { return nil }
func (s *simChip) Watch(edge Edge, handler func()) error { return nil }
func (s *simChip) Unwatch() error                        { return nil }

// --- Helpers ---

func newTestDevice(t *testing.T, c RadioConfig) (*Device, *simChip) {
	t.Helper()
	sim := newSimChip()
	dev, err := NewWithHardware(HardwareConfig{RadioConfig: c, CE: sim}, sim)
	if err != nil {
		t.Fatalf("NewWithHardware failed: %v", err)
	}
	sim.resetTrace()
	return dev, sim
}

// recordSleeps replaces the device delay with a recorder.
func recordSleeps(dev *Device) *[]time.Duration {
	var sleeps []time.Duration
	dev.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return &sleeps
}

// simIRQPin is an IRQ line driven by the simulated chip: it reads Low while
// any of RX_DR, TX_DS or MAX_RT is set.
type simIRQPin struct {
	*mockPin
	sim *simChip
}

func (p simIRQPin) Read() Level {
	p.sim.mu.Lock()
	defer p.sim.mu.Unlock()
	if p.sim.irq&0x70 != 0 {
		return Low
	}
	return High
}
