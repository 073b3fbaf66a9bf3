package rf24

import "strconv"

// Register is the address of an nRF24L01+ register (0x00-0x1D).
type Register byte

// nRF24L01+ register map.
const (
	RegConfig     Register = 0x00 // CONFIG
	RegEnAA       Register = 0x01 // EN_AA
	RegEnRxAddr   Register = 0x02 // EN_RXADDR
	RegSetupAW    Register = 0x03 // SETUP_AW
	RegSetupRetr  Register = 0x04 // SETUP_RETR
	RegRFCh       Register = 0x05 // RF_CH
	RegRFSetup    Register = 0x06 // RF_SETUP
	RegStatus     Register = 0x07 // STATUS
	RegObserveTX  Register = 0x08 // OBSERVE_TX
	RegRPD        Register = 0x09 // RPD
	RegRxAddrP0   Register = 0x0A // RX_ADDR_P0
	RegRxAddrP1   Register = 0x0B // RX_ADDR_P1
	RegRxAddrP2   Register = 0x0C // RX_ADDR_P2
	RegRxAddrP3   Register = 0x0D // RX_ADDR_P3
	RegRxAddrP4   Register = 0x0E // RX_ADDR_P4
	RegRxAddrP5   Register = 0x0F // RX_ADDR_P5
	RegTxAddr     Register = 0x10 // TX_ADDR
	RegRxPwP0     Register = 0x11 // RX_PW_P0
	RegRxPwP1     Register = 0x12 // RX_PW_P1
	RegRxPwP2     Register = 0x13 // RX_PW_P2
	RegRxPwP3     Register = 0x14 // RX_PW_P3
	RegRxPwP4     Register = 0x15 // RX_PW_P4
	RegRxPwP5     Register = 0x16 // RX_PW_P5
	RegFIFOStatus Register = 0x17 // FIFO_STATUS
	RegDynPD      Register = 0x1C // DYNPD
	RegFeature    Register = 0x1D // FEATURE
)

// registerInfo describes one register. Byte registers have width 1; the
// address registers of pipes 0-1 and TX_ADDR are 5 bytes wide. A non-zero
// mask marks a bit-addressable register and lists the bits that may be set.
type registerInfo struct {
	name  string
	width int
	reset [5]byte
	mask  byte
}

var registers = [...]registerInfo{
	// CONFIG
	// 7 reserved, 6 MASK_RX_DR, 5 MASK_TX_DS, 4 MASK_MAX_RT, 3 EN_CRC, 2 CRCO,
	// 1 PWR_UP, 0 PRIM_RX
	RegConfig: {name: "CONFIG", width: 1, reset: [5]byte{0b00001000}, mask: 0b01111111},
	// 7:6 reserved, 5:0 ENAA_P5..ENAA_P0
	RegEnAA: {name: "EN_AA", width: 1, reset: [5]byte{0b00111111}, mask: 0b00111111},
	// 7:6 reserved, 5:0 ERX_P5..ERX_P0
	RegEnRxAddr: {name: "EN_RXADDR", width: 1, reset: [5]byte{0b00000011}, mask: 0b00111111},
	// 7:2 reserved, 1:0 AW ('01' 3 bytes, '10' 4 bytes, '11' 5 bytes)
	RegSetupAW: {name: "SETUP_AW", width: 1, reset: [5]byte{0b00000011}, mask: 0b00000011},
	// 7:4 ARD (250us steps), 3:0 ARC
	RegSetupRetr: {name: "SETUP_RETR", width: 1, reset: [5]byte{0b00000011}, mask: 0b11111111},
	// 7 reserved, 6:0 RF_CH
	RegRFCh: {name: "RF_CH", width: 1, reset: [5]byte{0b00000010}, mask: 0b01111111},
	// 7 CONT_WAVE, 6 reserved, 5 RF_DR_LOW, 4 PLL_LOCK, 3 RF_DR_HIGH, 2:1 RF_PWR, 0 obsolete
	RegRFSetup: {name: "RF_SETUP", width: 1, reset: [5]byte{0b00001110}, mask: 0b10111111},
	// 7 reserved, 6 RX_DR, 5 TX_DS, 4 MAX_RT, 3:1 RX_P_NO, 0 TX_FULL
	RegStatus: {name: "STATUS", width: 1, reset: [5]byte{0b00001110}, mask: 0b01111111},
	// 7:4 PLOS_CNT, 3:0 ARC_CNT
	RegObserveTX: {name: "OBSERVE_TX", width: 1, mask: 0b11111111},
	// 7:1 reserved, 0 RPD
	RegRPD:      {name: "RPD", width: 1, mask: 0b00000001},
	RegRxAddrP0: {name: "RX_ADDR_P0", width: 5, reset: [5]byte{0xE7, 0xE7, 0xE7, 0xE7, 0xE7}},
	RegRxAddrP1: {name: "RX_ADDR_P1", width: 5, reset: [5]byte{0xC2, 0xC2, 0xC2, 0xC2, 0xC2}},
	RegRxAddrP2: {name: "RX_ADDR_P2", width: 1, reset: [5]byte{0xC3}},
	RegRxAddrP3: {name: "RX_ADDR_P3", width: 1, reset: [5]byte{0xC4}},
	RegRxAddrP4: {name: "RX_ADDR_P4", width: 1, reset: [5]byte{0xC5}},
	RegRxAddrP5: {name: "RX_ADDR_P5", width: 1, reset: [5]byte{0xC6}},
	RegTxAddr:   {name: "TX_ADDR", width: 5, reset: [5]byte{0xE7, 0xE7, 0xE7, 0xE7, 0xE7}},
	// 7:6 reserved, 5:0 RX_PW_Px (0 = pipe not used, 1..32 bytes)
	RegRxPwP0: {name: "RX_PW_P0", width: 1, mask: 0b00111111},
	RegRxPwP1: {name: "RX_PW_P1", width: 1, mask: 0b00111111},
	RegRxPwP2: {name: "RX_PW_P2", width: 1, mask: 0b00111111},
	RegRxPwP3: {name: "RX_PW_P3", width: 1, mask: 0b00111111},
	RegRxPwP4: {name: "RX_PW_P4", width: 1, mask: 0b00111111},
	RegRxPwP5: {name: "RX_PW_P5", width: 1, mask: 0b00111111},
	// 7 reserved, 6 TX_REUSE, 5 TX_FULL, 4 TX_EMPTY, 3:2 reserved, 1 RX_FULL, 0 RX_EMPTY
	RegFIFOStatus: {name: "FIFO_STATUS", width: 1, reset: [5]byte{0b00010001}, mask: 0b01110011},
	// 7:6 reserved, 5:0 DPL_P5..DPL_P0
	RegDynPD: {name: "DYNPD", width: 1, mask: 0b00111111},
	// 7:3 reserved, 2 EN_DPL, 1 EN_ACK_PAY, 0 EN_DYN_ACK
	RegFeature: {name: "FEATURE", width: 1, mask: 0b00000111},
}

// Valid reports whether r is one of the 26 addresses in the register map.
func (r Register) Valid() bool {
	return int(r) < len(registers) && registers[r].width != 0
}

func (r Register) info() registerInfo {
	if !r.Valid() {
		return registerInfo{}
	}
	return registers[r]
}

// Name returns the datasheet mnemonic of the register.
func (r Register) Name() string {
	if !r.Valid() {
		return "REG(0x" + strconv.FormatUint(uint64(r), 16) + ")"
	}
	return registers[r].name
}

func (r Register) String() string { return r.Name() }

// Width returns the register length in bytes.
func (r Register) Width() int { return r.info().width }

// Reset returns a fresh copy of the register reset value.
func (r Register) Reset() []byte {
	info := r.info()
	out := make([]byte, info.width)
	copy(out, info.reset[:info.width])
	return out
}

// ResetValue returns the reset value of a byte register.
func (r Register) ResetValue() byte { return r.info().reset[0] }

// Mask returns the bits that may legally be set and whether the register is
// bit-addressable at all.
func (r Register) Mask() (byte, bool) {
	info := r.info()
	return info.mask, info.width == 1 && info.mask != 0
}

// Field identifies a named sub-field of a bit-addressable register.
type Field uint8

// CONFIG fields.
const (
	MaskRxDR Field = iota
	MaskTxDS
	MaskMaxRT
	EnCRC
	CRCO
	PwrUp
	PrimRx

	// EN_AA
	EnAAP0
	EnAAP1
	EnAAP2
	EnAAP3
	EnAAP4
	EnAAP5

	// EN_RXADDR
	ERxP0
	ERxP1
	ERxP2
	ERxP3
	ERxP4
	ERxP5

	// SETUP_AW
	AW

	// SETUP_RETR
	ARD
	ARC

	// RF_CH
	RFChannel

	// RF_SETUP
	ContWave
	RFDRLow
	PLLLock
	RFDRHigh
	RFPwr

	// STATUS
	RxDR
	TxDS
	MaxRT
	RxPNo
	StatusTxFull

	// OBSERVE_TX
	PLOSCnt
	ARCCnt

	// RPD
	RPDFlag

	// RX_PW_P0..RX_PW_P5
	RxPwP0
	RxPwP1
	RxPwP2
	RxPwP3
	RxPwP4
	RxPwP5

	// FIFO_STATUS
	TxReuse
	FIFOTxFull
	TxEmpty
	RxFull
	RxEmpty

	// DYNPD
	DplP0
	DplP1
	DplP2
	DplP3
	DplP4
	DplP5

	// FEATURE
	EnDPL
	EnAckPay
	EnDynAck

	numFields
)

// fieldInfo is the descriptor of a register sub-field. The mask is contiguous
// from bit 0 and is applied after shifting the register value right by shift.
type fieldInfo struct {
	name  string
	reg   Register
	shift uint8
	mask  byte
	reset byte
}

var fields = [numFields]fieldInfo{
	MaskRxDR:  {"MASK_RX_DR", RegConfig, 6, 0b1, 0},
	MaskTxDS:  {"MASK_TX_DS", RegConfig, 5, 0b1, 0},
	MaskMaxRT: {"MASK_MAX_RT", RegConfig, 4, 0b1, 0},
	EnCRC:     {"EN_CRC", RegConfig, 3, 0b1, 1},
	CRCO:      {"CRCO", RegConfig, 2, 0b1, 0},
	PwrUp:     {"PWR_UP", RegConfig, 1, 0b1, 0},
	PrimRx:    {"PRIM_RX", RegConfig, 0, 0b1, 0},

	EnAAP0: {"ENAA_P0", RegEnAA, 0, 0b1, 1},
	EnAAP1: {"ENAA_P1", RegEnAA, 1, 0b1, 1},
	EnAAP2: {"ENAA_P2", RegEnAA, 2, 0b1, 1},
	EnAAP3: {"ENAA_P3", RegEnAA, 3, 0b1, 1},
	EnAAP4: {"ENAA_P4", RegEnAA, 4, 0b1, 1},
	EnAAP5: {"ENAA_P5", RegEnAA, 5, 0b1, 1},

	ERxP0: {"ERX_P0", RegEnRxAddr, 0, 0b1, 1},
	ERxP1: {"ERX_P1", RegEnRxAddr, 1, 0b1, 1},
	ERxP2: {"ERX_P2", RegEnRxAddr, 2, 0b1, 0},
	ERxP3: {"ERX_P3", RegEnRxAddr, 3, 0b1, 0},
	ERxP4: {"ERX_P4", RegEnRxAddr, 4, 0b1, 0},
	ERxP5: {"ERX_P5", RegEnRxAddr, 5, 0b1, 0},

	AW: {"AW", RegSetupAW, 0, 0b11, 0b11},

	ARD: {"ARD", RegSetupRetr, 4, 0b1111, 0b0000},
	ARC: {"ARC", RegSetupRetr, 0, 0b1111, 0b0011},

	RFChannel: {"RF_CH", RegRFCh, 0, 0b1111111, 0b10},

	ContWave: {"CONT_WAVE", RegRFSetup, 7, 0b1, 0},
	RFDRLow:  {"RF_DR_LOW", RegRFSetup, 5, 0b1, 0},
	PLLLock:  {"PLL_LOCK", RegRFSetup, 4, 0b1, 0},
	RFDRHigh: {"RF_DR_HIGH", RegRFSetup, 3, 0b1, 1},
	RFPwr:    {"RF_PWR", RegRFSetup, 1, 0b11, 0b11},

	RxDR:         {"RX_DR", RegStatus, 6, 0b1, 0},
	TxDS:         {"TX_DS", RegStatus, 5, 0b1, 0},
	MaxRT:        {"MAX_RT", RegStatus, 4, 0b1, 0},
	RxPNo:        {"RX_P_NO", RegStatus, 1, 0b111, 0b111},
	StatusTxFull: {"TX_FULL", RegStatus, 0, 0b1, 0},

	PLOSCnt: {"PLOS_CNT", RegObserveTX, 4, 0b1111, 0},
	ARCCnt:  {"ARC_CNT", RegObserveTX, 0, 0b1111, 0},

	RPDFlag: {"RPD", RegRPD, 0, 0b1, 0},

	RxPwP0: {"RX_PW_P0", RegRxPwP0, 0, 0b111111, 0},
	RxPwP1: {"RX_PW_P1", RegRxPwP1, 0, 0b111111, 0},
	RxPwP2: {"RX_PW_P2", RegRxPwP2, 0, 0b111111, 0},
	RxPwP3: {"RX_PW_P3", RegRxPwP3, 0, 0b111111, 0},
	RxPwP4: {"RX_PW_P4", RegRxPwP4, 0, 0b111111, 0},
	RxPwP5: {"RX_PW_P5", RegRxPwP5, 0, 0b111111, 0},

	TxReuse:    {"TX_REUSE", RegFIFOStatus, 6, 0b1, 0},
	FIFOTxFull: {"TX_FULL", RegFIFOStatus, 5, 0b1, 0},
	TxEmpty:    {"TX_EMPTY", RegFIFOStatus, 4, 0b1, 1},
	RxFull:     {"RX_FULL", RegFIFOStatus, 1, 0b1, 0},
	RxEmpty:    {"RX_EMPTY", RegFIFOStatus, 0, 0b1, 1},

	DplP0: {"DPL_P0", RegDynPD, 0, 0b1, 0},
	DplP1: {"DPL_P1", RegDynPD, 1, 0b1, 0},
	DplP2: {"DPL_P2", RegDynPD, 2, 0b1, 0},
	DplP3: {"DPL_P3", RegDynPD, 3, 0b1, 0},
	DplP4: {"DPL_P4", RegDynPD, 4, 0b1, 0},
	DplP5: {"DPL_P5", RegDynPD, 5, 0b1, 0},

	EnDPL:    {"EN_DPL", RegFeature, 2, 0b1, 0},
	EnAckPay: {"EN_ACK_PAY", RegFeature, 1, 0b1, 0},
	EnDynAck: {"EN_DYN_ACK", RegFeature, 0, 0b1, 0},
}

func (f Field) info() fieldInfo {
	if f >= numFields {
		return fieldInfo{}
	}
	return fields[f]
}

// Name returns the datasheet mnemonic of the field.
func (f Field) Name() string {
	if f >= numFields {
		return "FIELD(" + strconv.Itoa(int(f)) + ")"
	}
	return fields[f].name
}

// String returns REGISTER.FIELD, e.g. CONFIG.PWR_UP.
func (f Field) String() string {
	if f >= numFields {
		return f.Name()
	}
	return fields[f].reg.Name() + "." + fields[f].name
}

// Register returns the register the field belongs to.
func (f Field) Register() Register { return f.info().reg }

// Shift returns the position of the field's least significant bit.
func (f Field) Shift() uint8 { return f.info().shift }

// Mask returns the unshifted field mask.
func (f Field) Mask() byte { return f.info().mask }

// ResetValue returns the field's value after a chip reset.
func (f Field) ResetValue() byte { return f.info().reset }

// Pipe is an RX data pipe index (0-5).
type Pipe uint8

const (
	P0 Pipe = iota
	P1
	P2
	P3
	P4
	P5
)

// NumPipes is the number of RX data pipes.
const NumPipes = 6

// Pipes lists all data pipes in order.
var Pipes = [NumPipes]Pipe{P0, P1, P2, P3, P4, P5}

// Valid reports whether p is in 0..5.
func (p Pipe) Valid() bool { return p < NumPipes }

// Mask returns the pipe's bit in EN_AA, EN_RXADDR and DYNPD.
func (p Pipe) Mask() byte { return 1 << p }

func (p Pipe) String() string { return "P" + strconv.Itoa(int(p)) }

func (p Pipe) rxAddrRegister() Register { return RegRxAddrP0 + Register(p) }
func (p Pipe) rxPwRegister() Register   { return RegRxPwP0 + Register(p) }
func (p Pipe) autoAckField() Field      { return EnAAP0 + Field(p) }
func (p Pipe) enableField() Field       { return ERxP0 + Field(p) }
func (p Pipe) dynamicPayloadField() Field {
	return DplP0 + Field(p)
}
func (p Pipe) payloadWidthField() Field { return RxPwP0 + Field(p) }

// Status is the value of the STATUS register, returned as the first byte of
// every SPI transaction.
type Status byte

// DataReady reports RX_DR (data arrived in the RX FIFO).
func (s Status) DataReady() bool { return Flag(byte(s), RxDR) }

// DataSent reports TX_DS (packet transmitted, acknowledged if auto-ack is on).
func (s Status) DataSent() bool { return Flag(byte(s), TxDS) }

// MaxRetries reports MAX_RT (auto-retransmit count exhausted).
func (s Status) MaxRetries() bool { return Flag(byte(s), MaxRT) }

// TxFull reports whether the TX FIFO is full.
func (s Status) TxFull() bool { return Flag(byte(s), StatusTxFull) }

// RxPipe returns the pipe of the payload at the head of the RX FIFO or -1
// when the RX FIFO is empty.
func (s Status) RxPipe() int {
	n := int(GetField(byte(s), RxPNo))
	if n >= NumPipes {
		return -1
	}
	return n
}

func (s Status) String() string {
	str := "["
	if s.DataReady() {
		str += "RX_DR "
	}
	if s.DataSent() {
		str += "TX_DS "
	}
	if s.MaxRetries() {
		str += "MAX_RT "
	}
	if s.TxFull() {
		str += "TX_FULL "
	}
	if p := s.RxPipe(); p >= 0 {
		str += "RX_P_NO:" + strconv.Itoa(p)
	} else {
		str += "RX_EMPTY"
	}
	return str + "]"
}
