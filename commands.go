package rf24

import "strconv"

// Command is an nRF24L01+ SPI instruction.
type Command uint8

const (
	CmdRRegister Command = iota
	CmdWRegister
	CmdRRxPayload
	CmdWTxPayload
	CmdFlushTx
	CmdFlushRx
	CmdReuseTxPl
	CmdRRxPlWid
	CmdWAckPayload
	CmdWTxPayloadNoAck
	CmdNOP

	numCommands
)

// MaxPayloadSize is the size of one FIFO slot.
const MaxPayloadSize = 32

// commandInfo describes the opcode and the number of data bytes that may
// follow it on the bus. Commands with an argMask carry an argument (register
// address or pipe number) in the low opcode bits.
type commandInfo struct {
	name    string
	opcode  byte
	argMask byte
	min     int
	max     int
}

var commands = [numCommands]commandInfo{
	CmdRRegister:       {"R_REGISTER", 0b0000_0000, 0b1_1111, 1, 5},
	CmdWRegister:       {"W_REGISTER", 0b0010_0000, 0b1_1111, 1, 5},
	CmdRRxPayload:      {"R_RX_PAYLOAD", 0b0110_0001, 0, 1, MaxPayloadSize},
	CmdWTxPayload:      {"W_TX_PAYLOAD", 0b1010_0000, 0, 1, MaxPayloadSize},
	CmdFlushTx:         {"FLUSH_TX", 0b1110_0001, 0, 0, 0},
	CmdFlushRx:         {"FLUSH_RX", 0b1110_0010, 0, 0, 0},
	CmdReuseTxPl:       {"REUSE_TX_PL", 0b1110_0011, 0, 0, 0},
	CmdRRxPlWid:        {"R_RX_PL_WID", 0b0110_0000, 0, 1, 1},
	CmdWAckPayload:     {"W_ACK_PAYLOAD", 0b1010_1000, 0b111, 1, MaxPayloadSize},
	CmdWTxPayloadNoAck: {"W_TX_PAYLOAD_NOACK", 0b1011_0000, 0, 1, MaxPayloadSize},
	CmdNOP:             {"NOP", 0b1111_1111, 0, 0, 0},
}

func (c Command) info() commandInfo {
	if c >= numCommands {
		return commandInfo{name: "CMD(" + strconv.Itoa(int(c)) + ")"}
	}
	return commands[c]
}

func (c Command) String() string { return c.info().name }

// Opcode returns the instruction byte. For R_REGISTER and W_REGISTER arg is the
// register address; for W_ACK_PAYLOAD it is the pipe number. Other commands
// ignore arg.
func (c Command) Opcode(arg byte) byte {
	info := c.info()
	return info.opcode | arg&info.argMask
}

// DataLength returns the accepted range of data bytes following the opcode.
func (c Command) DataLength() (lo, hi int) {
	info := c.info()
	return info.min, info.max
}

// CheckDataLength fails with a *CommandLengthError when n data bytes may not
// accompany the command.
func (c Command) CheckDataLength(n int) error {
	info := c.info()
	if n < info.min || n > info.max {
		return &CommandLengthError{Command: c, Length: n, Min: info.min, Max: info.max}
	}
	return nil
}
