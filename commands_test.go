package rf24

import (
	"errors"
	"testing"
)

func TestCommandOpcodes(t *testing.T) {
	tests := []struct {
		cmd  Command
		arg  byte
		want byte
	}{
		{CmdRRegister, byte(RegSetupRetr), 0x04},
		{CmdWRegister, byte(RegSetupAW), 0x23},
		{CmdWRegister, byte(RegConfig), 0x20},
		{CmdWRegister, byte(RegFeature), 0x3D},
		{CmdRRxPayload, 0, 0x61},
		{CmdWTxPayload, 0, 0xA0},
		{CmdFlushTx, 0, 0xE1},
		{CmdFlushRx, 0, 0xE2},
		{CmdReuseTxPl, 0, 0xE3},
		{CmdRRxPlWid, 0, 0x60},
		{CmdWAckPayload, 5, 0xAD},
		{CmdWAckPayload, 0, 0xA8},
		{CmdWTxPayloadNoAck, 0, 0xB0},
		{CmdNOP, 0, 0xFF},
		// Arguments are masked to the command's argument bits
		{CmdRRegister, 0x22, 0x02},
		{CmdNOP, 0x12, 0xFF},
	}
	for _, tt := range tests {
		if got := tt.cmd.Opcode(tt.arg); got != tt.want {
			t.Errorf("%s(%#02x): expected %#02x, got %#02x", tt.cmd, tt.arg, tt.want, got)
		}
	}
}

func TestCommandDataLength(t *testing.T) {
	tests := []struct {
		cmd Command
		n   int
		ok  bool
	}{
		{CmdWTxPayload, 0, false},
		{CmdWTxPayload, 1, true},
		{CmdWTxPayload, 32, true},
		{CmdWTxPayload, 33, false},
		{CmdRRegister, 5, true},
		{CmdWRegister, 6, false},
		{CmdFlushTx, 0, true},
		{CmdFlushRx, 1, false},
		{CmdNOP, 0, true},
		{CmdRRxPlWid, 1, true},
		{CmdRRxPlWid, 2, false},
	}
	for _, tt := range tests {
		err := tt.cmd.CheckDataLength(tt.n)
		if tt.ok {
			if err != nil {
				t.Errorf("%s with %d bytes: unexpected error %v", tt.cmd, tt.n, err)
			}
			continue
		}
		var lenErr *CommandLengthError
		if !errors.As(err, &lenErr) {
			t.Errorf("%s with %d bytes: expected CommandLengthError, got %v", tt.cmd, tt.n, err)
			continue
		}
		lo, hi := tt.cmd.DataLength()
		if lenErr.Command != tt.cmd || lenErr.Length != tt.n || lenErr.Min != lo || lenErr.Max != hi {
			t.Errorf("Unexpected error content: %+v", lenErr)
		}
		if !errors.Is(err, ErrInvalidConfig) || !errors.Is(err, ErrPkg) {
			t.Errorf("Expected CommandLengthError to match ErrInvalidConfig and ErrPkg")
		}
	}
}

func TestCommandNames(t *testing.T) {
	if CmdWTxPayloadNoAck.String() != "W_TX_PAYLOAD_NOACK" {
		t.Errorf("Expected W_TX_PAYLOAD_NOACK, got %s", CmdWTxPayloadNoAck)
	}
	if Command(42).String() != "CMD(42)" {
		t.Errorf("Expected CMD(42), got %s", Command(42))
	}
}
