package rf24

import (
	"errors"
	"testing"
)

func TestRegisterTable(t *testing.T) {
	valid := 0
	for r := Register(0); r < 0x20; r++ {
		if !r.Valid() {
			if r.Width() != 0 {
				t.Errorf("%s: invalid register with width %d", r, r.Width())
			}
			continue
		}
		valid++
		if w := r.Width(); w != 1 && w != 5 {
			t.Errorf("%s: unexpected width %d", r, w)
		}
		if len(r.Reset()) != r.Width() {
			t.Errorf("%s: reset value has %d bytes, width is %d", r, len(r.Reset()), r.Width())
		}
		if mask, ok := r.Mask(); ok && r.ResetValue()&^mask != 0 {
			t.Errorf("%s: reset value %08b sets bits outside mask %08b", r, r.ResetValue(), mask)
		}
	}
	if valid != 26 {
		t.Errorf("Expected 26 registers, got %d", valid)
	}
	if RegFeature.Name() != "FEATURE" || RegRxAddrP0.String() != "RX_ADDR_P0" {
		t.Errorf("Unexpected register names: %s %s", RegFeature, RegRxAddrP0)
	}
	if Register(0x18).Name() != "REG(0x18)" {
		t.Errorf("Expected REG(0x18), got %s", Register(0x18).Name())
	}
}

func TestRegisterResetIsACopy(t *testing.T) {
	reset := RegTxAddr.Reset()
	reset[0] = 0x00
	if got := RegTxAddr.Reset(); got[0] != 0xE7 {
		t.Errorf("Expected the reset table to be unchanged, got %X", got)
	}
}

func TestFieldTable(t *testing.T) {
	resets := map[Register]byte{}
	for f := Field(0); f < numFields; f++ {
		r := f.Register()
		mask, ok := r.Mask()
		if !ok {
			t.Errorf("%s: register %s is not bit-addressable", f, r)
			continue
		}
		if m := f.Mask(); m == 0 || m&(m+1) != 0 {
			t.Errorf("%s: mask %08b is not contiguous from bit 0", f, m)
		}
		placed := f.Mask() << f.Shift()
		if placed&^mask != 0 {
			t.Errorf("%s: bits %08b outside register mask %08b", f, placed, mask)
		}
		if placed>>f.Shift() != f.Mask() {
			t.Errorf("%s: field overflows the register", f)
		}
		if f.ResetValue()&^f.Mask() != 0 {
			t.Errorf("%s: reset value %b does not fit mask %b", f, f.ResetValue(), f.Mask())
		}
		resets[r] |= f.ResetValue() << f.Shift()
	}
	for r, v := range resets {
		if v != r.ResetValue() {
			t.Errorf("%s: field resets give %08b, register reset is %08b", r, v, r.ResetValue())
		}
	}
	if PwrUp.String() != "CONFIG.PWR_UP" {
		t.Errorf("Expected CONFIG.PWR_UP, got %s", PwrUp)
	}
	if FIFOTxFull.String() != "FIFO_STATUS.TX_FULL" || StatusTxFull.String() != "STATUS.TX_FULL" {
		t.Errorf("Unexpected TX_FULL names: %s %s", FIFOTxFull, StatusTxFull)
	}
}

func TestPipeHelpers(t *testing.T) {
	for _, p := range Pipes {
		if p.autoAckField().Register() != RegEnAA || p.autoAckField().Shift() != uint8(p) {
			t.Errorf("%s: wrong EN_AA field", p)
		}
		if p.enableField().Register() != RegEnRxAddr || p.enableField().Shift() != uint8(p) {
			t.Errorf("%s: wrong EN_RXADDR field", p)
		}
		if p.dynamicPayloadField().Register() != RegDynPD || p.dynamicPayloadField().Shift() != uint8(p) {
			t.Errorf("%s: wrong DYNPD field", p)
		}
		if p.payloadWidthField().Register() != p.rxPwRegister() {
			t.Errorf("%s: payload width field not in %s", p, p.rxPwRegister())
		}
		if p.Mask() != 1<<p {
			t.Errorf("%s: mask %08b", p, p.Mask())
		}
	}
	if P3.rxAddrRegister() != RegRxAddrP3 || P5.rxPwRegister() != RegRxPwP5 {
		t.Errorf("Unexpected pipe registers")
	}
	if Pipe(6).Valid() || !P5.Valid() {
		t.Errorf("Expected pipes 0-5 to be valid")
	}
	if P2.String() != "P2" {
		t.Errorf("Expected P2, got %s", P2)
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		status Status
		ready  bool
		sent   bool
		maxRT  bool
		full   bool
		pipe   int
		str    string
	}{
		{0x0E, false, false, false, false, -1, "[RX_EMPTY]"},
		{0x40 | 2<<1, true, false, false, false, 2, "[RX_DR RX_P_NO:2]"},
		{0x20 | 0x0E, false, true, false, false, -1, "[TX_DS RX_EMPTY]"},
		{0x10 | 0x0E | 0x01, false, false, true, true, -1, "[MAX_RT TX_FULL RX_EMPTY]"},
		{0x0C, false, false, false, false, -1, "[RX_EMPTY]"}, // 110 is unused
	}
	for _, tt := range tests {
		s := tt.status
		if s.DataReady() != tt.ready || s.DataSent() != tt.sent || s.MaxRetries() != tt.maxRT || s.TxFull() != tt.full {
			t.Errorf("%#02x: unexpected flags %s", byte(s), s)
		}
		if s.RxPipe() != tt.pipe {
			t.Errorf("%#02x: expected pipe %d, got %d", byte(s), tt.pipe, s.RxPipe())
		}
		if s.String() != tt.str {
			t.Errorf("%#02x: expected %s, got %s", byte(s), tt.str, s)
		}
	}
}

func TestGetSetField(t *testing.T) {
	for f := Field(0); f < numFields; f++ {
		for value := 0; value < 256; value++ {
			for v := byte(0); v <= f.Mask(); v++ {
				out, err := SetField(byte(value), f, v)
				if err != nil {
					t.Fatalf("SetField(%08b, %s, %d) failed: %v", value, f, v, err)
				}
				if got := GetField(out, f); got != v {
					t.Fatalf("SetField(%08b, %s, %d): read back %d", value, f, v, got)
				}
				// Bits outside the field are untouched
				outside := ^(f.Mask() << f.Shift())
				if out&outside != byte(value)&outside {
					t.Fatalf("SetField(%08b, %s, %d) changed other bits: %08b", value, f, v, out)
				}
			}
		}
	}
}

func TestSetFieldOverflow(t *testing.T) {
	out, err := SetField(0x0F, AW, 4)
	var maskErr *FieldMaskError
	if !errors.As(err, &maskErr) {
		t.Fatalf("Expected FieldMaskError, got %v", err)
	}
	if maskErr.Field != AW || maskErr.Value != 4 {
		t.Errorf("Unexpected error content: %+v", maskErr)
	}
	if out != 0x0F {
		t.Errorf("Expected the value to be returned unchanged, got %#02x", out)
	}
}

func TestSetFlag(t *testing.T) {
	v, err := SetFlag(0x08, PwrUp, true)
	if err != nil || v != 0x0A {
		t.Errorf("Expected 0x0A, got %#02x %v", v, err)
	}
	if !Flag(v, PwrUp) || Flag(v, PrimRx) {
		t.Errorf("Unexpected flags in %#02x", v)
	}
	v, err = SetFlag(v, EnCRC, false)
	if err != nil || v != 0x02 {
		t.Errorf("Expected 0x02, got %#02x %v", v, err)
	}
	if _, err := SetFlag(0, RFPwr, true); !errors.Is(err, ErrNotFlag) {
		t.Errorf("Expected ErrNotFlag for a two bit field, got %v", err)
	}
}

func TestResetField(t *testing.T) {
	tests := []struct {
		value byte
		field Field
		want  byte
	}{
		{0x00, AW, 0x03},
		{0x7F, RFChannel, 0x02},
		{0x00, ARC, 0x03},
		{0xFF, ARD, 0x0F},
		{0x00, RFPwr, 0x06},
	}
	for _, tt := range tests {
		got, err := ResetField(tt.value, tt.field)
		if err != nil {
			t.Errorf("ResetField(%s) failed: %v", tt.field, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ResetField(%#02x, %s): expected %#02x, got %#02x", tt.value, tt.field, tt.want, got)
		}
	}
}

func TestCheckRegisterMask(t *testing.T) {
	tests := []struct {
		reg   Register
		value byte
		ok    bool
	}{
		{RegConfig, 0x7F, true},
		{RegConfig, 0x80, false},
		{RegFeature, 0x07, true},
		{RegFeature, 0x08, false},
		{RegRFSetup, 0x40, false},
		{RegSetupRetr, 0xFF, true},
		{RegRxAddrP2, 0xFF, true}, // not bit-addressable
		{RegTxAddr, 0xFF, true},
	}
	for _, tt := range tests {
		err := CheckRegisterMask(tt.reg, tt.value)
		if tt.ok && err != nil {
			t.Errorf("%s %08b: unexpected error %v", tt.reg, tt.value, err)
		}
		if !tt.ok {
			var maskErr *RegisterMaskError
			if !errors.As(err, &maskErr) {
				t.Errorf("%s %08b: expected RegisterMaskError, got %v", tt.reg, tt.value, err)
			}
		}
	}
}
