package rf24

import (
	"errors"
	"fmt"
)

var (
	ErrPkg               = errors.New("rf24")
	ErrMaxRetries        = errors.New("max retransmissions reached")
	ErrTimeout           = errors.New("timeout waiting for device")
	ErrRxFifoOversize    = errors.New("rx fifo payload width exceeds 32 bytes")
	ErrInvalidMode       = errors.New("operation not allowed in current mode")
	ErrFeatureNotEnabled = errors.New("feature not enabled")
	ErrInvalidPipe       = errors.New("pipe must be between 0 and 5")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrNotFlag           = errors.New("field is not a single bit flag")
	ErrNotDetected       = errors.New("radio not detected, check wiring/power")
	ErrIRQNotConfigured  = errors.New("IRQ pin not configured")
)

// CommandLengthError is returned when a command is issued with a number of
// data bytes outside its accepted range. It is detected before any bus I/O.
type CommandLengthError struct {
	Command Command
	Length  int
	Min     int
	Max     int
}

func (e *CommandLengthError) Error() string {
	return fmt.Sprintf("rf24: %s: data length %d outside [%d,%d]", e.Command, e.Length, e.Min, e.Max)
}

func (e *CommandLengthError) Unwrap() []error { return []error{ErrPkg, ErrInvalidConfig} }

// FieldMaskError is returned when a value does not fit a register field.
type FieldMaskError struct {
	Field Field
	Value byte
}

func (e *FieldMaskError) Error() string {
	return fmt.Sprintf("rf24: value %#02x does not fit field %s (mask %#02x)", e.Value, e.Field, e.Field.Mask())
}

// RegisterMaskError is returned when a value sets reserved bits of a register.
type RegisterMaskError struct {
	Register Register
	Value    byte
}

func (e *RegisterMaskError) Error() string {
	mask, _ := e.Register.Mask()
	return fmt.Sprintf("rf24: value %08b sets reserved bits of %s (mask %08b)", e.Value, e.Register, mask)
}

// AddressLengthError is returned when an address does not match the
// configured address width.
type AddressLengthError struct {
	Pipe   int // -1 for the writing pipe
	Length int
	Want   int
}

func (e *AddressLengthError) Error() string {
	if e.Pipe < 0 {
		return fmt.Sprintf("rf24: TX address is %d bytes, address width is %d", e.Length, e.Want)
	}
	return fmt.Sprintf("rf24: pipe %d address is %d bytes, address width is %d", e.Pipe, e.Length, e.Want)
}

func (e *AddressLengthError) Unwrap() []error { return []error{ErrPkg, ErrInvalidConfig} }

// PipeAddressWidthError is returned when a full address is given for pipes
// 2-5, or a single address byte for pipes 0-1.
type PipeAddressWidthError struct {
	Pipe Pipe
	Full bool
}

func (e *PipeAddressWidthError) Error() string {
	if e.Full {
		return fmt.Sprintf("rf24: pipe %d takes a single address byte, not a full address", e.Pipe)
	}
	return fmt.Sprintf("rf24: pipe %d takes a full address, not a single byte", e.Pipe)
}

func (e *PipeAddressWidthError) Unwrap() []error { return []error{ErrPkg, ErrInvalidConfig} }

// PayloadSizeError is returned for payload sizes outside 1..Max. Max is 32
// unless a smaller static payload size is configured.
type PayloadSizeError struct {
	Size int
	Max  int
}

func (e *PayloadSizeError) Error() string {
	return fmt.Sprintf("rf24: payload size %d outside [1,%d]", e.Size, e.Max)
}

func (e *PayloadSizeError) Unwrap() []error { return []error{ErrPkg, ErrInvalidConfig} }

// wrapErr tags err with the package sentinel.
func wrapErr(err error) error {
	return fmt.Errorf("%w: %w", ErrPkg, err)
}
