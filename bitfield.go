package rf24

import "fmt"

// GetField extracts the value of field f from a register value.
func GetField(value byte, f Field) byte {
	info := f.info()
	return (value >> info.shift) & info.mask
}

// SetField returns value with field f replaced by v. It fails with a
// *FieldMaskError when v does not fit the field width.
func SetField(value byte, f Field, v byte) (byte, error) {
	info := f.info()
	if v&info.mask != v {
		return value, &FieldMaskError{Field: f, Value: v}
	}
	return value&^(info.mask<<info.shift) | v<<info.shift, nil
}

// SetFlag sets or clears a single-bit field. Multi-bit fields fail with
// ErrNotFlag.
func SetFlag(value byte, f Field, on bool) (byte, error) {
	if f.info().mask != 1 {
		return value, fmt.Errorf("%w: %w: %s", ErrPkg, ErrNotFlag, f)
	}
	var v byte
	if on {
		v = 1
	}
	return SetField(value, f, v)
}

// Flag reports whether the single-bit field f is set in value.
func Flag(value byte, f Field) bool {
	return GetField(value, f) != 0
}

// ResetField returns value with field f set back to its reset value.
func ResetField(value byte, f Field) (byte, error) {
	return SetField(value, f, f.info().reset)
}

// CheckRegisterMask fails with a *RegisterMaskError when value sets a bit
// reserved in register r. Registers that are not bit-addressable accept any
// value.
func CheckRegisterMask(r Register, value byte) error {
	mask, ok := r.Mask()
	if !ok {
		return nil
	}
	if value&^mask != 0 {
		return &RegisterMaskError{Register: r, Value: value}
	}
	return nil
}
