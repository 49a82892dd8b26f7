package lvm2

import (
	"fmt"
)

// ErrorKind classifies the failures this module can raise (spec §7). A
// label-scan miss is deliberately NOT a member of this type — it is a
// non-error `found == false` result, never an `error` value.
type ErrorKind int

const (
	// KindNotImplemented indicates a structurally valid but unsupported
	// case: multiple data areas, an unrecognized metadata version, an
	// embed type other than PC-BIOS.
	KindNotImplemented ErrorKind = iota

	// KindBadMetadata indicates the MDA magic didn't match, a required
	// anchor was missing before a segment could be fully parsed, or a
	// ring-wrap copy would have overrun the working buffer.
	KindBadMetadata

	// KindBadDevice indicates the installer helper found the device in an
	// unusable state: boot sector occupied, bootloader area absent or
	// misaligned.
	KindBadDevice

	// KindOutOfMemory indicates an allocation failure.
	KindOutOfMemory

	// KindIO indicates the underlying Disk read failed.
	KindIO
)

// String renders the kind the way it's named in spec §7.
func (k ErrorKind) String() string {
	switch k {
	case KindNotImplemented:
		return "NOT_IMPLEMENTED"
	case KindBadMetadata:
		return "BAD_METADATA"
	case KindBadDevice:
		return "BAD_DEVICE"
	case KindOutOfMemory:
		return "OUT_OF_MEMORY"
	case KindIO:
		return "IO"
	default:
		return "UNKNOWN"
	}
}

// LVMError is the concrete error type for the failure kinds in ErrorKind. A
// few internal consistency failures (a PV header buffer too short for its
// descriptor lists, a nil VG passed to Link) are raised as plain errors
// instead. Callers that need to branch on failure kind should use KindOf.
type LVMError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements error.
func (e *LVMError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause, if any, for errors.Is/errors.As.
func (e *LVMError) Unwrap() error {
	return e.Cause
}

func errNotImplemented(format string, args ...interface{}) *LVMError {
	return &LVMError{
		Kind:    KindNotImplemented,
		Message: fmt.Sprintf(format, args...),
	}
}

func errBadMetadata(format string, args ...interface{}) *LVMError {
	return &LVMError{
		Kind:    KindBadMetadata,
		Message: fmt.Sprintf(format, args...),
	}
}

func errBadDevice(format string, args ...interface{}) *LVMError {
	return &LVMError{
		Kind:    KindBadDevice,
		Message: fmt.Sprintf(format, args...),
	}
}

func errOutOfMemory() *LVMError {
	return &LVMError{
		Kind:    KindOutOfMemory,
		Message: "allocation failed",
	}
}

func errIO(cause error) *LVMError {
	return &LVMError{
		Kind:    KindIO,
		Message: "disk read failed",
		Cause:   cause,
	}
}

// KindOf returns the ErrorKind of err if it is (or wraps) an *LVMError, and
// ok == false otherwise.
func KindOf(err error) (kind ErrorKind, ok bool) {
	for err != nil {
		if lvmErr, isLVMErr := err.(*LVMError); isLVMErr == true {
			return lvmErr.Kind, true
		}

		unwrapper, isUnwrapper := err.(interface{ Unwrap() error })
		if isUnwrapper == false {
			break
		}

		err = unwrapper.Unwrap()
	}

	return 0, false
}
