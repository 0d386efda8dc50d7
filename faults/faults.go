// Package faults classifies the failures of the capture, inference, protocol
// and asset paths so callers can tell fatal errors from recoverable ones.
package faults

import (
	"fmt"

	"github.com/pkg/errors"
)

type Kind int

const (
	Unknown Kind = iota
	// HardwareUnavailable means no capture device was found or it rejected the format.
	HardwareUnavailable
	// StreamFault is a read or acquire error while capturing.
	StreamFault
	// ModelLoadFault means the inference artifact is missing or has the wrong shape.
	ModelLoadFault
	// InferenceFault is a failed inference call or malformed network output.
	InferenceFault
	// ProtocolDecodeFault is a datagram of the wrong length. It is the only recoverable kind.
	ProtocolDecodeFault
	// AssetFault means a mesh asset lacks required per-vertex attributes.
	AssetFault
)

var kindNames = map[Kind]string{
	Unknown:             "unknown",
	HardwareUnavailable: "hardware unavailable",
	StreamFault:         "stream fault",
	ModelLoadFault:      "model load fault",
	InferenceFault:      "inference fault",
	ProtocolDecodeFault: "protocol decode fault",
	AssetFault:          "asset fault",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Fatal reports whether a fault of this kind must end the process.
func (k Kind) Fatal() bool {
	return k != ProtocolDecodeFault
}

type Fault struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Fault) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Fault) Unwrap() error { return e.Err }

// Cause lets errors.Cause from github.com/pkg/errors walk through a Fault.
func (e *Fault) Cause() error { return e.Err }

func New(kind Kind, format string, args ...interface{}) error {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind to err. A nil err yields nil.
func Wrap(kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}
	return &Fault{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the outermost Fault in err's chain, or Unknown.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return Unknown
}

// Is reports whether err carries a Fault of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
