// Package failure classifies domain errors into the kinds the transport layer
// and the logs care about.
package failure

import "errors"

type Kind string

const (
	KindAuthRequired       Kind = "auth_required"
	KindNotFound           Kind = "not_found"
	KindConflict           Kind = "conflict"
	KindCapacityExceeded   Kind = "capacity_exceeded"
	KindNetworkUnavailable Kind = "network_unavailable"
	KindInvalid            Kind = "invalid"
	KindRemote             Kind = "remote_error"
)

// Error is a sentinel error tagged with a Kind. Domain packages declare their
// sentinels with New and compare them with errors.Is.
type Error struct {
	kind    Kind
	message string
}

func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

func (e *Error) Error() string {
	return e.message
}

func (e *Error) Kind() Kind {
	return e.kind
}

var (
	ErrAuthRequired       = New(KindAuthRequired, "authentication required")
	ErrNetworkUnavailable = New(KindNetworkUnavailable, "network unavailable")
)

// KindOf returns the kind of the first tagged error in err's chain, or
// KindRemote for anything unclassified.
func KindOf(err error) Kind {
	var tagged interface{ Kind() Kind }
	if errors.As(err, &tagged) {
		return tagged.Kind()
	}
	return KindRemote
}

// IsBusiness reports whether err is an expected outcome of user input rather
// than a fault of the service or its storage.
func IsBusiness(err error) bool {
	switch KindOf(err) {
	case KindAuthRequired, KindNotFound, KindConflict, KindCapacityExceeded, KindInvalid:
		return true
	default:
		return false
	}
}

// Invalid builds a validation error carrying message.
func Invalid(message string) error {
	return New(KindInvalid, message)
}
