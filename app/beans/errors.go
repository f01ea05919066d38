package beans

import (
	"fmt"

	"github.com/WillSuttie/MvcBean/models"
)

// ErrNotFound is returned when an id-based lookup matches no bean.
var ErrNotFound = models.ErrBeanNotFound

// ValidationKind identifies which rule rejected a bean.
type ValidationKind int

const (
	DateConflict ValidationKind = iota + 1
	MissingName
	InvalidFormat
	PriceOutOfRange
	InvalidImageType
)

func (k ValidationKind) String() string {
	switch k {
	case DateConflict:
		return "date_conflict"
	case MissingName:
		return "missing_name"
	case InvalidFormat:
		return "invalid_format"
	case PriceOutOfRange:
		return "price_out_of_range"
	case InvalidImageType:
		return "invalid_image_type"
	default:
		return "unknown"
	}
}

// ValidationError rejects a bean before any state is changed.
// Message is meant to be shown to the user as-is.
type ValidationError struct {
	Kind            ValidationKind
	Field           string
	ConflictingName string
	Message         string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StorageError wraps a failure of the database or the image storage.
// The wrapped message is for logs only.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
