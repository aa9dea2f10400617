package mail

import (
	"fmt"
	"net/http"

	"siteapi/internal/models"
)

// Dispatch error codes. Machine-readable, for logs and metrics labels.
const (
	ErrorCodeConfigMissing  = "CONFIG_MISSING"
	ErrorCodeDeliveryFailed = "DELIVERY_FAILED"
)

// DispatchError represents a mail dispatch failure. UserMessage is always a
// generic, safe string for the caller; the wrapped error carries the detail
// that belongs in the operator log only.
type DispatchError struct {
	Code        string
	UserMessage string
	StatusCode  int
	Err         error
}

func (e *DispatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Retryable reports whether a later attempt could succeed. A missing relay
// configuration cannot be fixed by retrying.
func (e *DispatchError) Retryable() bool {
	return e.Code != ErrorCodeConfigMissing
}

// NewConfigMissingError reports an operational misconfiguration. The caller
// sees a service-unavailable message that never reveals which setting is
// absent.
func NewConfigMissingError(err error) *DispatchError {
	return &DispatchError{
		Code:        ErrorCodeConfigMissing,
		UserMessage: models.MsgMailUnavailable,
		StatusCode:  http.StatusInternalServerError,
		Err:         err,
	}
}

// NewDeliveryFailedError reports a transport or authentication failure at the
// relay. Single attempt, no automatic retry; the submitter's own client may
// re-submit.
func NewDeliveryFailedError(err error) *DispatchError {
	return &DispatchError{
		Code:        ErrorCodeDeliveryFailed,
		UserMessage: models.MsgMailFailed,
		StatusCode:  http.StatusInternalServerError,
		Err:         err,
	}
}
