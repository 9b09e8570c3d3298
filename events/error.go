package events

import "fmt"

type ErrorReason string

const (
	REASON_FAILED_TO_TRANSLATE_TO_DB_MODEL ErrorReason = "FAILED_TO_TRANSLATE_TO_DB_MODEL"
	REASON_FAILED_TO_WRITE                 ErrorReason = "FAILED_TO_WRITE"
	REASON_EVENT_DOES_NOT_EXIST            ErrorReason = "EVENT_DOES_NOT_EXIST"
	REASON_EVENT_ALREADY_EXISTS            ErrorReason = "EVENT_ALREADY_EXISTS"
	REASON_CATEGORY_DOES_NOT_EXIST         ErrorReason = "CATEGORY_DOES_NOT_EXIST"
	REASON_CATEGORY_ALREADY_EXISTS         ErrorReason = "CATEGORY_ALREADY_EXISTS"
	REASON_FAILED_TO_FETCH                 ErrorReason = "FAILED_TO_FETCH"
	REASON_VERSION_CONFLICT                ErrorReason = "VERSION_CONFLICT"
	REASON_TIMEOUT                         ErrorReason = "TIMEOUT"
	REASON_INVALID_EVENT                   ErrorReason = "INVALID_EVENT"
	REASON_INVALID_CATEGORY                ErrorReason = "INVALID_CATEGORY"
)

type Error struct {
	Reason  ErrorReason
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: %s. Cause: %s", e.Reason, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newEventError(reason ErrorReason, message string, cause error) *Error {
	return &Error{
		Reason:  reason,
		Message: message,
		Cause:   cause,
	}
}

func NewFailedToWriteError(message string, cause error) *Error {
	return newEventError(REASON_FAILED_TO_WRITE, message, cause)
}

func NewFailedToTranslateToDBModelError(message string, cause error) *Error {
	return newEventError(REASON_FAILED_TO_TRANSLATE_TO_DB_MODEL, message, cause)
}

func NewEventAlreadyExistsError(message string, cause error) *Error {
	return newEventError(REASON_EVENT_ALREADY_EXISTS, message, cause)
}

func NewEventDoesNotExistsError(message string, cause error) *Error {
	return newEventError(REASON_EVENT_DOES_NOT_EXIST, message, cause)
}

func NewCategoryAlreadyExistsError(message string, cause error) *Error {
	return newEventError(REASON_CATEGORY_ALREADY_EXISTS, message, cause)
}

func NewCategoryDoesNotExistsError(message string, cause error) *Error {
	return newEventError(REASON_CATEGORY_DOES_NOT_EXIST, message, cause)
}

func NewFailedToFetchError(message string, cause error) *Error {
	return newEventError(REASON_FAILED_TO_FETCH, message, cause)
}

func NewVersionConflictError(message string, cause error) *Error {
	return newEventError(REASON_VERSION_CONFLICT, message, cause)
}

func NewTimeoutError(message string) *Error {
	return newEventError(REASON_TIMEOUT, message, nil)
}

func NewInvalidEventError(message string) *Error {
	return newEventError(REASON_INVALID_EVENT, message, nil)
}

func NewInvalidCategoryError(message string) *Error {
	return newEventError(REASON_INVALID_CATEGORY, message, nil)
}
