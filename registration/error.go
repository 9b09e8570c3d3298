package registration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Estebaan93/RunnConnectAPI/participant"
)

type ErrorReason string

// Business reasons are outcomes a caller can act on.
const (
	REASON_NOT_FOUND                ErrorReason = "NOT_FOUND"
	REASON_VALIDATION_ERROR         ErrorReason = "VALIDATION_ERROR"
	REASON_PROFILE_INCOMPLETE       ErrorReason = "PROFILE_INCOMPLETE"
	REASON_AGE_OUT_OF_RANGE         ErrorReason = "AGE_OUT_OF_RANGE"
	REASON_GENDER_MISMATCH          ErrorReason = "GENDER_MISMATCH"
	REASON_DUPLICATE_REGISTRATION   ErrorReason = "DUPLICATE_REGISTRATION"
	REASON_CATEGORY_FULL            ErrorReason = "CATEGORY_FULL"
	REASON_EVENT_FULL               ErrorReason = "EVENT_FULL"
	REASON_INVALID_STATE_TRANSITION ErrorReason = "INVALID_STATE_TRANSITION"
	REASON_FORBIDDEN                ErrorReason = "FORBIDDEN"
	REASON_EVENT_NOT_OPEN           ErrorReason = "EVENT_NOT_OPEN"
)

// Infrastructure reasons.
const (
	REASON_FAILED_TO_TRANSLATE_TO_DB_MODEL ErrorReason = "FAILED_TO_TRANSLATE_TO_DB_MODEL"
	REASON_FAILED_TO_WRITE                 ErrorReason = "FAILED_TO_WRITE"
	REASON_FAILED_TO_FETCH                 ErrorReason = "FAILED_TO_FETCH"
	REASON_REGISTRATION_ALREADY_EXISTS     ErrorReason = "REGISTRATION_ALREADY_EXISTS"
	REASON_VERSION_CONFLICT                ErrorReason = "VERSION_CONFLICT"
	REASON_TIMEOUT                         ErrorReason = "TIMEOUT"
	REASON_INVALID_CURSOR                  ErrorReason = "INVALID_CURSOR"
)

type Error struct {
	Reason  ErrorReason
	Message string
	Cause   error
	// Details holds the values a localized message for Reason is rendered with.
	Details map[string]any
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

func (e *Error) IsBusiness() bool {
	switch e.Reason {
	case REASON_NOT_FOUND,
		REASON_VALIDATION_ERROR,
		REASON_PROFILE_INCOMPLETE,
		REASON_AGE_OUT_OF_RANGE,
		REASON_GENDER_MISMATCH,
		REASON_DUPLICATE_REGISTRATION,
		REASON_CATEGORY_FULL,
		REASON_EVENT_FULL,
		REASON_INVALID_STATE_TRANSITION,
		REASON_FORBIDDEN,
		REASON_EVENT_NOT_OPEN:
		return true
	}
	return false
}

// HasReason reports whether err wraps a registration error with the given reason.
func HasReason(err error, reason ErrorReason) bool {
	var regErr *Error
	return errors.As(err, &regErr) && regErr.Reason == reason
}

func newRegistrationError(reason ErrorReason, message string, cause error) *Error {
	return &Error{
		Reason:  reason,
		Message: message,
		Cause:   cause,
	}
}

func NewNotFoundError(message string, cause error) *Error {
	return newRegistrationError(REASON_NOT_FOUND, message, cause)
}

func NewValidationError(message string) *Error {
	return newRegistrationError(REASON_VALIDATION_ERROR, message, nil)
}

func NewProfileIncompleteError(missing []string, cause error) *Error {
	msg := "Participant profile does not exist"
	if len(missing) > 0 {
		msg = fmt.Sprintf("Participant profile is missing required fields: %v", missing)
	} else {
		missing = participant.Profile{}.MissingFields()
	}
	err := newRegistrationError(REASON_PROFILE_INCOMPLETE, msg, cause)
	err.Details = map[string]any{"Missing": strings.Join(missing, ", ")}
	return err
}

func NewAgeOutOfRangeError(age, min, max int) *Error {
	err := newRegistrationError(REASON_AGE_OUT_OF_RANGE, fmt.Sprintf("Age must be within %d and %d. Age is %d", min, max, age), nil)
	err.Details = map[string]any{"Age": age, "Min": min, "Max": max}
	return err
}

func NewGenderMismatchError(categoryGender, participantGender string) *Error {
	return newRegistrationError(REASON_GENDER_MISMATCH, fmt.Sprintf("Category is for gender %q, participant is %q", categoryGender, participantGender), nil)
}

func NewDuplicateRegistrationError(message string, cause error) *Error {
	return newRegistrationError(REASON_DUPLICATE_REGISTRATION, message, cause)
}

func NewCategoryFullError(message string) *Error {
	return newRegistrationError(REASON_CATEGORY_FULL, message, nil)
}

func NewEventFullError(message string) *Error {
	return newRegistrationError(REASON_EVENT_FULL, message, nil)
}

func NewInvalidStateTransitionError(from, to PaymentStatus) *Error {
	err := newRegistrationError(REASON_INVALID_STATE_TRANSITION, fmt.Sprintf("Cannot move registration from %q to %q", from, to), nil)
	err.Details = map[string]any{"From": string(from), "To": string(to)}
	return err
}

func NewForbiddenError(message string) *Error {
	return newRegistrationError(REASON_FORBIDDEN, message, nil)
}

func NewEventNotOpenError(message string) *Error {
	return newRegistrationError(REASON_EVENT_NOT_OPEN, message, nil)
}

func NewFailedToWriteError(message string, cause error) *Error {
	return newRegistrationError(REASON_FAILED_TO_WRITE, message, cause)
}

func NewFailedToTranslateToDBModelError(message string, cause error) *Error {
	return newRegistrationError(REASON_FAILED_TO_TRANSLATE_TO_DB_MODEL, message, cause)
}

func NewRegistrationAlreadyExistsError(message string, cause error) *Error {
	return newRegistrationError(REASON_REGISTRATION_ALREADY_EXISTS, message, cause)
}

func NewFailedToFetchError(message string, cause error) *Error {
	return newRegistrationError(REASON_FAILED_TO_FETCH, message, cause)
}

func NewVersionConflictError(message string, cause error) *Error {
	return newRegistrationError(REASON_VERSION_CONFLICT, message, cause)
}

func NewTimeoutError(message string) *Error {
	return newRegistrationError(REASON_TIMEOUT, message, nil)
}

func NewInvalidCursorError(message string, cause error) *Error {
	return newRegistrationError(REASON_INVALID_CURSOR, message, cause)
}
