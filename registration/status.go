package registration

import (
	"fmt"
	"strings"
)

type PaymentStatus string

const (
	STATUS_PENDING    PaymentStatus = "pending"
	STATUS_PROCESSING PaymentStatus = "processing"
	STATUS_PAID       PaymentStatus = "paid"
	STATUS_CANCELLED  PaymentStatus = "cancelled"
	STATUS_REJECTED   PaymentStatus = "rejected"
	STATUS_REFUNDED   PaymentStatus = "refunded"
)

var AllStatuses = []PaymentStatus{
	STATUS_PENDING,
	STATUS_PROCESSING,
	STATUS_PAID,
	STATUS_CANCELLED,
	STATUS_REJECTED,
	STATUS_REFUNDED,
}

// CountedStatuses hold a slot against category and event capacity.
var CountedStatuses = []PaymentStatus{
	STATUS_PENDING,
	STATUS_PROCESSING,
	STATUS_PAID,
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case STATUS_PENDING, STATUS_PROCESSING, STATUS_PAID, STATUS_CANCELLED, STATUS_REJECTED, STATUS_REFUNDED:
		return true
	}
	return false
}

// IsCounted reports whether a registration in this status occupies a slot.
// A registration is provisional from creation, so pending counts.
func (s PaymentStatus) IsCounted() bool {
	switch s {
	case STATUS_PENDING, STATUS_PROCESSING, STATUS_PAID:
		return true
	}
	return false
}

// IsActive is what participants see as an "active" registration.
func (s PaymentStatus) IsActive() bool {
	return s.IsCounted()
}

func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case STATUS_CANCELLED, STATUS_REJECTED, STATUS_REFUNDED:
		return true
	}
	return false
}

// DescriptionKey is the message id of the human readable description of the status.
func (s PaymentStatus) DescriptionKey() string {
	return "status_" + string(s)
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	status := PaymentStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", NewValidationError(fmt.Sprintf("Unknown payment status %q", s))
	}
	return status, nil
}

type ShirtSize string

const (
	SHIRT_XS  ShirtSize = "XS"
	SHIRT_S   ShirtSize = "S"
	SHIRT_M   ShirtSize = "M"
	SHIRT_L   ShirtSize = "L"
	SHIRT_XL  ShirtSize = "XL"
	SHIRT_XXL ShirtSize = "XXL"
)

func (s ShirtSize) Valid() bool {
	switch s {
	case SHIRT_XS, SHIRT_S, SHIRT_M, SHIRT_L, SHIRT_XL, SHIRT_XXL:
		return true
	}
	return false
}

// ParseShirtSize normalizes to upper case before validating.
func ParseShirtSize(s string) (ShirtSize, error) {
	size := ShirtSize(strings.ToUpper(strings.TrimSpace(s)))
	if !size.Valid() {
		return "", NewValidationError(fmt.Sprintf("Shirt size must be one of XS, S, M, L, XL, XXL. Got %q", s))
	}
	return size, nil
}
