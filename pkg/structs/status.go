package structs

import (
	"strings"
)

type Status string

const (
	// transient states
	PENDING_PAYMENT   Status = "PENDING_PAYMENT"
	PAYMENT_CONFIRMED Status = "PAYMENT_CONFIRMED"
	QUERY_IN_PROGRESS Status = "QUERY_IN_PROGRESS"

	// end states
	COMPLETED Status = "COMPLETED"
	FAILED    Status = "FAILED"
)

func IsFinalStatus(status Status) bool {
	switch status {
	case COMPLETED, FAILED:
		return true
	default:
		return false
	}
}

// NextStatus returns the status that legally follows the given one, or ""
// if the status is final (or unknown). The lifecycle is a straight chain;
// transitions never skip a step or move backwards.
func NextStatus(status Status) Status {
	switch status {
	case PENDING_PAYMENT:
		return PAYMENT_CONFIRMED
	case PAYMENT_CONFIRMED:
		return QUERY_IN_PROGRESS
	default:
		return ""
	}
}

func ToStatus(s string) Status {
	switch strings.ToUpper(s) {
	case "PENDING_PAYMENT":
		return PENDING_PAYMENT
	case "PAYMENT_CONFIRMED":
		return PAYMENT_CONFIRMED
	case "QUERY_IN_PROGRESS":
		return QUERY_IN_PROGRESS
	case "COMPLETED":
		return COMPLETED
	case "FAILED":
		return FAILED
	default:
		return ""
	}
}
