package structs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFinalStatus(t *testing.T) {
	cases := []struct {
		Name   string
		Given  Status
		Expect bool
	}{
		{"StatusUndefined", "x", false},
		{"StatusPendingPayment", PENDING_PAYMENT, false},
		{"StatusPaymentConfirmed", PAYMENT_CONFIRMED, false},
		{"StatusQueryInProgress", QUERY_IN_PROGRESS, false},
		{"StatusCompleted", COMPLETED, true},
		{"StatusFailed", FAILED, true},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			assert.Equal(t, IsFinalStatus(c.Given), c.Expect)
		})
	}
}

func TestNextStatus(t *testing.T) {
	cases := []struct {
		Name   string
		Given  Status
		Expect Status
	}{
		{"StatusUndefined", "x", ""},
		{"StatusPendingPayment", PENDING_PAYMENT, PAYMENT_CONFIRMED},
		{"StatusPaymentConfirmed", PAYMENT_CONFIRMED, QUERY_IN_PROGRESS},
		{"StatusQueryInProgress", QUERY_IN_PROGRESS, ""},
		{"StatusCompleted", COMPLETED, ""},
		{"StatusFailed", FAILED, ""},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			assert.Equal(t, NextStatus(c.Given), c.Expect)
		})
	}
}

func TestToStatus(t *testing.T) {
	cases := []struct {
		Name   string
		Given  string
		Expect Status
	}{
		{"StatusUndefined", "x", ""},
		{"StatusPendingPayment", "PENDING_PAYMENT", PENDING_PAYMENT},
		{"StatusPendingPaymentLower", "pending_payment", PENDING_PAYMENT},
		{"StatusPaymentConfirmed", "PAYMENT_CONFIRMED", PAYMENT_CONFIRMED},
		{"StatusQueryInProgress", "QUERY_IN_PROGRESS", QUERY_IN_PROGRESS},
		{"StatusCompleted", "COMPLETED", COMPLETED},
		{"StatusFailed", "FAILED", FAILED},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			assert.Equal(t, ToStatus(c.Given), c.Expect)
		})
	}
}
