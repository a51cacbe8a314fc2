package hcloud

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

func TestErrorClassification(t *testing.T) {
	locked := hcloud.Error{Code: hcloud.ErrorCodeLocked, Message: "resource is locked"}
	conflict := hcloud.Error{Code: hcloud.ErrorCodeConflict, Message: "conflict occurred"}
	unavailable := hcloud.Error{Code: hcloud.ErrorCodeResourceUnavailable, Message: "unavailable"}
	notFound := hcloud.Error{Code: hcloud.ErrorCodeNotFound, Message: "not found"}
	invalid := hcloud.Error{Code: hcloud.ErrorCodeInvalidInput, Message: "invalid input"}
	unique := hcloud.Error{Code: hcloud.ErrorCodeUniquenessError, Message: "name is already used"}
	limited := hcloud.Error{Code: hcloud.ErrorCodeRateLimitExceeded, Message: "slow down"}

	tests := []struct {
		name     string
		check    func(error) bool
		err      error
		expected bool
	}{
		{"locked nil", isResourceLocked, nil, false},
		{"locked generic", isResourceLocked, errors.New("something went wrong"), false},
		{"locked", isResourceLocked, locked, true},
		{"locked conflict", isResourceLocked, conflict, true},
		{"locked unavailable", isResourceLocked, unavailable, true},
		{"locked wrapped", isResourceLocked, fmt.Errorf("delete: %w", locked), true},
		{"locked not found", isResourceLocked, notFound, false},

		{"invalid not found", isInvalidParameter, notFound, true},
		{"invalid input", isInvalidParameter, invalid, true},
		{"invalid locked", isInvalidParameter, locked, false},

		{"not found", IsNotFound, notFound, true},
		{"not found other", IsNotFound, invalid, false},
		{"uniqueness", IsUniquenessError, unique, true},
		{"uniqueness other", IsUniquenessError, conflict, false},
		{"rate limited", IsRateLimited, limited, true},
		{"rate limited nil", IsRateLimited, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.check(tt.err); got != tt.expected {
				t.Errorf("got %v, want %v for %v", got, tt.expected, tt.err)
			}
		})
	}
}
