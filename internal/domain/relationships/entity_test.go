package relationships

import (
	"errors"
	"testing"
)

func TestFollowStatusValid(t *testing.T) {
	tests := []struct {
		status FollowStatus
		want   bool
	}{
		{FollowStatusNone, true},
		{FollowStatusPending, true},
		{FollowStatusAccepted, true},
		{"", false},
		{"rejected", false},
		{"ACCEPTED", false},
	}

	for _, tc := range tests {
		if got := tc.status.Valid(); got != tc.want {
			t.Fatalf("FollowStatus(%q).Valid() = %v, want %v", tc.status, got, tc.want)
		}
		err := checkStatus(tc.status)
		if tc.want && err != nil {
			t.Fatalf("checkStatus(%q) = %v, want nil", tc.status, err)
		}
		if !tc.want && !errors.Is(err, ErrUnknownStatus) {
			t.Fatalf("checkStatus(%q) = %v, want ErrUnknownStatus", tc.status, err)
		}
	}
}
