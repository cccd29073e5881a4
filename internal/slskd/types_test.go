package slskd

import "testing"

func TestTransferStateSucceeded(t *testing.T) {
	tests := []struct {
		state string
		want  bool
	}{
		{"Completed, Succeeded", true},
		{"completed, succeeded", true},
		{"Completed, Errored", false},
		{"InProgress", false},
		{"Queued, Remotely", false},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			if got := TransferState(tt.state).Succeeded(); got != tt.want {
				t.Errorf("Succeeded() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransferStateTerminal(t *testing.T) {
	tests := []struct {
		state string
		want  bool
	}{
		{"Completed, Succeeded", true},
		{"Completed, Errored", true},
		{"Completed, Aborted", true},
		{"Completed, Cancelled", true},
		{"Failed", true},
		{"Rejected", true},
		{"InProgress", false},
		{"Requested", false},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			if got := TransferState(tt.state).Terminal(); got != tt.want {
				t.Errorf("Terminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSearchIsComplete(t *testing.T) {
	tests := []struct {
		state string
		want  bool
	}{
		{"Completed", true},
		{"Completed, ResponseLimitReached", true},
		{"TimedOut", true},
		{"InProgress", false},
		{"Requested", false},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			s := Search{State: tt.state}
			if got := s.IsComplete(); got != tt.want {
				t.Errorf("IsComplete() = %v, want %v", got, tt.want)
			}
		})
	}
}
