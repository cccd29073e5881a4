// Package slskd provides a client for the slskd API, the daemon that fronts
// the Soulseek network for search and transfers.
package slskd

import "strings"

// Search represents a search request known to slskd.
type Search struct {
	ID            string `json:"id"`
	SearchText    string `json:"searchText"`
	Token         int    `json:"token"`
	State         string `json:"state"` // InProgress, Completed, etc.
	ResponseCount int    `json:"responseCount"`
}

// IsComplete returns true if the search is in a terminal state. States can
// be compound (e.g., "Completed, ResponseLimitReached").
func (s *Search) IsComplete() bool {
	return strings.Contains(s.State, "Completed") ||
		strings.Contains(s.State, "TimedOut") ||
		strings.Contains(s.State, "Cancelled") ||
		strings.Contains(s.State, "Errored")
}

// SearchResponse represents a user's response to a search.
type SearchResponse struct {
	Username    string `json:"username"`
	FileCount   int    `json:"fileCount"`
	HasFreeSlot bool   `json:"hasFreeUploadSlot"`
	QueueLength int    `json:"queueLength"`
	UploadSpeed int    `json:"uploadSpeed"` // bytes per second
	Files       []File `json:"files"`
}

// File represents a remote file in search results or a download request.
type File struct {
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	Extension string `json:"extension"`
	BitRate   int    `json:"bitRate"`
	BitDepth  int    `json:"bitDepth"`
	Length    int    `json:"length"` // duration in seconds
	IsLocked  bool   `json:"isLocked"`
}

// downloadsResponse represents a user's downloads grouped by directory.
type downloadsResponse struct {
	Username    string              `json:"username"`
	Directories []downloadDirectory `json:"directories"`
}

type downloadDirectory struct {
	Directory string         `json:"directory"`
	FileCount int            `json:"fileCount"`
	Files     []downloadFile `json:"files"`
}

type downloadFile struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	Filename         string `json:"filename"`
	Size             int64  `json:"size"`
	State            string `json:"state"`
	BytesTransferred int64  `json:"bytesTransferred"`
}

// Transfer represents a flattened download transfer.
type Transfer struct {
	ID               string
	Username         string
	Filename         string
	State            TransferState
	Size             int64
	BytesTransferred int64
}

// TransferState is the state string slskd reports for a transfer. States
// are compound, e.g. "Completed, Succeeded" or "Completed, Errored".
type TransferState string

// Succeeded reports a transfer that completed with the file fully received.
func (s TransferState) Succeeded() bool {
	state := strings.ToLower(string(s))
	return strings.Contains(state, "completed") && strings.Contains(state, "succeeded")
}

// Failed reports a transfer that reached a terminal state without the file.
func (s TransferState) Failed() bool {
	state := strings.ToLower(string(s))
	for _, word := range []string{"failed", "aborted", "cancelled", "errored", "rejected"} {
		if strings.Contains(state, word) {
			return true
		}
	}
	return false
}

// Terminal reports whether the transfer will make no further progress.
func (s TransferState) Terminal() bool {
	return s.Succeeded() || s.Failed()
}
