// Package livesync keeps a host client's local copy of a show's live
// scoring state loosely synchronized with the server's versioned document.
package livesync

import "github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/domain"

// VersionHeader carries the client's last-known document version on
// conditional GETs, the way an ETag validator would.
const VersionHeader = "X-Live-Version"

// SaveRequest is the POST body for a conditional save.
type SaveRequest struct {
	ShowID  string           `json:"showId"`
	Version int64            `json:"version"`
	State   domain.LiveState `json:"state"`
	By      string           `json:"by,omitempty"`
}

// SaveAccepted is the success response body.
type SaveAccepted struct {
	OK      bool  `json:"ok"`
	Version int64 `json:"version"`
}

// SaveConflict is the 409 response body: the save was rejected and the
// client must adopt the attached authoritative document.
type SaveConflict struct {
	Error  string              `json:"error"`
	Latest domain.LiveDocument `json:"latest"`
}
