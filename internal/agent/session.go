// Package agent owns the assistant session and the listen/dispatch loop.
package agent

import (
	"time"

	"aria/internal/intent"
	"aria/internal/profile"
	"aria/internal/voice"
)

// Session bundles the process-wide state handlers work against: the intent
// catalog, the user profile, the proactivity ledger and the voice I/O. The
// catalog and profile are immutable after construction; the ledger is
// written only by the loop.
type Session struct {
	Catalog *intent.Catalog
	Profile *profile.Profile
	Ledger  *Ledger
	Voice   *voice.IO

	// Now is the session clock; tests replace it.
	Now func() time.Time
	// Sleep pauses cooperatively; tests replace it.
	Sleep func(time.Duration)
}

// NewSession builds a session around the loaded catalog and profile. The
// ledger starts at the current clock reading.
func NewSession(catalog *intent.Catalog, userProfile *profile.Profile, io *voice.IO) *Session {
	now := time.Now
	return &Session{
		Catalog: catalog,
		Profile: userProfile,
		Ledger:  NewLedger(now()),
		Voice:   io,
		Now:     now,
		Sleep:   time.Sleep,
	}
}
