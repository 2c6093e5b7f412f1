// Package model defines the data models for the Avalon matchmaking bot.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Participant is one player in a pending session. Participants are stored
// as structured records in the session's jsonb players column.
type Participant struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// Session represents a pending, not-yet-started game awaiting players.
// A session is created with the creator as its only player, mutated by
// joins, and deleted exactly once by start or exit.
type Session struct {
	ID        uuid.UUID     `db:"id"`
	Code      string        `db:"code"`
	CreatorID string        `db:"creator_id"`
	Players   []Participant `db:"players"`
	CreatedAt time.Time     `db:"created_at"`
}

// UniquePlayers returns the session's players de-duplicated by user id.
// First occurrence wins; insertion order is preserved. Joins append
// unconditionally, so the read boundary owns de-duplication.
func (s *Session) UniquePlayers() []Participant {
	seen := make(map[string]bool, len(s.Players))
	unique := make([]Participant, 0, len(s.Players))
	for _, p := range s.Players {
		if seen[p.UserID] {
			continue
		}
		seen[p.UserID] = true
		unique = append(unique, p)
	}
	return unique
}

// Creator returns the creator's participant record. The creator is added
// at creation time, so this only falls back to an id-only record if the
// stored row was tampered with.
func (s *Session) Creator() Participant {
	for _, p := range s.Players {
		if p.UserID == s.CreatorID {
			return p
		}
	}
	return Participant{UserID: s.CreatorID}
}
