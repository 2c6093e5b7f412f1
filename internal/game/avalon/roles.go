// Package avalon implements secret role assignment for The Resistance:
// Avalon. Given an ordered player list it partitions the seats into
// asymmetric knowledge sets and composes the private reveal message each
// player is entitled to see. The package is pure; callers own delivery.
package avalon

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"avalon-game-bot/internal/model"
)

// Role is a secret identity assigned at game start.
type Role string

// The tenth-seat spy deliberately has no proper name.
const (
	RoleMerlin   Role = "Merlin"
	RolePercival Role = "Percival"
	RoleMorgana  Role = "Morgana"
	RoleMordred  Role = "Mordred"
	RoleOberon   Role = "Oberon"
	RoleMinion   Role = "A Minion of Mordred"
	RoleServant  Role = "A Loyal Servant of Arthur"
)

// Player count bounds for a game of Avalon.
const (
	MinPlayers = 5
	MaxPlayers = 10
)

// ErrInvalidPlayerCount is returned when the deduplicated player list is
// outside [MinPlayers, MaxPlayers].
var ErrInvalidPlayerCount = errors.New("invalid player count")

// PlayerCountError carries the offending player count. It unwraps to
// ErrInvalidPlayerCount.
type PlayerCountError struct {
	Count int
}

func (e *PlayerCountError) Error() string {
	return fmt.Sprintf("avalon needs %d-%d players, have %d", MinPlayers, MaxPlayers, e.Count)
}

func (e *PlayerCountError) Unwrap() error {
	return ErrInvalidPlayerCount
}

// Reveal is one player's assignment: their role, the players their role is
// permitted to know about, and the composed private message.
type Reveal struct {
	Player  model.Participant
	Role    Role
	Knows   []model.Participant
	Message string
}

// Assign partitions players into roles and computes each player's reveal.
//
// Players are deduplicated by user id (first occurrence wins) and then
// shuffled so join order carries no information. Seats are filled in a
// fixed sequence: Merlin, Percival, Morgana, Mordred, Oberon at seven or
// more players, an anonymous extra spy at exactly ten, and Loyal Servants
// for the rest.
//
// Knowledge sets:
//   - Merlin sees Morgana, plus Oberon when present. Mordred stays hidden
//     from Merlin.
//   - Percival sees Merlin and Morgana without knowing which is which.
//   - Morgana, Mordred and the extra spy each see the full spy roster,
//     themselves included. Oberon is neither shown the roster nor on it.
//
// Assign has no side effects and fails before producing any reveal when
// the player count is out of bounds.
func Assign(players []model.Participant, creatorName string) ([]Reveal, error) {
	seats := dedupe(players)
	n := len(seats)
	if n < MinPlayers || n > MaxPlayers {
		return nil, &PlayerCountError{Count: n}
	}

	rand.Shuffle(n, func(i, j int) {
		seats[i], seats[j] = seats[j], seats[i]
	})

	idx := 0
	merlin := seats[idx]
	idx++
	percival := seats[idx]
	idx++
	morgana := seats[idx]
	idx++
	mordred := seats[idx]
	idx++

	knownToMerlin := []model.Participant{morgana}
	knownToPercival := []model.Participant{morgana, merlin}
	spies := []model.Participant{morgana, mordred}

	var oberon, minion *model.Participant
	if n >= 7 {
		p := seats[idx]
		idx++
		oberon = &p
		knownToMerlin = append(knownToMerlin, p)
	}
	if n == MaxPlayers {
		p := seats[idx]
		idx++
		minion = &p
		spies = append(spies, p)
	}

	header := fmt.Sprintf("The game, created by %s, has started.", creatorName)

	reveals := make([]Reveal, 0, n)
	reveals = append(reveals, Reveal{
		Player: merlin,
		Role:   RoleMerlin,
		Knows:  knownToMerlin,
		Message: fmt.Sprintf("%s\nYou are '%s'.\nThe spies you can see are %s.",
			header, RoleMerlin, formatNames(knownToMerlin)),
	})
	reveals = append(reveals, Reveal{
		Player: percival,
		Role:   RolePercival,
		Knows:  knownToPercival,
		Message: fmt.Sprintf("%s\nYou are '%s'.\n%s are either 'Merlin' or 'Morgana'.",
			header, RolePercival, formatNames(knownToPercival)),
	})
	for _, spy := range []struct {
		player model.Participant
		role   Role
	}{
		{morgana, RoleMorgana},
		{mordred, RoleMordred},
	} {
		reveals = append(reveals, Reveal{
			Player: spy.player,
			Role:   spy.role,
			Knows:  spies,
			Message: fmt.Sprintf("%s\nYou are '%s'.\nThe spies are %s.",
				header, spy.role, formatNames(spies)),
		})
	}
	if oberon != nil {
		reveals = append(reveals, Reveal{
			Player: *oberon,
			Role:   RoleOberon,
			Message: fmt.Sprintf("%s\nYou are '%s'.\nYou act alone and know no other spy.",
				header, RoleOberon),
		})
	}
	if minion != nil {
		reveals = append(reveals, Reveal{
			Player: *minion,
			Role:   RoleMinion,
			Knows:  spies,
			Message: fmt.Sprintf("%s\nYou are '%s'.\nThe spies are %s.",
				header, RoleMinion, formatNames(spies)),
		})
	}
	for ; idx < n; idx++ {
		reveals = append(reveals, Reveal{
			Player:  seats[idx],
			Role:    RoleServant,
			Message: fmt.Sprintf("%s\nYou are '%s'.", header, RoleServant),
		})
	}

	return reveals, nil
}

// dedupe removes duplicate user ids, first occurrence wins, and copies the
// input so the caller's slice is never reordered by the shuffle.
func dedupe(players []model.Participant) []model.Participant {
	seen := make(map[string]bool, len(players))
	seats := make([]model.Participant, 0, len(players))
	for _, p := range players {
		if seen[p.UserID] {
			continue
		}
		seen[p.UserID] = true
		seats = append(seats, p)
	}
	return seats
}

// formatNames renders participant names as "A", "A and B" or "A, B and C".
// The list is shuffled first so recipients cannot infer seat order from
// list position.
func formatNames(players []model.Participant) string {
	shuffled := make([]model.Participant, len(players))
	copy(shuffled, players)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	names := make([]string, len(shuffled))
	for i, p := range shuffled {
		names[i] = p.Name
	}

	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		last := names[len(names)-1]
		rest := names[:len(names)-1]
		out := rest[0]
		for _, name := range rest[1:] {
			out += ", " + name
		}
		return out + " and " + last
	}
}
