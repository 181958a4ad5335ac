// Package game implements the player-progression rules: cumulative stats,
// the quest catalog, per-player quest progress and reward claims.
//
// Every function reads fresh records from core.State and writes full records
// back; nothing is cached between calls. A returned error means the caller
// must discard every write made during the invocation.
package game

// Authorizer proves that the acting party is a given player.
type Authorizer interface {
	RequireAuth(player string) error
}
