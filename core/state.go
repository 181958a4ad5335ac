package core

// Default values of a PlayerStats record that has never been written.
const (
	DefaultLevel = 1
	DefaultLives = 3
)

// Account holds the replay-protection nonce of a signer.
// Address is the hex-encoded ed25519 public key.
type Account struct {
	Address string `json:"address"` // pubkey hex
	Nonce   uint64 `json:"nonce"`
}

// PlayerStats is the cumulative record of one player.
// Level is carried for clients but no operation changes it.
type PlayerStats struct {
	Player           string `json:"player"` // pubkey hex
	TotalGamesPlayed uint32 `json:"total_games_played"`
	TotalScore       uint64 `json:"total_score"`
	HighScore        uint64 `json:"high_score"`
	TokensEarned     uint64 `json:"tokens_earned"`
	Level            uint32 `json:"level"`
	AvailableLives   uint32 `json:"available_lives"`
}

// NewPlayerStats returns the record a player has before their first game.
func NewPlayerStats(player string) *PlayerStats {
	return &PlayerStats{
		Player:         player,
		Level:          DefaultLevel,
		AvailableLives: DefaultLives,
	}
}

// Quest is an administrator-defined cumulative score target with a one-time reward.
type Quest struct {
	ID           uint32 `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	RewardAmount uint64 `json:"reward_amount"`
	TargetScore  uint64 `json:"target_score"`
	Active       bool   `json:"active"`
}

// QuestProgress tracks one player's progress towards one quest.
// Completed and Claimed only ever go from false to true, and Claimed implies Completed.
type QuestProgress struct {
	Player    string `json:"player"`
	QuestID   uint32 `json:"quest_id"`
	Progress  uint64 `json:"progress"`
	Completed bool   `json:"completed"`
	Claimed   bool   `json:"claimed"`
}

// State is the full ledger state interface. Implementations must be
// snapshot-able so the executor can roll back failed transactions, and
// every read must observe earlier writes made through the same State.
type State interface {
	// Accounts
	GetAccount(address string) (*Account, error)
	SetAccount(account *Account) error

	// Player stats; a missing record reads as NewPlayerStats(player).
	GetPlayerStats(player string) (*PlayerStats, error)
	SetPlayerStats(stats *PlayerStats) error

	// Quests; a missing quest reads as ErrNotFound.
	GetQuest(id uint32) (*Quest, error)
	SetQuest(q *Quest) error
	// ActiveQuestIDs returns the ids of every quest stored with Active set,
	// in ascending order.
	ActiveQuestIDs() ([]uint32, error)

	// Quest progress; a missing record reads as zero progress.
	GetQuestProgress(player string, questID uint32) (*QuestProgress, error)
	SetQuestProgress(p *QuestProgress) error

	// Configuration; an unset token address reads as "".
	GetTokenAddress() (string, error)
	SetTokenAddress(addr string) error

	// Snapshot / rollback / commit
	Snapshot() (int, error)
	RevertToSnapshot(id int) error
	// ComputeRoot returns the deterministic state root from the current write
	// buffer without flushing. Call this before signing a block.
	ComputeRoot() (string, error)
	// Commit flushes the write buffer to the underlying DB and clears it.
	// Always call ComputeRoot() first to obtain the root for the block header.
	Commit() error
	// Discard drops every uncommitted write.
	Discard()
}
