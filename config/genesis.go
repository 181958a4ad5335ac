package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tolelom/vivorun/core"
	"github.com/tolelom/vivorun/crypto"
	"github.com/tolelom/vivorun/game"
)

// GenesisHash is a canonical all-zeros previous hash for the genesis block.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// questCatalog is the layout of a genesis quests YAML file.
type questCatalog struct {
	Quests []GenesisQuest `yaml:"quests"`
}

// LoadQuestCatalog reads a YAML quest catalog.
func LoadQuestCatalog(path string) ([]GenesisQuest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cat questCatalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("decode quest catalog %s: %w", path, err)
	}
	return cat.Quests, nil
}

// GenesisQuests returns the inline quests followed by those of QuestsFile.
// A quest id may appear only once.
func (g GenesisConfig) GenesisQuests() ([]GenesisQuest, error) {
	quests := append([]GenesisQuest(nil), g.Quests...)
	if g.QuestsFile != "" {
		fromFile, err := LoadQuestCatalog(g.QuestsFile)
		if err != nil {
			return nil, err
		}
		quests = append(quests, fromFile...)
	}
	seen := make(map[uint32]bool, len(quests))
	for _, q := range quests {
		if seen[q.ID] {
			return nil, fmt.Errorf("genesis quest %d defined twice", q.ID)
		}
		seen[q.ID] = true
	}
	return quests, nil
}

// CreateGenesisBlock seeds the token address and the genesis quest catalog
// into state, commits it, and returns the signed block #0.
func CreateGenesisBlock(cfg *Config, state core.State, proposerPriv crypto.PrivateKey) (*core.Block, error) {
	quests, err := cfg.Genesis.GenesisQuests()
	if err != nil {
		return nil, err
	}
	if cfg.Genesis.TokenAddress != "" {
		if err := game.Initialize(state, cfg.Genesis.TokenAddress); err != nil {
			return nil, err
		}
	}
	for _, q := range quests {
		if _, err := game.CreateQuest(state, q.ID, q.Title, q.Description, q.RewardAmount, q.TargetScore); err != nil {
			return nil, fmt.Errorf("genesis quest %d: %w", q.ID, err)
		}
	}

	stateRoot, err := state.ComputeRoot()
	if err != nil {
		return nil, err
	}
	if err := state.Commit(); err != nil {
		return nil, err
	}

	block := core.NewBlock(0, GenesisHash, proposerPriv.Public().Hex(), nil, nil)
	block.Header.StateRoot = stateRoot
	// The chain ID is committed through TxRoot.
	block.Header.TxRoot = crypto.Hash([]byte(cfg.Genesis.ChainID))
	block.Sign(proposerPriv)
	return block, nil
}

// IsGenesisHash returns true if the hash is the canonical genesis prev-hash.
func IsGenesisHash(h string) bool {
	return strings.Count(h, "0") == len(h) && len(h) == 64
}
