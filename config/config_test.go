package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolelom/vivorun/crypto"
	"github.com/tolelom/vivorun/internal/testutil"
	"github.com/tolelom/vivorun/storage"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "vivorun-dev", cfg.Genesis.ChainID)
	assert.Equal(t, storage.BackendLevelDB, cfg.Storage.Backend)
	require.NoError(t, cfg.Validate())
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeFile(t, "node.json", `{
		"node_id": "n1",
		"rpc": {"port": 9000},
		"storage": {"backend": "sqlite"},
		"genesis": {"chain_id": "from-file"}
	}`)
	t.Setenv("VIVO_CHAIN_ID", "from-env")
	t.Setenv("VIVO_VALIDATORS", "aa,bb")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "n1", cfg.NodeID)
	assert.Equal(t, 9000, cfg.RPC.Port)
	assert.Equal(t, storage.BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "from-env", cfg.Genesis.ChainID)
	assert.Equal(t, []string{"aa", "bb"}, cfg.Validators)
	assert.Equal(t, "info", cfg.Log.Level, "defaults survive a partial file")
}

func TestLoadBadEnv(t *testing.T) {
	t.Setenv("VIVO_RPC_PORT", "not-a-port")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"no chain id":     func(c *Config) { c.Genesis.ChainID = "" },
		"bad port":        func(c *Config) { c.RPC.Port = 70000 },
		"unknown backend": func(c *Config) { c.Storage.Backend = "mongo" },
		"redis no addr":   func(c *Config) { c.Storage.Backend = storage.BackendRedis },
		"bad log format":  func(c *Config) { c.Log.Format = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Validators = []string{"abc"}
	cfg.Genesis.Quests = []GenesisQuest{{ID: 1, Title: "t", RewardAmount: 5, TargetScore: 10}}
	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, Save(cfg, path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestGenesisQuests(t *testing.T) {
	path := writeFile(t, "quests.yaml", `
quests:
  - id: 1
    title: Marathon
    description: Score 1000 in total
    reward_amount: 100
    target_score: 1000
  - id: 2
    title: Sprint
    reward_amount: 10
    target_score: 200
`)
	g := GenesisConfig{
		Quests:     []GenesisQuest{{ID: 0, Title: "Tutorial", RewardAmount: 1, TargetScore: 1}},
		QuestsFile: path,
	}
	quests, err := g.GenesisQuests()
	require.NoError(t, err)
	require.Len(t, quests, 3)
	assert.Equal(t, "Marathon", quests[1].Title)
	assert.Equal(t, uint64(1000), quests[1].TargetScore)

	g.Quests = append(g.Quests, GenesisQuest{ID: 2})
	_, err = g.GenesisQuests()
	assert.ErrorContains(t, err, "defined twice")
}

func TestCreateGenesisBlock(t *testing.T) {
	priv, pub, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Genesis.TokenAddress = "token-contract"
	cfg.Genesis.Quests = []GenesisQuest{{ID: 4, Title: "Warmup", RewardAmount: 5, TargetScore: 50}}

	db := testutil.NewMemDB()
	st := storage.NewStateDB(db)
	block, err := CreateGenesisBlock(cfg, st, priv)
	require.NoError(t, err)

	assert.Equal(t, int64(0), block.Header.Height)
	assert.True(t, IsGenesisHash(block.Header.PrevHash))
	require.NoError(t, block.Verify(pub))

	committed := storage.NewStateDB(db)
	addr, err := committed.GetTokenAddress()
	require.NoError(t, err)
	assert.Equal(t, "token-contract", addr)
	q, err := committed.GetQuest(4)
	require.NoError(t, err)
	assert.True(t, q.Active)
	root, err := committed.ComputeRoot()
	require.NoError(t, err)
	assert.Equal(t, block.Header.StateRoot, root)
}
