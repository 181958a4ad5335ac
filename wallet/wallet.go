// Package wallet holds a player or validator key and builds signed ledger
// transactions with it.
package wallet

import (
	"github.com/tolelom/vivorun/core"
	"github.com/tolelom/vivorun/crypto"
)

// Wallet holds a key pair bound to one chain.
type Wallet struct {
	priv crypto.PrivateKey
	pub  crypto.PublicKey
}

// New creates a Wallet from an existing private key.
func New(priv crypto.PrivateKey) *Wallet {
	return &Wallet{priv: priv, pub: priv.Public()}
}

// Generate creates a Wallet with a fresh key pair.
func Generate() (*Wallet, error) {
	priv, _, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	return New(priv), nil
}

// PrivKey returns the raw private key.
func (w *Wallet) PrivKey() crypto.PrivateKey {
	return w.priv
}

// PubKey returns the hex public key, which is also the player identity.
func (w *Wallet) PubKey() string {
	return w.pub.Hex()
}

// NewTx creates a signed transaction. nonce must equal the signer's current
// account nonce on chainID.
func (w *Wallet) NewTx(chainID string, typ core.TxType, nonce uint64, payload any) (*core.Transaction, error) {
	tx, err := core.NewTransaction(chainID, typ, w.pub.Hex(), nonce, payload)
	if err != nil {
		return nil, err
	}
	tx.Sign(w.priv)
	return tx, nil
}

// SubmitScore records a finished game for the wallet's own player.
func (w *Wallet) SubmitScore(chainID string, nonce, score uint64) (*core.Transaction, error) {
	return w.NewTx(chainID, core.TxSubmitScore, nonce, core.SubmitScorePayload{
		Player: w.PubKey(),
		Score:  score,
	})
}

// ClaimQuestReward claims the reward of a completed quest.
func (w *Wallet) ClaimQuestReward(chainID string, nonce uint64, questID uint32) (*core.Transaction, error) {
	return w.NewTx(chainID, core.TxClaimQuestReward, nonce, core.ClaimQuestRewardPayload{
		Player:  w.PubKey(),
		QuestID: questID,
	})
}

// BuyLifeline spends tokens on one extra life.
func (w *Wallet) BuyLifeline(chainID string, nonce uint64) (*core.Transaction, error) {
	return w.NewTx(chainID, core.TxBuyLifeline, nonce, core.BuyLifelinePayload{Player: w.PubKey()})
}

// CreateQuest defines or replaces a quest.
func (w *Wallet) CreateQuest(chainID string, nonce uint64, p core.CreateQuestPayload) (*core.Transaction, error) {
	return w.NewTx(chainID, core.TxCreateQuest, nonce, p)
}

// Initialize stores the token-contract address.
func (w *Wallet) Initialize(chainID string, nonce uint64, tokenAddress string) (*core.Transaction, error) {
	return w.NewTx(chainID, core.TxInitialize, nonce, core.InitializePayload{TokenAddress: tokenAddress})
}
