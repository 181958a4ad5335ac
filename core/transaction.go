package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tolelom/vivorun/crypto"
)

// TxType identifies the ledger operation a transaction invokes.
type TxType string

const (
	TxInitialize       TxType = "initialize"
	TxSubmitScore      TxType = "submit_score"
	TxClaimQuestReward TxType = "claim_quest_reward"
	TxBuyLifeline      TxType = "buy_lifeline"
	TxCreateQuest      TxType = "create_quest"
)

// Transaction is one signed invocation of a ledger operation.
// From holds the signer's hex-encoded ed25519 public key; a valid signature is
// the proof that the caller is From.
type Transaction struct {
	ID        string          `json:"id"`
	ChainID   string          `json:"chain_id"`
	Type      TxType          `json:"type"`
	From      string          `json:"from"`
	Nonce     uint64          `json:"nonce"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature"`
}

// signingBody holds the fields covered by the signature.
type signingBody struct {
	ChainID   string          `json:"chain_id"`
	Type      TxType          `json:"type"`
	From      string          `json:"from"`
	Nonce     uint64          `json:"nonce"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Hash returns the hash of every field except ID and Signature.
func (tx *Transaction) Hash() string {
	data, err := json.Marshal(signingBody{
		ChainID:   tx.ChainID,
		Type:      tx.Type,
		From:      tx.From,
		Nonce:     tx.Nonce,
		Timestamp: tx.Timestamp,
		Payload:   tx.Payload,
	})
	if err != nil {
		return ""
	}
	return crypto.Hash(data)
}

// Sign signs the transaction and sets ID.
func (tx *Transaction) Sign(priv crypto.PrivateKey) {
	hash := tx.Hash()
	tx.Signature = crypto.Sign(priv, []byte(hash))
	tx.ID = hash
}

// Verify checks that ID matches the content, that From is a valid public key
// and that it signed the transaction.
func (tx *Transaction) Verify() error {
	if tx.From == "" {
		return errors.New("missing from field")
	}
	pub, err := crypto.PubKeyFromHex(tx.From)
	if err != nil {
		return fmt.Errorf("invalid from: %w", err)
	}
	hash := tx.Hash()
	if tx.ID != hash {
		return errors.New("tx id does not match content")
	}
	return crypto.Verify(pub, []byte(hash), tx.Signature)
}

// NewTransaction creates an unsigned transaction stamped with the current time.
func NewTransaction(chainID string, typ TxType, from string, nonce uint64, payload any) (*Transaction, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Transaction{
		ChainID:   chainID,
		Type:      typ,
		From:      from,
		Nonce:     nonce,
		Timestamp: time.Now().UnixNano(),
		Payload:   raw,
	}, nil
}

// ---- Payload types ----

// InitializePayload stores the token-contract address.
type InitializePayload struct {
	TokenAddress string `json:"token_address"`
}

// SubmitScorePayload records one finished game.
type SubmitScorePayload struct {
	Player string `json:"player"` // must equal the signer
	Score  uint64 `json:"score"`
}

// ClaimQuestRewardPayload converts a completed quest into tokens.
type ClaimQuestRewardPayload struct {
	Player  string `json:"player"` // must equal the signer
	QuestID uint32 `json:"quest_id"`
}

// BuyLifelinePayload spends tokens on one extra life.
type BuyLifelinePayload struct {
	Player string `json:"player"` // must equal the signer
}

// CreateQuestPayload defines (or replaces) a quest.
type CreateQuestPayload struct {
	QuestID      uint32 `json:"quest_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	RewardAmount uint64 `json:"reward_amount"`
	TargetScore  uint64 `json:"target_score"`
}
