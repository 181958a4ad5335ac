package rpc

import (
	"encoding/json"
	"errors"
	"fmt"

	errorsmod "cosmossdk.io/errors"

	"github.com/tolelom/vivorun/core"
	"github.com/tolelom/vivorun/indexer"
)

// StateReader is the read side of core.State served over RPC.
type StateReader interface {
	GetAccount(address string) (*core.Account, error)
	GetPlayerStats(player string) (*core.PlayerStats, error)
	GetQuest(id uint32) (*core.Quest, error)
	ActiveQuestIDs() ([]uint32, error)
	GetQuestProgress(player string, questID uint32) (*core.QuestProgress, error)
	GetTokenAddress() (string, error)
}

// PlayerQuests lists the quests a player has completed and claimed.
type PlayerQuests struct {
	Player    string   `json:"player"`
	Completed []uint32 `json:"completed"`
	Claimed   []uint32 `json:"claimed"`
}

// Handler holds all dependencies needed to serve RPC methods.
type Handler struct {
	bc      *core.Blockchain
	mempool *core.Mempool
	state   StateReader
	indexer *indexer.Indexer
	chainID string // expected chain_id; used to reject cross-chain replay transactions
}

// NewHandler creates an RPC Handler. state must only expose committed data.
func NewHandler(bc *core.Blockchain, mempool *core.Mempool, state StateReader, idx *indexer.Indexer, chainID string) *Handler {
	return &Handler{bc: bc, mempool: mempool, state: state, indexer: idx, chainID: chainID}
}

// Dispatch routes an RPC request to the correct method.
func (h *Handler) Dispatch(req Request) Response {
	switch req.Method {
	case "getBlockHeight":
		return okResponse(req.ID, h.bc.Height())

	case "getBlock":
		return h.getBlock(req)

	case "getPlayerStats":
		return h.getPlayerStats(req)

	case "getQuest":
		return h.getQuest(req)

	case "getQuestProgress":
		return h.getQuestProgress(req)

	case "getActiveQuests":
		return h.getActiveQuests(req)

	case "getPlayerQuests":
		return h.getPlayerQuests(req)

	case "getTxReceipt":
		return h.getTxReceipt(req)

	case "getTokenAddress":
		addr, err := h.state.GetTokenAddress()
		if err != nil {
			return ledgerErrResponse(req.ID, err)
		}
		return okResponse(req.ID, addr)

	case "getNonce":
		return h.getNonce(req)

	case "sendTx":
		return h.sendTx(req)

	case "getMempoolSize":
		return okResponse(req.ID, h.mempool.Size())

	default:
		return errResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
	}
}

// decodeParams unmarshals req.Params into v. Missing params decode as {}.
func decodeParams(req Request, v any) *Response {
	if len(req.Params) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params, v); err != nil {
		resp := errResponse(req.ID, CodeInvalidParams, "params: "+err.Error())
		return &resp
	}
	return nil
}

func requireField(req Request, name, value string) *Response {
	if value == "" {
		resp := errResponse(req.ID, CodeInvalidParams, name+" is required")
		return &resp
	}
	return nil
}

func (h *Handler) getBlock(req Request) Response {
	var params struct {
		Hash   string `json:"hash"`
		Height *int64 `json:"height"`
	}
	if resp := decodeParams(req, &params); resp != nil {
		return *resp
	}

	var block *core.Block
	var err error
	if params.Hash != "" {
		block, err = h.bc.GetBlock(params.Hash)
	} else if params.Height != nil {
		block, err = h.bc.GetBlockByHeight(*params.Height)
	} else {
		block = h.bc.Tip()
	}
	if errors.Is(err, core.ErrNotFound) || (err == nil && block == nil) {
		return okResponse(req.ID, nil)
	}
	if err != nil {
		return ledgerErrResponse(req.ID, err)
	}
	return okResponse(req.ID, block)
}

func (h *Handler) getPlayerStats(req Request) Response {
	var params struct {
		Player string `json:"player"`
	}
	if resp := decodeParams(req, &params); resp != nil {
		return *resp
	}
	if resp := requireField(req, "player", params.Player); resp != nil {
		return *resp
	}
	stats, err := h.state.GetPlayerStats(params.Player)
	if err != nil {
		return ledgerErrResponse(req.ID, err)
	}
	return okResponse(req.ID, stats)
}

// getQuest answers null for an unknown quest.
func (h *Handler) getQuest(req Request) Response {
	var params struct {
		QuestID *uint32 `json:"quest_id"`
	}
	if resp := decodeParams(req, &params); resp != nil {
		return *resp
	}
	if params.QuestID == nil {
		return errResponse(req.ID, CodeInvalidParams, "quest_id is required")
	}
	q, err := h.state.GetQuest(*params.QuestID)
	if errors.Is(err, core.ErrNotFound) {
		return okResponse(req.ID, nil)
	}
	if err != nil {
		return ledgerErrResponse(req.ID, err)
	}
	return okResponse(req.ID, q)
}

func (h *Handler) getQuestProgress(req Request) Response {
	var params struct {
		Player  string  `json:"player"`
		QuestID *uint32 `json:"quest_id"`
	}
	if resp := decodeParams(req, &params); resp != nil {
		return *resp
	}
	if resp := requireField(req, "player", params.Player); resp != nil {
		return *resp
	}
	if params.QuestID == nil {
		return errResponse(req.ID, CodeInvalidParams, "quest_id is required")
	}
	p, err := h.state.GetQuestProgress(params.Player, *params.QuestID)
	if err != nil {
		return ledgerErrResponse(req.ID, err)
	}
	return okResponse(req.ID, p)
}

func (h *Handler) getActiveQuests(req Request) Response {
	ids, err := h.state.ActiveQuestIDs()
	if err != nil {
		return ledgerErrResponse(req.ID, err)
	}
	quests := make([]*core.Quest, 0, len(ids))
	for _, id := range ids {
		q, err := h.state.GetQuest(id)
		if err != nil {
			return ledgerErrResponse(req.ID, errorsmod.Wrapf(err, "quest %d", id))
		}
		quests = append(quests, q)
	}
	return okResponse(req.ID, quests)
}

func (h *Handler) getPlayerQuests(req Request) Response {
	var params struct {
		Player string `json:"player"`
	}
	if resp := decodeParams(req, &params); resp != nil {
		return *resp
	}
	if resp := requireField(req, "player", params.Player); resp != nil {
		return *resp
	}
	completed, err := h.indexer.CompletedQuests(params.Player)
	if err != nil {
		return ledgerErrResponse(req.ID, err)
	}
	claimed, err := h.indexer.ClaimedQuests(params.Player)
	if err != nil {
		return ledgerErrResponse(req.ID, err)
	}
	return okResponse(req.ID, PlayerQuests{
		Player:    params.Player,
		Completed: nonNil(completed),
		Claimed:   nonNil(claimed),
	})
}

// getTxReceipt answers null until the transaction has been processed.
func (h *Handler) getTxReceipt(req Request) Response {
	var params struct {
		TxID string `json:"tx_id"`
	}
	if resp := decodeParams(req, &params); resp != nil {
		return *resp
	}
	if resp := requireField(req, "tx_id", params.TxID); resp != nil {
		return *resp
	}
	r, err := h.indexer.Receipt(params.TxID)
	if errors.Is(err, core.ErrNotFound) {
		return okResponse(req.ID, nil)
	}
	if err != nil {
		return ledgerErrResponse(req.ID, err)
	}
	return okResponse(req.ID, r)
}

func (h *Handler) getNonce(req Request) Response {
	var params struct {
		Address string `json:"address"`
	}
	if resp := decodeParams(req, &params); resp != nil {
		return *resp
	}
	if resp := requireField(req, "address", params.Address); resp != nil {
		return *resp
	}
	acc, err := h.state.GetAccount(params.Address)
	if err != nil {
		return ledgerErrResponse(req.ID, err)
	}
	return okResponse(req.ID, acc)
}

func (h *Handler) sendTx(req Request) Response {
	var tx core.Transaction
	if err := json.Unmarshal(req.Params, &tx); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	// Reject transactions signed for another network.
	if tx.ChainID != h.chainID {
		return errResponse(req.ID, CodeInvalidParams,
			fmt.Sprintf("chain ID mismatch: got %q want %q", tx.ChainID, h.chainID))
	}
	// The ID is always recomputed from content.
	tx.ID = tx.Hash()
	if err := h.mempool.Add(&tx); err != nil {
		return errResponse(req.ID, CodeInvalidRequest, err.Error())
	}
	return okResponse(req.ID, map[string]string{"tx_id": tx.ID})
}

func nonNil(ids []uint32) []uint32 {
	if ids == nil {
		return []uint32{}
	}
	return ids
}
