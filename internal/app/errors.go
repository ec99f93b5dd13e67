package app

import (
	errorsmod "cosmossdk.io/errors"
	abci "github.com/cometbft/cometbft/abci/types"
)

// Codespace is the ABCI codespace for envelope, auth and mempool errors.
const Codespace = "tapnad"

var (
	ErrTxDecode       = errorsmod.Register(Codespace, 2, "tx decode error")
	ErrUnknownTx      = errorsmod.Register(Codespace, 3, "unknown tx type")
	ErrAuth           = errorsmod.Register(Codespace, 4, "unauthorized tx")
	ErrReplay         = errorsmod.Register(Codespace, 5, "replayed nonce")
	ErrTapCooldown    = errorsmod.Register(Codespace, 6, "tap cooldown")
	ErrNotInitialized = errorsmod.Register(Codespace, 7, "chain not initialized")
)

func errResult(err error) *abci.ExecTxResult {
	space, code, log := errorsmod.ABCIInfo(err, false)
	return &abci.ExecTxResult{Codespace: space, Code: code, Log: log}
}

func checkErr(err error) *abci.CheckTxResponse {
	space, code, log := errorsmod.ABCIInfo(err, false)
	return &abci.CheckTxResponse{Codespace: space, Code: code, Log: log}
}

func queryErr(err error, height int64) *abci.QueryResponse {
	space, code, log := errorsmod.ABCIInfo(err, false)
	return &abci.QueryResponse{Codespace: space, Code: code, Log: log, Height: height}
}
