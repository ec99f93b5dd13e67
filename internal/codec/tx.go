package codec

import (
	"encoding/json"
	"fmt"
)

// Tx types.
const (
	TypeRegisterAccount = "auth/register_account"
	TypeJoinTeam        = "race/join_team"
	TypeStartGame       = "race/start_game"
	TypeTap             = "race/tap"
	TypeResetGame       = "race/reset_game"
)

// TxEnvelope is the transaction container.
//
// CometBFT transactions are opaque bytes; we carry JSON with an ed25519
// signature over (type, nonce, signer, sha256(value)).
type TxEnvelope struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`

	// Nonce is a decimal u64 that must strictly increase per signer.
	Nonce  string `json:"nonce,omitempty"`
	Signer string `json:"signer,omitempty"`
	Sig    []byte `json:"sig,omitempty"`
}

func DecodeTxEnvelope(txBytes []byte) (TxEnvelope, error) {
	var env TxEnvelope
	if err := json.Unmarshal(txBytes, &env); err != nil {
		return TxEnvelope{}, fmt.Errorf("invalid tx json: %w", err)
	}
	if env.Type == "" {
		return TxEnvelope{}, fmt.Errorf("missing tx.type")
	}
	return env, nil
}

// DecodeValue unmarshals the envelope payload into v.
func (env TxEnvelope) DecodeValue(v any) error {
	if len(env.Value) == 0 {
		return fmt.Errorf("missing %s value", env.Type)
	}
	if err := json.Unmarshal(env.Value, v); err != nil {
		return fmt.Errorf("bad %s value: %w", env.Type, err)
	}
	return nil
}

// ---- Auth ----

// AuthRegisterAccountTx binds an account name to its ed25519 public key.
type AuthRegisterAccountTx struct {
	Account string `json:"account"`
	PubKey  []byte `json:"pubKey"` // base64 (32 bytes)
}

// ---- Race ----

type RaceJoinTeamTx struct {
	Player string `json:"player"`
	Team   uint64 `json:"team"` // 0 = Bitcoin, 1 = Ethereum
}

type RaceStartGameTx struct {
	Caller string `json:"caller"`
}

type RaceTapTx struct {
	Player string `json:"player"`
}

type RaceResetGameTx struct {
	Caller string `json:"caller"`
}
