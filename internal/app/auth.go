package app

import (
	"crypto/ed25519"
	"crypto/sha256"
	"strconv"

	"github.com/subhasisjena1643/tapnad/internal/codec"
	"github.com/subhasisjena1643/tapnad/internal/state"
)

const txAuthDomainV0 = "tapnad/tx/v0"

func txAuthSignBytesV0(typ string, value []byte, nonce string, signer string) []byte {
	// signBytes = DOMAIN || 0x00 || type || 0x00 || nonce || 0x00 || signer || 0x00 || sha256(value)
	sum := sha256.Sum256(value)
	out := make([]byte, 0, len(txAuthDomainV0)+1+len(typ)+1+len(nonce)+1+len(signer)+1+sha256.Size)
	out = append(out, []byte(txAuthDomainV0)...)
	out = append(out, 0)
	out = append(out, []byte(typ)...)
	out = append(out, 0)
	out = append(out, []byte(nonce)...)
	out = append(out, 0)
	out = append(out, []byte(signer)...)
	out = append(out, 0)
	out = append(out, sum[:]...)
	return out
}

// SignTx fills the auth fields of env using priv. Clients and tests share it.
func SignTx(env *codec.TxEnvelope, nonce uint64, signer string, priv ed25519.PrivateKey) {
	env.Nonce = strconv.FormatUint(nonce, 10)
	env.Signer = signer
	env.Sig = ed25519.Sign(priv, txAuthSignBytesV0(env.Type, env.Value, env.Nonce, env.Signer))
}

func requireSignedEnvelope(env codec.TxEnvelope) error {
	if env.Nonce == "" {
		return ErrAuth.Wrap("missing tx.nonce")
	}
	if env.Signer == "" {
		return ErrAuth.Wrap("missing tx.signer")
	}
	if len(env.Sig) == 0 {
		return ErrAuth.Wrap("missing tx.sig")
	}
	if len(env.Sig) != ed25519.SignatureSize {
		return ErrAuth.Wrapf("invalid tx.sig length: got %d want %d", len(env.Sig), ed25519.SignatureSize)
	}
	return nil
}

func verifyEnvelope(pub ed25519.PublicKey, env codec.TxEnvelope) error {
	msg := txAuthSignBytesV0(env.Type, env.Value, env.Nonce, env.Signer)
	if !ed25519.Verify(pub, msg, env.Sig) {
		return ErrAuth.Wrap("invalid signature")
	}
	return nil
}

func requireRegisterAccountAuth(st *state.State, env codec.TxEnvelope, msg codec.AuthRegisterAccountTx) error {
	if msg.Account == "" {
		return ErrAuth.Wrap("missing account")
	}
	if len(msg.PubKey) != ed25519.PublicKeySize {
		return ErrAuth.Wrapf("pubKey must be %d bytes", ed25519.PublicKeySize)
	}
	if err := requireSignedEnvelope(env); err != nil {
		return err
	}
	if env.Signer != msg.Account {
		return ErrAuth.Wrapf("tx signer mismatch: signer=%q want=%q", env.Signer, msg.Account)
	}
	if existing := st.AccountKeys[msg.Account]; len(existing) != 0 && string(existing) != string(msg.PubKey) {
		return ErrAuth.Wrapf("account %q already registered with a different pubKey", msg.Account)
	}
	return verifyEnvelope(ed25519.PublicKey(msg.PubKey), env)
}

func requireAccountAuth(st *state.State, env codec.TxEnvelope, account string) error {
	if account == "" {
		return ErrAuth.Wrap("missing account")
	}
	if err := requireSignedEnvelope(env); err != nil {
		return err
	}
	if env.Signer != account {
		return ErrAuth.Wrapf("tx signer mismatch: signer=%q want=%q", env.Signer, account)
	}
	pub := st.AccountKeys[account]
	if len(pub) != ed25519.PublicKeySize {
		return ErrAuth.Wrapf("account %q missing pubKey (auth/register_account required)", account)
	}
	return verifyEnvelope(ed25519.PublicKey(pub), env)
}

// checkNonce reports whether env.Nonce is above the signer's last accepted one.
func checkNonce(st *state.State, env codec.TxEnvelope) error {
	_, err := parseNonce(st, env)
	return err
}

// consumeNonce enforces strictly increasing nonces per signer.
func consumeNonce(st *state.State, env codec.TxEnvelope) error {
	n, err := parseNonce(st, env)
	if err != nil {
		return err
	}
	st.NonceMax[env.Signer] = n
	return nil
}

func parseNonce(st *state.State, env codec.TxEnvelope) (uint64, error) {
	n, err := strconv.ParseUint(env.Nonce, 10, 64)
	if err != nil {
		return 0, ErrAuth.Wrapf("invalid tx.nonce %q", env.Nonce)
	}
	if last, ok := st.NonceMax[env.Signer]; ok && n <= last {
		return 0, ErrReplay.Wrapf("replayed tx.nonce %d (last %d)", n, last)
	}
	if n == 0 {
		return 0, ErrReplay.Wrap("replayed tx.nonce 0")
	}
	return n, nil
}
