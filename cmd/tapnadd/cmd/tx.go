package cmd

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/subhasisjena1643/tapnad/internal/app"
	"github.com/subhasisjena1643/tapnad/internal/codec"
)

const (
	flagSigner  = "signer"
	flagNonce   = "nonce"
	flagKeyFile = "key-file"
)

func newTxCmd() *cobra.Command {
	txCmd := &cobra.Command{
		Use:   "tx",
		Short: "Build and sign transactions offline",
	}
	txCmd.AddCommand(newKeygenCmd(), newSignCmd())
	return txCmd
}

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen <key-file>",
		Short: "Generate an ed25519 key and write its base64 seed to key-file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, priv, err := ed25519.GenerateKey(nil)
			if err != nil {
				return err
			}
			seed := base64.StdEncoding.EncodeToString(priv.Seed())
			if err := os.WriteFile(args[0], []byte(seed+"\n"), 0o600); err != nil {
				return fmt.Errorf("writing key file: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), base64.StdEncoding.EncodeToString(pub))
			return err
		},
	}
}

func newSignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign <type> <value-json>",
		Short: "Sign a tx envelope and print it base64-encoded for broadcast_tx",
		Example: binaryName + ` tx sign race/tap '{"player":"alice"}' --signer alice --nonce 7 --key-file alice.key
` + binaryName + ` tx sign auth/register_account '{"account":"alice","pubKey":"<base64>"}' --signer alice --nonce 1 --key-file alice.key`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			signer, _ := cmd.Flags().GetString(flagSigner)
			nonce, _ := cmd.Flags().GetUint64(flagNonce)
			keyFile, _ := cmd.Flags().GetString(flagKeyFile)

			priv, err := readKeyFile(keyFile)
			if err != nil {
				return err
			}
			if !json.Valid([]byte(args[1])) {
				return fmt.Errorf("value is not valid JSON: %s", args[1])
			}

			env := codec.TxEnvelope{Type: args[0], Value: json.RawMessage(args[1])}
			app.SignTx(&env, nonce, signer, priv)
			b, err := json.Marshal(env)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), base64.StdEncoding.EncodeToString(b))
			return err
		},
	}
	cmd.Flags().String(flagSigner, "", "account that signs the tx")
	cmd.Flags().Uint64(flagNonce, 0, "tx nonce; must exceed the signer's last accepted nonce")
	cmd.Flags().String(flagKeyFile, "", "file holding the base64 ed25519 seed")
	_ = cmd.MarkFlagRequired(flagSigner)
	_ = cmd.MarkFlagRequired(flagNonce)
	_ = cmd.MarkFlagRequired(flagKeyFile)
	return cmd
}

func readKeyFile(path string) (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	seed, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("decoding key file: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("key file: seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return ed25519.NewKeyFromSeed(seed), nil
}
