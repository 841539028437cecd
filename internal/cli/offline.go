package cli

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"idverse/internal/credential/contentstore"
	"idverse/internal/credential/models"
	"idverse/internal/credential/schema"
	"idverse/internal/credential/signing"
	"idverse/pkg/canonical"
)

func newKeygenCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "generate or load the issuer signing key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			issuer := v.GetString("issuer")
			if issuer == "" {
				return errors.New("--issuer is required")
			}
			store, err := signing.NewFileKeyStore(v.GetString("keys_dir"))
			if err != nil {
				return err
			}
			handle, err := signing.GenerateOrLoadKeypair(cmd.Context(), store, issuer)
			if err != nil {
				return err
			}
			signer := signing.New(handle)
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"issuer":               signer.IssuerID(),
				"verification_method":  signer.VerificationMethod(),
				"public_key_multibase": signer.PublicKeyMultibase(),
				"public_key_hex":       hex.EncodeToString(signer.PublicKey()),
				"generated":            handle.Generated(),
				"key_file":             store.Path(issuer),
			})
		},
	}
	cmd.Flags().String("issuer", models.DefaultIssuer, "issuer DID")
	cmd.Flags().String("keys-dir", "./keys", "directory holding issuer key files")
	_ = v.BindPFlag("issuer", cmd.Flags().Lookup("issuer"))
	_ = v.BindPFlag("keys_dir", cmd.Flags().Lookup("keys-dir"))
	return cmd
}

func newCIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cid <file>",
		Short: "print the content identifier of a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			canon, err := canonical.Marshal(json.RawMessage(raw))
			if err != nil {
				return fmt.Errorf("canonicalize %s: %w", args[0], err)
			}
			id, err := contentstore.ComputeCID(canon)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), id.String())
			return err
		},
	}
}

type verifyOutput struct {
	CredentialID string `json:"credential_id"`
	Issuer       string `json:"issuer"`
	SignatureOK  bool   `json:"signature_ok"`
	Expired      bool   `json:"expired"`
}

func newVerifyCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "check a credential's signature offline",
		Long: "Verifies the proof of a signed credential document. The issuer key is\n" +
			"taken from --public-key, or fetched from the server's issuer-info endpoint.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := schema.Validate(raw); err != nil {
				return err
			}
			var doc models.Document
			if err := json.Unmarshal(raw, &doc); err != nil {
				return fmt.Errorf("decode credential: %w", err)
			}

			key, err := verificationKey(cmd.Context(), v)
			if err != nil {
				return err
			}
			out := verifyOutput{
				CredentialID: string(doc.ID),
				Issuer:       doc.Issuer,
				SignatureOK:  doc.Proof != nil && signing.Verify(json.RawMessage(raw), *doc.Proof, key),
				Expired:      doc.ExpiredAt(nowFunc()),
			}
			if err := printJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if !out.SignatureOK {
				return errors.New("signature invalid")
			}
			return nil
		},
	}
	cmd.Flags().String("public-key", "", "issuer public key, multibase encoded")
	_ = v.BindPFlag("public_key", cmd.Flags().Lookup("public-key"))
	return cmd
}

func verificationKey(ctx context.Context, v *viper.Viper) (ed25519.PublicKey, error) {
	if encoded := v.GetString("public_key"); encoded != "" {
		return signing.DecodePublicKey(encoded)
	}
	var info struct {
		PublicKeyMultibase string `json:"public_key_multibase"`
	}
	if err := newClient(v).getJSON(ctx, "/vc/issuer-info", &info); err != nil {
		return nil, fmt.Errorf("fetch issuer key: %w", err)
	}
	return signing.DecodePublicKey(info.PublicKeyMultibase)
}
