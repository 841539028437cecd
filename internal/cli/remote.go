package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ErrNotVerified is returned by present when the server's verdict is negative,
// so the process exits non-zero.
var ErrNotVerified = errors.New("credential not verified")

func newChallengeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "challenge",
		Short: "request a single-use presentation challenge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out map[string]any
			if err := newClient(v).getJSON(cmd.Context(), "/vc/challenge", &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newStatusCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "show registry status for a credential id or numeric id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out map[string]any
			if err := newClient(v).getJSON(cmd.Context(), "/vc/status/"+url.PathEscape(args[0]), &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

type presentBody struct {
	Credential   json.RawMessage `json:"credential,omitempty"`
	CID          string          `json:"cid,omitempty"`
	CredentialID string          `json:"credential_id,omitempty"`
	Disclosed    map[string]any  `json:"disclosed,omitempty"`
	Challenge    string          `json:"challenge,omitempty"`
}

func newPresentCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "present [file]",
		Short: "present a credential for verification",
		Long: "Presents a credential by document (file argument), --cid or --credential-id\n" +
			"and prints the itemized verdict. Exits non-zero when the credential is not verified.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			body := presentBody{}
			body.CID, _ = flags.GetString("cid")
			body.CredentialID, _ = flags.GetString("credential-id")
			body.Challenge, _ = flags.GetString("challenge")
			if len(args) == 1 {
				raw, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				if !json.Valid(raw) {
					return fmt.Errorf("%s is not valid JSON", args[0])
				}
				body.Credential = raw
			}
			if body.Credential == nil && body.CID == "" && body.CredentialID == "" {
				return errors.New("give a credential file, --cid or --credential-id")
			}

			pairs, _ := flags.GetStringArray("disclose")
			if len(pairs) > 0 {
				disclosed, err := parseKeyValues(pairs)
				if err != nil {
					return err
				}
				body.Disclosed = disclosed
			}

			client := newClient(v)
			if fetch, _ := flags.GetBool("fetch-challenge"); fetch && body.Challenge == "" {
				var ch struct {
					Challenge string `json:"challenge"`
				}
				if err := client.getJSON(cmd.Context(), "/vc/challenge", &ch); err != nil {
					return fmt.Errorf("fetch challenge: %w", err)
				}
				body.Challenge = ch.Challenge
			}

			var verdict map[string]any
			if err := client.postJSON(cmd.Context(), "/vc/present", body, &verdict); err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), verdict); err != nil {
				return err
			}
			if ok, _ := verdict["verified"].(bool); !ok {
				return ErrNotVerified
			}
			return nil
		},
	}
	cmd.Flags().String("cid", "", "content identifier of a pinned credential")
	cmd.Flags().String("credential-id", "", "credential id or numeric registry id")
	cmd.Flags().String("challenge", "", "challenge nonce to bind to the presentation")
	cmd.Flags().Bool("fetch-challenge", false, "request a fresh challenge before presenting")
	cmd.Flags().StringArray("disclose", nil, "disclosed claim as key=value (repeatable)")
	return cmd
}

type issueBody struct {
	SubjectID      string         `json:"subject_id,omitempty"`
	CredentialType string         `json:"credential_type,omitempty"`
	Claims         map[string]any `json:"claims,omitempty"`
	ExpiresIn      string         `json:"expires_in,omitempty"`
	ExpiresAt      string         `json:"expires_at,omitempty"`
	NoExpiry       bool           `json:"no_expiry,omitempty"`
	RequestID      string         `json:"request_id,omitempty"`
}

func newIssueCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "issue a credential (requires an issuer token)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			body := issueBody{}
			body.SubjectID, _ = flags.GetString("subject-id")
			body.CredentialType, _ = flags.GetString("type")
			body.ExpiresIn, _ = flags.GetString("expires-in")
			body.ExpiresAt, _ = flags.GetString("expires-at")
			body.NoExpiry, _ = flags.GetBool("no-expiry")
			body.RequestID, _ = flags.GetString("request-id")
			if body.RequestID == "" && (body.SubjectID == "" || body.CredentialType == "") {
				return errors.New("--subject-id and --type are required unless --request-id is set")
			}

			pairs, _ := flags.GetStringArray("claim")
			claims, err := parseKeyValues(pairs)
			if err != nil {
				return err
			}
			body.Claims = claims

			var out struct {
				Credential json.RawMessage `json:"credential"`
				CID        string          `json:"cid"`
				NumericID  uint64          `json:"numeric_id"`
				Receipt    map[string]any  `json:"receipt"`
				RequestID  string          `json:"request_id,omitempty"`
			}
			if err := newClient(v).postJSON(cmd.Context(), "/vc/issue", body, &out); err != nil {
				return err
			}
			if path, _ := flags.GetString("out"); path != "" {
				if err := os.WriteFile(path, out.Credential, 0o600); err != nil {
					return fmt.Errorf("write credential: %w", err)
				}
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().String("subject-id", "", "credential subject id")
	cmd.Flags().String("type", "", "credential type")
	cmd.Flags().StringArray("claim", nil, "claim as key=value (repeatable)")
	cmd.Flags().String("expires-in", "", "relative expiry, e.g. 720h")
	cmd.Flags().String("expires-at", "", "absolute expiry, RFC3339")
	cmd.Flags().Bool("no-expiry", false, "issue without an expiration date")
	cmd.Flags().String("out", "", "also write the signed credential to this file")
	cmd.Flags().String("request-id", "", "approve a pending credential request")
	return cmd
}

func newRequestCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request",
		Short: "ask an issuer for a credential (any valid token)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			credType, _ := flags.GetString("type")
			subjectID, _ := flags.GetString("subject-id")
			pairs, _ := flags.GetStringArray("claim")
			claims, err := parseKeyValues(pairs)
			if err != nil {
				return err
			}
			body := map[string]any{"credential_type": credType, "claims": claims}
			if subjectID != "" {
				body["subject_id"] = subjectID
			}

			var out map[string]any
			if err := newClient(v).postJSON(cmd.Context(), "/vc/request-issue", body, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().String("type", "", "credential type")
	cmd.Flags().String("subject-id", "", "subject id, defaults to the token subject")
	cmd.Flags().StringArray("claim", nil, "claim as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newRevokeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <id>",
		Short: "revoke a credential (requires an issuer token)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reason, _ := cmd.Flags().GetString("reason")
			var out map[string]any
			body := map[string]string{"credential_id": args[0], "reason": reason}
			if err := newClient(v).postJSON(cmd.Context(), "/vc/revoke", body, &out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().String("reason", "", "revocation reason")
	return cmd
}
