// Package cli implements vcctl, the operator tool for the credential engine:
// key generation, offline CID and signature checks, operator tokens, and
// calls against a running server.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"idverse/internal/platform/config"
)

const (
	envPrefix        = "VCCTL"
	defaultServer    = "http://localhost:8080"
	defaultHTTPLimit = 15 * time.Second
)

// Execute runs vcctl with the process arguments.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the command tree. Every call gets its own viper
// instance so tests can run commands side by side.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("jwt_signing_key", envPrefix+"_JWT_SIGNING_KEY", "JWT_SIGNING_KEY")
	v.SetDefault("jwt_signing_key", config.DefaultJWTSigningKey)

	root := &cobra.Command{
		Use:           "vcctl",
		Short:         "operate the idverse credential engine",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String("server", defaultServer, "idverse server base URL")
	root.PersistentFlags().Duration("timeout", defaultHTTPLimit, "request timeout for server calls")
	root.PersistentFlags().String("token", "", "operator bearer token for issuer-only calls")
	_ = v.BindPFlag("server", root.PersistentFlags().Lookup("server"))
	_ = v.BindPFlag("timeout", root.PersistentFlags().Lookup("timeout"))
	_ = v.BindPFlag("token", root.PersistentFlags().Lookup("token"))

	root.AddCommand(
		newKeygenCmd(v),
		newCIDCmd(),
		newVerifyCmd(v),
		newTokenCmd(v),
		newChallengeCmd(v),
		newStatusCmd(v),
		newPresentCmd(v),
		newIssueCmd(v),
		newRequestCmd(v),
		newRevokeCmd(v),
	)
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// parseKeyValues turns repeated key=value flags into a map. Values that parse
// as JSON (numbers, booleans, objects) keep their JSON type.
func parseKeyValues(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		k, raw, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		val, ok := decodeValue(raw)
		if !ok {
			val = raw
		}
		out[k] = val
	}
	return out, nil
}

// decodeValue parses raw as a single JSON value. Numbers stay json.Number so
// large integers reach the server unrounded.
func decodeValue(raw string) (any, bool) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var val any
	if err := dec.Decode(&val); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}
	return val, true
}
