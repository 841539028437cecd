// Package schema checks the structural shape of presented credentials.
package schema

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	dErrors "idverse/pkg/domain-errors"
)

//go:embed credential.schema.json
var credentialSchema string

var (
	compileOnce sync.Once
	compiled    *gojsonschema.Schema
	compileErr  error
)

func load() (*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled, compileErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(credentialSchema))
	})
	return compiled, compileErr
}

// Validate checks raw JSON against the signed credential schema. Any
// structural problem is reported as a malformed document.
func Validate(raw []byte) error {
	s, err := load()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "compile credential schema")
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeMalformedDocument, "credential is not valid JSON")
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return dErrors.New(dErrors.CodeMalformedDocument, "credential schema: "+strings.Join(msgs, "; "))
}
