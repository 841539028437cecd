// Package canonical produces the deterministic byte form of JSON documents
// used for both signing and content addressing.
//
// The output is RFC 8785 (JCS): object keys sorted by UTF-16 code units,
// compact separators, no insignificant whitespace, and numbers in their
// shortest round-trip form.
package canonical

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gowebpki/jcs"
)

// ErrInexactNumber reports a number that canonicalization would rewrite
// because it has no exact IEEE 754 double form, such as integers above 2^53.
var ErrInexactNumber = errors.New("canonicalize: number is not exactly representable as a double")

// Marshal returns the canonical bytes of v. v may be any value encoding/json
// accepts, including json.RawMessage. Numbers that would change value on the
// way through a double are rejected with ErrInexactNumber.
func Marshal(v any) ([]byte, error) {
	raw, err := toJSON(v)
	if err != nil {
		return nil, err
	}
	if err := checkNumbers(raw); err != nil {
		return nil, err
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	return out, nil
}

// MarshalWithout returns the canonical bytes of the top-level object v with
// the named keys removed. Used to derive signing input without the proof.
func MarshalWithout(v any, keys ...string) ([]byte, error) {
	raw, err := toJSON(v)
	if err != nil {
		return nil, err
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("canonicalize: top-level value is not an object: %w", err)
	}
	for _, k := range keys {
		delete(obj, k)
	}
	return Marshal(obj)
}

// Equal reports whether a and b have the same canonical form.
func Equal(a, b any) bool {
	ca, err := Marshal(a)
	if err != nil {
		return false
	}
	cb, err := Marshal(b)
	if err != nil {
		return false
	}
	return string(ca) == string(cb)
}

func toJSON(v any) ([]byte, error) {
	switch t := v.(type) {
	case json.RawMessage:
		return t, nil
	case []byte:
		return t, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: encode: %w", err)
	}
	return raw, nil
}

// checkNumbers walks every number literal in raw and fails on the first one
// whose shortest double form denotes a different decimal value.
func checkNumbers(raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("canonicalize: %w", err)
		}
		n, ok := tok.(json.Number)
		if !ok {
			continue
		}
		if !exactDouble(string(n)) {
			return fmt.Errorf("%w: %s", ErrInexactNumber, n)
		}
	}
}

func exactDouble(lit string) bool {
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return false
	}
	want, ok := decimalKey(lit)
	if !ok {
		return false
	}
	got, ok := decimalKey(strconv.FormatFloat(f, 'g', -1, 64))
	return ok && got == want
}

// decimalKey reduces a JSON number literal to sign, significant digits and
// exponent so that equal values compare equal as strings: "1.50", "15e-1"
// and "0.15e1" all map to "15e-1".
func decimalKey(lit string) (string, bool) {
	neg := strings.HasPrefix(lit, "-")
	lit = strings.TrimPrefix(lit, "-")

	mant, exp := lit, 0
	if i := strings.IndexAny(lit, "eE"); i >= 0 {
		e, err := strconv.Atoi(lit[i+1:])
		if err != nil {
			return "", false
		}
		mant, exp = lit[:i], e
	}
	intPart, frac, _ := strings.Cut(mant, ".")
	digits := strings.TrimLeft(intPart+frac, "0")
	exp -= len(frac)
	if digits == "" {
		return "0", true
	}
	trimmed := strings.TrimRight(digits, "0")
	exp += len(digits) - len(trimmed)

	key := trimmed + "e" + strconv.Itoa(exp)
	if neg {
		key = "-" + key
	}
	return key, true
}
