package contentstore

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	dErrors "idverse/pkg/domain-errors"
)

// ComputeCID derives the CIDv1 (raw codec, sha2-256) of data. This is the
// same CID an IPFS node assigns to a single raw block with those bytes.
func ComputeCID(data []byte) (cid.Cid, error) {
	h, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, fmt.Errorf("hash content: %w", err)
	}
	return cid.NewCidV1(cid.Raw, h), nil
}

// ParseCID decodes a CID string, rejecting anything but sha2-256 raw blocks.
func ParseCID(s string) (cid.Cid, error) {
	c, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, dErrors.New(dErrors.CodeInvalidInput, "invalid content identifier")
	}
	if c.Type() != cid.Raw || c.Prefix().MhType != multihash.SHA2_256 {
		return cid.Undef, dErrors.New(dErrors.CodeInvalidInput, "unsupported content identifier")
	}
	return c, nil
}

// matches reports whether data hashes to c.
func matches(c cid.Cid, data []byte) bool {
	got, err := ComputeCID(data)
	return err == nil && got.Equals(c)
}
