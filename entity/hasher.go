package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/gowebpki/jcs"
	jsoniter "github.com/json-iterator/go"
)

// Hasher is the external hashing collaborator. It computes a deterministic
// digest over an event's canonical field set; the event's own hash is not
// part of that set.
type Hasher interface {
	SumEvent(event Event) (string, error)
}

// CanonicalHasher is the default Hasher. It serializes the event's
// hashable field set to JSON, transforms it to the RFC 8785 canonical form
// and returns the hex-encoded SHA-256 digest. Two events with equal field
// sets always produce the same digest, independent of map iteration order.
type CanonicalHasher struct{}

// SumEvent returns the canonical digest of the given event.
func (CanonicalHasher) SumEvent(event Event) (string, error) {
	raw, marshalErr := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(event.hashablePayload())
	if marshalErr != nil {
		return "", errors.Join(ErrHashingEventFailed, marshalErr)
	}

	canonical, transformErr := jcs.Transform(raw)
	if transformErr != nil {
		return "", errors.Join(ErrHashingEventFailed, transformErr)
	}

	sum := sha256.Sum256(canonical)

	return hex.EncodeToString(sum[:]), nil
}
