// Package seal binds a database stream to a signer.
//
// A seal is a COSE Sign1 message whose payload commits to the exact stream
// bytes: their length and SHA-256 digest, and the build id from the stream
// header. It travels beside the stream rather than inside it, so producing a
// seal never changes the bytes being sealed.
package seal

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/veraison/go-cose"
)

// ContentType identifies the payload of a seal.
const ContentType = "application/vnd.reflectdb.seal+cbor"

var (
	ErrVerifierRequired = errors.New("seal: a verifier is required")
	ErrSignerRequired   = errors.New("seal: a signer is required")
	ErrSizeMismatch     = errors.New("seal: stream size does not match the seal")
	ErrDigestMismatch   = errors.New("seal: stream digest does not match the seal")
	ErrContentType      = errors.New("seal: unexpected content type")
)

// Claims is the signed payload.
type Claims struct {
	Size   uint64 `cbor:"1,keyasint"`
	Digest []byte `cbor:"2,keyasint"`
	// BuildID is the build id of the sealed stream, as 16 raw bytes.
	BuildID []byte `cbor:"3,keyasint"`
	// Timestamp is the unix time (milliseconds) read at the time the stream
	// was sealed. Including it allows the same stream to be re-sealed.
	Timestamp int64 `cbor:"4,keyasint"`
}

var encMode = mustEncMode()

func mustEncMode() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

// Sign1 seals stream, which must be the complete stream as written.
func Sign1(signer cose.Signer, stream []byte, buildID uuid.UUID) ([]byte, error) {
	digest := sha256.Sum256(stream)
	return SignClaims(signer, Claims{
		Size:      uint64(len(stream)),
		Digest:    digest[:],
		BuildID:   buildID[:],
		Timestamp: time.Now().UnixMilli(),
	})
}

// SignClaims signs previously computed claims.
func SignClaims(signer cose.Signer, claims Claims) ([]byte, error) {
	if signer == nil {
		return nil, ErrSignerRequired
	}
	payload, err := encMode.Marshal(claims)
	if err != nil {
		return nil, err
	}
	msg := cose.Sign1Message{
		Headers: cose.Headers{
			Protected: cose.ProtectedHeader{
				cose.HeaderLabelAlgorithm:   signer.Algorithm(),
				cose.HeaderLabelContentType: ContentType,
			},
		},
		Payload: payload,
	}
	if err = msg.Sign(rand.Reader, nil, signer); err != nil {
		return nil, err
	}
	return msg.MarshalCBOR()
}

// Decode parses a seal without verifying it.
func Decode(sealed []byte) (*cose.Sign1Message, Claims, error) {
	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(sealed); err != nil {
		return nil, Claims{}, err
	}
	if ct, ok := msg.Headers.Protected[cose.HeaderLabelContentType]; !ok || ct != ContentType {
		return nil, Claims{}, fmt.Errorf("%w: %v", ErrContentType, ct)
	}
	var claims Claims
	if err := cbor.Unmarshal(msg.Payload, &claims); err != nil {
		return nil, Claims{}, err
	}
	return &msg, claims, nil
}

// Verify checks the seal signature and that it commits to stream.
func Verify(verifier cose.Verifier, sealed []byte, stream []byte) (Claims, error) {
	digest := sha256.Sum256(stream)
	return VerifyDigest(verifier, sealed, uint64(len(stream)), digest[:])
}

// VerifyDigest is Verify for a caller that has hashed the stream while
// reading it.
func VerifyDigest(verifier cose.Verifier, sealed []byte, size uint64, digest []byte) (Claims, error) {
	if verifier == nil {
		return Claims{}, ErrVerifierRequired
	}
	msg, claims, err := Decode(sealed)
	if err != nil {
		return Claims{}, err
	}
	if err = msg.Verify(nil, verifier); err != nil {
		return Claims{}, err
	}
	if claims.Size != size {
		return Claims{}, fmt.Errorf("%w: sealed %d, have %d", ErrSizeMismatch, claims.Size, size)
	}
	if !bytes.Equal(claims.Digest, digest) {
		return Claims{}, ErrDigestMismatch
	}
	return claims, nil
}
