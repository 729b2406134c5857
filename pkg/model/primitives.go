package model

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/korthochain/ledger/pkg/util/math"
	"github.com/mr-tron/base58"
	cbg "github.com/whyrusleeping/cbor-gen"
	"golang.org/x/crypto/sha3"
)

// Name is an identifier fragment. It never contains whitespace, '@' or '#'.
type Name string

func (n Name) Validate() error {
	if n == "" {
		return fmt.Errorf("empty name")
	}
	for _, r := range string(n) {
		if unicode.IsSpace(r) || r == '@' || r == '#' {
			return fmt.Errorf("name %q contains forbidden character %q", string(n), r)
		}
	}
	return nil
}

// LengthLimits bounds identifier lengths in characters.
type LengthLimits struct {
	Min uint32 `yaml:"min"`
	Max uint32 `yaml:"max"`
}

func (l LengthLimits) Check(n Name) error {
	length := uint32(utf8.RuneCountInString(string(n)))
	if length < l.Min || length > l.Max {
		return fmt.Errorf("length of %q is %d, expected [%d, %d]", string(n), length, l.Min, l.Max)
	}
	return nil
}

const defaultAlgorithm = "ed25519"

// PublicKey is opaque key material. The engine never verifies signatures,
// it only compares keys.
type PublicKey struct {
	Algorithm string
	payload   string
}

func NewPublicKey(algorithm string, payload []byte) PublicKey {
	return PublicKey{Algorithm: algorithm, payload: string(payload)}
}

func (k PublicKey) Payload() []byte {
	return []byte(k.payload)
}

// String renders the key as "<algorithm>:<base58 payload>".
func (k PublicKey) String() string {
	return k.Algorithm + ":" + base58.Encode([]byte(k.payload))
}

func ParsePublicKey(s string) (PublicKey, error) {
	algorithm, encoded := defaultAlgorithm, s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		algorithm, encoded = s[:i], s[i+1:]
	}
	payload, err := base58.Decode(encoded)
	if err != nil {
		return PublicKey{}, fmt.Errorf("public key %q: %w", s, err)
	}
	if len(payload) == 0 {
		return PublicKey{}, fmt.Errorf("public key %q: empty payload", s)
	}
	return NewPublicKey(algorithm, payload), nil
}

func (k PublicKey) compare(o PublicKey) int {
	if c := strings.Compare(k.Algorithm, o.Algorithm); c != 0 {
		return c
	}
	return strings.Compare(k.payload, o.payload)
}

func (k PublicKey) MarshalCBOR() ([]byte, error) {
	buf := new(bytes.Buffer)
	scratch := make([]byte, 9)

	if err := cbg.WriteMajorTypeHeaderBuf(scratch, buf, cbg.MajArray, 2); err != nil {
		return nil, err
	}
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, buf, cbg.MajTextString, uint64(len(k.Algorithm))); err != nil {
		return nil, err
	}
	if _, err := io.WriteString(buf, k.Algorithm); err != nil {
		return nil, err
	}
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, buf, cbg.MajByteString, uint64(len(k.payload))); err != nil {
		return nil, err
	}
	if _, err := io.WriteString(buf, k.payload); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (k *PublicKey) UnmarshalCBOR(data []byte) error {
	r := bytes.NewReader(data)
	scratch := make([]byte, 8)

	maj, extra, err := cbg.CborReadHeaderBuf(r, scratch)
	if err != nil {
		return err
	}
	if maj != cbg.MajArray || extra != 2 {
		return decodeErr("public key", "expected array of 2")
	}

	algorithm, err := readString(r, scratch, cbg.MajTextString)
	if err != nil {
		return err
	}
	if !utf8.Valid(algorithm) {
		return decodeErr("public key", "algorithm is not valid utf-8")
	}
	payload, err := readString(r, scratch, cbg.MajByteString)
	if err != nil {
		return err
	}
	if r.Len() != 0 {
		return decodeErr("public key", "%d trailing bytes", r.Len())
	}

	*k = PublicKey{Algorithm: string(algorithm), payload: string(payload)}
	return nil
}

func readString(r io.Reader, scratch []byte, major byte) ([]byte, error) {
	maj, extra, err := cbg.CborReadHeaderBuf(r, scratch)
	if err != nil {
		return nil, err
	}
	if maj != major {
		return nil, fmt.Errorf("expected major type %d, got %d", major, maj)
	}
	if extra > cbg.ByteArrayMaxLen {
		return nil, fmt.Errorf("byte array too large (%d)", extra)
	}
	out := make([]byte, extra)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}

func writeFixedBytes(b []byte) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, len(b)+2))
	if err := cbg.WriteMajorTypeHeader(buf, cbg.MajByteString, uint64(len(b))); err != nil {
		return nil, err
	}
	if _, err := buf.Write(b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func readFixedBytes(what string, data []byte, out []byte) error {
	r := bytes.NewReader(data)
	maj, extra, err := cbg.CborReadHeaderBuf(r, make([]byte, 8))
	if err != nil {
		return err
	}
	if maj != cbg.MajByteString {
		return decodeErr(what, "expected byte string")
	}
	if extra != uint64(len(out)) {
		return decodeErr(what, "byte string length is wrong(%d)", extra)
	}
	if _, err := io.ReadFull(r, out); err != nil {
		return err
	}
	if r.Len() != 0 {
		return decodeErr(what, "%d trailing bytes", r.Len())
	}
	return nil
}

// HashLength is the size of a sha3-256 digest.
const HashLength = 32

type Hash [HashLength]byte

// HashOf returns the sha3-256 digest of data.
func HashOf(data []byte) Hash {
	return sha3.Sum256(data)
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func ParseHash(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, err
	}
	if len(b) != HashLength {
		return h, fmt.Errorf("hash %q has %d bytes", s, len(b))
	}
	copy(h[:], b)
	return h, nil
}

func (h Hash) MarshalCBOR() ([]byte, error) {
	return writeFixedBytes(h[:])
}

func (h *Hash) UnmarshalCBOR(data []byte) error {
	return readFixedBytes("hash", data, h[:])
}

// U128 is an unsigned 128-bit value. It is encoded as 16 big-endian bytes.
type U128 struct {
	math.Uint128
}

func NewU128(lo uint64) U128 {
	return U128{math.NewUint128(lo)}
}

func (u U128) MarshalCBOR() ([]byte, error) {
	var raw [16]byte
	binary.BigEndian.PutUint64(raw[:8], u.Hi)
	binary.BigEndian.PutUint64(raw[8:], u.Lo)
	return writeFixedBytes(raw[:])
}

func (u *U128) UnmarshalCBOR(data []byte) error {
	var raw [16]byte
	if err := readFixedBytes("u128", data, raw[:]); err != nil {
		return err
	}
	u.Hi = binary.BigEndian.Uint64(raw[:8])
	u.Lo = binary.BigEndian.Uint64(raw[8:])
	return nil
}
