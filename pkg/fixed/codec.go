package fixed

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	cbg "github.com/whyrusleeping/cbor-gen"
)

const encodedLen = 16

// MarshalCBOR writes the value as a 16 byte string: big-endian integral
// followed by big-endian fraction.
func (f Fixed) MarshalCBOR() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, encodedLen+1))
	if err := cbg.WriteMajorTypeHeader(buf, cbg.MajByteString, encodedLen); err != nil {
		return nil, err
	}

	var raw [encodedLen]byte
	binary.BigEndian.PutUint64(raw[:8], f.integral)
	binary.BigEndian.PutUint64(raw[8:], f.fraction)
	if _, err := buf.Write(raw[:]); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (f *Fixed) UnmarshalCBOR(data []byte) error {
	r := bytes.NewReader(data)
	scratch := make([]byte, 8)

	maj, extra, err := cbg.CborReadHeaderBuf(r, scratch)
	if err != nil {
		return err
	}
	if maj != cbg.MajByteString {
		return fmt.Errorf("fixed: expected byte string, got major type %d", maj)
	}
	if extra != encodedLen {
		return fmt.Errorf("fixed: byte string length is wrong(%d)", extra)
	}

	var raw [encodedLen]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return err
	}
	if r.Len() != 0 {
		return fmt.Errorf("fixed: %d trailing bytes", r.Len())
	}

	fraction := binary.BigEndian.Uint64(raw[8:])
	if fraction > MaxFraction {
		return newError(Conversion, "encoded fraction %d exceeds %d", fraction, MaxFraction)
	}
	*f = FromRawUnchecked(binary.BigEndian.Uint64(raw[:8]), fraction)
	return nil
}
