package value

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

// Encode writes v's binary representation for the native row format. Only
// the native kind set is supported; the SQL backend never calls this codec.
func Encode(w io.Writer, v Value) error {
	switch v.Kind {
	case KindInt:
		return writeInt64(w, v.Int)
	case KindFloat:
		return writeUint64(w, math.Float64bits(v.Float))
	case KindChar:
		return writeRune(w, v.Char)
	case KindString:
		return writeString(w, v.Str)
	case KindCharInterval:
		if err := writeRune(w, v.CharLow); err != nil {
			return err
		}
		return writeRune(w, v.CharHigh)
	case KindStringInterval:
		if err := writeString(w, v.StrLow); err != nil {
			return err
		}
		return writeString(w, v.StrHigh)
	default:
		return fmt.Errorf("value: cannot encode kind %s in the native row format", v.Kind)
	}
}

// Decode reads a value of the given kind from r, in the native row format.
func Decode(r io.Reader, kind Kind) (Value, error) {
	switch kind {
	case KindInt:
		n, err := readInt64(r)
		if err != nil {
			return Value{}, err
		}
		return Int(n), nil
	case KindFloat:
		bits, err := readUint64(r)
		if err != nil {
			return Value{}, err
		}
		return Float(math.Float64frombits(bits)), nil
	case KindChar:
		c, err := readRune(r)
		if err != nil {
			return Value{}, err
		}
		return Char(c), nil
	case KindString:
		s, err := readString(r)
		if err != nil {
			return Value{}, err
		}
		return String(s), nil
	case KindCharInterval:
		lo, err := readRune(r)
		if err != nil {
			return Value{}, err
		}
		hi, err := readRune(r)
		if err != nil {
			return Value{}, err
		}
		return CharInterval(lo, hi), nil
	case KindStringInterval:
		lo, err := readString(r)
		if err != nil {
			return Value{}, err
		}
		hi, err := readString(r)
		if err != nil {
			return Value{}, err
		}
		return StringInterval(lo, hi), nil
	default:
		return Value{}, fmt.Errorf("value: cannot decode kind %s in the native row format", kind)
	}
}

// EncodedSize returns the number of bytes Encode writes for a value of the
// given kind. String-bearing kinds are sized from v's payload; kinds outside
// the native set return -1.
func EncodedSize(kind Kind, v Value) int {
	switch kind {
	case KindInt, KindFloat:
		return 8
	case KindChar:
		return 4
	case KindCharInterval:
		return 8
	case KindString:
		return 4 + len(v.Str)
	case KindStringInterval:
		return 4 + len(v.StrLow) + 4 + len(v.StrHigh)
	default:
		return -1
	}
}

func writeInt64(w io.Writer, n int64) error {
	return writeUint64(w, uint64(n))
}

func writeUint64(w io.Writer, n uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], n)
	_, err := w.Write(buf[:])
	return err
}

func writeRune(w io.Writer, r rune) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(r))
	_, err := w.Write(buf[:])
	return err
}

func writeString(w io.Writer, s string) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readInt64(r io.Reader) (int64, error) {
	n, err := readUint64(r)
	return int64(n), err
}

func readUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func readRune(r io.Reader) (rune, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return rune(binary.LittleEndian.Uint32(buf[:])), nil
}

func readString(r io.Reader) (string, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return "", fmt.Errorf("value: invalid UTF-8 in string payload")
	}
	return string(buf), nil
}
