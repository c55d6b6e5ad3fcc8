package wire

import (
	"strings"
	"testing"
)

func TestBCDRoundTrip(t *testing.T) {
	cases := []string{"", "1", "447700900123", strings.Repeat("9", 32)}
	for _, digits := range cases {
		buf, err := marshalBCD(nil, PhoneNumber{Digits: digits})
		if err != nil {
			t.Fatalf("marshalBCD(%q): %v", digits, err)
		}
		if len(buf) != PhoneNumberLen {
			t.Fatalf("marshalBCD(%q) produced %d bytes, want %d", digits, len(buf), PhoneNumberLen)
		}
		got, err := unmarshalBCD(buf)
		if err != nil {
			t.Fatalf("unmarshalBCD: %v", err)
		}
		if got.Digits != digits {
			t.Fatalf("got %q, want %q", got.Digits, digits)
		}
	}
}

func TestBCDPadding(t *testing.T) {
	buf, err := marshalBCD(nil, PhoneNumber{Digits: "1"})
	if err != nil {
		t.Fatalf("marshalBCD: %v", err)
	}
	// first nibble is the digit '1', everything after is 0xf padding
	if buf[2] != 0x1f {
		t.Fatalf("got first payload byte %#02x, want 0x1f", buf[2])
	}
	for _, b := range buf[3:] {
		if b != 0xff {
			t.Fatalf("expected 0xff padding, got %#02x", b)
		}
	}
}

func TestBCDTooManyDigits(t *testing.T) {
	_, err := marshalBCD(nil, PhoneNumber{Digits: strings.Repeat("1", 33)})
	if err != errDigitCount {
		t.Fatalf("got %v, want errDigitCount", err)
	}
}

func TestBCDNonDecimalDigit(t *testing.T) {
	_, err := marshalBCD(nil, PhoneNumber{Digits: "12a4"})
	if err != errDigitValue {
		t.Fatalf("got %v, want errDigitValue", err)
	}
}

func TestUnmarshalBCDWrongLength(t *testing.T) {
	_, err := unmarshalBCD(make([]byte, PhoneNumberLen-1))
	if err != errDigitCount {
		t.Fatalf("got %v, want errDigitCount", err)
	}
}

func TestUnitNameRoundTrip(t *testing.T) {
	buf, err := marshalUnitName(nil, "scp-north")
	if err != nil {
		t.Fatalf("marshalUnitName: %v", err)
	}
	if len(buf) != UnitNameLen {
		t.Fatalf("got %d bytes, want %d", len(buf), UnitNameLen)
	}
	got, err := unmarshalUnitName(buf)
	if err != nil {
		t.Fatalf("unmarshalUnitName: %v", err)
	}
	if got != "scp-north" {
		t.Fatalf("got %q", got)
	}
}

func TestUnitNameTooLong(t *testing.T) {
	_, err := marshalUnitName(nil, strings.Repeat("x", UnitNameLen))
	if err != errUnitNameTooLong {
		t.Fatalf("got %v, want errUnitNameTooLong", err)
	}
}
