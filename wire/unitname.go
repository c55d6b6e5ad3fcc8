package wire

import "errors"

// UnitNameLen is the fixed width of the unit-name field carried in
// StatusResponse: NUL-terminated/padded ASCII.
const UnitNameLen = 32

var errUnitNameTooLong = errors.New("wire: unit name exceeds 31 characters")

// marshalUnitName appends the UnitNameLen-byte encoding of name to buf,
// truncating is the caller's responsibility (see config.Config.UnitName).
func marshalUnitName(buf []byte, name string) ([]byte, error) {
	if len(name) >= UnitNameLen {
		return nil, errUnitNameTooLong
	}
	var field [UnitNameLen]byte
	copy(field[:], name)
	return append(buf, field[:]...), nil
}

func unmarshalUnitName(b []byte) (string, error) {
	if len(b) != UnitNameLen {
		return "", errUnitNameTooLong
	}
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n]), nil
}

// RedirectingNumberLen is the width of the optional trailing block on
// InitialDP / InitialDPServiceKey.
const RedirectingNumberLen = 1 + 1 + PhoneNumberLen

// RedirectingNumber is the optional trailing block on an InitialDP-family
// message.
type RedirectingNumber struct {
	PresentationScreening byte
	TypeOfNumberPlan      byte
	Number                PhoneNumber
}

func marshalRedirecting(buf []byte, r RedirectingNumber) ([]byte, error) {
	buf = append(buf, r.PresentationScreening, r.TypeOfNumberPlan)
	return marshalBCD(buf, r.Number)
}

func unmarshalRedirecting(b []byte) (RedirectingNumber, error) {
	if len(b) != RedirectingNumberLen {
		return RedirectingNumber{}, errDigitCount
	}
	num, err := unmarshalBCD(b[2:])
	if err != nil {
		return RedirectingNumber{}, err
	}
	return RedirectingNumber{
		PresentationScreening: b[0],
		TypeOfNumberPlan:      b[1],
		Number:                num,
	}, nil
}
