// Package wire implements the OCP binary codec: the fixed message header,
// the task-id pair, the typed message catalogue, and the command code
// registry that ties decoders to wire codes.
package wire

import "fmt"

// CommandCode identifies a message type on the wire. The top 4 bits carry
// the class: link (0x0xxx) or call (0x1xxx).
type CommandCode uint16

// Class partitions the command code space.
type Class uint8

const (
	LinkClass    Class = 0 // 0x0xxx
	CallClass    Class = 1 // 0x1xxx
	UnknownClass Class = 0xff
)

// Class returns the class a code belongs to, or UnknownClass for any code
// outside the two defined nibble ranges.
func (c CommandCode) Class() Class {
	switch c >> 12 {
	case 0x0:
		return LinkClass
	case 0x1:
		return CallClass
	default:
		return UnknownClass
	}
}

// String returns the registered display name, or a hex fallback.
func (c CommandCode) String() string {
	if e, ok := registry[c]; ok {
		return e.name
	}
	return fmt.Sprintf("cmd(%#04x)", uint16(c))
}

// Link class command codes.
const (
	Heartbeat              CommandCode = 0x0001
	AreYouMaster           CommandCode = 0x0002
	AreYouMasterReply      CommandCode = 0x0003
	BecomeMaster           CommandCode = 0x0004
	StatusRequest          CommandCode = 0x0005
	StatusResponse         CommandCode = 0x0006
	ChangeActiveLink       CommandCode = 0x0007
	ChangeActiveLinkAck    CommandCode = 0x0008
	LinkCommandUnsupported CommandCode = 0x0009
	CallGap                CommandCode = 0x000a
	PreferredUnit          CommandCode = 0x000b
)

// Call class command codes.
const (
	InitialDP                     CommandCode = 0x1001
	InitialDPServiceKey           CommandCode = 0x1002
	CallCleardown                 CommandCode = 0x1003
	DeliverTo                     CommandCode = 0x1004
	DeliverToWithFlags            CommandCode = 0x1005
	DeliverToResult               CommandCode = 0x1006
	RequestCleardown              CommandCode = 0x1007
	AnswerCall                    CommandCode = 0x1008
	AnswerResult                  CommandCode = 0x1009
	TelsisHandler                 CommandCode = 0x100a
	TelsisHandlerWithParty        CommandCode = 0x100b
	TelsisHandlerResult           CommandCode = 0x100c
	INAPContinue                  CommandCode = 0x100d
	TaskActive                    CommandCode = 0x100e
	TaskActiveResult              CommandCode = 0x100f
	InsufficientResources         CommandCode = 0x1010
	Abort                         CommandCode = 0x1011
	CallCommandUnsupported        CommandCode = 0x1012
	InitialDPResponse             CommandCode = 0x1013
	SetCDRExtendedFieldData       CommandCode = 0x1014
	SetCDRExtendedFieldDataResult CommandCode = 0x1015
	ConnectToResource             CommandCode = 0x1016
	ConnectToResourceAck          CommandCode = 0x1017
	DisconnectFromResource        CommandCode = 0x1018
	DisconnectFromResourceAck     CommandCode = 0x1019
)

// decodeFunc parses a message-specific payload (the bytes between the task
// pair and the terminator) into a Body.
type decodeFunc func(payload []byte) (Body, error)

type regEntry struct {
	decode      decodeFunc
	rxSupported bool
	txSupported bool
	name        string
}

// registry is the static cmdCode -> decoder table. It is populated by
// init() functions in link_messages.go and call_messages.go so that adding
// a message type never touches the decode loop in message.go.
var registry = map[CommandCode]regEntry{}

func register(code CommandCode, name string, rx, tx bool, dec decodeFunc) {
	if _, dup := registry[code]; dup {
		panic(fmt.Sprintf("wire: duplicate registration for %#04x", uint16(code)))
	}
	registry[code] = regEntry{decode: dec, rxSupported: rx, txSupported: tx, name: name}
}

// Supported reports whether code is known to the codec at all.
func Supported(code CommandCode) bool {
	_, ok := registry[code]
	return ok
}

// RxSupported reports whether the codec can decode an inbound message
// of this type.
func RxSupported(code CommandCode) bool {
	e, ok := registry[code]
	return ok && e.rxSupported
}

// TxSupported reports whether the codec can encode an outbound message
// of this type.
func TxSupported(code CommandCode) bool {
	e, ok := registry[code]
	return ok && e.txSupported
}

// Name returns the display name registered for code, or "" if unknown.
func Name(code CommandCode) string {
	e, ok := registry[code]
	if !ok {
		return ""
	}
	return e.name
}
