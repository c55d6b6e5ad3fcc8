package wire

import "encoding/binary"

func init() {
	register(InitialDP, "InitialDP", true, true, decodeInitialDP)
	register(InitialDPServiceKey, "InitialDPServiceKey", true, true, decodeInitialDPServiceKey)
	register(CallCleardown, "CallCleardown", true, true, decodeCallCleardown)
	register(DeliverTo, "DeliverTo", true, true, decodeDeliverTo)
	register(DeliverToWithFlags, "DeliverToWithFlags", true, true, decodeDeliverToWithFlags)
	register(DeliverToResult, "DeliverToResult", true, true, decodeDeliverToResult)
	register(RequestCleardown, "RequestCleardown", true, true, decodeRequestCleardown)
	register(AnswerCall, "AnswerCall", true, true, decodeAnswerCall)
	register(AnswerResult, "AnswerResult", true, true, decodeAnswerResult)
	register(TelsisHandler, "TelsisHandler", true, true, decodeTelsisHandler)
	register(TelsisHandlerWithParty, "TelsisHandlerWithParty", true, true, decodeTelsisHandlerWithParty)
	register(TelsisHandlerResult, "TelsisHandlerResult", true, true, decodeTelsisHandlerResult)
	register(INAPContinue, "INAPContinue", true, true, decodeINAPContinue)
	register(TaskActive, "TaskActive", true, true, decodeTaskActive)
	register(TaskActiveResult, "TaskActiveResult", true, true, decodeTaskActiveResult)
	register(InsufficientResources, "InsufficientResources", true, true, decodeInsufficientResources)
	register(Abort, "Abort", true, true, decodeAbort)
	register(CallCommandUnsupported, "CallCommandUnsupported", true, true, decodeCallCommandUnsupported)
	register(InitialDPResponse, "InitialDPResponse", true, true, decodeInitialDPResponse)
	register(SetCDRExtendedFieldData, "SetCDRExtendedFieldData", true, true, decodeSetCDRExtendedFieldData)
	register(SetCDRExtendedFieldDataResult, "SetCDRExtendedFieldDataResult", true, true, decodeSetCDRExtendedFieldDataResult)
	register(ConnectToResource, "ConnectToResource", true, true, decodeConnectToResource)
	register(ConnectToResourceAck, "ConnectToResourceAck", true, true, decodeConnectToResourceAck)
	register(DisconnectFromResource, "DisconnectFromResource", true, true, decodeDisconnectFromResource)
	register(DisconnectFromResourceAck, "DisconnectFromResourceAck", true, true, decodeDisconnectFromResourceAck)
}

// initialDPCore is the shared body of InitialDP and InitialDPServiceKey:
// calling/called party, plus an optional redirecting-number tail whose
// presence is determined from the total payload length, not a flag.
type initialDPCore struct {
	CallingParty PhoneNumber
	CalledParty  PhoneNumber
	Redirecting  *RedirectingNumber // nil if the short form was used
}

const initialDPCoreLen = 2 * PhoneNumberLen

func marshalInitialDPCore(buf []byte, c initialDPCore) ([]byte, error) {
	buf, err := marshalBCD(buf, c.CallingParty)
	if err != nil {
		return nil, err
	}
	buf, err = marshalBCD(buf, c.CalledParty)
	if err != nil {
		return nil, err
	}
	if c.Redirecting != nil {
		buf, err = marshalRedirecting(buf, *c.Redirecting)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func unmarshalInitialDPCore(code CommandCode, p []byte) (initialDPCore, error) {
	switch len(p) {
	case initialDPCoreLen:
		// short form, no redirecting block
	case initialDPCoreLen + RedirectingNumberLen:
		// long form
	default:
		return initialDPCore{}, &DecodeError{Code: code, Reason: ReasonInvalidFieldValue}
	}

	calling, err := unmarshalBCD(p[0:PhoneNumberLen])
	if err != nil {
		return initialDPCore{}, &DecodeError{Code: code, Reason: ReasonInvalidFieldValue}
	}
	called, err := unmarshalBCD(p[PhoneNumberLen : 2*PhoneNumberLen])
	if err != nil {
		return initialDPCore{}, &DecodeError{Code: code, Reason: ReasonInvalidFieldValue}
	}

	core := initialDPCore{CallingParty: calling, CalledParty: called}
	if len(p) == initialDPCoreLen+RedirectingNumberLen {
		r, err := unmarshalRedirecting(p[initialDPCoreLen:])
		if err != nil {
			return initialDPCore{}, &DecodeError{Code: code, Reason: ReasonInvalidFieldValue}
		}
		core.Redirecting = &r
	}
	return core, nil
}

// InitialDPMsg opens a new call: the originating SCP hands a call to the
// platform, addressed by Orig in the enclosing Message (a freshly
// allocated task id).
type InitialDPMsg struct {
	initialDPCore
}

func (InitialDPMsg) Code() CommandCode { return InitialDP }

func (m InitialDPMsg) Marshal(buf []byte) ([]byte, error) {
	return marshalInitialDPCore(buf, m.initialDPCore)
}

func decodeInitialDP(p []byte) (Body, error) {
	core, err := unmarshalInitialDPCore(InitialDP, p)
	if err != nil {
		return nil, err
	}
	return InitialDPMsg{core}, nil
}

// InitialDPServiceKeyMsg is InitialDP with an explicit service key selecting
// which call-handling logic should own the call.
type InitialDPServiceKeyMsg struct {
	ServiceKey uint32
	initialDPCore
}

func (InitialDPServiceKeyMsg) Code() CommandCode { return InitialDPServiceKey }

func (m InitialDPServiceKeyMsg) Marshal(buf []byte) ([]byte, error) {
	buf = binary.BigEndian.AppendUint32(buf, m.ServiceKey)
	return marshalInitialDPCore(buf, m.initialDPCore)
}

func decodeInitialDPServiceKey(p []byte) (Body, error) {
	if len(p) < 4 {
		return nil, &DecodeError{Code: InitialDPServiceKey, Reason: ReasonInvalidFieldValue}
	}
	key := binary.BigEndian.Uint32(p[0:4])
	core, err := unmarshalInitialDPCore(InitialDPServiceKey, p[4:])
	if err != nil {
		return nil, err
	}
	return InitialDPServiceKeyMsg{ServiceKey: key, initialDPCore: core}, nil
}

// InitialDPResponseMsg answers InitialDP(ServiceKey) acceptance/rejection.
type InitialDPResponseMsg struct {
	Result byte
	Zip    byte
}

func (InitialDPResponseMsg) Code() CommandCode { return InitialDPResponse }

func (m InitialDPResponseMsg) Marshal(buf []byte) ([]byte, error) {
	return append(buf, m.Result, m.Zip), nil
}

func decodeInitialDPResponse(p []byte) (Body, error) {
	if len(p) != 2 {
		return nil, &DecodeError{Code: InitialDPResponse, Reason: ReasonInvalidFieldValue}
	}
	return InitialDPResponseMsg{Result: p[0], Zip: p[1]}, nil
}

// CallCleardownMsg tears down a call.
type CallCleardownMsg struct {
	Cause byte
	Zip   byte
}

func (CallCleardownMsg) Code() CommandCode { return CallCleardown }

func (m CallCleardownMsg) Marshal(buf []byte) ([]byte, error) {
	return append(buf, m.Cause, m.Zip), nil
}

func decodeCallCleardown(p []byte) (Body, error) {
	if len(p) != 2 {
		return nil, &DecodeError{Code: CallCleardown, Reason: ReasonInvalidFieldValue}
	}
	return CallCleardownMsg{Cause: p[0], Zip: p[1]}, nil
}

// DeliverToMsg routes the call onward to Number.
type DeliverToMsg struct {
	Number PhoneNumber
}

func (DeliverToMsg) Code() CommandCode { return DeliverTo }

func (m DeliverToMsg) Marshal(buf []byte) ([]byte, error) {
	return marshalBCD(buf, m.Number)
}

func decodeDeliverTo(p []byte) (Body, error) {
	if len(p) != PhoneNumberLen {
		return nil, &DecodeError{Code: DeliverTo, Reason: ReasonInvalidFieldValue}
	}
	num, err := unmarshalBCD(p)
	if err != nil {
		return nil, &DecodeError{Code: DeliverTo, Reason: ReasonInvalidFieldValue}
	}
	return DeliverToMsg{Number: num}, nil
}

// DeliverToWithFlagsMsg is DeliverTo with an extra routing-flags byte.
type DeliverToWithFlagsMsg struct {
	Flags  byte
	Number PhoneNumber
}

func (DeliverToWithFlagsMsg) Code() CommandCode { return DeliverToWithFlags }

func (m DeliverToWithFlagsMsg) Marshal(buf []byte) ([]byte, error) {
	buf = append(buf, m.Flags)
	return marshalBCD(buf, m.Number)
}

func decodeDeliverToWithFlags(p []byte) (Body, error) {
	if len(p) != 1+PhoneNumberLen {
		return nil, &DecodeError{Code: DeliverToWithFlags, Reason: ReasonInvalidFieldValue}
	}
	num, err := unmarshalBCD(p[1:])
	if err != nil {
		return nil, &DecodeError{Code: DeliverToWithFlags, Reason: ReasonInvalidFieldValue}
	}
	return DeliverToWithFlagsMsg{Flags: p[0], Number: num}, nil
}

// DeliverToResultMsg answers DeliverTo(WithFlags).
type DeliverToResultMsg struct {
	Result byte
	Zip    byte
}

func (DeliverToResultMsg) Code() CommandCode { return DeliverToResult }

func (m DeliverToResultMsg) Marshal(buf []byte) ([]byte, error) {
	return append(buf, m.Result, m.Zip), nil
}

func decodeDeliverToResult(p []byte) (Body, error) {
	if len(p) != 2 {
		return nil, &DecodeError{Code: DeliverToResult, Reason: ReasonInvalidFieldValue}
	}
	return DeliverToResultMsg{Result: p[0], Zip: p[1]}, nil
}

// RequestCleardownMsg asks the remote end to tear down the call.
type RequestCleardownMsg struct {
	Cause byte
}

func (RequestCleardownMsg) Code() CommandCode { return RequestCleardown }

func (m RequestCleardownMsg) Marshal(buf []byte) ([]byte, error) {
	return append(buf, m.Cause), nil
}

func decodeRequestCleardown(p []byte) (Body, error) {
	if len(p) != 1 {
		return nil, &DecodeError{Code: RequestCleardown, Reason: ReasonInvalidFieldValue}
	}
	return RequestCleardownMsg{Cause: p[0]}, nil
}

// AnswerCallMsg signals the call has been answered.
type AnswerCallMsg struct {
	Zip byte
}

func (AnswerCallMsg) Code() CommandCode                    { return AnswerCall }
func (m AnswerCallMsg) Marshal(buf []byte) ([]byte, error) { return append(buf, m.Zip), nil }

func decodeAnswerCall(p []byte) (Body, error) {
	if len(p) != 1 {
		return nil, &DecodeError{Code: AnswerCall, Reason: ReasonInvalidFieldValue}
	}
	return AnswerCallMsg{Zip: p[0]}, nil
}

// AnswerResultMsg answers AnswerCall.
type AnswerResultMsg struct {
	Result byte
	Zip    byte
}

func (AnswerResultMsg) Code() CommandCode { return AnswerResult }

func (m AnswerResultMsg) Marshal(buf []byte) ([]byte, error) {
	return append(buf, m.Result, m.Zip), nil
}

func decodeAnswerResult(p []byte) (Body, error) {
	if len(p) != 2 {
		return nil, &DecodeError{Code: AnswerResult, Reason: ReasonInvalidFieldValue}
	}
	return AnswerResultMsg{Result: p[0], Zip: p[1]}, nil
}

// MaxTelsisHandlerData is the largest custom-data area for TelsisHandler.
const MaxTelsisHandlerData = 64

// MaxTelsisHandlerWithPartyData is the largest custom-data area for
// TelsisHandlerWithParty.
const MaxTelsisHandlerWithPartyData = 448

// TelsisHandlerMsg carries a vendor-specific payload identified by a
// handler number; the custom-data area is dispatched to a sub-codec keyed
// by that number (see telsis_handler.go).
type TelsisHandlerMsg struct {
	HandlerNumber uint16
	Data          HandlerData
}

func (TelsisHandlerMsg) Code() CommandCode { return TelsisHandler }

func (m TelsisHandlerMsg) Marshal(buf []byte) ([]byte, error) {
	buf = binary.BigEndian.AppendUint16(buf, m.HandlerNumber)
	raw, err := marshalHandlerData(m.HandlerNumber, m.Data)
	if err != nil {
		return nil, err
	}
	if len(raw) > MaxTelsisHandlerData {
		return nil, &DecodeError{Code: TelsisHandler, Reason: ReasonInvalidFieldValue}
	}
	return append(buf, raw...), nil
}

func decodeTelsisHandler(p []byte) (Body, error) {
	if len(p) < 2 || len(p)-2 > MaxTelsisHandlerData {
		return nil, &DecodeError{Code: TelsisHandler, Reason: ReasonInvalidFieldValue}
	}
	num := binary.BigEndian.Uint16(p[0:2])
	data, err := unmarshalHandlerData(TelsisHandler, num, p[2:])
	if err != nil {
		return nil, err
	}
	return TelsisHandlerMsg{HandlerNumber: num, Data: data}, nil
}

// TelsisHandlerWithPartyMsg is TelsisHandler with an extra party number
// ahead of the custom-data area.
type TelsisHandlerWithPartyMsg struct {
	HandlerNumber uint16
	Party         PhoneNumber
	Data          HandlerData
}

func (TelsisHandlerWithPartyMsg) Code() CommandCode { return TelsisHandlerWithParty }

func (m TelsisHandlerWithPartyMsg) Marshal(buf []byte) ([]byte, error) {
	buf = binary.BigEndian.AppendUint16(buf, m.HandlerNumber)
	buf, err := marshalBCD(buf, m.Party)
	if err != nil {
		return nil, err
	}
	raw, err := marshalHandlerData(m.HandlerNumber, m.Data)
	if err != nil {
		return nil, err
	}
	if len(raw) > MaxTelsisHandlerWithPartyData {
		return nil, &DecodeError{Code: TelsisHandlerWithParty, Reason: ReasonInvalidFieldValue}
	}
	return append(buf, raw...), nil
}

func decodeTelsisHandlerWithParty(p []byte) (Body, error) {
	if len(p) < 2+PhoneNumberLen {
		return nil, &DecodeError{Code: TelsisHandlerWithParty, Reason: ReasonInvalidFieldValue}
	}
	if len(p)-2-PhoneNumberLen > MaxTelsisHandlerWithPartyData {
		return nil, &DecodeError{Code: TelsisHandlerWithParty, Reason: ReasonInvalidFieldValue}
	}
	num := binary.BigEndian.Uint16(p[0:2])
	party, err := unmarshalBCD(p[2 : 2+PhoneNumberLen])
	if err != nil {
		return nil, &DecodeError{Code: TelsisHandlerWithParty, Reason: ReasonInvalidFieldValue}
	}
	data, err := unmarshalHandlerData(TelsisHandlerWithParty, num, p[2+PhoneNumberLen:])
	if err != nil {
		return nil, err
	}
	return TelsisHandlerWithPartyMsg{HandlerNumber: num, Party: party, Data: data}, nil
}

// TelsisHandlerResultMsg answers a TelsisHandler(WithParty) request.
type TelsisHandlerResultMsg struct {
	HandlerNumber uint16
	Result        byte
	Zip           byte
}

func (TelsisHandlerResultMsg) Code() CommandCode { return TelsisHandlerResult }

func (m TelsisHandlerResultMsg) Marshal(buf []byte) ([]byte, error) {
	buf = binary.BigEndian.AppendUint16(buf, m.HandlerNumber)
	return append(buf, m.Result, m.Zip), nil
}

func decodeTelsisHandlerResult(p []byte) (Body, error) {
	if len(p) != 4 {
		return nil, &DecodeError{Code: TelsisHandlerResult, Reason: ReasonInvalidFieldValue}
	}
	return TelsisHandlerResultMsg{
		HandlerNumber: binary.BigEndian.Uint16(p[0:2]),
		Result:        p[2],
		Zip:           p[3],
	}, nil
}

// INAPContinueMsg tells the peer to resume INAP call processing unchanged.
type INAPContinueMsg struct {
	Zip byte
}

func (INAPContinueMsg) Code() CommandCode                    { return INAPContinue }
func (m INAPContinueMsg) Marshal(buf []byte) ([]byte, error) { return append(buf, m.Zip), nil }

func decodeINAPContinue(p []byte) (Body, error) {
	if len(p) != 1 {
		return nil, &DecodeError{Code: INAPContinue, Reason: ReasonInvalidFieldValue}
	}
	return INAPContinueMsg{Zip: p[0]}, nil
}

// TaskActiveMsg polls whether a task id is still a live call.
type TaskActiveMsg struct {
	Zip byte
}

func (TaskActiveMsg) Code() CommandCode                    { return TaskActive }
func (m TaskActiveMsg) Marshal(buf []byte) ([]byte, error) { return append(buf, m.Zip), nil }

func decodeTaskActive(p []byte) (Body, error) {
	if len(p) != 1 {
		return nil, &DecodeError{Code: TaskActive, Reason: ReasonInvalidFieldValue}
	}
	return TaskActiveMsg{Zip: p[0]}, nil
}

// TaskActiveResultMsg answers TaskActive.
type TaskActiveResultMsg struct {
	Result byte
	Zip    byte
}

func (TaskActiveResultMsg) Code() CommandCode { return TaskActiveResult }

func (m TaskActiveResultMsg) Marshal(buf []byte) ([]byte, error) {
	return append(buf, m.Result, m.Zip), nil
}

func decodeTaskActiveResult(p []byte) (Body, error) {
	if len(p) != 2 {
		return nil, &DecodeError{Code: TaskActiveResult, Reason: ReasonInvalidFieldValue}
	}
	return TaskActiveResultMsg{Result: p[0], Zip: p[1]}, nil
}

// InsufficientResourcesMsg rejects a request because the sender has no
// capacity left to service it.
type InsufficientResourcesMsg struct {
	Reason byte
}

func (InsufficientResourcesMsg) Code() CommandCode { return InsufficientResources }

func (m InsufficientResourcesMsg) Marshal(buf []byte) ([]byte, error) {
	return append(buf, m.Reason), nil
}

func decodeInsufficientResources(p []byte) (Body, error) {
	if len(p) != 1 {
		return nil, &DecodeError{Code: InsufficientResources, Reason: ReasonInvalidFieldValue}
	}
	return InsufficientResourcesMsg{Reason: p[0]}, nil
}

// AbortReason values carried by AbortMsg.
const (
	AbortTaskNotRunning byte = byte(ReasonTaskNotRunning)
	AbortProtocolError  byte = 0x7f
)

// AbortMsg terminates a call abnormally. The link state machine
// synthesises AbortTaskNotRunning for a destination task id with no
// registered handler (§4.4), never in response to another Abort.
type AbortMsg struct {
	Reason byte
}

func (AbortMsg) Code() CommandCode                    { return Abort }
func (m AbortMsg) Marshal(buf []byte) ([]byte, error) { return append(buf, m.Reason), nil }

func decodeAbort(p []byte) (Body, error) {
	if len(p) != 1 {
		return nil, &DecodeError{Code: Abort, Reason: ReasonInvalidFieldValue}
	}
	return AbortMsg{Reason: p[0]}, nil
}

// CallCommandUnsupportedMsg is the call-class "unsupported" reply.
type CallCommandUnsupportedMsg struct {
	NestedCode CommandCode
	Reason     Reason
	Detail     uint16
}

func (CallCommandUnsupportedMsg) Code() CommandCode { return CallCommandUnsupported }

func (m CallCommandUnsupportedMsg) Marshal(buf []byte) ([]byte, error) {
	buf = binary.BigEndian.AppendUint16(buf, uint16(m.NestedCode))
	buf = append(buf, byte(m.Reason))
	return binary.BigEndian.AppendUint16(buf, m.Detail), nil
}

func decodeCallCommandUnsupported(p []byte) (Body, error) {
	if len(p) != 5 {
		return nil, &DecodeError{Code: CallCommandUnsupported, Reason: ReasonInvalidFieldValue}
	}
	return CallCommandUnsupportedMsg{
		NestedCode: CommandCode(binary.BigEndian.Uint16(p[0:2])),
		Reason:     Reason(p[2]),
		Detail:     binary.BigEndian.Uint16(p[3:5]),
	}, nil
}

// MaxCDRFieldData bounds the variable-length data area of
// SetCDRExtendedFieldData.
const MaxCDRFieldData = 64

// SetCDRExtendedFieldDataMsg attaches an operator-defined field to the
// call detail record being assembled for this call.
type SetCDRExtendedFieldDataMsg struct {
	FieldID uint16
	Data    []byte
}

func (SetCDRExtendedFieldDataMsg) Code() CommandCode { return SetCDRExtendedFieldData }

func (m SetCDRExtendedFieldDataMsg) Marshal(buf []byte) ([]byte, error) {
	if len(m.Data) > MaxCDRFieldData {
		return nil, &DecodeError{Code: SetCDRExtendedFieldData, Reason: ReasonInvalidFieldValue}
	}
	buf = binary.BigEndian.AppendUint16(buf, m.FieldID)
	buf = append(buf, byte(len(m.Data)))
	return append(buf, m.Data...), nil
}

func decodeSetCDRExtendedFieldData(p []byte) (Body, error) {
	if len(p) < 3 {
		return nil, &DecodeError{Code: SetCDRExtendedFieldData, Reason: ReasonInvalidFieldValue}
	}
	id := binary.BigEndian.Uint16(p[0:2])
	n := int(p[2])
	if n > MaxCDRFieldData || len(p) != 3+n {
		return nil, &DecodeError{Code: SetCDRExtendedFieldData, Reason: ReasonInvalidFieldValue}
	}
	data := make([]byte, n)
	copy(data, p[3:])
	return SetCDRExtendedFieldDataMsg{FieldID: id, Data: data}, nil
}

// SetCDRExtendedFieldDataResultMsg answers SetCDRExtendedFieldData.
type SetCDRExtendedFieldDataResultMsg struct {
	FieldID uint16
	Result  byte
}

func (SetCDRExtendedFieldDataResultMsg) Code() CommandCode { return SetCDRExtendedFieldDataResult }

func (m SetCDRExtendedFieldDataResultMsg) Marshal(buf []byte) ([]byte, error) {
	buf = binary.BigEndian.AppendUint16(buf, m.FieldID)
	return append(buf, m.Result), nil
}

func decodeSetCDRExtendedFieldDataResult(p []byte) (Body, error) {
	if len(p) != 3 {
		return nil, &DecodeError{Code: SetCDRExtendedFieldDataResult, Reason: ReasonInvalidFieldValue}
	}
	return SetCDRExtendedFieldDataResultMsg{
		FieldID: binary.BigEndian.Uint16(p[0:2]),
		Result:  p[2],
	}, nil
}

// ConnectToResourceMsg attaches a special resource (announcement, IVR,
// conference bridge) to the call.
type ConnectToResourceMsg struct {
	ResourceID uint32
}

func (ConnectToResourceMsg) Code() CommandCode { return ConnectToResource }

func (m ConnectToResourceMsg) Marshal(buf []byte) ([]byte, error) {
	return binary.BigEndian.AppendUint32(buf, m.ResourceID), nil
}

func decodeConnectToResource(p []byte) (Body, error) {
	if len(p) != 4 {
		return nil, &DecodeError{Code: ConnectToResource, Reason: ReasonInvalidFieldValue}
	}
	return ConnectToResourceMsg{ResourceID: binary.BigEndian.Uint32(p)}, nil
}

// ConnectToResourceAckMsg acknowledges ConnectToResource.
type ConnectToResourceAckMsg struct {
	ResourceID uint32
	Result     byte
}

func (ConnectToResourceAckMsg) Code() CommandCode { return ConnectToResourceAck }

func (m ConnectToResourceAckMsg) Marshal(buf []byte) ([]byte, error) {
	buf = binary.BigEndian.AppendUint32(buf, m.ResourceID)
	return append(buf, m.Result), nil
}

func decodeConnectToResourceAck(p []byte) (Body, error) {
	if len(p) != 5 {
		return nil, &DecodeError{Code: ConnectToResourceAck, Reason: ReasonInvalidFieldValue}
	}
	return ConnectToResourceAckMsg{
		ResourceID: binary.BigEndian.Uint32(p[0:4]),
		Result:     p[4],
	}, nil
}

// DisconnectFromResourceMsg detaches a resource previously attached with
// ConnectToResource.
type DisconnectFromResourceMsg struct {
	ResourceID uint32
}

func (DisconnectFromResourceMsg) Code() CommandCode { return DisconnectFromResource }

func (m DisconnectFromResourceMsg) Marshal(buf []byte) ([]byte, error) {
	return binary.BigEndian.AppendUint32(buf, m.ResourceID), nil
}

func decodeDisconnectFromResource(p []byte) (Body, error) {
	if len(p) != 4 {
		return nil, &DecodeError{Code: DisconnectFromResource, Reason: ReasonInvalidFieldValue}
	}
	return DisconnectFromResourceMsg{ResourceID: binary.BigEndian.Uint32(p)}, nil
}

// DisconnectFromResourceAckMsg acknowledges DisconnectFromResource.
type DisconnectFromResourceAckMsg struct {
	ResourceID uint32
	Result     byte
}

func (DisconnectFromResourceAckMsg) Code() CommandCode { return DisconnectFromResourceAck }

func (m DisconnectFromResourceAckMsg) Marshal(buf []byte) ([]byte, error) {
	buf = binary.BigEndian.AppendUint32(buf, m.ResourceID)
	return append(buf, m.Result), nil
}

func decodeDisconnectFromResourceAck(p []byte) (Body, error) {
	if len(p) != 5 {
		return nil, &DecodeError{Code: DisconnectFromResourceAck, Reason: ReasonInvalidFieldValue}
	}
	return DisconnectFromResourceAckMsg{
		ResourceID: binary.BigEndian.Uint32(p[0:4]),
		Result:     p[4],
	}, nil
}
