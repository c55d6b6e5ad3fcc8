package wire

import "encoding/binary"

func init() {
	register(Heartbeat, "Heartbeat", true, true, decodeHeartbeat)
	register(AreYouMaster, "AreYouMaster", true, true, decodeAreYouMaster)
	register(AreYouMasterReply, "AreYouMasterReply", true, true, decodeAreYouMasterReply)
	register(BecomeMaster, "BecomeMaster", true, true, decodeBecomeMaster)
	register(StatusRequest, "StatusRequest", true, true, decodeStatusRequest)
	register(StatusResponse, "StatusResponse", true, true, decodeStatusResponse)
	register(ChangeActiveLink, "ChangeActiveLink", true, true, decodeChangeActiveLink)
	register(ChangeActiveLinkAck, "ChangeActiveLinkAck", true, true, decodeChangeActiveLinkAck)
	register(LinkCommandUnsupported, "LinkCommandUnsupported", true, true, decodeLinkCommandUnsupported)
	register(CallGap, "CallGap", true, true, decodeCallGap)
	register(PreferredUnit, "PreferredUnit", true, true, decodePreferredUnit)
}

// HeartbeatMsg carries no information; its receipt alone updates the link's
// last-activity timestamp.
type HeartbeatMsg struct{}

func (HeartbeatMsg) Code() CommandCode                  { return Heartbeat }
func (HeartbeatMsg) Marshal(buf []byte) ([]byte, error) { return buf, nil }

func decodeHeartbeat(p []byte) (Body, error) {
	if len(p) != 0 {
		return nil, &DecodeError{Code: Heartbeat, Reason: ReasonInvalidFieldValue}
	}
	return HeartbeatMsg{}, nil
}

// AreYouMasterMsg polls a peer for its master/slave role.
type AreYouMasterMsg struct{}

func (AreYouMasterMsg) Code() CommandCode                  { return AreYouMaster }
func (AreYouMasterMsg) Marshal(buf []byte) ([]byte, error) { return buf, nil }

func decodeAreYouMaster(p []byte) (Body, error) {
	if len(p) != 0 {
		return nil, &DecodeError{Code: AreYouMaster, Reason: ReasonInvalidFieldValue}
	}
	return AreYouMasterMsg{}, nil
}

// AreYouMasterReplyMsg answers AreYouMaster.
type AreYouMasterReplyMsg struct {
	IsMaster bool
}

func (AreYouMasterReplyMsg) Code() CommandCode { return AreYouMasterReply }

func (m AreYouMasterReplyMsg) Marshal(buf []byte) ([]byte, error) {
	var b byte
	if m.IsMaster {
		b = 1
	}
	return append(buf, b), nil
}

func decodeAreYouMasterReply(p []byte) (Body, error) {
	if len(p) != 1 {
		return nil, &DecodeError{Code: AreYouMasterReply, Reason: ReasonInvalidFieldValue}
	}
	return AreYouMasterReplyMsg{IsMaster: p[0] != 0}, nil
}

// BecomeMasterMsg instructs a slave link to take over as master. The
// system manager sends this after a master-slave swap timeout (§4.5).
type BecomeMasterMsg struct{}

func (BecomeMasterMsg) Code() CommandCode                  { return BecomeMaster }
func (BecomeMasterMsg) Marshal(buf []byte) ([]byte, error) { return buf, nil }

func decodeBecomeMaster(p []byte) (Body, error) {
	if len(p) != 0 {
		return nil, &DecodeError{Code: BecomeMaster, Reason: ReasonInvalidFieldValue}
	}
	return BecomeMasterMsg{}, nil
}

// StatusRequestFlags bit layout.
const (
	FlagUnitEnabled byte = 1 << 0
	FlagMaster      byte = 1 << 1
)

// MasterSlaveClusterID is the cluster id value that marks a peer as
// configured master-slave rather than load-sharing.
const MasterSlaveClusterID byte = 0xff

// StatusRequestMsg is sent by a peer to announce its role and enabled
// state; the receiving link must answer with StatusResponseMsg.
type StatusRequestMsg struct {
	UnitID    uint32
	ClusterID byte
	Flags     byte
}

func (StatusRequestMsg) Code() CommandCode { return StatusRequest }

func (m StatusRequestMsg) Marshal(buf []byte) ([]byte, error) {
	buf = binary.BigEndian.AppendUint32(buf, m.UnitID)
	return append(buf, m.ClusterID, m.Flags), nil
}

func decodeStatusRequest(p []byte) (Body, error) {
	if len(p) != 6 {
		return nil, &DecodeError{Code: StatusRequest, Reason: ReasonInvalidFieldValue}
	}
	return StatusRequestMsg{
		UnitID:    binary.BigEndian.Uint32(p[0:4]),
		ClusterID: p[4],
		Flags:     p[5],
	}, nil
}

// StatusResponseMsg answers StatusRequest with the local unit's name and
// current in-progress call count.
type StatusResponseMsg struct {
	ActiveCalls uint32
	UnitName    string
}

func (StatusResponseMsg) Code() CommandCode { return StatusResponse }

func (m StatusResponseMsg) Marshal(buf []byte) ([]byte, error) {
	buf = binary.BigEndian.AppendUint32(buf, m.ActiveCalls)
	return marshalUnitName(buf, m.UnitName)
}

func decodeStatusResponse(p []byte) (Body, error) {
	if len(p) != 4+UnitNameLen {
		return nil, &DecodeError{Code: StatusResponse, Reason: ReasonInvalidFieldValue}
	}
	name, err := unmarshalUnitName(p[4:])
	if err != nil {
		return nil, &DecodeError{Code: StatusResponse, Reason: ReasonInvalidFieldValue}
	}
	return StatusResponseMsg{
		ActiveCalls: binary.BigEndian.Uint32(p[0:4]),
		UnitName:    name,
	}, nil
}

// ChangeActiveLinkMsg requests the client prefer a different link index.
type ChangeActiveLinkMsg struct {
	LinkIndex byte
}

func (ChangeActiveLinkMsg) Code() CommandCode { return ChangeActiveLink }

func (m ChangeActiveLinkMsg) Marshal(buf []byte) ([]byte, error) {
	return append(buf, m.LinkIndex), nil
}

func decodeChangeActiveLink(p []byte) (Body, error) {
	if len(p) != 1 {
		return nil, &DecodeError{Code: ChangeActiveLink, Reason: ReasonInvalidFieldValue}
	}
	return ChangeActiveLinkMsg{LinkIndex: p[0]}, nil
}

// ChangeActiveLinkAckMsg acknowledges ChangeActiveLinkMsg.
type ChangeActiveLinkAckMsg struct{}

func (ChangeActiveLinkAckMsg) Code() CommandCode                  { return ChangeActiveLinkAck }
func (ChangeActiveLinkAckMsg) Marshal(buf []byte) ([]byte, error) { return buf, nil }

func decodeChangeActiveLinkAck(p []byte) (Body, error) {
	if len(p) != 0 {
		return nil, &DecodeError{Code: ChangeActiveLinkAck, Reason: ReasonInvalidFieldValue}
	}
	return ChangeActiveLinkAckMsg{}, nil
}

// LinkCommandUnsupportedMsg is the link-class "unsupported" reply: sent
// back for an unknown link command code, or one that fails validation.
type LinkCommandUnsupportedMsg struct {
	NestedCode CommandCode
	Reason     Reason
	Detail     uint16
}

func (LinkCommandUnsupportedMsg) Code() CommandCode { return LinkCommandUnsupported }

func (m LinkCommandUnsupportedMsg) Marshal(buf []byte) ([]byte, error) {
	buf = binary.BigEndian.AppendUint16(buf, uint16(m.NestedCode))
	buf = append(buf, byte(m.Reason))
	return binary.BigEndian.AppendUint16(buf, m.Detail), nil
}

func decodeLinkCommandUnsupported(p []byte) (Body, error) {
	if len(p) != 5 {
		return nil, &DecodeError{Code: LinkCommandUnsupported, Reason: ReasonInvalidFieldValue}
	}
	return LinkCommandUnsupportedMsg{
		NestedCode: CommandCode(binary.BigEndian.Uint16(p[0:2])),
		Reason:     Reason(p[2]),
		Detail:     binary.BigEndian.Uint16(p[3:5]),
	}, nil
}

// Gapping duration sentinels (seconds, signed), per §4.4.
const (
	GapDisable         int32 = 0
	GapIndefinite      int32 = -1
	GapNetworkSpecific int32 = -2
)

// CallGapMsg is peer-initiated flow control: stop sending new calls to the
// peer for the given duration. Existing calls are unaffected.
type CallGapMsg struct {
	DurationSeconds int32
}

func (CallGapMsg) Code() CommandCode { return CallGap }

func (m CallGapMsg) Marshal(buf []byte) ([]byte, error) {
	return binary.BigEndian.AppendUint32(buf, uint32(m.DurationSeconds)), nil
}

func decodeCallGap(p []byte) (Body, error) {
	if len(p) != 4 {
		return nil, &DecodeError{Code: CallGap, Reason: ReasonInvalidFieldValue}
	}
	return CallGapMsg{DurationSeconds: int32(binary.BigEndian.Uint32(p))}, nil
}

// PreferredUnitMsg hints which SCP address should receive new work.
type PreferredUnitMsg struct {
	Preferred [4]byte // IPv4
	Secondary [4]byte // IPv4
}

func (PreferredUnitMsg) Code() CommandCode { return PreferredUnit }

func (m PreferredUnitMsg) Marshal(buf []byte) ([]byte, error) {
	buf = append(buf, m.Preferred[:]...)
	return append(buf, m.Secondary[:]...), nil
}

func decodePreferredUnit(p []byte) (Body, error) {
	if len(p) != 8 {
		return nil, &DecodeError{Code: PreferredUnit, Reason: ReasonInvalidFieldValue}
	}
	var m PreferredUnitMsg
	copy(m.Preferred[:], p[0:4])
	copy(m.Secondary[:], p[4:8])
	return m, nil
}
