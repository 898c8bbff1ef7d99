package service

// Action is the outbound frame's requested next step, encoded in the low
// nibble of an ACK frame's action byte.
type Action byte

const (
	ActionGetHistory   Action = 0x00
	ActionReqSetTime   Action = 0x01
	ActionReqSetConfig Action = 0x02
	ActionGetConfig    Action = 0x03
	ActionGetCurrent   Action = 0x04
	ActionSendConfig   Action = 0x20
	ActionSendTime     Action = 0x60
)

// responseType is the inbound frame's kind, the high nibble of buf[3].
type responseType byte

const (
	responseDataWritten responseType = 0x10
	responseGetConfig   responseType = 0x20
	responseGetCurrent  responseType = 0x30
	responseGetHistory  responseType = 0x40
	responseRequest     responseType = 0x50
)

// Request subtypes, valid only when responseType is responseRequest;
// carried in the full byte buf[3] rather than just its high nibble.
const (
	requestReadHistory byte = 0x50
	requestFirstConfig byte = 0x51
	requestSetConfig   byte = 0x52
	requestSetTime     byte = 0x53
)

const (
	pairingBufferIDLow  uint16 = 0xF0F0
	pairingBufferIDHigh uint16 = 0xFFFF
)
