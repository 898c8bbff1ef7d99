package service

import "fmt"

// DataWrittenError signals that the station acknowledged a set-time or
// set-config frame; the caller should switch the dongle back to receive
// mode and move on, not treat it as a failure.
type DataWrittenError struct{}

func (DataWrittenError) Error() string { return "service: station wrote data (set-time/set-config ack)" }

// BadResponseError signals a frame whose length didn't match its declared
// response type.
type BadResponseError struct {
	Length       int
	ResponseType byte
}

func (e BadResponseError) Error() string {
	return fmt.Sprintf("service: bad response: len=%#x resp=%#x", e.Length, e.ResponseType)
}

// UnknownDeviceIDError signals a frame from a device id this service isn't
// paired to.
type UnknownDeviceIDError struct {
	BufferID uint16
}

func (e UnknownDeviceIDError) Error() string {
	return fmt.Sprintf("service: unexpected device id %04x", e.BufferID)
}
