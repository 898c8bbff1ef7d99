//go:build !linux

package transceiver

// NewUSBTracer returns a latency counter with no kernel-side component on
// platforms without eBPF; Observe/Snapshot still work from call-site timing.
func NewUSBTracer() *USBTracer {
	return newDisabledTracer()
}
