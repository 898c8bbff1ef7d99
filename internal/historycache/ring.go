// Package historycache implements the ring-index arithmetic and the
// accept/skip bookkeeping for draining the station's on-device circular
// history buffer.
package historycache

// MaxRecords is the station's on-device ring buffer capacity.
const MaxRecords = 51200

// historyBaseAddr is the first history-slot address; slots are 32 bytes.
const historyBaseAddr = 0x070000
const slotSize = 32

// GetIndex wraps idx into [0, MaxRecords) regardless of how far out of
// range it starts - the catchup protocol routinely computes indices via
// subtraction that can go negative or past the end.
func GetIndex(idx int) int {
	return ((idx % MaxRecords) + MaxRecords) % MaxRecords
}

// AddrToIndex converts a station memory address to its ring-buffer index.
func AddrToIndex(addr int) int {
	return GetIndex((addr - historyBaseAddr) / slotSize)
}

// IndexToAddr converts a ring-buffer index to its station memory address.
func IndexToAddr(idx int) int {
	return slotSize*GetIndex(idx) + historyBaseAddr
}

// FirstFrameIndexQuirk reproduces an empirical correction in the original
// driver: the very first history frame after pairing reports position 6 as
// "this" index even though the real first position is 1, but only when the
// station's latest index is comfortably past the wraparound boundary. The
// condition and its effect are kept byte-for-byte from the original; no
// cleaner explanation for the magic numbers was found.
func FirstFrameIndexQuirk(thisIndex, latestIndex int) int {
	if thisIndex == 6 && latestIndex > 12 {
		return 1
	}
	return thisIndex
}
