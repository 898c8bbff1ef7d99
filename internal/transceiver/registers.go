package transceiver

// AX5051 register addresses on the dongle's RF transceiver chip.
const (
	regRevision     = 0x0
	regScratch      = 0x1
	regPowerMode    = 0x2
	regXtalOsc      = 0x3
	regFIFOCtrl     = 0x4
	regFIFOData     = 0x5
	regIRQMask      = 0x6
	regIFMode       = 0x8
	regPinCfg1      = 0x0C
	regPinCfg2      = 0x0D
	regModulation   = 0x10
	regEncoding     = 0x11
	regFraming      = 0x12
	regCRCInit3     = 0x14
	regCRCInit2     = 0x15
	regCRCInit1     = 0x16
	regCRCInit0     = 0x17
	regFreq3        = 0x20
	regFreq2        = 0x21
	regFreq1        = 0x22
	regFreq0        = 0x23
	regFSKDev2      = 0x25
	regFSKDev1      = 0x26
	regFSKDev0      = 0x27
	regIFFreqHi     = 0x28
	regIFFreqLo     = 0x29
	regPLLLoop      = 0x2C
	regPLLRanging   = 0x2D
	regPLLRngClk    = 0x2E
	regTXPwr        = 0x30
	regTXRateHi     = 0x31
	regTXRateMid    = 0x32
	regTXRateLo     = 0x33
	regModMisc      = 0x34
	regFIFOControl2 = 0x37
	regADCMisc      = 0x38
	regAGCTarget    = 0x39
	regAGCAttack    = 0x3A
	regAGCDecay     = 0x3B
	regAGCCounter   = 0x3C
	regCICDec       = 0x3F
	regDataRateHi   = 0x40
	regDataRateLo   = 0x41
	regTMGGainHi    = 0x42
	regTMGGainLo    = 0x43
	regPhaseGain    = 0x44
	regFreqGain     = 0x45
	regFreqGain2    = 0x46
	regAmplGain     = 0x47
	regTRKFreqHi    = 0x4C
	regTRKFreqLo    = 0x4D
	regXtalCap      = 0x4F
	regSpareOut     = 0x60
	regTestObs      = 0x68
	regAPEOver      = 0x70
	regTMMux        = 0x71
	regPLLVCOI      = 0x72
	regPLLCPEn      = 0x73
	regPLLRngMisc   = 0x74
	regAGCManual    = 0x78
	regADCDCLevel   = 0x79
	regRFMisc       = 0x7A
	regTXDriver     = 0x7B
	regRef          = 0x7C
	regRXMisc       = 0x7D
)

// registerValue pairs an AX5051 register address with the value the dongle
// is configured with at startup, in the order they must be written.
type registerValue struct {
	addr  byte
	value byte
}

// baseRegisterTable is the fixed AX5051 configuration the dongle is set up
// with every time, before patchFrequency overwrites the frequency registers
// with the word calibrateFrequency computes. The values and order are the chip vendor's recommended
// configuration for the modulation/framing this protocol uses.
func baseRegisterTable() []registerValue {
	return []registerValue{
		{regIFMode, 0x00},
		{regModulation, 0x41}, // fsk
		{regEncoding, 0x07},
		{regFraming, 0x84},
		{regCRCInit3, 0xff},
		{regCRCInit2, 0xff},
		{regCRCInit1, 0xff},
		{regCRCInit0, 0xff},
		{regFreq3, 0x38},
		{regFreq2, 0x90},
		{regFreq1, 0x00},
		{regFreq0, 0x01},
		{regPLLLoop, 0x1d},
		{regPLLRanging, 0x08},
		{regPLLRngClk, 0x03},
		{regModMisc, 0x03},
		{regSpareOut, 0x00},
		{regTestObs, 0x00},
		{regAPEOver, 0x00},
		{regTMMux, 0x00},
		{regPLLVCOI, 0x01},
		{regPLLCPEn, 0x01},
		{regRFMisc, 0xb0},
		{regRef, 0x23},
		{regIFFreqHi, 0x20},
		{regIFFreqLo, 0x00},
		{regADCMisc, 0x01},
		{regAGCTarget, 0x0e},
		{regAGCAttack, 0x11},
		{regAGCDecay, 0x0e},
		{regCICDec, 0x3f},
		{regDataRateHi, 0x19},
		{regDataRateLo, 0x66},
		{regTMGGainHi, 0x01},
		{regTMGGainLo, 0x96},
		{regPhaseGain, 0x03},
		{regFreqGain, 0x04},
		{regFreqGain2, 0x0a},
		{regAmplGain, 0x06},
		{regAGCManual, 0x00},
		{regADCDCLevel, 0x10},
		{regRXMisc, 0x35},
		{regFSKDev2, 0x00},
		{regFSKDev1, 0x31},
		{regFSKDev0, 0x27},
		{regTXPwr, 0x03},
		{regTXRateHi, 0x00},
		{regTXRateMid, 0x51},
		{regTXRateLo, 0xec},
		{regTXDriver, 0x88},
	}
}

// patchFrequency overwrites the table's four FREQn entries with the
// calibrated frequency word, in place.
func patchFrequency(table []registerValue, freq uint32) []registerValue {
	freqRegs := map[byte]byte{
		regFreq3: byte(freq >> 24),
		regFreq2: byte(freq >> 16),
		regFreq1: byte(freq >> 8),
		regFreq0: byte(freq),
	}
	for i, rv := range table {
		if v, ok := freqRegs[rv.addr]; ok {
			table[i].value = v
		}
	}
	return table
}
