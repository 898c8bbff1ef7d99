// Package codec implements the nibble-packed BCD wire format used by the
// klogg station: integers, temperatures, humidities, six-bit characters and
// two date-time encodings, all addressed by a byte offset plus a flag
// saying whether the field starts on the high or low nibble of that byte.
package codec

import "time"

// Sentinel values a decoded temperature or humidity may carry. Callers must
// treat these as missing data, never as a real reading.
const (
	TemperatureNP  = 81.1
	TemperatureOFL = 136.0
	HumidityNP     = 110.0
	HumidityOFL    = 121.0

	// TemperatureOffset is added to a decoded raw BCD temperature reading
	// (so the wire format never has to carry a sign nibble) and must be
	// added back before encoding a temperature for transmission.
	TemperatureOffset = 40.0

	temperatureOffset = TemperatureOffset
)

// CharMap indexes a decoded six-bit character id to its rune. Index 63 is
// unused by the station but kept so a corrupt index never panics a caller
// that blindly indexes it.
var CharMap = [64]byte{
	'!', '1', '2', '3', '4', '5', '6', '7', '8', '9',
	'0', 'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I',
	'J', 'K', 'L', 'M', 'N', 'O', 'P', 'Q', 'R', 'S',
	'T', 'U', 'V', 'W', 'X', 'Y', 'Z', '-', '+', '(',
	')', 'o', '*', ',', '/', '\\', ' ', '.', ' ', ' ',
	' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ',
	' ', ' ', ' ', '@',
}

// CharStr is the encode-direction alphabet: CharStr[i] must decode back to
// CharMap[i] for i < len(CharStr).
const CharStr = "!1234567890ABCDEFGHIJKLMNOPQRSTUVWXYZ-+()o*,/\\ ."

// nib returns one nibble of buf[pos], high or low.
func nib(buf []byte, pos int, hi bool) byte {
	if hi {
		return buf[pos] >> 4
	}
	return buf[pos] & 0xF
}

// isErrNibble reports whether a single nibble is an error marker (10..14;
// 15 is reserved for "out of factory limits", handled separately).
func isErrNibble(n byte) bool {
	return n >= 10 && n != 15
}

func isOFLNibble(n byte) bool {
	return n == 15
}

// nibbleAt returns nibble k (0-based, high-nibble-of-start first when hi is
// true) out of a run of nibbles beginning at (start, hi).
func nibbleAt(buf []byte, start int, hi bool, k int) byte {
	// Each step of k advances half a byte.
	pos := start
	curHi := hi
	for i := 0; i < k; i++ {
		if curHi {
			curHi = false
		} else {
			curHi = true
			pos++
		}
	}
	return nib(buf, pos, curHi)
}

func anyErr(buf []byte, start int, hi bool, n int) bool {
	for i := 0; i < n; i++ {
		if isErrNibble(nibbleAt(buf, start, hi, i)) {
			return true
		}
	}
	return false
}

func anyOFL(buf []byte, start int, hi bool, n int) bool {
	for i := 0; i < n; i++ {
		if isOFLNibble(nibbleAt(buf, start, hi, i)) {
			return true
		}
	}
	return false
}

// ToInt1 reads a single nibble as 0..15.
func ToInt1(buf []byte, start int, hi bool) int {
	return int(nib(buf, start, hi))
}

// ToInt2 reads two nibbles as a two-digit decimal number.
func ToInt2(buf []byte, start int, hi bool) int {
	if hi {
		return int(nib(buf, start, true))*10 + int(nib(buf, start, false))
	}
	return int(nib(buf, start, false))*10 + int(nib(buf, start+1, true))
}

// ToTemperature310 decodes three nibbles, MSD first, as a temperature in
// degrees Celsius with one decimal of precision.
func ToTemperature310(buf []byte, start int, hi bool) float64 {
	if anyErr(buf, start, hi, 3) {
		return TemperatureNP
	}
	if anyOFL(buf, start, hi, 3) {
		return TemperatureOFL
	}
	var raw float64
	if hi {
		raw = float64(nib(buf, start, true))*10 + float64(nib(buf, start, false))*1 + float64(nib(buf, start+1, true))*0.1
	} else {
		raw = float64(nib(buf, start, false))*10 + float64(nib(buf, start+1, true))*1 + float64(nib(buf, start+1, false))*0.1
	}
	return raw - temperatureOffset
}

// ToHumidity20 decodes two nibbles as a relative humidity percentage.
func ToHumidity20(buf []byte, start int, hi bool) float64 {
	if anyErr(buf, start, hi, 2) {
		return HumidityNP
	}
	if anyOFL(buf, start, hi, 2) {
		return HumidityOFL
	}
	return float64(ToInt2(buf, start, hi))
}

// invalidDateTime is returned whenever a date-time field decodes to an
// error pattern; callers must not mistake it for a real timestamp.
var invalidDateTime = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// ToDateTime10 decodes five two-nibble fields (YY MM DD HH MM) starting at
// byte start.
func ToDateTime10(buf []byte, start int, hi bool) time.Time {
	for i := 0; i < 5; i++ {
		if isErrNibble(nibbleAt(buf, start, hi, 2*i)) || isErrNibble(nibbleAt(buf, start, hi, 2*i+1)) {
			return invalidDateTime
		}
	}
	year := ToInt2(buf, start, hi) + 2000
	month := toInt2At(buf, start, hi, 1)
	day := toInt2At(buf, start, hi, 2)
	hour := toInt2At(buf, start, hi, 3)
	minute := toInt2At(buf, start, hi, 4)
	t, err := safeDate(year, month, day, hour, minute)
	if err != nil {
		return invalidDateTime
	}
	return t
}

// toInt2At reads the field-th two-nibble group (0-based) of a run starting
// at (start, hi): field 0 is ToInt2(start), field 1 begins one byte later
// on the same nibble alignment, etc.
func toInt2At(buf []byte, start int, hi bool, field int) int {
	off := start + field
	return ToInt2(buf, off, hi)
}

// isErr8 mirrors the original firmware's canary pattern for the packed
// min/max timestamp fields: hi-first "AA 4A A4 AA", lo-first "A AA4 AA 4A AA".
func isErr8(buf []byte, start int, hi bool) bool {
	want := []byte{10, 10, 4, 10, 10, 4, 10, 10}
	for i, w := range want {
		if nibbleAt(buf, start, hi, i) != w {
			return false
		}
	}
	return true
}

// ToDateTime8 decodes the compact 8-nibble min/max timestamp form used in
// CurrentData.
func ToDateTime8(buf []byte, start int, hi bool) time.Time {
	if isErr8(buf, start, hi) {
		return invalidDateTime
	}
	var year, month, day, t1, t2, t3 int
	if hi {
		year = ToInt2(buf, start+0, true) + 2000
		month = ToInt1(buf, start+1, true)
		day = ToInt2(buf, start+1, false)
		t1 = ToInt1(buf, start+2, false)
		t2 = ToInt1(buf, start+3, true)
		t3 = ToInt1(buf, start+3, false)
	} else {
		year = ToInt2(buf, start+0, false) + 2000
		month = ToInt1(buf, start+1, false)
		day = ToInt2(buf, start+2, true)
		t1 = ToInt1(buf, start+3, true)
		t2 = ToInt1(buf, start+3, false)
		t3 = ToInt1(buf, start+4, true)
	}
	var hour, minute int
	if t1 >= 10 {
		hour = t1 + 10
	} else {
		hour = t1
	}
	if t2 >= 10 {
		hour += 10
		minute = (t2 - 10) * 10
	} else {
		minute = t2 * 10
	}
	minute += t3
	dt, err := safeDate(year, month, day, hour, minute)
	if err != nil {
		return invalidDateTime
	}
	return dt
}

func safeDate(year, month, day, hour, minute int) (time.Time, error) {
	if month < 1 || month > 12 || day < 1 || day > 31 || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, errInvalidDate
	}
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC), nil
}

var errInvalidDate = &dateError{}

type dateError struct{}

func (*dateError) Error() string { return "codec: invalid date/time field" }

// ToCharacters32 decodes three nibbles into two CHARSTR characters.
func ToCharacters32(buf []byte, start int, hi bool) string {
	var idx1, idx2 int
	if hi {
		idx1 = int((buf[start+1]>>2)&0x3C) + int((buf[start]>>2)&0x3)
		idx2 = int((buf[start]<<4)&0x30) + int((buf[start]>>4)&0xF)
	} else {
		idx1 = int((buf[start+1]<<2)&0x3C) + int((buf[start+1]>>6)&0x3)
		idx2 = int(buf[start+1]&0x30) + int(buf[start]&0xF)
	}
	return string([]byte{CharMap[idx1], CharMap[idx2]})
}

// ReverseByteOrder reverses count bytes of buf starting at start, in place.
// The station stores packed T/H config fields little-endian on the wire.
func ReverseByteOrder(buf []byte, start, count int) {
	for i := 0; i < count/2; i++ {
		buf[start+i], buf[start+count-i-1] = buf[start+count-i-1], buf[start+i]
	}
}

// Parse0 packs a 0-decimal integer into numbytes worth of nibbles.
func Parse0(number int, buf []byte, start int, hi bool, numbytes int) {
	var nbuf [3]int
	num := number
	for i := 3 - numbytes; i < 3; i++ {
		nbuf[i] = num % 10
		num /= 10
	}
	if hi {
		buf[start] = byte(nbuf[2]*16 + nbuf[1])
		if numbytes > 2 {
			buf[start+1] = byte(nbuf[0]*16) | (buf[start+2] & 0x0F)
		}
	} else {
		buf[start] = (buf[start] & 0xF0) | byte(nbuf[2])
		if numbytes > 2 {
			buf[start+1] = byte(nbuf[1]*16 + nbuf[0])
		}
	}
}

// Parse1 packs a 1-decimal number by scaling it by 10 and deferring to Parse0.
func Parse1(number float64, buf []byte, start int, hi bool, numbytes int) {
	Parse0(int(number*10.0+0.5), buf, start, hi, numbytes)
}

// charIndex returns c's position in CharStr, or 0 ('!') if c is not a
// legal label character.
func charIndex(c byte) int {
	for i := 0; i < len(CharStr); i++ {
		if CharStr[i] == c {
			return i
		}
	}
	return 0
}

// EncodeLabel packs a 10-character channel label into the 8-byte
// description block the station expects, padding with '!'; callers are
// expected to uppercase from CHARSTR before calling this. It is the exact
// inverse of the five ToCharacters32 calls the decoder makes over a
// description block, so EncodeLabel(s) decoded back through those five
// calls reproduces s.
func EncodeLabel(label string) [8]byte {
	padded := [10]byte{'!', '!', '!', '!', '!', '!', '!', '!', '!', '!'}
	for i := 0; i < len(label) && i < 10; i++ {
		padded[i] = label[i]
	}
	id := [10]int{}
	for i, c := range padded {
		id[i] = charIndex(c)
	}
	c1, c2, c3, c4, c5 := id[0], id[1], id[2], id[3], id[4]
	c6, c7, c8, c9, c10 := id[5], id[6], id[7], id[8], id[9]

	var txt [8]byte
	txt[7] = byte(((c1 << 6) & 0xC0) + (c2 & 0x30) + ((c1 >> 2) & 0x0F))
	txt[6] = byte(((c3 << 2) & 0xF0) + (c2 & 0x0F))
	txt[5] = byte(((c4 << 4) & 0xF0) + ((c3 << 2) & 0x0C) + ((c4 >> 4) & 0x03))
	txt[4] = byte(((c5 << 6) & 0xC0) + (c6 & 0x30) + ((c5 >> 2) & 0x0F))
	txt[3] = byte(((c7 << 2) & 0xF0) + (c6 & 0x0F))
	txt[2] = byte(((c8 << 4) & 0xF0) + ((c7 << 2) & 0x0C) + ((c8 >> 4) & 0x03))
	txt[1] = byte(((c9 << 6) & 0xC0) + (c10 & 0x30) + ((c9 >> 2) & 0x0F))
	txt[0] = byte(c10 & 0x0F)

	// txt is indexed in wire order: txt[7] holds c1 and the top bits of c2,
	// exactly where the first ToCharacters32 call (offset 6, low nibble)
	// reads them from.
	return txt
}
