package field

import "math"

// Quantize rounds every value in data through IEEE 754 binary16 in place.
// Used when the device stores fields as half floats.
func Quantize(data []float32) {
	for i, v := range data {
		data[i] = FromHalf(ToHalf(v))
	}
}

// ToHalf converts f to binary16 bits, rounding to nearest. Values beyond the
// half range become infinity.
func ToHalf(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16((bits >> 16) & 0x8000)
	exp := int((bits >> 23) & 0xff)
	mant := bits & 0x7fffff

	switch exp {
	case 0xff:
		if mant == 0 {
			return sign | 0x7c00
		}
		mant >>= 13
		if mant == 0 {
			mant = 1
		}
		return sign | 0x7c00 | uint16(mant)
	case 0:
		if mant == 0 {
			return sign
		}
	}

	e := exp - 127 + 15
	if e >= 0x1f {
		return sign | 0x7c00
	}
	if e <= 0 {
		if e < -10 {
			return sign
		}
		m := (mant | 0x800000) >> uint(1-e)
		m += 0x1000
		return sign | uint16(m>>13)
	}

	mant += 0x1000
	if mant&0x800000 != 0 {
		mant = 0
		e++
		if e >= 0x1f {
			return sign | 0x7c00
		}
	}
	return sign | uint16(e<<10) | uint16(mant>>13)
}

// FromHalf expands binary16 bits to float32.
func FromHalf(h uint16) float32 {
	sign := uint32(h>>15) << 31
	exp := int((h >> 10) & 0x1f)
	mant := uint32(h & 0x3ff)

	switch exp {
	case 0:
		if mant == 0 {
			return math.Float32frombits(sign)
		}
		// subnormal: renormalize
		exp = -14
		for mant&0x400 == 0 {
			mant <<= 1
			exp--
		}
		mant &= 0x3ff
		return math.Float32frombits(sign | uint32((exp+127)<<23) | mant<<13)
	case 0x1f:
		bits := sign | 0x7f800000 | mant<<13
		if mant != 0 {
			bits |= 1
		}
		return math.Float32frombits(bits)
	}
	return math.Float32frombits(sign | uint32((exp-15+127)<<23) | mant<<13)
}
