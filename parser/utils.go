package parser

func CapInt64(v int64, max int64) int64 {
	if v > max {
		return max
	}
	return v
}

func CapInt(v int, max int) int {
	if v > max {
		return max
	}
	return v
}

// Records are always 64 bit aligned.
func alignUp8(v int64) int64 {
	return (v + 7) &^ 7
}

func isZero(buf []byte) bool {
	for _, c := range buf {
		if c != 0 {
			return false
		}
	}
	return true
}
