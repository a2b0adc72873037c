package wifi_scanner

import (
	"iter"
)

// ssidElementID is the information element tag carrying the network name.
const ssidElementID = 0

// InformationElements yields the (tag, value) pairs of a tag-length-value buffer as found
// in beacon and probe response frames. Iteration stops at the end of the buffer or at the
// first element whose declared length runs past it. Each range starts over from offset 0.
func InformationElements(b []byte) iter.Seq2[uint8, []byte] {
	return func(yield func(uint8, []byte) bool) {
		pos := 0
		for len(b)-pos >= 2 {
			tag := b[pos]
			length := int(b[pos+1])
			pos += 2

			if length > len(b)-pos {
				return
			}
			if !yield(tag, b[pos:pos+length:pos+length]) {
				return
			}
			pos += length
		}
	}
}

// FindSSID returns the value of the first SSID element in b. A zero-length SSID
// (hidden network) is reported as present.
func FindSSID(b []byte) (string, bool) {
	for tag, value := range InformationElements(b) {
		if tag == ssidElementID {
			return string(value), true
		}
	}
	return "", false
}
