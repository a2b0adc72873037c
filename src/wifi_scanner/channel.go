package wifi_scanner

// InvalidChannel is returned for frequencies outside the known 2.4 GHz and 5 GHz ranges.
const InvalidChannel = -1

// FrequencyToChannel maps a carrier frequency in MHz to its channel number.
func FrequencyToChannel(freqMHz int) int {
	switch {
	case freqMHz >= 2412 && freqMHz <= 2472:
		return (freqMHz - 2407) / 5
	case freqMHz == 2484:
		return 14
	case freqMHz >= 5180 && freqMHz <= 5825:
		return (freqMHz - 5000) / 5
	default:
		return InvalidChannel
	}
}
