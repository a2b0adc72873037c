//go:build !linux
// +build !linux

package wifi_scanner

// Kernel ABI values from include/uapi/linux/nl80211.h, which x/sys/unix only
// exports on Linux. They keep the decoder buildable and testable elsewhere.
const (
	nl80211FamilyName = "nl80211"

	nl80211CmdGetScan = 0x20

	nl80211AttrIfindex = 0x3
	nl80211AttrBSS     = 0x2f

	nl80211BSSBSSID               = 0x1
	nl80211BSSFrequency           = 0x2
	nl80211BSSInformationElements = 0x6
	nl80211BSSSignalMBM           = 0x7
)
