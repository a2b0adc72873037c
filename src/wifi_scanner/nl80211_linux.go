//go:build linux
// +build linux

package wifi_scanner

import (
	"golang.org/x/sys/unix"
)

const (
	nl80211FamilyName = unix.NL80211_GENL_NAME

	nl80211CmdGetScan = unix.NL80211_CMD_GET_SCAN

	nl80211AttrIfindex = unix.NL80211_ATTR_IFINDEX
	nl80211AttrBSS     = unix.NL80211_ATTR_BSS

	nl80211BSSBSSID               = unix.NL80211_BSS_BSSID
	nl80211BSSFrequency           = unix.NL80211_BSS_FREQUENCY
	nl80211BSSInformationElements = unix.NL80211_BSS_INFORMATION_ELEMENTS
	nl80211BSSSignalMBM           = unix.NL80211_BSS_SIGNAL_MBM
)
