package wifi_scanner

import (
	"iter"

	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
)

// newAttributeDecoder walks b attribute by attribute. A trailing fragment shorter than
// an attribute header is dropped so the attributes before it still decode.
func newAttributeDecoder(b []byte) (*netlink.AttributeDecoder, error) {
	ad, err := netlink.NewAttributeDecoder(b)
	if err == nil {
		return ad, nil
	}
	aligned := len(b) &^ 3
	if aligned == len(b) {
		return nil, err
	}
	return netlink.NewAttributeDecoder(b[:aligned])
}

// DecodeScanMessage decodes one NL80211_CMD_GET_SCAN reply. It returns false when the
// message carries no BSS attribute and should be skipped. Malformed attributes are
// skipped; whatever decoded before them is kept.
func DecodeScanMessage(m genetlink.Message) (ScanRecord, bool) {
	ad, err := newAttributeDecoder(m.Data)
	if err != nil {
		logger.WithError(err).Debug("Skipping scan reply with unparsable attributes")
		return ScanRecord{}, false
	}

	for ad.Next() {
		if ad.Type() == nl80211AttrBSS {
			return decodeBSS(ad.Bytes()), true
		}
	}
	if err := ad.Err(); err != nil {
		logger.WithError(err).Debug("Scan reply ended with a malformed attribute")
	}
	return ScanRecord{}, false
}

// DecodeScanMessages lazily decodes msgs in order, skipping messages without BSS data.
func DecodeScanMessages(msgs []genetlink.Message) iter.Seq[ScanRecord] {
	return func(yield func(ScanRecord) bool) {
		for _, m := range msgs {
			rec, ok := DecodeScanMessage(m)
			if !ok {
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}

func decodeBSS(b []byte) ScanRecord {
	var rec ScanRecord

	ad, err := newAttributeDecoder(b)
	if err != nil {
		logger.WithError(err).Debug("Malformed nested BSS attributes")
		return rec
	}

	// Values are read as raw bytes: the typed getters record a sticky error on a
	// length mismatch, which would stop the walk.
	for ad.Next() {
		data := ad.Bytes()
		switch ad.Type() {
		case nl80211BSSBSSID:
			if len(data) == 6 {
				rec.BSSID = Some(formatBSSID(data))
			}
		case nl80211BSSInformationElements:
			if ssid, ok := FindSSID(data); ok {
				rec.SSID = Some(ssid)
			}
		case nl80211BSSSignalMBM:
			if len(data) == 4 {
				rec.SignalDBm = Some(float64(int32(nlenc.Uint32(data))) / 100.0)
			}
		case nl80211BSSFrequency:
			if len(data) == 4 {
				freq := nlenc.Uint32(data)
				rec.FrequencyGHz = Some(float64(freq) / 1000.0)
				rec.Channel = Some(FrequencyToChannel(int(freq)))
			}
		}
	}
	if err := ad.Err(); err != nil {
		logger.WithError(err).Debug("BSS attributes ended with a malformed attribute")
	}

	logger.WithField("record", rec).Trace("Decoded BSS")
	return rec
}
