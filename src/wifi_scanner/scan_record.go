package wifi_scanner

import (
	"encoding/json"
	"fmt"
	"net"
)

// Optional holds a value that may or may not have been reported.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether a value is present.
func (o Optional[T]) IsSet() bool {
	return o.set
}

func (o Optional[T]) ptr() *T {
	if !o.set {
		return nil
	}
	v := o.value
	return &v
}

// ScanRecord is one access point observation decoded from a scan reply. Each field is
// present only if the reply carried the corresponding attribute.
type ScanRecord struct {
	BSSID        Optional[string]
	SSID         Optional[string]
	SignalDBm    Optional[float64]
	FrequencyGHz Optional[float64]
	Channel      Optional[int]
}

// scanRecordJSON is the wire form published over MQTT.
type scanRecordJSON struct {
	MAC          *string  `json:"mac,omitempty"`
	SSID         *string  `json:"ssid,omitempty"`
	SignalDBm    *float64 `json:"signal_dbm,omitempty"`
	FrequencyGHz *float64 `json:"frequency_ghz,omitempty"`
	Channel      *int     `json:"channel,omitempty"`
}

// MarshalJSON renders the record as a compact object containing only present fields.
func (r ScanRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(scanRecordJSON{
		MAC:          r.BSSID.ptr(),
		SSID:         r.SSID.ptr(),
		SignalDBm:    r.SignalDBm.ptr(),
		FrequencyGHz: r.FrequencyGHz.ptr(),
		Channel:      r.Channel.ptr(),
	})
}

// UnmarshalJSON parses the wire form, used by the subscriber to inspect results.
func (r *ScanRecord) UnmarshalJSON(data []byte) error {
	var wire scanRecordJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*r = ScanRecord{
		BSSID:        fromPtr(wire.MAC),
		SSID:         fromPtr(wire.SSID),
		SignalDBm:    fromPtr(wire.SignalDBm),
		FrequencyGHz: fromPtr(wire.FrequencyGHz),
		Channel:      fromPtr(wire.Channel),
	}
	return nil
}

func fromPtr[T any](p *T) Optional[T] {
	if p == nil {
		return Optional[T]{}
	}
	return Some(*p)
}

// IsEmpty reports whether no field was decoded.
func (r ScanRecord) IsEmpty() bool {
	return !r.BSSID.IsSet() && !r.SSID.IsSet() && !r.SignalDBm.IsSet() &&
		!r.FrequencyGHz.IsSet() && !r.Channel.IsSet()
}

// String is used in debug logs.
func (r ScanRecord) String() string {
	b, err := r.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("ScanRecord<%v>", err)
	}
	return string(b)
}

func formatBSSID(b []byte) string {
	return net.HardwareAddr(b).String()
}
