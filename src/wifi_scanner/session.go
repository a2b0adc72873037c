package wifi_scanner

import (
	"context"
	"time"

	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/netlink"
	"github.com/sirupsen/logrus"
)

// scanConn is the subset of *genetlink.Conn used by a scan session.
type scanConn interface {
	GetFamily(name string) (genetlink.Family, error)
	Execute(m genetlink.Message, family uint16, flags netlink.HeaderFlags) ([]genetlink.Message, error)
	SetDeadline(t time.Time) error
	Close() error
}

// Scanner reads the kernel's cached scan results for one interface at a time. Each call
// to ScanInterface owns a fresh generic netlink connection.
type Scanner struct {
	dial    func() (scanConn, error)
	resolve func(name string) (int, error)
}

func NewScanner() *Scanner {
	return &Scanner{
		dial: func() (scanConn, error) {
			c, err := genetlink.Dial(nil)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		resolve: linkIndex,
	}
}

// ScanInterface dumps the cached BSS list of the named interface and calls handle once
// per decoded record, in kernel order, before the connection is closed.
func (s *Scanner) ScanInterface(ctx context.Context, name string, handle func(ScanRecord)) error {
	index, err := s.resolve(name)
	if err != nil {
		return newScanError(ErrorTypeInterface, "INTERFACE_NOT_FOUND",
			"failed to resolve interface index", name, err)
	}

	conn, err := s.dial()
	if err != nil {
		return newScanError(ErrorTypeSession, "SESSION_OPEN_FAILED",
			"failed to open generic netlink session", name, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return newScanError(ErrorTypeSession, "SESSION_DEADLINE_FAILED",
				"failed to set session deadline", name, err)
		}
	}

	family, err := conn.GetFamily(nl80211FamilyName)
	if err != nil {
		return newScanError(ErrorTypeSession, "FAMILY_NOT_FOUND",
			"failed to resolve nl80211 family", name, err)
	}

	ae := netlink.NewAttributeEncoder()
	ae.Uint32(nl80211AttrIfindex, uint32(index))
	data, err := ae.Encode()
	if err != nil {
		return newScanError(ErrorTypeRequest, "REQUEST_ENCODE_FAILED",
			"failed to encode scan request", name, err)
	}

	if err := ctx.Err(); err != nil {
		return newScanError(ErrorTypeRequest, "REQUEST_CANCELLED",
			"scan request cancelled", name, err)
	}

	msgs, err := conn.Execute(
		genetlink.Message{
			Header: genetlink.Header{
				Command: nl80211CmdGetScan,
				Version: family.Version,
			},
			Data: data,
		},
		family.ID,
		netlink.Request|netlink.Dump,
	)
	if err != nil {
		return newScanError(ErrorTypeRequest, "REQUEST_FAILED",
			"scan dump request failed", name, err)
	}

	count := 0
	for rec := range DecodeScanMessages(msgs) {
		handle(rec)
		count++
	}

	logger.WithFields(logrus.Fields{
		"interface": name,
		"ifindex":   index,
		"replies":   len(msgs),
		"records":   count,
	}).Debug("Scan dump complete")
	return nil
}
