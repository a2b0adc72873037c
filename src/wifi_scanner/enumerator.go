package wifi_scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdlayher/wifi"
	"github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
)

// InterfaceEnumerator lists the network interfaces that can be scanned.
type InterfaceEnumerator interface {
	ListWirelessInterfaces() ([]string, error)
}

// NewInterfaceEnumerator returns the enumerator for the configured interface source.
func NewInterfaceEnumerator(source string) (InterfaceEnumerator, error) {
	switch source {
	case "", "netlink":
		return NewLinkEnumerator(), nil
	case "nl80211":
		return NewNL80211Enumerator(), nil
	default:
		return nil, fmt.Errorf("unknown interface source %q", source)
	}
}

// LinkEnumerator lists rtnetlink links and keeps those sysfs marks as wireless.
type LinkEnumerator struct {
	SysfsRoot string
	listLinks func() ([]netlink.Link, error)
}

func NewLinkEnumerator() *LinkEnumerator {
	return &LinkEnumerator{
		SysfsRoot: "/sys",
		listLinks: netlink.LinkList,
	}
}

// ListWirelessInterfaces returns wireless interface names in link order. An empty list
// with a nil error means the host has no wireless interfaces.
func (e *LinkEnumerator) ListWirelessInterfaces() ([]string, error) {
	links, err := e.listLinks()
	if err != nil {
		return nil, fmt.Errorf("failed to list network links: %w", err)
	}

	var names []string
	for _, link := range links {
		attrs := link.Attrs()
		if attrs == nil || attrs.Name == "" || strings.HasPrefix(attrs.Name, ".") {
			continue
		}
		if e.isWireless(attrs.Name) {
			names = append(names, attrs.Name)
		}
	}

	logger.WithFields(logrus.Fields{
		"links":    len(links),
		"wireless": len(names),
	}).Debug("Enumerated network links")
	return names, nil
}

func (e *LinkEnumerator) isWireless(name string) bool {
	base := filepath.Join(e.SysfsRoot, "class", "net", name)
	for _, marker := range []string{"wireless", "phy80211"} {
		if _, err := os.Stat(filepath.Join(base, marker)); err == nil {
			return true
		}
	}
	return false
}

// wifiInterfaceLister is the part of *wifi.Client the enumerator uses.
type wifiInterfaceLister interface {
	Interfaces() ([]*wifi.Interface, error)
	Close() error
}

// NL80211Enumerator asks nl80211 directly for the interfaces it manages.
type NL80211Enumerator struct {
	open func() (wifiInterfaceLister, error)
}

func NewNL80211Enumerator() *NL80211Enumerator {
	return &NL80211Enumerator{
		open: func() (wifiInterfaceLister, error) {
			c, err := wifi.New()
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}
}

// ListWirelessInterfaces returns the named nl80211 interfaces. Unnamed entries such as
// P2P devices are skipped.
func (e *NL80211Enumerator) ListWirelessInterfaces() ([]string, error) {
	client, err := e.open()
	if err != nil {
		return nil, fmt.Errorf("could not init a wifi interface client: %w", err)
	}
	defer client.Close()

	ifis, err := client.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("could not list wifi interfaces: %w", err)
	}

	var names []string
	for _, ifi := range ifis {
		if ifi == nil || ifi.Name == "" || strings.HasPrefix(ifi.Name, ".") {
			continue
		}
		names = append(names, ifi.Name)
	}
	return names, nil
}

// linkIndex resolves an interface name to its kernel index.
func linkIndex(name string) (int, error) {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return 0, err
	}
	return link.Attrs().Index, nil
}
