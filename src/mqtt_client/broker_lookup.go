package mqtt_client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// MDNSAddress as mqtt_address asks for the broker to be discovered over mDNS.
	MDNSAddress     = "mdns"
	ZeroconfService = "_mqtt._tcp"
	ZeroconfDomain  = "local."
	DefaultPort     = 1883

	zeroconfLookupTimeout = 5 * time.Second
)

// ErrNoBrokerFound is returned when mDNS discovery finishes without a usable answer.
var ErrNoBrokerFound = errors.New("no MQTT broker found")

// lookupBroker is replaced in tests.
var lookupBroker = lookupBrokerViaZeroConf

// ResolveBrokerURL turns the configured mqtt_address into a broker URL paho accepts.
// "mdns" triggers zeroconf discovery, a bare host[:port] becomes tcp://host:port and
// anything carrying a scheme is used as given.
func ResolveBrokerURL(ctx context.Context, address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", fmt.Errorf("empty broker address")
	}

	if strings.EqualFold(address, MDNSAddress) {
		logger.WithField("service", ZeroconfService).Info("Looking up MQTT broker via mDNS")
		return lookupBroker(ctx, zeroconfLookupTimeout)
	}

	if strings.Contains(address, "://") {
		u, err := url.Parse(address)
		if err != nil {
			return "", fmt.Errorf("invalid broker address %q: %w", address, err)
		}
		if u.Host == "" {
			return "", fmt.Errorf("invalid broker address %q: missing host", address)
		}
		return u.String(), nil
	}

	host, port := address, strconv.Itoa(DefaultPort)
	if h, p, err := net.SplitHostPort(address); err == nil {
		if _, err := strconv.Atoi(p); err != nil {
			return "", fmt.Errorf("invalid broker port in %q: %w", address, err)
		}
		host, port = h, p
	}
	if host == "" {
		return "", fmt.Errorf("invalid broker address %q: missing host", address)
	}

	u := url.URL{Scheme: "tcp", Host: net.JoinHostPort(host, port)}
	return u.String(), nil
}

func lookupBrokerViaZeroConf(ctx context.Context, timeout time.Duration) (string, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return "", fmt.Errorf("failed to initialize zeroconf resolver: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 8)
	if err := resolver.Browse(ctx, ZeroconfService, ZeroconfDomain, entries); err != nil {
		return "", fmt.Errorf("failed to browse for %s: %w", ZeroconfService, err)
	}

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return "", ErrNoBrokerFound
			}
			if brokerURL, found := brokerFromEntry(entry); found {
				logger.WithField("broker", brokerURL).Info("Found MQTT broker via mDNS")
				return brokerURL, nil
			}
		case <-ctx.Done():
			return "", ErrNoBrokerFound
		}
	}
}

// brokerFromEntry filters out spurious candidates and returns the first IPv4 endpoint.
func brokerFromEntry(entry *zeroconf.ServiceEntry) (string, bool) {
	if entry == nil || !strings.HasPrefix(entry.Service, ZeroconfService) {
		return "", false
	}
	for _, ip := range entry.AddrIPv4 {
		u := url.URL{Scheme: "tcp", Host: net.JoinHostPort(ip.String(), strconv.Itoa(entry.Port))}
		return u.String(), true
	}
	return "", false
}
