package wifi_scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockConn struct {
	mock.Mock
}

func (m *MockConn) GetFamily(name string) (genetlink.Family, error) {
	args := m.Called(name)
	return args.Get(0).(genetlink.Family), args.Error(1)
}

func (m *MockConn) Execute(msg genetlink.Message, family uint16, flags netlink.HeaderFlags) ([]genetlink.Message, error) {
	args := m.Called(msg, family, flags)
	msgs, _ := args.Get(0).([]genetlink.Message)
	return msgs, args.Error(1)
}

func (m *MockConn) SetDeadline(t time.Time) error {
	args := m.Called(t)
	return args.Error(0)
}

func (m *MockConn) Close() error {
	args := m.Called()
	return args.Error(0)
}

var testFamily = genetlink.Family{ID: 28, Version: 1, Name: "nl80211"}

func newTestScanner(conn *MockConn, index int, resolveErr error) *Scanner {
	return &Scanner{
		dial: func() (scanConn, error) { return conn, nil },
		resolve: func(string) (int, error) {
			return index, resolveErr
		},
	}
}

// isScanRequest matches a GET_SCAN request for ifindex.
func isScanRequest(ifindex uint32) func(genetlink.Message) bool {
	return func(m genetlink.Message) bool {
		if m.Header.Command != nl80211CmdGetScan || m.Header.Version != testFamily.Version {
			return false
		}
		attrs, err := netlink.UnmarshalAttributes(m.Data)
		if err != nil || len(attrs) != 1 {
			return false
		}
		return attrs[0].Type == nl80211AttrIfindex && nlenc.Uint32(attrs[0].Data) == ifindex
	}
}

func TestScanInterfaceDecodesInOrder(t *testing.T) {
	signal := int32(-7000)
	replies := []genetlink.Message{
		fullBSSMessage(t),
		bssMessage(t, func(nae *netlink.AttributeEncoder) {
			nae.Uint32(nl80211BSSSignalMBM, uint32(signal))
		}),
	}

	conn := new(MockConn)
	conn.On("GetFamily", "nl80211").Return(testFamily, nil)
	conn.On("Execute", mock.MatchedBy(isScanRequest(4)), testFamily.ID, netlink.Request|netlink.Dump).
		Return(replies, nil)
	conn.On("Close").Return(nil)

	var got []ScanRecord
	err := newTestScanner(conn, 4, nil).ScanInterface(context.Background(), "wlan0", func(rec ScanRecord) {
		got = append(got, rec)
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.True(t, got[0].BSSID.IsSet())
	assert.True(t, got[0].SSID.IsSet())
	assert.False(t, got[1].BSSID.IsSet())
	value, _ := got[1].SignalDBm.Get()
	assert.Equal(t, -70.0, value)

	conn.AssertExpectations(t)
	conn.AssertNotCalled(t, "SetDeadline", mock.Anything)
}

func TestScanInterfaceAppliesDeadline(t *testing.T) {
	deadline := time.Now().Add(time.Minute)
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	conn := new(MockConn)
	conn.On("SetDeadline", deadline).Return(nil)
	conn.On("GetFamily", "nl80211").Return(testFamily, nil)
	conn.On("Execute", mock.Anything, testFamily.ID, mock.Anything).Return([]genetlink.Message{}, nil)
	conn.On("Close").Return(nil)

	err := newTestScanner(conn, 2, nil).ScanInterface(ctx, "wlan0", func(ScanRecord) {
		t.Fatal("no records expected")
	})
	require.NoError(t, err)
	conn.AssertExpectations(t)
}

func TestScanInterfaceResolveFailure(t *testing.T) {
	conn := new(MockConn)

	err := newTestScanner(conn, 0, errors.New("link not found")).
		ScanInterface(context.Background(), "wlan9", func(ScanRecord) {})

	var scanErr *ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, ErrorTypeInterface, scanErr.Type)
	assert.Equal(t, "wlan9", scanErr.Context["interface"])
	conn.AssertNotCalled(t, "Close")
}

func TestScanInterfaceDialFailure(t *testing.T) {
	s := &Scanner{
		dial:    func() (scanConn, error) { return nil, errors.New("socket: operation not permitted") },
		resolve: func(string) (int, error) { return 3, nil },
	}

	err := s.ScanInterface(context.Background(), "wlan0", func(ScanRecord) {})

	var scanErr *ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, ErrorTypeSession, scanErr.Type)
}

func TestScanInterfaceFamilyFailureClosesConn(t *testing.T) {
	conn := new(MockConn)
	conn.On("GetFamily", "nl80211").Return(genetlink.Family{}, errors.New("no such family"))
	conn.On("Close").Return(nil)

	err := newTestScanner(conn, 3, nil).ScanInterface(context.Background(), "wlan0", func(ScanRecord) {})

	var scanErr *ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, ErrorTypeSession, scanErr.Type)
	conn.AssertCalled(t, "Close")
}

func TestScanInterfaceRequestFailureClosesConn(t *testing.T) {
	cause := errors.New("device busy")

	conn := new(MockConn)
	conn.On("GetFamily", "nl80211").Return(testFamily, nil)
	conn.On("Execute", mock.Anything, testFamily.ID, mock.Anything).Return(nil, cause)
	conn.On("Close").Return(nil)

	err := newTestScanner(conn, 3, nil).ScanInterface(context.Background(), "wlan0", func(ScanRecord) {})

	var scanErr *ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, ErrorTypeRequest, scanErr.Type)
	assert.ErrorIs(t, err, cause)
	conn.AssertCalled(t, "Close")
}

func TestScanErrorMessage(t *testing.T) {
	err := newScanError(ErrorTypeRequest, "REQUEST_FAILED", "scan dump request failed", "wlan0", errors.New("EBUSY"))
	assert.Equal(t, "scan dump request failed: EBUSY", err.Error())
	assert.Equal(t, "request", err.Type.String())

	plain := &ScanError{Type: ErrorTypeSession, Message: "no session"}
	assert.Equal(t, "no session", plain.Error())
	assert.Nil(t, plain.Unwrap())
}
