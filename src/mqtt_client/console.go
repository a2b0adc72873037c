package mqtt_client

import (
	"fmt"
	"io"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/fatih/color"
)

var (
	ackHeader    = color.New(color.FgGreen, color.Bold)
	resultHeader = color.New(color.FgCyan, color.Bold)
)

// PrintAck writes an application-level acknowledgment to w.
func PrintAck(w io.Writer, payload []byte) {
	ackHeader.Fprint(w, "ACK Received:")
	fmt.Fprintf(w, " %s\n", payload)
}

// PrintScanResult writes a received scan record payload to w.
func PrintScanResult(w io.Writer, payload []byte) {
	resultHeader.Fprint(w, "New WiFi Scan Data Received:")
	fmt.Fprintf(w, " %s\n", payload)
}

// NewAckHandler returns a handler that prints every message on the ack topic. It runs
// on paho's delivery goroutine and never blocks on anything but w.
func NewAckHandler(w io.Writer) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		logger.WithField("topic", msg.Topic()).Debug("ACK message arrived")
		PrintAck(w, msg.Payload())
	}
}
