package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/OpenTollGate/tollgate-module-wifiscan-go/src/config_manager"
	"github.com/OpenTollGate/tollgate-module-wifiscan-go/src/utils"
	"github.com/OpenTollGate/tollgate-module-wifiscan-go/src/wifi_scanner"
	"github.com/fatih/color"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"
)

var interfaceSource string

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List wireless interfaces",
	Long:  "List the wireless interfaces a scan run would visit, without connecting to MQTT",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		enumerator, err := wifi_scanner.NewInterfaceEnumerator(resolveInterfaceSource())
		if err != nil {
			return err
		}
		names, err := enumerator.ListWirelessInterfaces()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			return wifi_scanner.ErrNoWirelessInterfaces
		}
		printInterfaces(cmd.OutOrStdout(), names)
		return nil
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan [interface...]",
	Short: "Print cached scan results without publishing",
	Long: `Read the kernel's cached scan results and print them as a table. With no arguments
every wireless interface is scanned.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		names := args
		if len(names) == 0 {
			enumerator, err := wifi_scanner.NewInterfaceEnumerator(resolveInterfaceSource())
			if err != nil {
				return err
			}
			if names, err = enumerator.ListWirelessInterfaces(); err != nil {
				return err
			}
			if len(names) == 0 {
				return wifi_scanner.ErrNoWirelessInterfaces
			}
		}

		scanner := wifi_scanner.NewScanner()
		for _, name := range names {
			var records []wifi_scanner.ScanRecord
			err := scanner.ScanInterface(cmd.Context(), name, func(rec wifi_scanner.ScanRecord) {
				records = append(records, rec)
			})
			if err != nil {
				logger.WithError(err).WithField("interface", name).Warn("Scanning failed for interface")
				continue
			}
			printRecords(cmd.OutOrStdout(), name, records)
		}
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{interfacesCmd, scanCmd} {
		cmd.Flags().StringVar(&interfaceSource, "source", "",
			fmt.Sprintf("interface source (%s or %s, default from config)",
				config_manager.InterfaceSourceNetlink, config_manager.InterfaceSourceNL80211))
	}
}

// resolveInterfaceSource prefers --source, then the config file, then netlink.
func resolveInterfaceSource() string {
	if interfaceSource != "" {
		return interfaceSource
	}
	cm, err := config_manager.NewConfigManager(utils.GetConfigPath(configPath))
	if err == nil && cm.Load() == nil {
		if source, err := cm.GetString(config_manager.KeyInterfaceSource); err == nil {
			return source
		}
	}
	return config_manager.InterfaceSourceNetlink
}

func printInterfaces(w io.Writer, names []string) {
	tbl := table.New("#", "INTERFACE")
	tbl.WithHeaderFormatter(color.New(color.BgHiBlue, color.FgHiWhite).SprintfFunc())
	tbl.WithWriter(w)
	for i, name := range names {
		tbl.AddRow(i+1, name)
	}
	tbl.Print()
}

func printRecords(w io.Writer, iface string, records []wifi_scanner.ScanRecord) {
	color.New(color.Bold).Fprintf(w, "%s: %d access point(s)\n", iface, len(records))

	tbl := table.New("BSSID", "PWR", "FREQ", "CH", "ESSID")
	tbl.WithHeaderFormatter(color.New(color.BgHiCyan, color.FgHiWhite).SprintfFunc())
	tbl.WithWriter(w)
	for _, rec := range records {
		tbl.AddRow(recordRow(rec)...)
	}
	tbl.Print()
}

// recordRow renders absent fields as "-" so columns stay aligned.
func recordRow(rec wifi_scanner.ScanRecord) []interface{} {
	row := []interface{}{"-", "-", "-", "-", "-"}
	if v, ok := rec.BSSID.Get(); ok {
		row[0] = v
	}
	if v, ok := rec.SignalDBm.Get(); ok {
		row[1] = strconv.FormatFloat(v, 'f', 2, 64)
	}
	if v, ok := rec.FrequencyGHz.Get(); ok {
		row[2] = strconv.FormatFloat(v, 'f', 3, 64)
	}
	if v, ok := rec.Channel.Get(); ok {
		row[3] = strconv.Itoa(v)
		if v == wifi_scanner.InvalidChannel {
			row[3] = "?"
		}
	}
	if v, ok := rec.SSID.Get(); ok {
		row[4] = v
		if v == "" {
			row[4] = "<hidden>"
		}
	}
	return row
}
