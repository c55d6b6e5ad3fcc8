// Command ocpcat is an operator tool for interop testing and inspection
// of an OCP client: dial a single link, watch a system's aggregate
// status, or fire off a one-off test message at a lab SCP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "ocpcat",
		Short: "Dial, inspect, and probe an OCP client link or system",
	}

	pf := root.PersistentFlags()
	pf.String("host", "localhost", "SCP host name or address")
	pf.Uint16("port", 10012, "SCP TCP port")
	pf.Duration("timeout", 0, "Connect/read/write timeout (0 = use the link default)")
	pf.String("unit-name", "", "Local unit name to report in StatusResponse (default: hostname)")
	pf.String("metrics-addr", "", "Address to serve /metrics on, e.g. :9090 (empty disables)")
	pf.String("config", "", "Optional YAML/TOML config file")

	v.BindPFlags(pf)
	v.SetEnvPrefix("OCPCAT")
	v.AutomaticEnv()

	cobra.OnInitialize(func() {
		if path := v.GetString("config"); path != "" {
			v.SetConfigFile(path)
			_ = v.ReadInConfig() // a missing optional file is not fatal
		}
	})

	root.AddCommand(newDialCmd(v))
	root.AddCommand(newStatusCmd(v))
	root.AddCommand(newSendCmd(v))
	return root
}
