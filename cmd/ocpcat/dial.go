package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/telsis/ocpclient/config"
	"github.com/telsis/ocpclient/internal/metrics"
	"github.com/telsis/ocpclient/internal/watchdog"
	"github.com/telsis/ocpclient/link"
	"github.com/telsis/ocpclient/wire"
)

func newDialCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "dial",
		Short: "Connect a single link and print state transitions and inbound management-task messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCLIConfig(v)
			if err != nil {
				return err
			}
			return runDial(cfg)
		},
	}
}

func linkConfigFromCLI(cfg cliConfig) config.LinkConfig {
	lc := config.Default().Links[0]
	lc.RemoteAddress = cfg.Host
	lc.RemotePort = cfg.Port
	if cfg.Timeout > 0 {
		lc.Timeout = cfg.Timeout
	}
	return lc
}

func runDial(cfg cliConfig) error {
	m := metrics.New()
	wd := watchdog.New(watchdogCheckInterval, nil)

	unitName := cfg.UnitName
	if unitName == "" {
		unitName, _ = os.Hostname()
	}

	l := link.New(0, linkConfigFromCLI(cfg), unitName, m, wd)
	l.AddListener(func(s link.State) {
		fmt.Printf("state: role=%s enabled=%t gap=%t suspect=%t active-calls=%d\n",
			s.Role, s.UnitEnabled, s.Gap.Active, s.Suspect, s.ActiveCalls)
	})
	l.RegisterManagementHandler(link.HandlerFunc(func(msg wire.Message, origin *link.Link) {
		fmt.Printf("inbound: code=%s dest=%#x orig=%#x body=%#v\n", msg.Code(), msg.Dest, msg.Orig, msg.Body)
	}))

	wd.Start()
	defer wd.Stop()
	l.Start()
	defer l.Shutdown()

	serveMetrics(cfg.MetricsAddr, m)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	fmt.Printf("dialing %s, press ctrl-C to stop\n", cfg.addr())
	<-sig
	return nil
}

func (c cliConfig) timeoutOrDefault() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return config.Default().Links[0].Timeout
}
