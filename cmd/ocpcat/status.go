package main

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/telsis/ocpclient/config"
	"github.com/telsis/ocpclient/internal/metrics"
	"github.com/telsis/ocpclient/internal/watchdog"
	"github.com/telsis/ocpclient/link"
	"github.com/telsis/ocpclient/system"
)

func newStatusCmd(v *viper.Viper) *cobra.Command {
	var settle time.Duration
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Dial a system and print a one-shot table of its link and aggregate state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCLIConfig(v)
			if err != nil {
				return err
			}
			return runStatus(cfg, settle)
		},
	}
	cmd.Flags().DurationVar(&settle, "settle", 3*time.Second, "How long to wait for links to connect before printing")
	return cmd
}

func runStatus(cfg cliConfig, settle time.Duration) error {
	m := metrics.New()
	wd := watchdog.New(watchdogCheckInterval, nil)
	serveMetrics(cfg.MetricsAddr, m)

	sysCfg := config.Default()
	sysCfg.NumLinks = 1
	sysCfg.Links[0] = linkConfigFromCLI(cfg)
	if cfg.UnitName != "" {
		sysCfg.UnitName = cfg.UnitName
	}

	sys := system.New(m, m, wd)
	wd.Start()
	defer wd.Stop()
	if err := sys.ReloadProperties(sysCfg); err != nil {
		return fmt.Errorf("ocpcat: configure system: %w", err)
	}
	sys.Start()
	defer sys.Shutdown()

	time.Sleep(settle)

	recordMetrics(m, sys)
	printStatusTable(sys)
	return nil
}

// recordMetrics pushes a snapshot of the system's state through metrics'
// richer per-field setters, which the core link/system packages never
// call directly since they only depend on the narrow collab.Stats
// interface.
func recordMetrics(m *metrics.Metrics, sys *system.System) {
	roleNames := make([]string, len(link.Roles))
	for i, r := range link.Roles {
		roleNames[i] = r.String()
	}
	for i, l := range sys.Links() {
		if l == nil {
			continue
		}
		s := l.Snapshot()
		m.SetRole(i, roleNames, s.Role.String())
		m.SetActiveCalls(i, s.ActiveCalls)
		m.SetSuspect(i, s.Suspect)
	}

	stateNames := make([]string, len(system.States))
	for i, st := range system.States {
		stateNames[i] = st.String()
	}
	m.SetSystemState(stateNames, sys.Snapshot().String())
}

func printStatusTable(sys *system.System) {
	fmt.Printf("aggregate state: %s\n", sys.Snapshot())

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"link", "role", "enabled", "gap", "suspect", "active calls", "connect attempts"})
	for i, l := range sys.Links() {
		if l == nil {
			continue
		}
		s := l.Snapshot()
		table.Append([]string{
			fmt.Sprintf("%d", i),
			s.Role.String(),
			fmt.Sprintf("%t", s.UnitEnabled),
			fmt.Sprintf("%t", s.Gap.Active),
			fmt.Sprintf("%t", s.Suspect),
			fmt.Sprintf("%d", s.ActiveCalls),
			fmt.Sprintf("%d", s.ConnectAttempts),
		})
	}
	table.Render()
}
