package main

import (
	"fmt"
	"os"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/rs/xid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/telsis/ocpclient/internal/metrics"
	"github.com/telsis/ocpclient/internal/watchdog"
	"github.com/telsis/ocpclient/link"
	"github.com/telsis/ocpclient/wire"
)

var sendMessageTypes = []string{"Heartbeat", "StatusRequest", "BecomeMaster"}

func newSendCmd(v *viper.Viper) *cobra.Command {
	var msgType string
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Dial a link and send one test message, for interop testing against a lab SCP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCLIConfig(v)
			if err != nil {
				return err
			}
			if msgType == "" {
				msgType, err = promptMessageType()
				if err != nil {
					return err
				}
			}
			return runSend(cfg, msgType)
		},
	}
	cmd.Flags().StringVar(&msgType, "message", "", fmt.Sprintf("Message to send, one of %v (default: interactive prompt)", sendMessageTypes))
	return cmd
}

func promptMessageType() (string, error) {
	p := promptui.Select{Label: "Select message to send", Items: sendMessageTypes}
	_, result, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("ocpcat: prompt cancelled: %w", err)
	}
	return result, nil
}

func bodyFor(msgType string) (wire.Body, error) {
	switch msgType {
	case "Heartbeat":
		return wire.HeartbeatMsg{}, nil
	case "StatusRequest":
		return wire.StatusRequestMsg{UnitID: 1, ClusterID: wire.MasterSlaveClusterID, Flags: wire.FlagUnitEnabled}, nil
	case "BecomeMaster":
		return wire.BecomeMasterMsg{}, nil
	default:
		return nil, fmt.Errorf("ocpcat: unknown message type %q", msgType)
	}
}

func runSend(cfg cliConfig, msgType string) error {
	body, err := bodyFor(msgType)
	if err != nil {
		return err
	}

	// correlationID is an operator-facing tag for this attempt, logged
	// alongside the OCP wire exchange; it never appears on the wire
	// itself, which has its own task-id namespace.
	correlationID := xid.New()

	m := metrics.New()
	wd := watchdog.New(watchdogCheckInterval, nil)

	unitName := cfg.UnitName
	if unitName == "" {
		unitName, _ = os.Hostname()
	}

	l := link.New(0, linkConfigFromCLI(cfg), unitName, m, wd)
	connected := make(chan struct{}, 1)
	l.AddListener(func(s link.State) {
		if s.Role != link.RoleDisconnected && s.Role != link.RoleConnecting {
			select {
			case connected <- struct{}{}:
			default:
			}
		}
	})

	wd.Start()
	defer wd.Stop()
	l.Start()
	defer l.Shutdown()

	fmt.Printf("[%s] dialing %s to send %s\n", correlationID, cfg.addr(), msgType)

	select {
	case <-connected:
	case <-time.After(cfg.timeoutOrDefault()):
		return fmt.Errorf("ocpcat: [%s] timed out waiting to connect to %s", correlationID, cfg.addr())
	}

	msg := wire.Message{Dest: wire.TaskIDUnused, Orig: wire.TaskIDUnused, Body: body}
	if err := l.Enqueue(msg); err != nil {
		return fmt.Errorf("ocpcat: [%s] enqueue failed: %w", correlationID, err)
	}

	fmt.Printf("[%s] sent %s\n", correlationID, msgType)
	return nil
}
