package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/noriskclient/launcherd/pkg/client"
)

const defaultAddr = "http://127.0.0.1:7878"

var serverAddr string

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "launcherctl",
		Short:         "Control a running launcherd",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addr := os.Getenv("LAUNCHERCTL_ADDR")
	if addr == "" {
		addr = defaultAddr
	}
	root.PersistentFlags().StringVar(&serverAddr, "addr", addr, "launcherd address")

	root.AddCommand(newLaunchCmd())
	root.AddCommand(newAbortCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newWatchCmd())

	return root
}

func dial(ctx context.Context) (*client.Session, error) {
	return client.Dial(ctx, serverAddr)
}
