package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	v1 "github.com/noriskclient/launcherd/pkg/api/v1"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [profile_id]",
		Short: "Show in-flight launches",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			session, err := dial(ctx)
			if err != nil {
				return err
			}
			defer session.Close()

			if len(args) == 1 {
				launching, meta, err := session.IsProfileLaunching(ctx, args[0])
				if err != nil {
					return err
				}
				if !launching {
					fmt.Printf("Profile %s is not launching.\n", args[0])
					return nil
				}
				printLaunches([]v1.ProcessMetadata{*meta})
				return nil
			}

			launches, err := session.ListLaunches(ctx)
			if err != nil {
				return err
			}
			printLaunches(launches)
			return nil
		},
	}
}

func newWatchCmd() *cobra.Command {
	var profileID string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream state events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			session, err := dial(ctx)
			if err != nil {
				return err
			}
			defer session.Close()

			events := make(chan v1.EventPayload, 256)
			forward := func(p v1.EventPayload) {
				select {
				case events <- p:
				default:
				}
			}
			var unsubscribe func()
			if profileID != "" {
				unsubscribe = session.Store().Filter(profileID, forward)
			} else {
				unsubscribe = session.Store().Subscribe(forward)
			}
			defer unsubscribe()

			for {
				select {
				case p := <-events:
					printEvent(p)
				case <-session.Done():
					return fmt.Errorf("connection lost: %w", session.Err())
				case <-ctx.Done():
					return nil
				}
			}
		},
	}
	cmd.Flags().StringVarP(&profileID, "profile", "p", "", "only show events for this profile")
	return cmd
}
