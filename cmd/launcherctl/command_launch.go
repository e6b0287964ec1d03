package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	v1 "github.com/noriskclient/launcherd/pkg/api/v1"
	"github.com/noriskclient/launcherd/pkg/client"
)

func newLaunchCmd() *cobra.Command {
	var follow bool
	cmd := &cobra.Command{
		Use:   "launch <profile_id>",
		Short: "Launch a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profileID := args[0]
			ctx := cmd.Context()

			session, err := dial(ctx)
			if err != nil {
				return err
			}
			defer session.Close()

			// Subscribe before launching so no event of this launch is missed.
			events := make(chan v1.EventPayload, 64)
			unsubscribe := session.Store().Filter(profileID, func(p v1.EventPayload) {
				select {
				case events <- p:
				default:
				}
			})
			defer unsubscribe()

			reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			meta, err := session.LaunchProfile(reqCtx, profileID)
			cancel()
			if errors.Is(err, client.ErrAlreadyLaunching) {
				_, _ = fmt.Fprintf(os.Stderr, "Profile %s is already launching.\n", profileID)
				return nil
			}
			if err != nil {
				return err
			}
			printLaunches([]v1.ProcessMetadata{meta})
			if !follow {
				return nil
			}

			for {
				select {
				case p := <-events:
					printEvent(p)
					if p.EventType.EndsLaunch() {
						if p.IsFailure() {
							return fmt.Errorf("launch failed: %s", *p.Error)
						}
						return nil
					}
				case <-session.Done():
					return fmt.Errorf("connection lost: %w", session.Err())
				case <-ctx.Done():
					return nil
				}
			}
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "stream events until the launch ends")
	return cmd
}

func newAbortCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abort <profile_id>",
		Short: "Abort a profile launch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			session, err := dial(ctx)
			if err != nil {
				return err
			}
			defer session.Close()

			err = session.AbortProfileLaunch(ctx, args[0])
			if errors.Is(err, client.ErrNotLaunching) {
				_, _ = fmt.Fprintf(os.Stderr, "Profile %s is not launching.\n", args[0])
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("Abort requested for %s\n", args[0])
			return nil
		},
	}
}
