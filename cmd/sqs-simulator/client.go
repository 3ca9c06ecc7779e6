package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/api/dto"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/client"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/config"
)

// ServerURLEnv overrides the default --server value
const ServerURLEnv = "SIMULATOR_URL"

func defaultServerURL() string {
	if v := os.Getenv(ServerURLEnv); v != "" {
		return v
	}
	return config.DefaultServerURL
}

func newClient() *client.Client {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return client.New(client.Config{
		BaseURL: serverURL,
		Timeout: config.DefaultClientTimeout,
	}, logger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// call runs fn against the configured server and prints its result
func call[T any](fn func(ctx context.Context, c *client.Client) (T, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		out, err := fn(cmd.Context(), newClient())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	}
}

func clientCommands() []*cobra.Command {
	return []*cobra.Command{
		newSendCmd(),
		newBatchCmd(),
		{
			Use:   "fail",
			Short: "Force the oldest in-flight message to fail",
			Args:  cobra.NoArgs,
			RunE: call(func(ctx context.Context, c *client.Client) (dto.FailureResponse, error) {
				return c.Fail(ctx)
			}),
		},
		{
			Use:   "tick",
			Short: "Fire the dispatcher once",
			Args:  cobra.NoArgs,
			RunE: call(func(ctx context.Context, c *client.Client) (dto.TickResponse, error) {
				return c.Tick(ctx)
			}),
		},
		{
			Use:   "clear",
			Short: "Clear the active queue",
			Args:  cobra.NoArgs,
			RunE: call(func(ctx context.Context, c *client.Client) (dto.StatusResponse, error) {
				return c.Clear(ctx)
			}),
		},
		{
			Use:   "switch <standard|fifo|dlq>",
			Short: "Switch the active queue kind (discards all messages)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				snap, err := newClient().Switch(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Switched to %s\n", snap.Queue.Title)
				return nil
			},
		},
		{
			Use:   "snapshot",
			Short: "Print the full simulator state",
			Args:  cobra.NoArgs,
			RunE: call(func(ctx context.Context, c *client.Client) (dto.SnapshotResponse, error) {
				return c.Snapshot(ctx)
			}),
		},
		{
			Use:   "stats",
			Short: "Print the counters of the active queue",
			Args:  cobra.NoArgs,
			RunE: call(func(ctx context.Context, c *client.Client) (dto.StatsResponse, error) {
				return c.Stats(ctx)
			}),
		},
		{
			Use:   "queues",
			Short: "List the queue kinds and their properties",
			Args:  cobra.NoArgs,
			RunE: call(func(ctx context.Context, c *client.Client) (dto.QueueListResponse, error) {
				return c.Queues(ctx)
			}),
		},
		newAuditCmd(),
		newHistoryCmd(),
		newWatchCmd(),
	}
}

func newSendCmd() *cobra.Command {
	var group, queueType string

	cmd := &cobra.Command{
		Use:   "send <content>",
		Short: "Send one message to the active queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(func(ctx context.Context, c *client.Client) (dto.SendMessageResponse, error) {
				return c.Send(ctx, dto.SendMessageRequest{
					Content:      args[0],
					QueueType:    queueType,
					MessageGroup: group,
				})
			})(cmd, args)
		},
	}
	cmd.Flags().StringVarP(&group, "group", "g", "", "message group (required for FIFO)")
	cmd.Flags().StringVar(&queueType, "queue-type", "", "expected active queue type")
	return cmd
}

func newBatchCmd() *cobra.Command {
	var content, group string
	var count int

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Send a batch of numbered messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := dto.BatchRequest{BaseContent: content, MessageGroup: group}
			if cmd.Flags().Changed("count") {
				req.Count = &count
			}
			return call(func(ctx context.Context, c *client.Client) (dto.BatchResponse, error) {
				return c.Batch(ctx, req)
			})(cmd, args)
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "base content (default \""+dto.DefaultBatchContent+"\")")
	cmd.Flags().StringVarP(&group, "group", "g", "", "message group (default \""+dto.DefaultBatchGroup+"\")")
	cmd.Flags().IntVarP(&count, "count", "n", dto.DefaultBatchCount, "number of messages")
	return cmd
}

func newAuditCmd() *cobra.Command {
	var q client.AuditQuery

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List archived processed and dead-lettered messages",
		Args:  cobra.NoArgs,
		RunE: call(func(ctx context.Context, c *client.Client) (dto.AuditListResponse, error) {
			return c.Audit(ctx, q)
		}),
	}
	cmd.Flags().StringVar(&q.Outcome, "outcome", "", "processed or dead_lettered")
	cmd.Flags().StringVar(&q.QueueType, "queue-type", "", "filter by queue type")
	cmd.Flags().IntVarP(&q.Limit, "limit", "n", 0, "maximum records")
	return cmd
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the live activity log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			return newClient().Watch(ctx, func(ev dto.EventResponse) error {
				fmt.Fprintf(out, "%s  %-22s %s\n", ev.At.Format("15:04:05"), ev.Type, ev.Log)
				return nil
			})
		},
	}
}
