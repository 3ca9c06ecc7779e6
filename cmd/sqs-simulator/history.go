package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/config"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/mq"
)

func newHistoryCmd() *cobra.Command {
	var limit int64

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Replay recent events from the Redis history list",
		Long: `history reads the capped event list the Redis publisher maintains, so
events published before a viewer connected can still be inspected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
			pub, err := mq.NewRedisPublisher(mq.RedisPublisherConfig{
				RedisURL:      cfg.Events.RedisURL,
				ChannelPrefix: cfg.Events.SubjectPrefix,
				HistoryKey:    cfg.Events.RedisHistoryKey,
				HistorySize:   cfg.Events.RedisHistorySize,
			}, logger)
			if err != nil {
				return err
			}
			defer pub.Close()

			msgs, err := pub.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printHistory(cmd.OutOrStdout(), msgs, logger)
		},
	}
	cmd.Flags().Int64VarP(&limit, "limit", "n", 0, "maximum events (default: the configured history size)")
	return cmd
}

// printHistory writes history entries oldest first
func printHistory(w io.Writer, msgs []*mq.Message, logger *slog.Logger) error {
	for i := len(msgs) - 1; i >= 0; i-- {
		ev, err := mq.DecodeEvent(msgs[i])
		if err != nil {
			logger.Warn("Skipping undecodable history entry", "message_id", msgs[i].ID, "error", err)
			continue
		}
		if _, err := fmt.Fprintf(w, "%s  #%-5d %-22s %s\n",
			ev.At.Format("15:04:05"), ev.Seq, ev.Type, ev.Describe()); err != nil {
			return err
		}
	}
	return nil
}
