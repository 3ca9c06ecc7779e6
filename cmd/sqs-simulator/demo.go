package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/config"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/simulator"
	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/pkg/utils"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Replay a seeded simulation locally and print the activity log",
	Long: `demo runs the engine in-process on a simulated clock: it sends a batch,
fires the dispatcher once per tick interval and prints every event.
The same seed always produces the same log.`,
	RunE: runDemo,
}

var demoOpts struct {
	queueType string
	messages  int
	ticks     int
	seed      int64
	group     string
	failure   float64
}

func init() {
	f := demoCmd.Flags()
	f.StringVarP(&demoOpts.queueType, "queue", "q", "", "queue type: standard, fifo or dlq (default from config)")
	f.IntVarP(&demoOpts.messages, "messages", "m", 5, "number of messages to send")
	f.IntVarP(&demoOpts.ticks, "ticks", "t", 20, "dispatcher firings to simulate")
	f.Int64Var(&demoOpts.seed, "seed", 1, "random seed for failure draws")
	f.StringVar(&demoOpts.group, "group", "demo-group", "message group for FIFO queues")
	f.Float64Var(&demoOpts.failure, "failure-probability", -1, "failure probability override")
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	engineCfg := cfg.EngineConfig()
	if demoOpts.queueType != "" {
		kind, err := simulator.ParseQueueKind(demoOpts.queueType)
		if err != nil {
			return err
		}
		engineCfg.InitialQueue = kind
	}
	if demoOpts.failure >= 0 {
		engineCfg.FailureProbability = demoOpts.failure
	}
	engineCfg.Random = simulator.NewSeededRandom(demoOpts.seed)

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	engineCfg.Clock = func() time.Time { return now }

	// Engine logs would interleave with the activity log.
	engine, err := simulator.NewEngine(engineCfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		return err
	}

	sub := engine.Subscribe(demoOpts.messages + 4*demoOpts.ticks + 16)
	defer engine.Unsubscribe(sub.ID)

	out := cmd.OutOrStdout()
	desc := simulator.Describe(engine.QueueKind())
	fmt.Fprintf(out, "%s (max receive count %d, failure probability %.2f, seed %d)\n",
		desc.Title, engineCfg.MaxReceiveCount, engineCfg.FailureProbability, demoOpts.seed)

	if demoOpts.messages > 0 {
		if _, err := engine.EnqueueBatch(simulator.BatchRequest{
			BaseContent:  "Demo Message",
			Count:        demoOpts.messages,
			MessageGroup: demoOpts.group,
		}); err != nil {
			return err
		}
	}
	printEvents(out, sub, start)

	tick := engine.Config().TickInterval
	for i := 0; i < demoOpts.ticks; i++ {
		now = now.Add(tick)
		engine.Tick(now)
		printEvents(out, sub, start)
	}

	stats := engine.Stats()
	snap := engine.Snapshot()
	fmt.Fprintf(out, "\nsent=%d processed=%d failed=%d ready=%d in_flight=%d dead_letter=%d\n",
		stats.Sent, stats.Processed, stats.Failed,
		len(snap.Ready), len(snap.InFlight), len(snap.DeadLetter))

	if sub.Dropped() > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d events were dropped\n", sub.Dropped())
	}
	return nil
}

func printEvents(w io.Writer, sub *simulator.Subscription, start time.Time) {
	for {
		select {
		case ev := <-sub.C:
			fmt.Fprintf(w, "[%s] %s\n", utils.FormatElapsed(ev.At.Sub(start)), ev.Describe())
		default:
			return
		}
	}
}
