package simulator

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Drives a seeded random mix of commands and checks the state invariants
// after every step.
func TestInvariants_RandomOperations(t *testing.T) {
	for _, kind := range QueueKinds {
		t.Run(string(kind), func(t *testing.T) {
			engine := newTestEngine(t, kind, func(c *Config) {
				c.Random = NewSeededRandom(7)
				c.FailureProbability = 0.4
				c.MaxInFlight = 2
			})

			ops := rand.New(rand.NewSource(99))
			now := baseTime
			prev := Stats{}
			seen := map[MessageID]int{}
			deadLetters := map[MessageID]Message{}

			for step := 0; step < 400; step++ {
				cleared := false

				switch op := ops.Intn(10); {
				case op < 4:
					content := []string{"a", "b", "c", "d", "e"}[ops.Intn(5)]
					group := []string{"g1", "g2"}[ops.Intn(2)]
					_, _ = engine.Enqueue(EnqueueRequest{Content: content, MessageGroup: group})
				case op == 4:
					_, _ = engine.EnqueueBatch(BatchRequest{BaseContent: "batch", Count: 1 + ops.Intn(3), MessageGroup: "g3"})
				case op < 8:
					now = now.Add(time.Duration(1+ops.Intn(3)) * time.Second)
					engine.Tick(now)
				case op == 8:
					_, _ = engine.SimulateFailure()
				default:
					if ops.Intn(10) == 0 {
						engine.Clear()
						cleared = true
						deadLetters = map[MessageID]Message{}
					}
				}

				snap := engine.Snapshot()

				for _, list := range [][]Message{snap.Ready, snap.InFlight, snap.DeadLetter} {
					for _, m := range list {
						_, hits := snap.Locate(m.ID)
						require.Equal(t, 1, hits, "message %s in more than one container", m.ID)

						assert.GreaterOrEqual(t, m.ReceiveCount, seen[m.ID], "receive count decreased")
						seen[m.ID] = m.ReceiveCount

						if m.QueueKind == QueueFIFO {
							assert.NotEmpty(t, m.MessageGroup)
						} else {
							assert.Empty(t, m.MessageGroup)
						}
					}
				}

				for _, m := range snap.DeadLetter {
					assert.GreaterOrEqual(t, m.ReceiveCount, DefaultMaxReceiveCount)
					if earlier, ok := deadLetters[m.ID]; ok {
						assert.Equal(t, earlier, m, "dead letter mutated")
					}
					deadLetters[m.ID] = m
				}

				if kind == QueueFIFO {
					type key struct{ content, group string }
					active := map[key]bool{}
					for _, m := range append(append([]Message{}, snap.Ready...), snap.InFlight...) {
						k := key{m.Content, m.MessageGroup}
						require.False(t, active[k], "duplicate active FIFO message %v", k)
						active[k] = true
					}
				}

				if cleared {
					assert.Equal(t, Stats{}, snap.Stats)
				} else {
					assert.GreaterOrEqual(t, snap.Stats.Sent, prev.Sent)
					assert.GreaterOrEqual(t, snap.Stats.Processed, prev.Processed)
					assert.GreaterOrEqual(t, snap.Stats.Failed, prev.Failed)
				}
				prev = snap.Stats

				assert.LessOrEqual(t, len(snap.InFlight), 2)
			}
		})
	}
}
