package ingest

// Per-customer processing lanes. Interactions are hashed by customer
// identifier onto a fixed set of single-worker lanes, so any one customer's
// interactions execute strictly in arrival order while distinct customers
// proceed in parallel. Conversation counters are only ever touched from a
// lane worker, which is what lets the engine mutate them without locks.

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/valyala/bytebufferpool"

	"triaged/pkg/engine"
	"triaged/pkg/logger"
	"triaged/pkg/models"
	"triaged/pkg/telemetry"
)

const fallbackCapacity = 1024

var (
	ErrLaneFull = errors.New("lane queue full")
	ErrClosed   = errors.New("lanes closed")
)

// Result is the outcome of one processed interaction.
type Result struct {
	Out models.OutputRecord
	Err error
}

type item struct {
	rec   models.InboundRecord
	reply chan Result
	buf   *bytebufferpool.ByteBuffer
}

// Lanes owns the worker goroutines and their bounded queues.
type Lanes struct {
	eng    *engine.Engine
	queues []chan *item
	wg     sync.WaitGroup
	closed int32
	// enqWg tracks in-flight enqueues so Close never closes a channel a
	// submitter is about to send on.
	enqWg sync.WaitGroup

	enqueued uint64
	dropped  uint64
}

// NewLanes builds workers lanes of the given per-lane capacity.
func NewLanes(eng *engine.Engine, workers, capacity int) *Lanes {
	if workers < 1 {
		workers = 1
	}
	if capacity <= 0 {
		capacity = fallbackCapacity
	}
	l := &Lanes{eng: eng, queues: make([]chan *item, workers)}
	for i := range l.queues {
		l.queues[i] = make(chan *item, capacity)
	}
	return l
}

// Start launches one worker per lane. Workers exit when ctx is cancelled
// and their queue is drained.
func (l *Lanes) Start(ctx context.Context) {
	for i := range l.queues {
		l.wg.Add(1)
		go l.run(ctx, i)
	}
	logger.Info("lanes_started", "workers", len(l.queues))
}

func (l *Lanes) run(ctx context.Context, lane int) {
	defer l.wg.Done()
	label := strconv.Itoa(lane)
	q := l.queues[lane]
	for {
		select {
		case it, ok := <-q:
			if !ok {
				return
			}
			l.handle(ctx, it)
			telemetry.SetLaneDepth(label, len(q))
		case <-ctx.Done():
			// drain what is already queued so accepted work is not lost
			for {
				select {
				case it, ok := <-q:
					if !ok {
						return
					}
					l.handle(context.Background(), it)
				default:
					return
				}
			}
		}
	}
}

func (l *Lanes) handle(ctx context.Context, it *item) {
	if it.buf != nil {
		it.rec.Text = string(it.buf.B)
	}
	out, err := l.eng.Process(ctx, it.rec)
	if it.reply != nil {
		it.reply <- Result{Out: out, Err: err}
	} else if err != nil {
		logger.Error("interaction_failed", "interaction", it.rec.InteractionID, "error", err)
	}
	if it.buf != nil {
		bytebufferpool.Put(it.buf)
	}
}

// laneFor hashes the primary identifier so every interaction from the same
// identity lands on the same lane.
func (l *Lanes) laneFor(rec models.InboundRecord) int {
	h := fnv.New32a()
	h.Write([]byte(rec.Identifier.Type))
	h.Write([]byte{':'})
	h.Write([]byte(rec.Identifier.Value))
	return int(h.Sum32()) % len(l.queues)
}

func (l *Lanes) enqueue(rec models.InboundRecord, reply chan Result) error {
	// Registering before the closed check means Close either observes this
	// enqueue in its Wait or the check below observes the closed flag.
	l.enqWg.Add(1)
	defer l.enqWg.Done()
	if atomic.LoadInt32(&l.closed) == 1 {
		return ErrClosed
	}
	// Copy the text into a pooled buffer: ingestion transports (fasthttp in
	// particular) reuse their request buffers after the handler returns. The
	// worker converts it back when the interaction is dequeued.
	bb := bytebufferpool.Get()
	bb.B = append(bb.B[:0], rec.Text...)
	rec.Text = ""

	it := &item{rec: rec, reply: reply, buf: bb}
	lane := l.laneFor(rec)
	select {
	case l.queues[lane] <- it:
		atomic.AddUint64(&l.enqueued, 1)
		telemetry.SetLaneDepth(strconv.Itoa(lane), len(l.queues[lane]))
		return nil
	default:
		bytebufferpool.Put(bb)
		atomic.AddUint64(&l.dropped, 1)
		return ErrLaneFull
	}
}

// Submit enqueues without waiting for the outcome. Used by the stream
// consumer, which handles failures through the DLQ.
func (l *Lanes) Submit(rec models.InboundRecord) error {
	return l.enqueue(rec, nil)
}

// Process enqueues and waits for the decision. Used by the HTTP API.
func (l *Lanes) Process(ctx context.Context, rec models.InboundRecord) (models.OutputRecord, error) {
	reply := make(chan Result, 1)
	if err := l.enqueue(rec, reply); err != nil {
		return models.OutputRecord{}, err
	}
	select {
	case res := <-reply:
		return res.Out, res.Err
	case <-ctx.Done():
		return models.OutputRecord{}, ctx.Err()
	}
}

// Close stops accepting work, waits out in-flight enqueues and then waits
// for the lanes to drain.
func (l *Lanes) Close() {
	if !atomic.CompareAndSwapInt32(&l.closed, 0, 1) {
		return
	}
	l.enqWg.Wait()
	for _, q := range l.queues {
		close(q)
	}
	l.wg.Wait()
	logger.Info("lanes_stopped", "processed", atomic.LoadUint64(&l.enqueued),
		"dropped", atomic.LoadUint64(&l.dropped))
}

// Depth reports the total queued items across lanes.
func (l *Lanes) Depth() int {
	n := 0
	for _, q := range l.queues {
		n += len(q)
	}
	return n
}
