package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"
)

// Kind separates the two request shapes; each kind has its own
// in-progress gate.
type Kind int

const (
	KindGenerate Kind = iota
	KindAction
)

func (k Kind) String() string {
	if k == KindAction {
		return "action"
	}
	return "generate"
}

var (
	ErrBusy   = errors.New("a request of this kind is already running")
	ErrStream = errors.New("ai stream error")
	ErrClosed = errors.New("ai runner closed")
)

// Result summarises a finished request.
type Result struct {
	Namespace string
	Thinking  string
	Cards     int
	Text      string
}

// Runner executes requests one per kind at a time and merges their
// snapshots onto the board.
type Runner struct {
	client *Client
	merger *Merger

	// OnThinking receives the reasoning text accumulated so far.
	OnThinking func(kind Kind, text string)
	// OnBusy reports when a request starts and stops.
	OnBusy func(kind Kind, busy bool)
	// OnError reports failed requests; the board keeps the last merged
	// snapshot.
	OnError func(kind Kind, err error)

	busy   [2]atomic.Bool
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRunner(client *Client, merger *Merger) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{client: client, merger: merger, ctx: ctx, cancel: cancel}
}

// Busy reports whether a request of kind is in flight.
func (r *Runner) Busy(kind Kind) bool { return r.busy[kind].Load() }

// Generate streams new cards for req. It blocks until the stream ends.
func (r *Runner) Generate(ctx context.Context, req GenerateRequest) (*Result, error) {
	return r.run(ctx, KindGenerate, func(ctx context.Context) (*Stream, error) {
		return r.client.Generate(ctx, req)
	}, func(ns string, ev Event) error {
		switch ev := ev.(type) {
		case CardSnapshot:
			return r.merger.MergeCards(ns, "generated", ev.Cards)
		case TextSnapshot:
			return r.merger.MergeText(ns, "generated", "Generated", ev.Text)
		case Complete:
			if len(ev.Cards) == 0 && ev.Text != "" {
				return r.merger.MergeText(ns, "generated", "Generated", ev.Text)
			}
			return r.merger.MergeCards(ns, "generated", ev.Cards)
		}
		return nil
	})
}

// Action streams the result of req. Mind maps and flashcards become cards;
// summaries and action points become one text card.
func (r *Runner) Action(ctx context.Context, req ActionRequest) (*Result, error) {
	kind := string(req.Action)
	mergeText := func(ns, text string) error {
		return r.merger.MergeText(ns, kind, req.Action.Title(), text)
	}
	return r.run(ctx, KindAction, func(ctx context.Context) (*Stream, error) {
		return r.client.Action(ctx, req)
	}, func(ns string, ev Event) error {
		switch ev := ev.(type) {
		case CardSnapshot:
			return r.merger.MergeCards(ns, kind, ev.Cards)
		case TextSnapshot:
			return mergeText(ns, ev.Text)
		case Complete:
			if len(ev.Cards) > 0 || (req.Action.ProducesCards() && ev.Text == "") {
				return r.merger.MergeCards(ns, kind, ev.Cards)
			}
			return mergeText(ns, ev.Text)
		}
		return nil
	})
}

// Start runs fn on its own goroutine, tracked so Close can wait for it.
func (r *Runner) Start(fn func(ctx context.Context)) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		fn(r.ctx)
	}()
}

// Close cancels every in-flight request and waits for Start goroutines.
func (r *Runner) Close() {
	r.cancel()
	r.wg.Wait()
}

func (r *Runner) run(
	ctx context.Context,
	kind Kind,
	open func(context.Context) (*Stream, error),
	merge func(ns string, ev Event) error,
) (res *Result, err error) {
	if r.ctx.Err() != nil {
		return nil, ErrClosed
	}
	if !r.busy[kind].CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	r.setBusy(kind, true)
	defer func() {
		r.busy[kind].Store(false)
		r.setBusy(kind, false)
		if err != nil {
			log.Printf("[AI] %s request failed: %v", kind, err)
			if r.OnError != nil {
				r.OnError(kind, err)
			}
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(r.ctx, cancel)
	defer stop()

	stream, err := open(ctx)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	res = &Result{Namespace: NewNamespace()}
	var thinking strings.Builder
	for {
		ev, err := stream.Next()
		if errors.Is(err, io.EOF) {
			log.Printf("[AI] %s stream %s ended without completion", kind, res.Namespace)
			return res, nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return res, fmt.Errorf("%s stream: %w", kind, ctx.Err())
			}
			return res, fmt.Errorf("%s stream: %w", kind, err)
		}

		switch ev := ev.(type) {
		case Thinking:
			thinking.WriteString(ev.Text)
			res.Thinking = thinking.String()
			if r.OnThinking != nil {
				r.OnThinking(kind, res.Thinking)
			}
			continue
		case Unparseable:
			log.Printf("[AI] Skipping unparseable chunk: %v", ev.Err)
			continue
		case StreamError:
			return res, fmt.Errorf("%w: %s", ErrStream, ev.Message)
		case CardSnapshot:
			res.Cards = len(ev.Cards)
		case TextSnapshot:
			res.Text = ev.Text
		case Complete:
			res.Cards, res.Text = len(ev.Cards), ev.Text
		}

		if err := merge(res.Namespace, ev); err != nil {
			return res, fmt.Errorf("merge %s: %w", res.Namespace, err)
		}
		if _, done := ev.(Complete); done {
			return res, nil
		}
	}
}

func (r *Runner) setBusy(kind Kind, busy bool) {
	if r.OnBusy != nil {
		r.OnBusy(kind, busy)
	}
}
