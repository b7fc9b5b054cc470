// Package platform abstracts the host environment the runtime renders into: the
// document, the logger, the clock and the task queues that order deferred work.
//
// The runtime is single-threaded and cooperative. Work queued from other goroutines
// wakes Await, which drains the queues on the caller's goroutine.
package platform

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"au-go/packages/runtime/src/async"
)

// maxSettleRounds bounds Settle so that self-requeueing work cannot spin forever
const maxSettleRounds = 10000

// Platform bundles the document and the scheduling primitives
type Platform struct {
	Document *html.Node
	Logger   *slog.Logger
	Now      func() time.Time

	// Microtasks flushes observer notifications
	Microtasks *TaskQueue
	// DomWriteQueue orders deferred DOM mutations
	DomWriteQueue *TaskQueue
	// DomReadQueue orders deferred DOM reads
	DomReadQueue *TaskQueue
	// TaskQueue is the general macrotask queue, used for delayed work
	TaskQueue *TaskQueue

	wake chan struct{}
}

// Option configures a Platform
type Option func(*Platform)

// WithLogger sets the platform logger
func WithLogger(l *slog.Logger) Option {
	return func(p *Platform) { p.Logger = l }
}

// WithClock sets the time source used for delayed tasks
func WithClock(now func() time.Time) Option {
	return func(p *Platform) { p.Now = now }
}

// New creates a Platform over doc. A nil doc gets an empty HTML document.
func New(doc *html.Node, opts ...Option) *Platform {
	if doc == nil {
		doc = NewDocument()
	}
	p := &Platform{
		Document: doc,
		Logger:   slog.Default(),
		Now:      time.Now,
		wake:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	now := func() time.Time { return p.Now() }
	p.Microtasks = newTaskQueue("microtask", now, p.signal)
	p.DomWriteQueue = newTaskQueue("domWrite", now, p.signal)
	p.DomReadQueue = newTaskQueue("domRead", now, p.signal)
	p.TaskQueue = newTaskQueue("macrotask", now, p.signal)
	return p
}

// NewDocument returns an empty `<html><head></head><body></body></html>` document
func NewDocument() *html.Node {
	doc := &html.Node{Type: html.DocumentNode}
	root := &html.Node{Type: html.ElementNode, Data: "html", DataAtom: atom.Html}
	doc.AppendChild(root)
	root.AppendChild(&html.Node{Type: html.ElementNode, Data: "head", DataAtom: atom.Head})
	root.AppendChild(&html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body})
	return doc
}

func (p *Platform) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Body returns the document's body element, or nil
func (p *Platform) Body() *html.Node {
	var find func(n *html.Node) *html.Node
	find = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			return n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if found := find(c); found != nil {
				return found
			}
		}
		return nil
	}
	return find(p.Document)
}

// Settle drains the queues, microtasks first, until no due task remains
func (p *Platform) Settle() error {
	for round := 0; round < maxSettleRounds; round++ {
		ran := p.Microtasks.Flush()
		ran += p.DomWriteQueue.Flush()
		ran += p.DomReadQueue.Flush()
		ran += p.TaskQueue.Flush()
		if ran == 0 {
			return nil
		}
	}
	return fmt.Errorf("platform did not settle after %d rounds", maxSettleRounds)
}

// Await drains the queues until r completes or ctx is done
func (p *Platform) Await(ctx context.Context, r async.Result) error {
	for {
		if !r.IsPending() {
			return r.Err()
		}
		if err := p.Settle(); err != nil {
			return err
		}
		if !r.IsPending() {
			return r.Err()
		}
		select {
		case <-r.Promise().Done():
		case <-p.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ManualClock is a settable time source for deterministic delayed tasks
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a clock stopped at start
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the clock's current time
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
