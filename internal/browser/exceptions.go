package browser

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/chromedp/cdproto/runtime"
)

// exceptionCollector records uncaught page exceptions. The installed script
// must never cause one, so any entry here is reported as a mismatch.
type exceptionCollector struct {
	limit   int
	mu      sync.Mutex
	entries []string
	dropped int
}

func newExceptionCollector(limit int) *exceptionCollector {
	return &exceptionCollector{limit: limit}
}

// Listen is an event handler for chromedp.ListenTarget.
func (c *exceptionCollector) Listen(ev any) {
	if e, ok := ev.(*runtime.EventExceptionThrown); ok {
		c.add(describe(e.ExceptionDetails))
	}
}

func (c *exceptionCollector) add(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.limit {
		c.dropped++
		slog.Debug("exceptions: cap reached, dropping", "text", text, "dropped", c.dropped)
		return
	}
	c.entries = append(c.entries, text)
}

// Entries returns a copy of what has been recorded so far.
func (c *exceptionCollector) Entries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) == 0 {
		return nil
	}
	out := make([]string, len(c.entries))
	copy(out, c.entries)
	return out
}

// describe prefers the exception description, which carries the stack.
func describe(d *runtime.ExceptionDetails) string {
	if d == nil {
		return "unknown exception"
	}
	text := d.Text
	if d.Exception != nil && d.Exception.Description != "" {
		text = d.Exception.Description
	}
	if d.URL != "" {
		text = fmt.Sprintf("%s (%s:%d:%d)", text, d.URL, d.LineNumber+1, d.ColumnNumber+1)
	}
	return text
}
