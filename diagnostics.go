package inja

import (
	"sync"

	"github.com/hashicorp/go-multierror"
)

// DiagnosticKind enumerates the recoverable render-time failure kinds
// spec.md §3.5 names.
type DiagnosticKind int

const (
	KindVariableNotFound DiagnosticKind = iota
	KindCallbackNotFound
	KindTypeError
	KindIndexError
)

func (k DiagnosticKind) String() string {
	switch k {
	case KindVariableNotFound:
		return "variable_not_found"
	case KindCallbackNotFound:
		return "callback_not_found"
	case KindTypeError:
		return "type_error"
	case KindIndexError:
		return "index_error"
	default:
		return "unknown"
	}
}

// Diagnostic records one recoverable failure that graceful mode
// swallowed, per spec.md §3.5/§7.
type Diagnostic struct {
	Kind         DiagnosticKind
	Message      string
	OriginalText string
	Location     Location
}

func (d Diagnostic) Error() string {
	return (&TemplateError{Kind: KindRenderError, Location: d.Location, HasLoc: true, Message: d.Message}).Error()
}

// DiagnosticBuffer accumulates Diagnostics for one render call. It is
// owned by an Environment and is not internally synchronized beyond a
// single mutex guarding the slice itself — callers must still
// serialize render calls against one Environment per spec.md §5.
type DiagnosticBuffer struct {
	mu   sync.Mutex
	list []Diagnostic
}

// Reset truncates the buffer to zero entries. Called at the start of
// every Render, per spec.md §7's "cleared at the start of each render".
func (b *DiagnosticBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.list = b.list[:0]
}

// Add appends a Diagnostic to the buffer.
func (b *DiagnosticBuffer) Add(d Diagnostic) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.list = append(b.list, d)
}

// Diagnostics returns a copy of the buffer's current contents in
// recording order, the spec's raw form for callers that want the
// structured slice directly.
func (b *DiagnosticBuffer) Diagnostics() []Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Diagnostic, len(b.list))
	copy(out, b.list)
	return out
}

// Err joins the buffer's current Diagnostics into a single inspectable
// error via hashicorp/go-multierror, for callers that want a plain Go
// error rather than the structured slice. Returns nil if the buffer is
// empty.
func (b *DiagnosticBuffer) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.list) == 0 {
		return nil
	}
	var merr *multierror.Error
	for _, d := range b.list {
		merr = multierror.Append(merr, d)
	}
	return merr.ErrorOrNil()
}
