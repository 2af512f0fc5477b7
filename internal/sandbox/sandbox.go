// Package sandbox runs page scripts against an in-process simulation of a
// headless Chrome page. It is how a script is checked without a browser: the
// simulated natives brand-check their receiver and report automation values,
// so any override that leaks or breaks a native shows up in a probe.
package sandbox

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/dop251/goja"

	"github.com/stupside/cloak/internal/fingerprint"
)

//go:embed js/host.js
var hostJS string

// ErrScript is returned when a script throws past its top level.
var ErrScript = errors.New("script threw")

var hostProgram = goja.MustCompile("host.js", hostJS, false)

type options struct {
	without    []string
	permission string
}

// Option adjusts the simulated page.
type Option func(*options)

// WithoutGlobals removes APIs from the simulated page, as an engine build
// lacking them would. "Name" removes a global constructor and the contexts it
// backs; "object.prop" removes an attribute from the object's prototype.
func WithoutGlobals(names ...string) Option {
	return func(o *options) {
		o.without = append(o.without, names...)
	}
}

// WithNotificationPermission sets the initial Notification.permission.
func WithNotificationPermission(permission string) Option {
	return func(o *options) {
		o.permission = permission
	}
}

// Sandbox is one simulated page. It is not safe for concurrent use.
type Sandbox struct {
	vm   *goja.Runtime
	host *goja.Object
}

// New builds a fresh page.
func New(opts ...Option) (*Sandbox, error) {
	o := options{permission: "default"}
	for _, opt := range opts {
		opt(&o)
	}

	vm := goja.New()
	if _, err := vm.RunProgram(hostProgram); err != nil {
		return nil, fmt.Errorf("starting simulated page: %w", err)
	}

	s := &Sandbox{vm: vm, host: vm.Get("__host").ToObject(vm)}
	if len(o.without) > 0 {
		names := make([]any, len(o.without))
		for i, n := range o.without {
			names[i] = n
		}
		if err := s.callHost("remove", vm.NewArray(names...)); err != nil {
			return nil, err
		}
	}
	if err := s.SetNotificationPermission(o.permission); err != nil {
		return nil, err
	}
	return s, nil
}

// SetNotificationPermission changes what Notification.permission reports from
// now on, as a user answering the prompt would.
func (s *Sandbox) SetNotificationPermission(permission string) error {
	return s.callHost("setNotificationPermission", s.vm.ToValue(permission))
}

func (s *Sandbox) callHost(name string, args ...goja.Value) error {
	fn, ok := goja.AssertFunction(s.host.Get(name))
	if !ok {
		return fmt.Errorf("simulated page has no %s hook", name)
	}
	if _, err := fn(goja.Undefined(), args...); err != nil {
		return fmt.Errorf("calling %s: %w", name, err)
	}
	return nil
}

// Install runs script as if it had been registered to evaluate on a new
// document. Microtasks it queued have run when Install returns.
func (s *Sandbox) Install(ctx context.Context, script string) error {
	_, err := s.run(ctx, "stealth.js", script)
	return err
}

// Eval runs src in the page and returns its completion value exported to Go.
func (s *Sandbox) Eval(ctx context.Context, src string) (any, error) {
	v, err := s.run(ctx, "eval.js", src)
	if err != nil {
		return nil, err
	}
	return v.Export(), nil
}

// Probe runs the fingerprint probe and decodes what it observed.
func (s *Sandbox) Probe(ctx context.Context) (*fingerprint.Report, error) {
	v, err := s.run(ctx, "probe.js", fingerprint.ProbeJS)
	if err != nil {
		return nil, err
	}

	promise, ok := v.Export().(*goja.Promise)
	if !ok {
		return nil, fmt.Errorf("probe returned %s, not a promise", v.ExportType())
	}
	switch promise.State() {
	case goja.PromiseStateFulfilled:
	case goja.PromiseStateRejected:
		return nil, fmt.Errorf("%w: probe rejected: %s", ErrScript, promise.Result())
	default:
		return nil, errors.New("probe promise still pending after the job queue drained")
	}

	stringify, ok := goja.AssertFunction(s.vm.Get("JSON").ToObject(s.vm).Get("stringify"))
	if !ok {
		return nil, errors.New("JSON.stringify is not callable")
	}
	raw, err := stringify(goja.Undefined(), promise.Result())
	if err != nil {
		return nil, fmt.Errorf("serializing probe report: %w", err)
	}

	return fingerprint.DecodeReport([]byte(raw.String()))
}

// run executes src, interrupting it when ctx ends.
func (s *Sandbox) run(ctx context.Context, name, src string) (goja.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stop := context.AfterFunc(ctx, func() {
		s.vm.Interrupt(context.Cause(ctx))
	})
	defer func() {
		stop()
		s.vm.ClearInterrupt()
	}()

	v, err := s.vm.RunScript(name, src)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return nil, fmt.Errorf("%s interrupted: %w", name, context.Cause(ctx))
		}
		var exception *goja.Exception
		if errors.As(err, &exception) {
			return nil, fmt.Errorf("%w: %s: %s", ErrScript, name, exception.Value())
		}
		return nil, fmt.Errorf("running %s: %w", name, err)
	}
	return v, nil
}
