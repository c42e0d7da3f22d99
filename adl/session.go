package adl

import (
	"fmt"

	"go.uber.org/multierr"
)

// Context is the ADL2 session context. It is valid from CreateContext until
// DestroyContext or Session.Close.
type Context struct {
	handle    ContextHandle
	session   *Session
	destroyed bool
}

// Handle returns the opaque native handle.
func (c *Context) Handle() ContextHandle {
	return c.handle
}

// Session owns a loaded Library together with its control handle and at most
// one live Context. A Session is not safe for concurrent use; all calls must
// come from one goroutine.
type Session struct {
	lib Library

	controlCreated   bool
	controlDestroyed bool
	ctx              *Context
	closed           bool
}

// NewSession wraps lib. The session takes ownership and closes lib in Close.
func NewSession(lib Library) *Session {
	return &Session{lib: lib}
}

// CreateControl initialises the ADL1 interface. It must be called exactly once.
func (s *Session) CreateControl(mode EnumMode) (Status, error) {
	if s.controlCreated {
		return Err, ErrControlExists
	}
	raw, err := s.lib.MainControlCreate(mode)
	if err != nil {
		return Err, err
	}
	st, err := DecodeStatus(procMainControlCreate, raw)
	if err != nil {
		return st, err
	}
	s.controlCreated = true
	return st, nil
}

// CreateContext initialises the ADL2 interface and returns its context.
// At most one context may be live per session.
func (s *Session) CreateContext(mode EnumMode) (*Context, Status, error) {
	if s.ctx != nil {
		return nil, Err, ErrContextExists
	}
	var h ContextHandle
	raw, err := s.lib.Main2ControlCreate(mode, &h)
	if err != nil {
		return nil, Err, err
	}
	st, err := DecodeStatus(procMain2ControlCreate, raw)
	if err != nil {
		return nil, st, err
	}
	s.ctx = &Context{handle: h, session: s}
	return s.ctx, st, nil
}

// DestroyContext releases ctx. The context is considered released even when
// the library reports a failure, so it is never destroyed twice.
func (s *Session) DestroyContext(ctx *Context) (Status, error) {
	if err := s.checkContext(ctx); err != nil {
		return Err, err
	}
	ctx.destroyed = true
	s.ctx = nil

	raw, err := s.lib.Main2ControlDestroy(ctx.handle)
	if err != nil {
		return Err, err
	}
	return DecodeStatus(procMain2ControlDestroy, raw)
}

// DestroyControl releases the ADL1 interface. It refuses while a context is live.
func (s *Session) DestroyControl() (Status, error) {
	if !s.controlCreated || s.controlDestroyed {
		return Err, ErrControlNotCreated
	}
	if s.ctx != nil {
		return Err, ErrContextLive
	}
	s.controlDestroyed = true

	raw, err := s.lib.MainControlDestroy()
	if err != nil {
		return Err, err
	}
	return DecodeStatus(procMainControlDestroy, raw)
}

// Close tears everything down in reverse creation order: context, control,
// then the library itself. It is safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs error
	if s.ctx != nil {
		if _, err := s.DestroyContext(s.ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if s.controlCreated && !s.controlDestroyed {
		if _, err := s.DestroyControl(); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if err := s.lib.Close(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("close library: %w", err))
	}
	return errs
}

// CountAdapters returns the number of adapters ADL enumerates.
func (s *Session) CountAdapters() (int, Status, error) {
	if err := s.ready(); err != nil {
		return 0, Err, err
	}
	var n int32
	raw, err := s.lib.AdapterNumberOfAdaptersGet(&n)
	if err != nil {
		return 0, Err, err
	}
	st, err := DecodeStatus(procNumberOfAdaptersGet, raw)
	if err != nil {
		return 0, st, err
	}
	return int(n), st, nil
}

// ListAdapters returns every enumerated adapter in ADL order.
//
// It panics if the Go record layout does not match the native record size;
// that is a build defect, not a runtime condition.
func (s *Session) ListAdapters() ([]AdapterInfo, Status, error) {
	if rawAdapterInfoSize != AdapterInfoSize {
		panic(fmt.Sprintf("adl: AdapterInfo layout is %d bytes, want %d", rawAdapterInfoSize, AdapterInfoSize))
	}

	count, st, err := s.CountAdapters()
	if err != nil {
		return nil, st, err
	}
	if count <= 0 {
		return []AdapterInfo{}, st, nil
	}

	buf := make([]RawAdapterInfo, count)
	for i := range buf {
		buf[i].Size = AdapterInfoSize
	}
	raw, err := s.lib.AdapterInfoGet(buf, int32(count*AdapterInfoSize))
	if err != nil {
		return nil, Err, err
	}
	st, err = DecodeStatus(procAdapterInfoGet, raw)
	if err != nil {
		return nil, st, err
	}

	adapters := make([]AdapterInfo, 0, count)
	for i := range buf {
		adapters = append(adapters, buf[i].Decode())
	}
	return adapters, st, nil
}

// IsAdapterActive reports whether the adapter at index is active.
func (s *Session) IsAdapterActive(index int) (bool, Status, error) {
	if err := s.ready(); err != nil {
		return false, Err, err
	}
	var active int32
	raw, err := s.lib.AdapterActiveGet(int32(index), &active)
	if err != nil {
		return false, Err, err
	}
	st, err := DecodeStatus(procAdapterActiveGet, raw)
	if err != nil {
		return false, st, err
	}
	return active != 0, st, nil
}

// QuerySensors reads the PMLog sensor array of one adapter.
func (s *Session) QuerySensors(ctx *Context, index int) (SensorMap, Status, error) {
	if err := s.checkContext(ctx); err != nil {
		return SensorMap{}, Err, err
	}
	var out RawPMLogData
	raw, err := s.lib.New2QueryPMLogDataGet(ctx.handle, int32(index), &out)
	if err != nil {
		return SensorMap{}, Err, err
	}
	st, err := DecodeStatus(procNew2QueryPMLogDataGet, raw)
	if err != nil {
		return SensorMap{}, st, err
	}
	return DecodeSensorMap(&out.Sensors, int(out.Size)), st, nil
}

func (s *Session) ready() error {
	if s.closed || !s.controlCreated || s.controlDestroyed {
		return ErrControlNotCreated
	}
	return nil
}

func (s *Session) checkContext(ctx *Context) error {
	if ctx == nil || ctx.session != s || ctx.destroyed || s.ctx != ctx {
		return ErrInvalidContext
	}
	return nil
}
