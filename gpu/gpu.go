package gpu

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"fanwatch/adl"
	"fanwatch/logging"
)

// ErrNoAdapters indicates ADL enumerated no adapters at all.
var ErrNoAdapters = errors.New("no adapters found")

// GPU is an open ADL session plus the adapters discovered when it opened.
// Like the session it wraps, it must be used from a single goroutine.
type GPU struct {
	session  *adl.Session
	ctx      *adl.Context
	adapters []adl.AdapterInfo
	logger   *logging.Logger
}

// Open creates the ADL control and context on lib, then discovers the active
// ATI/AMD adapters. On any failure everything created so far is torn down and
// lib is closed.
func Open(lib adl.Library, mode adl.EnumMode, logger *logging.Logger) (*GPU, error) {
	session := adl.NewSession(lib)
	g, err := open(session, mode, logger)
	if err != nil {
		if cerr := session.Close(); cerr != nil {
			logger.Warn("session teardown after failed open", zap.Error(cerr))
		}
		return nil, err
	}
	return g, nil
}

func open(session *adl.Session, mode adl.EnumMode, logger *logging.Logger) (*GPU, error) {
	if _, err := session.CreateControl(mode); err != nil {
		return nil, fmt.Errorf("create ADL control: %w", err)
	}
	ctx, _, err := session.CreateContext(mode)
	if err != nil {
		return nil, fmt.Errorf("create ADL2 context: %w", err)
	}

	count, _, err := session.CountAdapters()
	if err != nil {
		return nil, fmt.Errorf("count adapters: %w", err)
	}
	logger.Info("adapters enumerated", zap.Int("count", count))
	if count <= 0 {
		return nil, ErrNoAdapters
	}

	adapters, err := DiscoverActiveAdapters(session)
	if err != nil {
		return nil, err
	}
	if len(adapters) == 0 {
		logger.Warn("no active ATI/AMD adapters; nothing will be monitored")
	} else {
		logger.Info("active ATI/AMD adapters",
			zap.Int("count", len(adapters)),
			zap.Strings("names", AdapterNames(adapters)))
	}

	return &GPU{
		session:  session,
		ctx:      ctx,
		adapters: adapters,
		logger:   logger,
	}, nil
}

// Adapters returns the adapters fixed at Open.
func (g *GPU) Adapters() []adl.AdapterInfo {
	out := make([]adl.AdapterInfo, len(g.adapters))
	copy(out, g.adapters)
	return out
}

// Read queries every monitored adapter once. A failure for one adapter is
// recorded in its AdapterReading and does not stop the others.
func (g *GPU) Read() []AdapterReading {
	out := make([]AdapterReading, 0, len(g.adapters))
	for _, a := range g.adapters {
		r := AdapterReading{Adapter: a}
		sensors, _, err := g.session.QuerySensors(g.ctx, a.Index)
		if err != nil {
			r.Err = fmt.Errorf("query sensors of %s: %w", a.Name, err)
		} else if r.Reading, err = ExtractFanReading(sensors); err != nil {
			r.Err = fmt.Errorf("extract reading of %s: %w", a.Name, err)
		}
		out = append(out, r)
	}
	return out
}

// Close destroys the context, then the control handle, then unloads the
// library. It is safe to call more than once.
func (g *GPU) Close() error {
	return g.session.Close()
}
