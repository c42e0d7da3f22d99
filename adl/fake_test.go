package adl

import (
	"errors"
)

// fakeLibrary is an in-memory Library that records the order of calls.
type fakeLibrary struct {
	calls []string

	adapters []RawAdapterInfo
	active   map[int32]bool
	logs     map[int32]RawPMLogData

	// status overrides per entry point; zero means OK.
	status map[string]int32
	// missing symbols
	missing map[string]bool

	gotInfoSize int32
	closeErr    error
}

func newFakeLibrary() *fakeLibrary {
	return &fakeLibrary{
		active:  make(map[int32]bool),
		logs:    make(map[int32]RawPMLogData),
		status:  make(map[string]int32),
		missing: make(map[string]bool),
	}
}

func (f *fakeLibrary) result(name string) (int32, error) {
	f.calls = append(f.calls, name)
	if f.missing[name] {
		return 0, errors.Join(ErrSymbolUnavailable, errors.New(name))
	}
	return f.status[name], nil
}

func (f *fakeLibrary) MainControlCreate(EnumMode) (int32, error) {
	return f.result(procMainControlCreate)
}

func (f *fakeLibrary) MainControlDestroy() (int32, error) {
	return f.result(procMainControlDestroy)
}

func (f *fakeLibrary) Main2ControlCreate(_ EnumMode, out *ContextHandle) (int32, error) {
	*out = 0xADC
	return f.result(procMain2ControlCreate)
}

func (f *fakeLibrary) Main2ControlDestroy(ContextHandle) (int32, error) {
	return f.result(procMain2ControlDestroy)
}

func (f *fakeLibrary) AdapterNumberOfAdaptersGet(count *int32) (int32, error) {
	*count = int32(len(f.adapters))
	return f.result(procNumberOfAdaptersGet)
}

func (f *fakeLibrary) AdapterInfoGet(buf []RawAdapterInfo, size int32) (int32, error) {
	f.gotInfoSize = size
	copy(buf, f.adapters)
	return f.result(procAdapterInfoGet)
}

func (f *fakeLibrary) AdapterActiveGet(index int32, active *int32) (int32, error) {
	if f.active[index] {
		*active = 1
	}
	return f.result(procAdapterActiveGet)
}

func (f *fakeLibrary) New2QueryPMLogDataGet(_ ContextHandle, index int32, out *RawPMLogData) (int32, error) {
	*out = f.logs[index]
	return f.result(procNew2QueryPMLogDataGet)
}

func (f *fakeLibrary) Close() error {
	f.calls = append(f.calls, "close")
	return f.closeErr
}

func rawAdapter(index, vendor int32, name string) RawAdapterInfo {
	var r RawAdapterInfo
	r.Size = AdapterInfoSize
	r.AdapterIndex = index
	r.VendorID = vendor
	SetCString(r.AdapterName[:], name)
	SetCString(r.DisplayName[:], `\\.\DISPLAY1`)
	return r
}
