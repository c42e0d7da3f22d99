//go:build windows

package adl

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

// dllLibrary calls into the ADL DLL through lazily resolved procedures.
type dllLibrary struct {
	dll    *windows.DLL
	malloc uintptr

	mu    sync.Mutex
	procs map[string]*windows.Proc
}

// LoadLibrary loads atiadlxx.dll, falling back to atiadlxy.dll.
func LoadLibrary() (Library, error) {
	malloc, err := mallocCallback()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLibraryUnavailable, err)
	}

	var lastErr error
	for _, name := range libraryNames {
		dll, err := windows.LoadDLL(name)
		if err != nil {
			lastErr = err
			continue
		}
		return &dllLibrary{
			dll:    dll,
			malloc: malloc,
			procs:  make(map[string]*windows.Proc),
		}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrLibraryUnavailable, lastErr)
}

// mallocCallback returns the address of the C runtime allocator ADL uses
// for buffers it hands back.
func mallocCallback() (uintptr, error) {
	proc := windows.NewLazySystemDLL("msvcrt.dll").NewProc("malloc")
	if err := proc.Find(); err != nil {
		return 0, err
	}
	return proc.Addr(), nil
}

func (l *dllLibrary) proc(name string) (*windows.Proc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p, ok := l.procs[name]; ok {
		return p, nil
	}
	p, err := l.dll.FindProc(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSymbolUnavailable, name, err)
	}
	l.procs[name] = p
	return p, nil
}

// call invokes the named procedure and returns its int result.
// The third return of Proc.Call is GetLastError and carries no meaning for ADL.
func (l *dllLibrary) call(name string, args ...uintptr) (int32, error) {
	p, err := l.proc(name)
	if err != nil {
		return 0, err
	}
	r, _, _ := p.Call(args...)
	return int32(r), nil
}

func (l *dllLibrary) MainControlCreate(mode EnumMode) (int32, error) {
	return l.call(procMainControlCreate, l.malloc, uintptr(mode))
}

func (l *dllLibrary) MainControlDestroy() (int32, error) {
	return l.call(procMainControlDestroy)
}

func (l *dllLibrary) Main2ControlCreate(mode EnumMode, out *ContextHandle) (int32, error) {
	p, err := l.proc(procMain2ControlCreate)
	if err != nil {
		return 0, err
	}
	r, _, _ := p.Call(l.malloc, uintptr(mode), uintptr(unsafe.Pointer(out)))
	return int32(r), nil
}

func (l *dllLibrary) Main2ControlDestroy(ctx ContextHandle) (int32, error) {
	return l.call(procMain2ControlDestroy, uintptr(ctx))
}

func (l *dllLibrary) AdapterNumberOfAdaptersGet(count *int32) (int32, error) {
	p, err := l.proc(procNumberOfAdaptersGet)
	if err != nil {
		return 0, err
	}
	r, _, _ := p.Call(uintptr(unsafe.Pointer(count)))
	return int32(r), nil
}

func (l *dllLibrary) AdapterInfoGet(buf []RawAdapterInfo, size int32) (int32, error) {
	p, err := l.proc(procAdapterInfoGet)
	if err != nil {
		return 0, err
	}
	if len(buf) == 0 {
		r, _, _ := p.Call(0, uintptr(size))
		return int32(r), nil
	}
	r, _, _ := p.Call(uintptr(unsafe.Pointer(&buf[0])), uintptr(size))
	return int32(r), nil
}

func (l *dllLibrary) AdapterActiveGet(index int32, active *int32) (int32, error) {
	p, err := l.proc(procAdapterActiveGet)
	if err != nil {
		return 0, err
	}
	r, _, _ := p.Call(uintptr(index), uintptr(unsafe.Pointer(active)))
	return int32(r), nil
}

func (l *dllLibrary) New2QueryPMLogDataGet(ctx ContextHandle, index int32, out *RawPMLogData) (int32, error) {
	p, err := l.proc(procNew2QueryPMLogDataGet)
	if err != nil {
		return 0, err
	}
	r, _, _ := p.Call(uintptr(ctx), uintptr(index), uintptr(unsafe.Pointer(out)))
	return int32(r), nil
}

func (l *dllLibrary) Close() error {
	if l.dll == nil {
		return nil
	}
	err := l.dll.Release()
	l.dll = nil
	return err
}
