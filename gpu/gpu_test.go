package gpu

import (
	"errors"
	"reflect"
	"testing"

	"fanwatch/adl"
	"fanwatch/logging"
)

// stubLister serves canned adapter lists for discovery tests.
type stubLister struct {
	adapters  []adl.AdapterInfo
	active    map[int]bool
	listErr   error
	activeErr map[int]error
	queried   []int
}

func (s *stubLister) ListAdapters() ([]adl.AdapterInfo, adl.Status, error) {
	if s.listErr != nil {
		return nil, adl.Err, s.listErr
	}
	return s.adapters, adl.OK, nil
}

func (s *stubLister) IsAdapterActive(index int) (bool, adl.Status, error) {
	s.queried = append(s.queried, index)
	if err := s.activeErr[index]; err != nil {
		return false, adl.Err, err
	}
	return s.active[index], adl.OK, nil
}

func TestDiscoverActiveAdapters(t *testing.T) {
	lister := &stubLister{
		adapters: []adl.AdapterInfo{
			{Index: 0, VendorID: ATIVendorID, Name: "RX 6800 (display 1)"},
			{Index: 1, VendorID: ATIVendorID, Name: "RX 6800 (display 2)"},
			{Index: 2, VendorID: 4318, Name: "GeForce"},
			{Index: 3, VendorID: ATIVendorID, Name: "RX 7900"},
			{Index: 4, VendorID: 32902, Name: "Intel UHD"},
		},
		active: map[int]bool{0: true, 1: false, 2: true, 3: true, 4: true},
	}

	got, err := DiscoverActiveAdapters(lister)
	if err != nil {
		t.Fatalf("DiscoverActiveAdapters: %v", err)
	}
	want := []string{"RX 6800 (display 1)", "RX 7900"}
	if !reflect.DeepEqual(AdapterNames(got), want) {
		t.Errorf("names = %v, want %v", AdapterNames(got), want)
	}
	if len(lister.queried) != 5 {
		t.Errorf("queried %d adapters, want 5", len(lister.queried))
	}
}

func TestDiscoverActiveAdapters_Failures(t *testing.T) {
	t.Run("list fails", func(t *testing.T) {
		_, err := DiscoverActiveAdapters(&stubLister{listErr: &adl.StatusError{Op: "list", Status: adl.ErrNotInit}})
		if !errors.Is(err, adl.ErrFailureStatus) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("activity query fails midway", func(t *testing.T) {
		lister := &stubLister{
			adapters: []adl.AdapterInfo{
				{Index: 0, VendorID: ATIVendorID},
				{Index: 1, VendorID: ATIVendorID},
			},
			active:    map[int]bool{0: true, 1: true},
			activeErr: map[int]error{1: &adl.StatusError{Op: "active", Status: adl.ErrInvalidAdapterIndex}},
		}
		got, err := DiscoverActiveAdapters(lister)
		if err == nil {
			t.Fatal("expected error")
		}
		if got != nil {
			t.Errorf("partial list returned: %v", got)
		}
	})
}

func TestExtractFanReading(t *testing.T) {
	var raw [adl.MaxSensors]adl.RawSensor
	raw[adl.FanRPM] = adl.RawSensor{Supported: 1, Value: 1200}
	raw[adl.FanPercentage] = adl.RawSensor{Supported: 1, Value: 35}
	raw[adl.TemperatureHotspot] = adl.RawSensor{Supported: 1, Value: 68}

	r, err := ExtractFanReading(adl.DecodeSensorMap(&raw, int(adl.TemperatureHotspot)))
	if err != nil {
		t.Fatalf("ExtractFanReading: %v", err)
	}
	if r != (FanReading{FanSpeedRPM: 1200, FanSpeedPct: 35, TempC: 68}) {
		t.Errorf("reading = %+v", r)
	}
	if r.Invalid() {
		t.Error("Invalid() = true")
	}

	_, err = ExtractFanReading(adl.DecodeSensorMap(&raw, int(adl.FanPercentage)))
	var missing *adl.MissingSensorError
	if !errors.As(err, &missing) || missing.Kind != adl.TemperatureHotspot {
		t.Errorf("err = %v, want missing hotspot", err)
	}
}

// fakeLibrary is a minimal adl.Library for Open and Read.
type fakeLibrary struct {
	adapters []adl.RawAdapterInfo
	active   map[int32]bool
	logs     map[int32]adl.RawPMLogData
	status   map[int32]int32
	calls    []string
}

func (f *fakeLibrary) MainControlCreate(adl.EnumMode) (int32, error) {
	f.calls = append(f.calls, "create")
	return 0, nil
}
func (f *fakeLibrary) MainControlDestroy() (int32, error) {
	f.calls = append(f.calls, "destroy")
	return 0, nil
}
func (f *fakeLibrary) Main2ControlCreate(_ adl.EnumMode, out *adl.ContextHandle) (int32, error) {
	f.calls = append(f.calls, "create2")
	*out = 1
	return 0, nil
}
func (f *fakeLibrary) Main2ControlDestroy(adl.ContextHandle) (int32, error) {
	f.calls = append(f.calls, "destroy2")
	return 0, nil
}
func (f *fakeLibrary) AdapterNumberOfAdaptersGet(count *int32) (int32, error) {
	*count = int32(len(f.adapters))
	return 0, nil
}
func (f *fakeLibrary) AdapterInfoGet(buf []adl.RawAdapterInfo, _ int32) (int32, error) {
	copy(buf, f.adapters)
	return 0, nil
}
func (f *fakeLibrary) AdapterActiveGet(index int32, active *int32) (int32, error) {
	if f.active[index] {
		*active = 1
	}
	return 0, nil
}
func (f *fakeLibrary) New2QueryPMLogDataGet(_ adl.ContextHandle, index int32, out *adl.RawPMLogData) (int32, error) {
	*out = f.logs[index]
	return f.status[index], nil
}
func (f *fakeLibrary) Close() error {
	f.calls = append(f.calls, "close")
	return nil
}

func rawAdapter(index int32, name string) adl.RawAdapterInfo {
	var r adl.RawAdapterInfo
	r.AdapterIndex = index
	r.VendorID = ATIVendorID
	adl.SetCString(r.AdapterName[:], name)
	return r
}

func pmlog(rpm, pct, temp int32) adl.RawPMLogData {
	var d adl.RawPMLogData
	d.Size = int32(adl.TemperatureHotspot)
	d.Sensors[adl.FanRPM] = adl.RawSensor{Supported: 1, Value: rpm}
	d.Sensors[adl.FanPercentage] = adl.RawSensor{Supported: 1, Value: pct}
	d.Sensors[adl.TemperatureHotspot] = adl.RawSensor{Supported: 1, Value: temp}
	return d
}

func TestOpen_NoAdapters(t *testing.T) {
	lib := &fakeLibrary{}
	_, err := Open(lib, adl.EnumConnected, logging.NewNop())
	if !errors.Is(err, ErrNoAdapters) {
		t.Fatalf("err = %v, want ErrNoAdapters", err)
	}
	want := []string{"create", "create2", "destroy2", "destroy", "close"}
	if !reflect.DeepEqual(lib.calls, want) {
		t.Errorf("calls = %v, want %v", lib.calls, want)
	}
}

func TestOpen_ReadAndClose(t *testing.T) {
	lib := &fakeLibrary{
		adapters: []adl.RawAdapterInfo{rawAdapter(0, "RX 6800"), rawAdapter(1, "RX 7900")},
		active:   map[int32]bool{0: true, 1: true},
		logs: map[int32]adl.RawPMLogData{
			0: pmlog(1300, 40, 70),
			1: pmlog(InvalidFanRPM, 0, 85),
		},
		status: map[int32]int32{},
	}

	g, err := Open(lib, adl.EnumConnected, logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(g.Adapters()) != 2 {
		t.Fatalf("Adapters() = %v", g.Adapters())
	}

	readings := g.Read()
	if len(readings) != 2 {
		t.Fatalf("Read() returned %d readings", len(readings))
	}
	if readings[0].Err != nil || readings[0].Reading.FanSpeedRPM != 1300 {
		t.Errorf("reading[0] = %+v", readings[0])
	}
	if !readings[1].Reading.Invalid() {
		t.Errorf("reading[1] should be invalid: %+v", readings[1])
	}

	lib.status[0] = int32(adl.ErrDisabledAdapter)
	readings = g.Read()
	if readings[0].Err == nil || readings[1].Err != nil {
		t.Errorf("per-adapter failure not isolated: %+v", readings)
	}

	if err := g.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	tail := lib.calls[len(lib.calls)-3:]
	if !reflect.DeepEqual(tail, []string{"destroy2", "destroy", "close"}) {
		t.Errorf("teardown = %v", tail)
	}
}
