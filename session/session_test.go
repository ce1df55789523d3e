package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spektr-org/fleetlens/engine"
)

const fleetCSV = "Vehicle Number,Zone,Source Sheet Name,Alert Duration (min),Route Deviation Distance,Route No,From Datetime\n" +
	"V1,NCL,Stoppage Violation,30,0,R1,05-03-2024 09:00\n" +
	"V1,NCL,Route Diversion Alert,10,4.5,R1,05-03-2024 11:00\n" +
	"V2,SCL,Route Diversion Alert,20,2,R2,01-03-2024 08:30\n"

func fixedNow() time.Time {
	return time.Date(2024, time.March, 5, 18, 0, 0, 0, time.Local)
}

func loaded(t *testing.T) *Session {
	t.Helper()
	s := New(Options{Now: fixedNow})
	if _, err := s.Load(context.Background(), "fleet.csv", []byte(fleetCSV)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func TestLoad(t *testing.T) {
	s := New(Options{})
	ds, err := s.Load(context.Background(), "fleet.csv", []byte(fleetCSV))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Records) != 3 || len(ds.Raw) != 3 {
		t.Errorf("records = %d, raw = %d", len(ds.Records), len(ds.Raw))
	}
	if ds.Records[0].AlertType != "Stoppage_Violation" {
		t.Errorf("alert type = %q", ds.Records[0].AlertType)
	}
	if s.Dataset() != ds {
		t.Error("Dataset should return the loaded dataset")
	}
}

func TestLoadEmptyInput(t *testing.T) {
	s := New(Options{})
	if _, err := s.Load(context.Background(), "empty.csv", nil); err == nil {
		t.Error("expected error for empty input")
	}
	if s.Dataset() != nil {
		t.Error("failed load should not install a dataset")
	}
}

func TestDashboardWithoutDataset(t *testing.T) {
	_, err := New(Options{}).Dashboard(context.Background(), engine.FilterConfig{})
	if !errors.Is(err, ErrNoDataset) {
		t.Errorf("err = %v, want ErrNoDataset", err)
	}
}

func TestDashboardMemoized(t *testing.T) {
	s := loaded(t)
	ctx := context.Background()
	filters := engine.FilterConfig{MinDuration: 15}

	first, err := s.Dashboard(ctx, filters)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Dashboard(ctx, filters)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("identical filters should return the memoized dashboard")
	}
	if first.WorkingRecords != 2 {
		t.Errorf("working records = %d, want 2", first.WorkingRecords)
	}

	other, _ := s.Dashboard(ctx, engine.FilterConfig{MinDuration: 25})
	if other == first || other.WorkingRecords != 1 {
		t.Errorf("different filters should compute a new dashboard, got %d records", other.WorkingRecords)
	}

	if hits, _ := s.CacheStats(); hits != 1 {
		t.Errorf("cache hits = %d, want 1", hits)
	}
}

func TestDashboardClockDependentNotMemoized(t *testing.T) {
	s := loaded(t)
	ctx := context.Background()
	filters := engine.FilterConfig{DateRangeType: engine.RangeDaily}

	first, err := s.Dashboard(ctx, filters)
	if err != nil {
		t.Fatal(err)
	}
	second, _ := s.Dashboard(ctx, filters)
	if first == second {
		t.Error("relative range without reference should not be memoized")
	}
	if first.WorkingRecords != 2 {
		t.Errorf("daily working records = %d, want 2", first.WorkingRecords)
	}
	if first.Filters.ReferenceDate == nil || !first.Filters.ReferenceDate.Equal(fixedNow()) {
		t.Errorf("reference date = %v", first.Filters.ReferenceDate)
	}

	ref := fixedNow()
	fixed := engine.FilterConfig{DateRangeType: engine.RangeDaily, ReferenceDate: &ref}
	a, _ := s.Dashboard(ctx, fixed)
	b, _ := s.Dashboard(ctx, fixed)
	if a != b {
		t.Error("relative range with a reference date should be memoized")
	}
}

func TestLoadReplacesDataset(t *testing.T) {
	s := loaded(t)
	ctx := context.Background()
	firstID := s.Dataset().ID

	before, _ := s.Dashboard(ctx, engine.FilterConfig{})

	if _, err := s.Load(ctx, "small.csv", []byte("Vehicle Number,Zone\nV9,EAS\n")); err != nil {
		t.Fatal(err)
	}
	if s.Dataset().ID == firstID {
		t.Error("new dataset should get a new ID")
	}

	after, _ := s.Dashboard(ctx, engine.FilterConfig{})
	if after == before || after.InputRecords != 1 {
		t.Errorf("dashboard after reload has %d input records", after.InputRecords)
	}
}

func TestConcurrentDashboards(t *testing.T) {
	s := loaded(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := s.Dashboard(ctx, engine.FilterConfig{MinDuration: float64(i % 3 * 10)})
			if err != nil || d == nil {
				t.Errorf("Dashboard: %v", err)
			}
		}(i)
	}
	wg.Wait()
}
