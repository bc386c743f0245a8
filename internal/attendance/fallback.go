package attendance

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Fallback is the in-process record store used while the primary is unreachable.
// It also mirrors every record written to the primary. Its state lives as long as the process.
type Fallback struct {
	mu      sync.RWMutex
	records map[int64]Record
	next    int64
	cal     Calendar
	now     func() time.Time
}

// NewFallback creates an empty fallback store using cal for day boundaries.
func NewFallback(cal Calendar) *Fallback {
	return &Fallback{
		records: make(map[int64]Record),
		next:    1,
		cal:     cal,
		now:     time.Now,
	}
}

// SetClock replaces the clock used to decide what "today" is.
func (f *Fallback) SetClock(now func() time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

// Put inserts or overwrites rec by id, assigning the next counter value when rec has none.
func (f *Fallback) Put(rec Record) Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.put(rec)
}

func (f *Fallback) put(rec Record) Record {
	if rec.ID == 0 {
		rec.ID = f.reserve()
	}
	f.advance(rec.ID)
	f.records[rec.ID] = rec
	return rec
}

// Reserve hands out the next id without storing anything. Reserved ids are never
// handed out again, whether or not a record is later stored under them.
func (f *Fallback) Reserve() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reserve()
}

// Advance moves the counter past id, so later ids are all greater than it.
func (f *Fallback) Advance(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advance(id)
}

func (f *Fallback) reserve() int64 {
	id := f.next
	f.next++
	return id
}

func (f *Fallback) advance(id int64) {
	if id >= f.next {
		f.next = id + 1
	}
}

// Insert stores rec unless a record with the same name already exists on its day.
// The check and the write happen under one lock. rec keeps its id when it carries a
// reserved one; otherwise the next counter value is assigned.
func (f *Fallback) Insert(rec Record) (Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	day := f.cal.DayOf(rec.DateTime)
	if f.hasDuplicate(rec.Name, day) {
		return Record{}, &DuplicateSubmissionError{
			Name:  rec.Name,
			Day:   day.Date,
			Today: day.Date == f.cal.DayOf(f.now()).Date,
		}
	}
	if _, taken := f.records[rec.ID]; taken {
		rec.ID = 0
	}
	return f.put(rec), nil
}

// All returns every record, newest first.
func (f *Fallback) All() []Record {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.sorted(nil)
}

// OnDay returns the records of day, newest first.
func (f *Fallback) OnDay(day Day) []Record {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.sorted(func(r Record) bool { return day.Contains(r.DateTime) })
}

// HasDuplicate reports whether a record named name exists on day.
func (f *Fallback) HasDuplicate(name string, day Day) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.hasDuplicate(name, day)
}

// HasDuplicateToday reports whether name already checked in on the current day.
func (f *Fallback) HasDuplicateToday(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.hasDuplicate(name, f.cal.DayOf(f.now()))
}

// Len returns the number of stored records.
func (f *Fallback) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.records)
}

func (f *Fallback) hasDuplicate(name string, day Day) bool {
	key := FoldName(name)
	for _, r := range f.records {
		if day.Contains(r.DateTime) && FoldName(r.Name) == key {
			return true
		}
	}
	return false
}

func (f *Fallback) sorted(keep func(Record) bool) []Record {
	out := make([]Record, 0, len(f.records))
	for _, r := range f.records {
		if keep == nil || keep(r) {
			out = append(out, r)
		}
	}
	sortNewestFirst(out)
	return out
}

// Add implements Store.
func (f *Fallback) Add(_ context.Context, rec Record) (Record, error) {
	return f.Put(rec), nil
}

// ListAll implements Store.
func (f *Fallback) ListAll(context.Context) ([]Record, error) {
	return f.All(), nil
}

// ListByDate implements Store.
func (f *Fallback) ListByDate(_ context.Context, day Day) ([]Record, error) {
	return f.OnDay(day), nil
}

func sortNewestFirst(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].DateTime.Equal(records[j].DateTime) {
			return records[i].DateTime.After(records[j].DateTime)
		}
		return records[i].ID > records[j].ID
	})
}
