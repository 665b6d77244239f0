package model

import (
	"fmt"
	"time"

	"timebill/internal/id"
	"timebill/internal/timeutil"
)

// Client is the root aggregate. It owns its projects and time blocks by
// composition, so removing a client drops the whole subtree.
type Client struct {
	Name       string
	Projects   *OrderedMap[*Project]
	TimeBlocks *OrderedMap[*TimeBlock]
	SyncErr    string
}

func NewClient(name string) *Client {
	return &Client{
		Name:       name,
		Projects:   NewOrderedMap[*Project](),
		TimeBlocks: NewOrderedMap[*TimeBlock](),
	}
}

// Tracked sums (stopped or now) - started across every entry of every
// project; running entries contribute their live elapsed time.
func (c *Client) Tracked(now time.Time) time.Duration {
	var total time.Duration
	for _, pid := range c.Projects.Keys() {
		project, _ := c.Projects.Get(pid)
		total += project.Tracked(now)
	}
	return total
}

// BlockStats aggregates time-block hours by status.
type BlockStats struct {
	Blocked time.Duration
	Unpaid  time.Duration
	Paid    time.Duration
	Tracked time.Duration
}

// ToBlock is the tracked time not yet covered by a block.
func (s BlockStats) ToBlock() time.Duration { return s.Tracked - s.Blocked }

func (c *Client) BlockStats(now time.Time) BlockStats {
	stats := BlockStats{Tracked: c.Tracked(now)}
	for _, bid := range c.TimeBlocks.Keys() {
		block, _ := c.TimeBlocks.Get(bid)
		stats.Blocked += block.Duration
		switch block.Status {
		case StatusUnpaid:
			stats.Unpaid += block.Duration
		case StatusPaid:
			stats.Paid += block.Duration
		}
	}
	return stats
}

// AddTimeBlock creates a block with the previous block's duration (or 20
// hours for the first) and Unpaid status.
func (c *Client) AddTimeBlock() (id.ID, *TimeBlock) {
	duration := 20 * time.Hour
	if _, last, ok := c.TimeBlocks.Last(); ok {
		duration = last.Duration
	}
	blockID := id.New()
	block := &TimeBlock{Status: StatusUnpaid, Duration: duration}
	c.TimeBlocks.Set(blockID, block)
	return blockID, block
}

// Project is owned by exactly one client.
type Project struct {
	Name        string
	TimeEntries *OrderedMap[*TimeEntry]
	SyncErr     string
}

func NewProject(name string) *Project {
	return &Project{Name: name, TimeEntries: NewOrderedMap[*TimeEntry]()}
}

func (p *Project) Tracked(now time.Time) time.Duration {
	var total time.Duration
	for _, eid := range p.TimeEntries.Keys() {
		entry, _ := p.TimeEntries.Get(eid)
		total += entry.Elapsed(now)
	}
	return total
}

// Running returns the project's open entry, if any.
func (p *Project) Running() (id.ID, *TimeEntry, bool) {
	for _, eid := range p.TimeEntries.Keys() {
		entry, _ := p.TimeEntries.Get(eid)
		if entry.Stopped == nil {
			return eid, entry, true
		}
	}
	return "", nil, false
}

// Start opens a new entry at now. Any entry still running in the project is
// stopped first, keeping at most one open entry per project; the ids of
// entries stopped this way are returned so their new times can be saved.
func (p *Project) Start(name string, now time.Time) (id.ID, *TimeEntry, []id.ID) {
	var stopped []id.ID
	for _, eid := range p.TimeEntries.Keys() {
		entry, _ := p.TimeEntries.Get(eid)
		if entry.Stopped == nil {
			t := now
			entry.Stopped = &t
			stopped = append(stopped, eid)
		}
	}
	entryID := id.New()
	entry := &TimeEntry{Name: name, Started: now}
	p.TimeEntries.Set(entryID, entry)
	return entryID, entry, stopped
}

// TimeEntry is a single start/stop tracked-time record.
type TimeEntry struct {
	Name    string
	Started time.Time
	Stopped *time.Time
	Edit    *EditField
	SyncErr string
}

func (e *TimeEntry) Running() bool { return e.Stopped == nil }

// Elapsed is (stopped or now) - started.
func (e *TimeEntry) Elapsed(now time.Time) time.Duration {
	if e.Stopped != nil {
		return e.Stopped.Sub(e.Started)
	}
	return now.Sub(e.Started)
}

// Stop closes the entry at now. Stopping an already closed entry reports
// false and changes nothing.
func (e *TimeEntry) Stop(now time.Time) bool {
	if e.Stopped != nil {
		return false
	}
	t := now
	e.Stopped = &t
	return true
}

// EntryField names the five independently editable time-entry fields plus
// the name.
type EntryField int

const (
	FieldName EntryField = iota
	FieldStartDate
	FieldStartTime
	FieldStopDate
	FieldStopTime
	FieldDuration
)

// EditField is the transient uncommitted input for one field. It exists only
// while the field is being edited and never touches the committed values.
type EditField struct {
	Field EntryField
	Text  string
}

// StageEdit overwrites the staged text for a field, last write wins.
func (e *TimeEntry) StageEdit(field EntryField, text string) {
	e.Edit = &EditField{Field: field, Text: text}
}

// DisplayText returns the committed rendering of a field, used to seed an
// edit and to display unfocused fields.
func (e *TimeEntry) DisplayText(field EntryField, now time.Time) string {
	switch field {
	case FieldName:
		return e.Name
	case FieldStartDate:
		return e.Started.Format(timeutil.DateLayout)
	case FieldStartTime:
		return e.Started.Format(timeutil.ClockLayout)
	case FieldStopDate:
		if e.Stopped == nil {
			return ""
		}
		return e.Stopped.Format(timeutil.DateLayout)
	case FieldStopTime:
		if e.Stopped == nil {
			return ""
		}
		return e.Stopped.Format(timeutil.ClockLayout)
	case FieldDuration:
		return timeutil.FormatClockDuration(e.Elapsed(now))
	}
	return ""
}

// CommitEdit merges the staged edit into the committed fields. The recompute
// is all-or-nothing: any parse failure returns an error and leaves Started,
// Stopped and Name exactly as they were. Staging is cleared either way.
func (e *TimeEntry) CommitEdit() error {
	if e.Edit == nil {
		return nil
	}
	staged := *e.Edit
	e.Edit = nil

	switch staged.Field {
	case FieldName:
		e.Name = staged.Text

	case FieldStartDate:
		started, err := timeutil.CombineDate(e.Started, staged.Text)
		if err != nil {
			return err
		}
		e.Started = started

	case FieldStartTime:
		started, err := timeutil.CombineClock(e.Started, staged.Text)
		if err != nil {
			return err
		}
		e.Started = started

	case FieldStopDate:
		if e.Stopped == nil {
			return fmt.Errorf("entry is still running")
		}
		stopped, err := timeutil.CombineDate(*e.Stopped, staged.Text)
		if err != nil {
			return err
		}
		e.Stopped = &stopped

	case FieldStopTime:
		if e.Stopped == nil {
			return fmt.Errorf("entry is still running")
		}
		stopped, err := timeutil.CombineClock(*e.Stopped, staged.Text)
		if err != nil {
			return err
		}
		e.Stopped = &stopped

	case FieldDuration:
		if e.Stopped == nil {
			return fmt.Errorf("entry is still running")
		}
		// A negative duration is accepted and places stopped before
		// started.
		d, err := timeutil.ParseClockDuration(staged.Text)
		if err != nil {
			return err
		}
		stopped := e.Started.Add(d)
		e.Stopped = &stopped
	}
	return nil
}

// TimeBlockStatus is the billing state of a block.
type TimeBlockStatus int

const (
	StatusNonBillable TimeBlockStatus = iota
	StatusUnpaid
	StatusPaid
)

func (s TimeBlockStatus) String() string {
	switch s {
	case StatusNonBillable:
		return "Non-billable"
	case StatusUnpaid:
		return "Unpaid"
	case StatusPaid:
		return "Paid"
	}
	return "Unknown"
}

// Wire returns the enum token used by the remote store.
func (s TimeBlockStatus) Wire() string {
	switch s {
	case StatusNonBillable:
		return "NON_BILLABLE"
	case StatusPaid:
		return "PAID"
	default:
		return "UNPAID"
	}
}

// ParseStatus decodes a remote enum token.
func ParseStatus(wire string) (TimeBlockStatus, error) {
	switch wire {
	case "NON_BILLABLE":
		return StatusNonBillable, nil
	case "UNPAID":
		return StatusUnpaid, nil
	case "PAID":
		return StatusPaid, nil
	}
	return StatusUnpaid, fmt.Errorf("unknown time block status %q", wire)
}

// TimeBlock is a pre-allocated bucket of billable hours, independent of
// tracked time, optionally linked to one invoice.
type TimeBlock struct {
	Name         string
	Status       TimeBlockStatus
	Duration     time.Duration
	DurationEdit *string
	Invoice      *Invoice
	SyncErr      string
}

// StageDuration holds an in-progress decimal-hours edit.
func (b *TimeBlock) StageDuration(text string) {
	b.DurationEdit = &text
}

// DurationText is the staged text while editing, else the committed hours.
func (b *TimeBlock) DurationText() string {
	if b.DurationEdit != nil {
		return *b.DurationEdit
	}
	return timeutil.FormatDecimalHours(b.Duration)
}

// CommitDuration parses the staged decimal-hours text into the committed
// duration. Parse failure leaves the duration unchanged. Staging is cleared
// either way.
func (b *TimeBlock) CommitDuration() error {
	if b.DurationEdit == nil {
		return nil
	}
	text := *b.DurationEdit
	b.DurationEdit = nil

	d, err := timeutil.ParseDecimalHours(text)
	if err != nil {
		return err
	}
	b.Duration = d
	return nil
}

// AttachInvoice creates an empty invoice on the block. Attaching over an
// existing invoice reports false.
func (b *TimeBlock) AttachInvoice() (*Invoice, bool) {
	if b.Invoice != nil {
		return nil, false
	}
	b.Invoice = &Invoice{}
	return b.Invoice, true
}

// Invoice is owned by exactly one time block. Empty strings stand for absent
// values.
type Invoice struct {
	CustomID string
	URL      string
}
