package api

import (
	"context"
	"time"

	"timebill/internal/id"
	"timebill/internal/model"
	"timebill/internal/timeutil"
)

// Every mutation carries the new local state for one entity and returns only
// an acknowledgment; no entity data flows back into the tree.

// ------ Client ------

func (g *Gateway) AddClient(ctx context.Context, clientID id.ID, name string) error {
	return g.mutate(ctx, `mutation AddClient($id: String!, $name: String!) {
  addClient(input: [{id: $id, name: $name, projects: [], time_blocks: []}]) { numUids }
}`, vars{"id": clientID.String(), "name": name})
}

func (g *Gateway) RenameClient(ctx context.Context, clientID id.ID, name string) error {
	return g.mutate(ctx, `mutation RenameClient($id: String!, $name: String!) {
  updateClient(input: {filter: {id: {eq: $id}}, set: {name: $name}}) { numUids }
}`, vars{"id": clientID.String(), "name": name})
}

func (g *Gateway) DeleteClient(ctx context.Context, clientID id.ID) error {
	return g.mutate(ctx, `mutation DeleteClient($id: String!) {
  deleteClient(filter: {id: {eq: $id}}) { numUids }
}`, vars{"id": clientID.String()})
}

// ------ Project ------

func (g *Gateway) AddProject(ctx context.Context, clientID, projectID id.ID, name string) error {
	return g.mutate(ctx, `mutation AddProject($id: String!, $name: String!, $client: String!) {
  addProject(input: [{id: $id, name: $name, time_entries: [], client: {id: $client}}]) { numUids }
}`, vars{"id": projectID.String(), "name": name, "client": clientID.String()})
}

func (g *Gateway) RenameProject(ctx context.Context, projectID id.ID, name string) error {
	return g.mutate(ctx, `mutation RenameProject($id: String!, $name: String!) {
  updateProject(input: {filter: {id: {eq: $id}}, set: {name: $name}}) { numUids }
}`, vars{"id": projectID.String(), "name": name})
}

func (g *Gateway) DeleteProject(ctx context.Context, projectID id.ID) error {
	return g.mutate(ctx, `mutation DeleteProject($id: String!) {
  deleteProject(filter: {id: {eq: $id}}) { numUids }
}`, vars{"id": projectID.String()})
}

// ------ TimeEntry ------

func (g *Gateway) AddTimeEntry(ctx context.Context, projectID, entryID id.ID, name string, started time.Time, stopped *time.Time) error {
	return g.mutate(ctx, `mutation AddTimeEntry($id: String!, $name: String!, $started: DateTime!, $stopped: DateTime, $project: String!) {
  addTimeEntry(input: [{id: $id, name: $name, started: $started, stopped: $stopped, project: {id: $project}}]) { numUids }
}`, vars{
		"id":      entryID.String(),
		"name":    name,
		"started": timeutil.FormatWire(started),
		"stopped": wireTime(stopped),
		"project": projectID.String(),
	})
}

func (g *Gateway) RenameTimeEntry(ctx context.Context, entryID id.ID, name string) error {
	return g.mutate(ctx, `mutation RenameTimeEntry($id: String!, $name: String!) {
  updateTimeEntry(input: {filter: {id: {eq: $id}}, set: {name: $name}}) { numUids }
}`, vars{"id": entryID.String(), "name": name})
}

// SetTimeEntryTimes persists both timestamps after any start/stop/duration
// commit; which of the five fields was edited locally is not visible on the
// wire.
func (g *Gateway) SetTimeEntryTimes(ctx context.Context, entryID id.ID, started time.Time, stopped *time.Time) error {
	return g.mutate(ctx, `mutation SetTimeEntryTimes($id: String!, $started: DateTime!, $stopped: DateTime) {
  updateTimeEntry(input: {filter: {id: {eq: $id}}, set: {started: $started, stopped: $stopped}}) { numUids }
}`, vars{
		"id":      entryID.String(),
		"started": timeutil.FormatWire(started),
		"stopped": wireTime(stopped),
	})
}

func (g *Gateway) DeleteTimeEntry(ctx context.Context, entryID id.ID) error {
	return g.mutate(ctx, `mutation DeleteTimeEntry($id: String!) {
  deleteTimeEntry(filter: {id: {eq: $id}}) { numUids }
}`, vars{"id": entryID.String()})
}

// ------ TimeBlock ------

func (g *Gateway) AddTimeBlock(ctx context.Context, clientID, blockID id.ID, name string, status model.TimeBlockStatus, duration time.Duration) error {
	return g.mutate(ctx, `mutation AddTimeBlock($id: String!, $name: String!, $status: TimeBlockStatus!, $duration: Int!, $client: String!) {
  addTimeBlock(input: [{id: $id, name: $name, status: $status, duration: $duration, client: {id: $client}}]) { numUids }
}`, vars{
		"id":       blockID.String(),
		"name":     name,
		"status":   status.Wire(),
		"duration": int64(duration.Seconds()),
		"client":   clientID.String(),
	})
}

func (g *Gateway) RenameTimeBlock(ctx context.Context, blockID id.ID, name string) error {
	return g.mutate(ctx, `mutation RenameTimeBlock($id: String!, $name: String!) {
  updateTimeBlock(input: {filter: {id: {eq: $id}}, set: {name: $name}}) { numUids }
}`, vars{"id": blockID.String(), "name": name})
}

func (g *Gateway) SetTimeBlockStatus(ctx context.Context, blockID id.ID, status model.TimeBlockStatus) error {
	return g.mutate(ctx, `mutation SetTimeBlockStatus($id: String!, $status: TimeBlockStatus!) {
  updateTimeBlock(input: {filter: {id: {eq: $id}}, set: {status: $status}}) { numUids }
}`, vars{"id": blockID.String(), "status": status.Wire()})
}

func (g *Gateway) SetTimeBlockDuration(ctx context.Context, blockID id.ID, duration time.Duration) error {
	return g.mutate(ctx, `mutation SetTimeBlockDuration($id: String!, $duration: Int!) {
  updateTimeBlock(input: {filter: {id: {eq: $id}}, set: {duration: $duration}}) { numUids }
}`, vars{"id": blockID.String(), "duration": int64(duration.Seconds())})
}

func (g *Gateway) DeleteTimeBlock(ctx context.Context, blockID id.ID) error {
	return g.mutate(ctx, `mutation DeleteTimeBlock($id: String!) {
  deleteTimeBlock(filter: {id: {eq: $id}}) { numUids }
}`, vars{"id": blockID.String()})
}

// ------ Invoice ------

func (g *Gateway) AddInvoice(ctx context.Context, blockID, invoiceID id.ID, customID, url string) error {
	return g.mutate(ctx, `mutation AddInvoice($id: String!, $customId: String, $url: String, $block: String!) {
  addInvoice(input: [{id: $id, custom_id: $customId, url: $url, time_block: {id: $block}}]) { numUids }
}`, vars{
		"id":       invoiceID.String(),
		"customId": customID,
		"url":      url,
		"block":    blockID.String(),
	})
}

func (g *Gateway) SetInvoiceCustomID(ctx context.Context, blockID id.ID, customID string) error {
	return g.mutate(ctx, `mutation SetInvoiceCustomId($block: String!, $customId: String) {
  updateInvoice(input: {filter: {time_block: {id: {eq: $block}}}, set: {custom_id: $customId}}) { numUids }
}`, vars{"block": blockID.String(), "customId": customID})
}

func (g *Gateway) SetInvoiceURL(ctx context.Context, blockID id.ID, url string) error {
	return g.mutate(ctx, `mutation SetInvoiceUrl($block: String!, $url: String) {
  updateInvoice(input: {filter: {time_block: {id: {eq: $block}}}, set: {url: $url}}) { numUids }
}`, vars{"block": blockID.String(), "url": url})
}

func (g *Gateway) DeleteInvoice(ctx context.Context, blockID id.ID) error {
	return g.mutate(ctx, `mutation DeleteInvoice($block: String!) {
  deleteInvoice(filter: {time_block: {id: {eq: $block}}}) { numUids }
}`, vars{"block": blockID.String()})
}

type vars = map[string]any

func wireTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return timeutil.FormatWire(*t)
}
