package api

import (
	"context"
	"fmt"
	"time"

	"timebill/internal/id"
	"timebill/internal/model"
	"timebill/internal/timeutil"
)

// Wire representations. Identifier tokens and timestamps are re-parsed
// strictly; anything malformed is a decode failure for the whole fetch.

type clientDTO struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Projects   []projectDTO   `json:"projects"`
	TimeBlocks []timeBlockDTO `json:"time_blocks"`
}

type projectDTO struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	TimeEntries []timeEntryDTO `json:"time_entries"`
}

type timeEntryDTO struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Started string  `json:"started"`
	Stopped *string `json:"stopped"`
}

type timeBlockDTO struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Status   string      `json:"status"`
	Duration int64       `json:"duration"` // seconds
	Invoice  *invoiceDTO `json:"invoice"`
}

type invoiceDTO struct {
	ID       string  `json:"id"`
	CustomID *string `json:"custom_id"`
	URL      *string `json:"url"`
}

type queryClientData struct {
	QueryClient []*clientDTO `json:"queryClient"`
}

const queryClientsWithProjects = `{
  queryClient {
    id
    name
    projects { id name }
  }
}`

const queryClientsWithTimeEntries = `{
  queryClient {
    id
    name
    projects {
      id
      name
      time_entries { id name started stopped }
    }
  }
}`

const queryClientsWithTimeBlocks = `{
  queryClient {
    id
    name
    time_blocks {
      id
      name
      status
      duration
      invoice { id custom_id url }
    }
    projects {
      id
      name
      time_entries { id name started stopped }
    }
  }
}`

// ClientsWithProjects fetches the client/project tree for the clients page.
func (g *Gateway) ClientsWithProjects(ctx context.Context) (*model.ClientMap, error) {
	return g.fetchClients(ctx, queryClientsWithProjects)
}

// ClientsWithTimeEntries fetches the tree for the time tracker page.
func (g *Gateway) ClientsWithTimeEntries(ctx context.Context) (*model.ClientMap, error) {
	return g.fetchClients(ctx, queryClientsWithTimeEntries)
}

// ClientsWithTimeBlocks fetches the tree for the time blocks page, including
// entry times for the tracked-hours statistics.
func (g *Gateway) ClientsWithTimeBlocks(ctx context.Context) (*model.ClientMap, error) {
	return g.fetchClients(ctx, queryClientsWithTimeBlocks)
}

func (g *Gateway) fetchClients(ctx context.Context, query string) (*model.ClientMap, error) {
	var data queryClientData
	if err := g.do(ctx, query, nil, &data); err != nil {
		return nil, err
	}

	clients := model.NewClientMap()
	for _, dto := range data.QueryClient {
		if dto == nil {
			continue
		}
		clientID, client, err := dto.toModel()
		if err != nil {
			return nil, fmt.Errorf("decode data: %w", err)
		}
		clients.Set(clientID, client)
	}
	return clients, nil
}

func (dto *clientDTO) toModel() (id.ID, *model.Client, error) {
	clientID, err := id.Parse(dto.ID)
	if err != nil {
		return "", nil, err
	}
	client := model.NewClient(dto.Name)

	for _, p := range dto.Projects {
		projectID, err := id.Parse(p.ID)
		if err != nil {
			return "", nil, err
		}
		project := model.NewProject(p.Name)
		for _, e := range p.TimeEntries {
			entryID, entry, err := e.toModel()
			if err != nil {
				return "", nil, err
			}
			project.TimeEntries.Set(entryID, entry)
		}
		client.Projects.Set(projectID, project)
	}

	for _, b := range dto.TimeBlocks {
		blockID, err := id.Parse(b.ID)
		if err != nil {
			return "", nil, err
		}
		status, err := model.ParseStatus(b.Status)
		if err != nil {
			return "", nil, err
		}
		block := &model.TimeBlock{
			Name:     b.Name,
			Status:   status,
			Duration: time.Duration(b.Duration) * time.Second,
		}
		if b.Invoice != nil {
			invoice := &model.Invoice{}
			if b.Invoice.CustomID != nil {
				invoice.CustomID = *b.Invoice.CustomID
			}
			if b.Invoice.URL != nil {
				invoice.URL = *b.Invoice.URL
			}
			block.Invoice = invoice
		}
		client.TimeBlocks.Set(blockID, block)
	}
	return clientID, client, nil
}

func (dto *timeEntryDTO) toModel() (id.ID, *model.TimeEntry, error) {
	entryID, err := id.Parse(dto.ID)
	if err != nil {
		return "", nil, err
	}
	started, err := timeutil.ParseWire(dto.Started)
	if err != nil {
		return "", nil, err
	}
	entry := &model.TimeEntry{Name: dto.Name, Started: started}
	if dto.Stopped != nil {
		stopped, err := timeutil.ParseWire(*dto.Stopped)
		if err != nil {
			return "", nil, err
		}
		entry.Stopped = &stopped
	}
	return entryID, entry, nil
}
