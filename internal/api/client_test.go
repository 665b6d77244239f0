package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"timebill/internal/id"
	"timebill/internal/model"
)

func testGateway(t *testing.T, handler http.HandlerFunc) *Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "")
}

func TestFetchClientsDecodesTree(t *testing.T) {
	clientID, projectID, entryID := id.New(), id.New(), id.New()
	g := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var op operation
		if err := json.NewDecoder(r.Body).Decode(&op); err != nil {
			t.Errorf("decode operation: %v", err)
		}
		if op.Query == "" {
			t.Error("empty query")
		}
		resp := map[string]any{
			"data": map[string]any{
				"queryClient": []any{
					nil, // deleted node, must be skipped
					map[string]any{
						"id":   clientID.String(),
						"name": "Acme",
						"projects": []any{map[string]any{
							"id":   projectID.String(),
							"name": "Website",
							"time_entries": []any{map[string]any{
								"id":      entryID.String(),
								"name":    "review",
								"started": "2021-03-14T09:00:00Z",
								"stopped": "2021-03-14T10:30:00Z",
							}},
						}},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})

	clients, err := g.ClientsWithTimeEntries(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if clients.Len() != 1 {
		t.Fatalf("expected 1 client, got %d", clients.Len())
	}
	client, ok := clients.Client(clientID)
	if !ok || client.Name != "Acme" {
		t.Fatalf("missing client: %+v", client)
	}
	entry, ok := clients.Entry(clientID, projectID, entryID)
	if !ok {
		t.Fatal("missing entry")
	}
	if entry.Stopped == nil || entry.Elapsed(time.Now()) != 90*time.Minute {
		t.Fatalf("unexpected entry times: %+v", entry)
	}
}

func TestFetchClientsWithBlocks(t *testing.T) {
	clientID, blockID := id.New(), id.New()
	customID := "INV-7"
	g := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"data": map[string]any{
				"queryClient": []any{map[string]any{
					"id":   clientID.String(),
					"name": "Acme",
					"time_blocks": []any{map[string]any{
						"id":       blockID.String(),
						"name":     "March",
						"status":   "PAID",
						"duration": 72000,
						"invoice": map[string]any{
							"id":        id.New().String(),
							"custom_id": customID,
							"url":       nil,
						},
					}},
					"projects": []any{},
				}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})

	clients, err := g.ClientsWithTimeBlocks(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	block, ok := clients.Block(clientID, blockID)
	if !ok {
		t.Fatal("missing block")
	}
	if block.Status != model.StatusPaid || block.Duration != 20*time.Hour {
		t.Fatalf("unexpected block: %+v", block)
	}
	if block.Invoice == nil || block.Invoice.CustomID != customID || block.Invoice.URL != "" {
		t.Fatalf("unexpected invoice: %+v", block.Invoice)
	}
}

func TestNonSuccessStatus(t *testing.T) {
	g := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	})

	_, err := g.ClientsWithProjects(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("unexpected status %d", apiErr.StatusCode)
	}
}

func TestResponseErrors(t *testing.T) {
	g := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data":   nil,
			"errors": []any{map[string]any{"message": "unauthorized"}},
		})
	})

	err := g.RenameClient(context.Background(), id.New(), "Acme")
	var respErr *ResponseErrors
	if !errors.As(err, &respErr) {
		t.Fatalf("expected ResponseErrors, got %v", err)
	}
	if len(respErr.Messages) != 1 || respErr.Messages[0] != "unauthorized" {
		t.Fatalf("unexpected messages: %v", respErr.Messages)
	}
}

func TestDecodeFailure(t *testing.T) {
	g := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	})
	if _, err := g.ClientsWithProjects(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestBadIDIsDecodeFailure(t *testing.T) {
	g := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"queryClient": []any{map[string]any{"id": "!!", "name": "x"}},
			},
		})
	})
	if _, err := g.ClientsWithProjects(context.Background()); err == nil {
		t.Fatal("expected decode error for malformed id")
	}
}

func TestTransportFailure(t *testing.T) {
	g := New("http://127.0.0.1:1", "")
	g.Timeout = 500 * time.Millisecond
	if err := g.DeleteClient(context.Background(), id.New()); err == nil {
		t.Fatal("expected transport error")
	}
}

func TestAuthorizationHeader(t *testing.T) {
	var got string
	g := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{}})
	})
	g.Token = "secret"

	if err := g.DeleteInvoice(context.Background(), id.New()); err != nil {
		t.Fatal(err)
	}
	if got != "Bearer secret" {
		t.Fatalf("unexpected auth header %q", got)
	}
}

func TestMutationVariables(t *testing.T) {
	var op operation
	g := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&op)
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{}})
	})

	entryID := id.New()
	started := time.Date(2021, 3, 14, 9, 0, 0, 0, time.UTC)
	if err := g.SetTimeEntryTimes(context.Background(), entryID, started, nil); err != nil {
		t.Fatal(err)
	}
	if op.Variables["id"] != entryID.String() {
		t.Fatalf("id not sent: %v", op.Variables)
	}
	if op.Variables["started"] != "2021-03-14T09:00:00Z" {
		t.Fatalf("started not in wire format: %v", op.Variables["started"])
	}
	if stopped, present := op.Variables["stopped"]; !present || stopped != nil {
		t.Fatalf("open entry should send null stopped, got %v", stopped)
	}
}
