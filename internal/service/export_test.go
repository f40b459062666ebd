package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/buildloop/ledger/internal/adapter/ws"
	"github.com/buildloop/ledger/internal/domain"
	"github.com/buildloop/ledger/internal/domain/export"
	"github.com/buildloop/ledger/internal/port/messagequeue"
)

func TestExportRecord(t *testing.T) {
	store := &mockStore{}
	queue := &mockQueue{}
	hub := &mockBroadcaster{}
	svc := NewExportService(store, queue, hub, nil)

	l, err := svc.Record(context.Background(), &export.RecordRequest{
		ProjectID:     "proj-1",
		ExportType:    export.TypeGitHub,
		Destination:   export.DestGitHub,
		Status:        export.StatusCompleted,
		FilesExported: 12,
		GitHubRepoURL: "https://github.com/acme/widgets",
		CommitSHA:     "deadbeef",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.ID == "" {
		t.Fatal("expected export ID to be assigned")
	}

	if len(queue.published) != 1 {
		t.Fatalf("expected 1 publish call, got %d", len(queue.published))
	}
	if queue.published[0].subject != messagequeue.SubjectExportRecorded {
		t.Fatalf("expected subject %q, got %q", messagequeue.SubjectExportRecorded, queue.published[0].subject)
	}
	var event ws.ExportRecordedEvent
	if err := json.Unmarshal(queue.published[0].data, &event); err != nil {
		t.Fatalf("published payload not an export event: %v", err)
	}
	if event.ExportID != l.ID || event.ExportType != "github" {
		t.Fatalf("unexpected event payload: %+v", event)
	}
	if len(hub.events) != 1 || hub.events[0].eventType != ws.EventExportRecorded {
		t.Fatalf("expected one %s broadcast, got %+v", ws.EventExportRecorded, hub.events)
	}
}

func TestExportRecordValidation(t *testing.T) {
	svc := NewExportService(&mockStore{}, nil, nil, nil)

	cases := []export.RecordRequest{
		{ExportType: "rsync", Destination: export.DestLocal, Status: export.StatusCompleted},
		{ExportType: export.TypeZip, Destination: "nfs", Status: export.StatusCompleted},
		{ExportType: export.TypeZip, Destination: export.DestLocal, Status: "done"},
		{ExportType: export.TypeZip, Destination: export.DestLocal, Status: export.StatusCompleted, FilesExported: -1},
	}
	for i, req := range cases {
		if _, err := svc.Record(context.Background(), &req); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestExportRecordPublishFailureIsNotFatal(t *testing.T) {
	queue := &mockQueue{publishErr: errors.New("nats down")}
	svc := NewExportService(&mockStore{}, queue, nil, nil)

	l, err := svc.Record(context.Background(), &export.RecordRequest{
		ProjectID:   "proj-1",
		ExportType:  export.TypeFolder,
		Destination: export.DestLocal,
		Status:      export.StatusCompleted,
	})
	if err != nil {
		t.Fatalf("publish failure must not fail the record: %v", err)
	}
	if l == nil {
		t.Fatal("expected the log row back")
	}
}

func TestExportList(t *testing.T) {
	store := &mockStore{exports: []export.Log{
		{ID: "exp-1", ProjectID: "proj-1"},
		{ID: "exp-2", ProjectID: "proj-1"},
	}}
	svc := NewExportService(store, nil, nil, nil)

	logs, err := svc.List(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 exports, got %d", len(logs))
	}
}
