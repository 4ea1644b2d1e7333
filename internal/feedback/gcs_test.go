package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

type memObject struct {
	contentType string
	data        []byte
}

type memStore struct {
	objects   map[string]memObject
	downErr   error
	listErr   error
	uploadErr error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string]memObject{}}
}

func (m *memStore) Upload(_ context.Context, name, contentType string, data []byte) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	m.objects[name] = memObject{contentType: contentType, data: append([]byte(nil), data...)}
	return nil
}

func (m *memStore) Download(_ context.Context, name string) ([]byte, error) {
	if m.downErr != nil {
		return nil, m.downErr
	}
	obj, ok := m.objects[name]
	if !ok {
		return nil, errors.New("not found")
	}
	return obj.data, nil
}

func (m *memStore) List(_ context.Context, prefix string) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var names []string
	for name := range m.objects {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	return names, nil
}

func (m *memStore) Delete(_ context.Context, name string) error {
	delete(m.objects, name)
	return nil
}

func testArchiver(store *memStore, now time.Time) *Archiver {
	a := newArchiver(store, "chat-feedback")
	a.now = func() time.Time { return now }
	a.newID = func() string { return "fixed-id" }
	return a
}

func TestArchiveWritesBothLocations(t *testing.T) {
	store := newMemStore()
	now := time.Date(2025, 1, 22, 14, 30, 25, 456e6, time.UTC)
	a := testArchiver(store, now)

	rec := Record{
		MessageID:    "msg-1",
		Feedback:     FeedbackDown,
		Reason:       "คำตอบไม่ตรงคำถาม",
		UserQuestion: "Power BI คืออะไร",
		AIAnswer:     "Power BI คือ...",
	}
	receipt, err := a.Archive(context.Background(), rec)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}

	wantArchive := "chat-feedback/2025-01-22/negative_20250122_143025_456.json"
	wantLatest := "chat-feedback/latest/negative_20250122_143025_456.json"
	if receipt.ArchivePath != wantArchive {
		t.Fatalf("archive path = %q, want %q", receipt.ArchivePath, wantArchive)
	}
	if receipt.FeedbackID != "fixed-id" {
		t.Fatalf("feedbackId = %q", receipt.FeedbackID)
	}

	for _, path := range []string{wantArchive, wantLatest} {
		obj, ok := store.objects[path]
		if !ok {
			t.Fatalf("missing object %s", path)
		}
		if obj.contentType != contentTypeNDJSON {
			t.Fatalf("%s content type = %q", path, obj.contentType)
		}
		var entry storedEntry
		if err := json.Unmarshal(obj.data, &entry); err != nil {
			t.Fatalf("stored entry not JSON: %v", err)
		}
		if entry.MessageID != "msg-1" || entry.Feedback != FeedbackDown {
			t.Fatalf("stored entry = %+v", entry)
		}
		if entry.CreatedAt == "" || entry.ID != "fixed-id" {
			t.Fatalf("server fields missing: %+v", entry)
		}
	}
}

func TestArchivePositivePrefix(t *testing.T) {
	store := newMemStore()
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	a := testArchiver(store, now)

	if _, err := a.Archive(context.Background(), Record{MessageID: "m", Feedback: FeedbackUp}); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if _, ok := store.objects["chat-feedback/2025-03-01/positive_20250301_080000_000.json"]; !ok {
		t.Fatalf("positive archive object missing, have %v", keys(store))
	}
}

func TestNewDayPurgesLatest(t *testing.T) {
	store := newMemStore()
	store.objects["chat-feedback/latest/.last_cleared"] = memObject{data: []byte("2025-01-21")}
	store.objects["chat-feedback/latest/positive_20250121_090000_000.json"] = memObject{data: []byte("{}")}
	store.objects["chat-feedback/latest/negative_20250121_100000_000.json"] = memObject{data: []byte("{}")}
	store.objects["chat-feedback/2025-01-21/positive_20250121_090000_000.json"] = memObject{data: []byte("{}")}

	now := time.Date(2025, 1, 22, 7, 0, 0, 0, time.UTC)
	a := testArchiver(store, now)
	if _, err := a.Archive(context.Background(), Record{MessageID: "m", Feedback: FeedbackUp}); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	if _, ok := store.objects["chat-feedback/latest/positive_20250121_090000_000.json"]; ok {
		t.Fatal("stale latest object not purged")
	}
	if _, ok := store.objects["chat-feedback/2025-01-21/positive_20250121_090000_000.json"]; !ok {
		t.Fatal("archive object must survive the purge")
	}
	if got := string(store.objects["chat-feedback/latest/.last_cleared"].data); got != "2025-01-22" {
		t.Fatalf("marker = %q", got)
	}
	if _, ok := store.objects["chat-feedback/latest/positive_20250122_070000_000.json"]; !ok {
		t.Fatal("new latest object missing after purge")
	}
}

func TestSameDaySkipsPurge(t *testing.T) {
	store := newMemStore()
	store.objects["chat-feedback/latest/.last_cleared"] = memObject{data: []byte("2025-01-22")}
	store.objects["chat-feedback/latest/positive_20250122_060000_000.json"] = memObject{data: []byte("{}")}

	now := time.Date(2025, 1, 22, 9, 0, 0, 0, time.UTC)
	a := testArchiver(store, now)
	if _, err := a.Archive(context.Background(), Record{MessageID: "m", Feedback: FeedbackUp}); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if _, ok := store.objects["chat-feedback/latest/positive_20250122_060000_000.json"]; !ok {
		t.Fatal("same-day object must not be purged")
	}
}

func TestPurgeFailureDoesNotFailSubmission(t *testing.T) {
	store := newMemStore()
	store.listErr = errors.New("list denied")
	store.downErr = errors.New("marker unreadable")

	a := testArchiver(store, time.Date(2025, 1, 22, 9, 0, 0, 0, time.UTC))
	if _, err := a.Archive(context.Background(), Record{MessageID: "m", Feedback: FeedbackUp}); err != nil {
		t.Fatalf("Archive must succeed despite purge failure: %v", err)
	}
}

func TestUploadFailurePropagates(t *testing.T) {
	store := newMemStore()
	store.uploadErr = errors.New("quota exceeded")

	a := testArchiver(store, time.Now())
	if _, err := a.Archive(context.Background(), Record{MessageID: "m", Feedback: FeedbackUp}); err == nil {
		t.Fatal("want error on upload failure")
	}
}

func TestRecordValidate(t *testing.T) {
	valid := Record{MessageID: "m", Feedback: FeedbackUp}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	cases := map[string]Record{
		"empty messageId": {Feedback: FeedbackUp},
		"long messageId":  {MessageID: strings.Repeat("x", 201), Feedback: FeedbackUp},
		"bad feedback":    {MessageID: "m", Feedback: "sideways"},
		"long reason":     {MessageID: "m", Feedback: FeedbackDown, Reason: strings.Repeat("ย", 501)},
	}
	for name, rec := range cases {
		if err := rec.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func keys(m *memStore) []string {
	var out []string
	for k := range m.objects {
		out = append(out, k)
	}
	return out
}
