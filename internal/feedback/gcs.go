package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"
)

const (
	contentTypeNDJSON = "application/x-ndjson"
	contentTypeText   = "text/plain"

	// markerName tracks the last date the latest/ folder was cleared.
	markerName = ".last_cleared"

	FeedbackUp   = "up"
	FeedbackDown = "down"
)

// Record is one user feedback submission.
type Record struct {
	MessageID    string `json:"messageId"`
	Feedback     string `json:"feedback"`
	Reason       string `json:"reason,omitempty"`
	UserQuestion string `json:"userQuestion,omitempty"`
	AIAnswer     string `json:"aiAnswer,omitempty"`
}

func (r *Record) Validate() error {
	n := utf8.RuneCountInString(r.MessageID)
	if n < 1 || n > 200 {
		return fmt.Errorf("messageId must be 1-200 characters")
	}
	if r.Feedback != FeedbackUp && r.Feedback != FeedbackDown {
		return fmt.Errorf("feedback must be up or down")
	}
	if utf8.RuneCountInString(r.Reason) > 500 {
		return fmt.Errorf("reason must be at most 500 characters")
	}
	return nil
}

// Receipt describes where a record was stored.
type Receipt struct {
	FeedbackID  string
	ArchivePath string
	StoredAt    string
}

// storedEntry is the persisted shape. CreatedAt is server-assigned so the
// archive is ordered by a single clock.
type storedEntry struct {
	ID string `json:"id"`
	Record
	CreatedAt string `json:"createdAt"`
}

// objectStore is the blob operation surface the archiver needs.
type objectStore interface {
	Upload(ctx context.Context, name, contentType string, data []byte) error
	Download(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// Archiver persists feedback records to object storage in two locations:
// a permanent date-partitioned archive and a latest/ folder holding only
// the current day, purged on the first write of each new day.
type Archiver struct {
	store  objectStore
	prefix string
	logger *log.Logger
	now    func() time.Time
	newID  func() string
}

// NewArchiver builds an archiver on a GCS bucket. The bucket is assumed to
// exist; no existence check or create is attempted.
func NewArchiver(ctx context.Context, ts oauth2.TokenSource, bucket, prefix string) (*Archiver, error) {
	svc, err := storage.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("init storage client: %w", err)
	}
	return newArchiver(&gcsStore{svc: svc, bucket: bucket}, prefix), nil
}

func newArchiver(store objectStore, prefix string) *Archiver {
	return &Archiver{
		store:  store,
		prefix: strings.Trim(prefix, "/"),
		logger: log.New(log.Writer(), "[GCS] ", log.LstdFlags),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Archive stores rec in both the archive and latest locations. The latest/
// purge is best-effort and never fails the submission.
func (a *Archiver) Archive(ctx context.Context, rec Record) (*Receipt, error) {
	now := a.now().UTC()
	dateFolder := now.Format("2006-01-02")

	a.purgeLatest(ctx, dateFolder)

	entry := storedEntry{
		ID:        a.newID(),
		Record:    rec,
		CreatedAt: now.Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("encode feedback: %w", err)
	}

	sentiment := "positive"
	if rec.Feedback == FeedbackDown {
		sentiment = "negative"
	}
	filename := fmt.Sprintf("%s_%s_%03d.json", sentiment, now.Format("20060102_150405"), now.Nanosecond()/1e6)
	archivePath := fmt.Sprintf("%s/%s/%s", a.prefix, dateFolder, filename)
	latestPath := fmt.Sprintf("%s/latest/%s", a.prefix, filename)

	if err := a.store.Upload(ctx, archivePath, contentTypeNDJSON, data); err != nil {
		return nil, fmt.Errorf("store feedback archive: %w", err)
	}
	if err := a.store.Upload(ctx, latestPath, contentTypeNDJSON, data); err != nil {
		return nil, fmt.Errorf("store feedback latest: %w", err)
	}

	a.logger.Printf("feedback stored: %s", archivePath)
	return &Receipt{
		FeedbackID:  entry.ID,
		ArchivePath: archivePath,
		StoredAt:    entry.CreatedAt,
	}, nil
}

// purgeLatest clears the latest/ folder on the first write of a new day,
// tracked by a marker object. Failures are logged and swallowed.
func (a *Archiver) purgeLatest(ctx context.Context, currentDate string) {
	markerPath := fmt.Sprintf("%s/latest/%s", a.prefix, markerName)

	if data, err := a.store.Download(ctx, markerPath); err == nil {
		if strings.TrimSpace(string(data)) == currentDate {
			return
		}
	}

	names, err := a.store.List(ctx, a.prefix+"/latest/")
	if err != nil {
		a.logger.Printf("warning: list latest/ failed: %v", err)
		return
	}
	deleted := 0
	for _, name := range names {
		if strings.HasSuffix(name, markerName) {
			continue
		}
		if err := a.store.Delete(ctx, name); err != nil {
			a.logger.Printf("warning: delete %s failed: %v", name, err)
			continue
		}
		deleted++
	}
	if err := a.store.Upload(ctx, markerPath, contentTypeText, []byte(currentDate)); err != nil {
		a.logger.Printf("warning: update %s failed: %v", markerName, err)
		return
	}
	a.logger.Printf("new day %s, cleared %d objects from %s/latest/", currentDate, deleted, a.prefix)
}

// gcsStore implements objectStore on the GCS JSON API.
type gcsStore struct {
	svc    *storage.Service
	bucket string
}

func (s *gcsStore) Upload(ctx context.Context, name, contentType string, data []byte) error {
	obj := &storage.Object{Name: name}
	_, err := s.svc.Objects.Insert(s.bucket, obj).
		Media(bytes.NewReader(data), googleapi.ContentType(contentType)).
		Context(ctx).Do()
	return err
}

func (s *gcsStore) Download(ctx context.Context, name string) ([]byte, error) {
	resp, err := s.svc.Objects.Get(s.bucket, name).Context(ctx).Download()
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (s *gcsStore) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := s.svc.Objects.List(s.bucket).Prefix(prefix).Pages(ctx, func(page *storage.Objects) error {
		for _, o := range page.Items {
			names = append(names, o.Name)
		}
		return nil
	})
	return names, err
}

func (s *gcsStore) Delete(ctx context.Context, name string) error {
	return s.svc.Objects.Delete(s.bucket, name).Context(ctx).Do()
}
