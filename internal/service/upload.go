package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/PracticalMetal/major-notice/internal/events"
	"github.com/PracticalMetal/major-notice/internal/extract"
	"github.com/PracticalMetal/major-notice/internal/idgen"
	"github.com/PracticalMetal/major-notice/internal/model"
	"github.com/PracticalMetal/major-notice/internal/ocr"
	"github.com/PracticalMetal/major-notice/internal/repository"
	"github.com/PracticalMetal/major-notice/internal/storage"
)

// State is a step of the upload commit.
type State string

const (
	StateIdle       State = "idle"
	StateExtracting State = "extracting"
	StateUploading  State = "uploading"
	StateCommitting State = "committing"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

var transitions = map[State][]State{
	StateIdle:       {StateExtracting, StateFailed},
	StateExtracting: {StateUploading, StateFailed},
	StateUploading:  {StateCommitting, StateFailed},
	StateCommitting: {StateDone, StateFailed},
}

// CanTransition reports whether the commit may move from s to next.
func (s State) CanTransition(next State) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool { return len(transitions[s]) == 0 }

const (
	// ImagePrefix is the blob folder holding uploaded notices.
	ImagePrefix = "images/"
	// DateOfUploadLayout formats the commit date stored on each document.
	DateOfUploadLayout = "02-01-2006"
	// DefaultMaxUploadBytes applies when no limit is configured.
	DefaultMaxUploadBytes = 10 << 20
	// progressStep is the minimum percentage advance between progress events.
	progressStep = 10
)

// UploadRequest is one image submitted by an authenticated user.
type UploadRequest struct {
	UID         string
	Filename    string
	ContentType string
	// Size is the declared length, or -1 when unknown.
	Size int64
	Body io.Reader
}

// UploadService runs the commit that turns an image into a stored notice.
type UploadService interface {
	// Upload extracts text from the image, stores the blob and atomically writes
	// the document, its month bucket copy and the organization counter.
	// Failures after validation are *CommitError values naming the stage.
	Upload(ctx context.Context, req UploadRequest) (*model.Document, error)
}

// URLResolver turns a document id and its blob key into the URL saved on the document.
// The URL must stay valid for the lifetime of the record.
type URLResolver interface {
	URL(ctx context.Context, id, key string) (string, error)
}

// UploadDeps are the collaborators of the upload commit.
type UploadDeps struct {
	OCR    ocr.Engine
	Store  storage.Storage
	URLs   URLResolver
	Users  repository.UserRepository
	Orgs   repository.OrganizationRepository
	Docs   repository.DocumentRepository
	IDs    idgen.Generator
	Events events.Publisher
	// Metrics and Logger are optional.
	Metrics *Metrics
	Logger  *slog.Logger
}

// UploadOptions tune the upload commit.
type UploadOptions struct {
	Language string
	MaxBytes int64
	Location *time.Location
	Now      func() time.Time
}

type uploadService struct {
	UploadDeps
	opts UploadOptions
}

// NewUploadService constructs a new UploadService.
func NewUploadService(deps UploadDeps, opts UploadOptions) UploadService {
	if deps.Events == nil {
		deps.Events = events.Discard
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if opts.Language == "" {
		opts.Language = "eng"
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxUploadBytes
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &uploadService{UploadDeps: deps, opts: opts}
}

// ObjectKey derives the blob key from the client's filename. Uploads with the
// same base name share a key and the later one wins.
func ObjectKey(filename string) (string, error) {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), `\`, "/"))
	switch name {
	case "", ".", "..", "/":
		return "", ErrFilenameRequired
	}
	return ImagePrefix + name, nil
}

func (s *uploadService) Upload(ctx context.Context, req UploadRequest) (*model.Document, error) {
	if req.Body == nil {
		return nil, ErrReaderNil
	}
	key, err := ObjectKey(req.Filename)
	if err != nil {
		return nil, err
	}
	if req.Size > s.opts.MaxBytes {
		return nil, ErrFileTooLarge
	}
	img, err := readLimited(req.Body, s.opts.MaxBytes)
	if err != nil {
		return nil, err
	}
	contentType, err := imageContentType(req.ContentType, img)
	if err != nil {
		return nil, err
	}

	c := &commit{svc: s, ctx: ctx, uid: req.UID, key: key, state: StateIdle,
		log: s.Logger.With("component", "upload", "uid", req.UID, "object_key", key)}

	user, err := s.Users.FindByID(ctx, req.UID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = ErrUserNotFound
		}
		return nil, c.fail(err)
	}
	c.org = user.Organization
	c.log = c.log.With("org", c.org)

	c.advance(StateExtracting)
	text, err := s.OCR.Recognize(ctx, img, s.opts.Language)
	if err != nil {
		return nil, c.fail(fmt.Errorf("ocr: %w", err))
	}
	ext := extract.Extract(text)

	c.advance(StateUploading)
	info, err := s.Store.Put(ctx, key, bytes.NewReader(img), storage.PutObjectOptions{
		Size:        int64(len(img)),
		ContentType: contentType,
		Metadata:    map[string]string{"original-filename": req.Filename},
		Progress:    c.progress,
	})
	if err != nil {
		return nil, c.fail(fmt.Errorf("upload to storage: %w", err))
	}
	c.uploaded = true
	if info.Key != "" {
		c.key = info.Key
	}
	id := s.IDs.NewID()
	imageURL, err := s.URLs.URL(ctx, id, c.key)
	if err != nil {
		return nil, c.fail(fmt.Errorf("resolve url: %w", err))
	}

	c.advance(StateCommitting)
	org, err := s.Orgs.Get(ctx, c.org)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = ErrOrgNotFound
		}
		return nil, c.fail(err)
	}
	c.log.Info("upload_image_count", "image_count", org.ImageCount)

	now := s.opts.Now().In(s.opts.Location)
	doc := &model.Document{
		ID:            id,
		Organization:  c.org,
		ImageURL:      imageURL,
		StoragePath:   c.key,
		UploaderName:  user.FirstName,
		UploaderEmail: user.Email,
		UploaderUID:   user.UID,
		DateOfUpload:  now.Format(DateOfUploadLayout),
		Title:         ext.Heading,
		Info:          ext.Summary,
		EventDate:     ext.EventDate,
		MonthIndex:    int(now.Month()) - 1,
		CreatedAt:     now.UTC(),
	}
	count, err := s.Docs.Commit(ctx, doc)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = ErrOrgNotFound
		}
		return nil, c.fail(fmt.Errorf("commit document: %w", err))
	}

	c.advance(StateDone)
	c.log.Info("upload_committed", "document_id", doc.ID, "image_count", count, "month_index", doc.MonthIndex)
	s.Metrics.commit()
	s.Events.Publish(events.Event{Type: events.TypeCommitted, Organization: c.org, DocumentID: doc.ID, Data: doc})
	return doc, nil
}

// commit tracks one run through the state machine.
type commit struct {
	svc      *uploadService
	ctx      context.Context
	log      *slog.Logger
	uid      string
	org      string
	key      string
	state    State
	uploaded bool
	lastPct  int64
}

func (c *commit) advance(next State) {
	if !c.state.CanTransition(next) {
		panic(fmt.Sprintf("upload: illegal transition %s -> %s", c.state, next))
	}
	c.svc.Metrics.stage(c.state, "ok")
	c.log.Info("upload_stage", "from", string(c.state), "to", string(next))
	c.state = next
	c.publishStage(nil)
}

// fail moves to Failed, undoes the blob write when nothing references it and
// returns the error tagged with the stage that failed.
func (c *commit) fail(err error) error {
	stage := c.state
	c.svc.Metrics.stage(stage, "failed")
	c.log.Error("upload_failed", "stage", string(stage), "error_message", err.Error())
	c.state = StateFailed
	c.publishStage(err)

	if c.uploaded {
		if cerr := c.compensate(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	return &CommitError{Stage: stage, Err: err}
}

func (c *commit) compensate() error {
	ctx := context.WithoutCancel(c.ctx)
	n, err := c.svc.Docs.CountByStoragePath(ctx, c.key)
	if err != nil {
		c.log.Error("upload_rollback_failed", "error_message", err.Error())
		return fmt.Errorf("rollback check failed: %w", err)
	}
	if n > 0 {
		c.log.Info("upload_rollback_skipped", "references", n)
		return nil
	}
	if err := c.svc.Store.Delete(ctx, c.key); err != nil {
		c.log.Error("upload_rollback_failed", "error_message", err.Error())
		return fmt.Errorf("rollback delete failed: %w", err)
	}
	c.log.Info("upload_rollback_done")
	return nil
}

func (c *commit) publishStage(err error) {
	if c.org == "" {
		return
	}
	data := map[string]any{"uid": c.uid, "state": string(c.state)}
	if err != nil {
		data["error"] = err.Error()
	}
	c.svc.Events.Publish(events.Event{Type: events.TypeStage, Organization: c.org, Data: data})
}

func (c *commit) progress(read, total int64) {
	if total <= 0 || c.org == "" {
		return
	}
	pct := read * 100 / total
	if pct < c.lastPct+progressStep && read < total {
		return
	}
	c.lastPct = pct
	c.svc.Events.Publish(events.Event{
		Type:         events.TypeProgress,
		Organization: c.org,
		Data:         map[string]any{"uid": c.uid, "key": c.key, "bytes": read, "total": total, "percent": pct},
	})
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(b)) > limit {
		return nil, ErrFileTooLarge
	}
	if len(b) == 0 {
		return nil, ErrEmptyFile
	}
	return b, nil
}

// imageContentType trusts a declared image type and sniffs the bytes otherwise.
func imageContentType(declared string, img []byte) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(declared))
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(img)
	}
	if !strings.HasPrefix(ct, "image/") {
		return "", ErrInvalidContentType
	}
	return ct, nil
}
