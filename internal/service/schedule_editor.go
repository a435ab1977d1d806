package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/cbdms-web/internal/models"
	"github.com/noah-isme/cbdms-web/pkg/apiclient"
	appErrors "github.com/noah-isme/cbdms-web/pkg/errors"
	"github.com/noah-isme/cbdms-web/pkg/validation"
)

const (
	msgOperationFailed = "Operation failed."
	msgScheduleSaved   = "Time schedule saved."
	msgScheduleDeleted = "Time schedule deleted."
)

var errEditorBusy = appErrors.Clone(appErrors.ErrConflict, "another schedule operation is in progress")

type scheduleRepository interface {
	FindByUser(ctx context.Context, sess models.Session) (*models.ScheduleRecord, error)
	Create(ctx context.Context, sess models.Session, payload models.SchedulePayload) (*models.MutationResult, error)
	Update(ctx context.Context, sess models.Session, payload models.SchedulePayload) (*models.MutationResult, error)
	Delete(ctx context.Context, sess models.Session, id string) (*models.MutationResult, error)
}

type noopNotifier struct{}

func (noopNotifier) Notify(models.NotificationLevel, string) {}

// ScheduleEditor owns one user's weekly grid and its lifecycle:
// idle -> loading -> viewing | editing | failed.
//
// Network calls run without holding the lock. Every call captures the
// editor generation first and only applies its result when the generation
// is unchanged, so responses that arrive after Bind or a newer Load are
// dropped with ErrStaleResponse.
type ScheduleEditor struct {
	mu         sync.Mutex
	session    models.Session
	state      models.EditorState
	scheduleID string
	schedule   models.Schedule
	lastError  string
	busy       bool
	generation uint64
	cancel     context.CancelFunc

	repo     scheduleRepository
	papers   PaperSource
	notifier Notifier
	validate *validation.Validator
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewScheduleEditor constructs an idle editor for sess.
func NewScheduleEditor(sess models.Session, repo scheduleRepository, papers PaperSource, notifier Notifier, validate *validation.Validator, metrics *MetricsService, logger *zap.Logger) *ScheduleEditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &ScheduleEditor{
		session:  sess,
		state:    models.EditorIdle,
		schedule: models.DefaultSchedule(),
		repo:     repo,
		papers:   papers,
		notifier: notifier,
		validate: validate,
		metrics:  metrics,
		logger:   logger,
	}
}

// View returns a snapshot of the editor for rendering.
func (e *ScheduleEditor) View() models.EditorView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked()
}

func (e *ScheduleEditor) viewLocked() models.EditorView {
	v := models.EditorView{
		State:      e.state,
		UserID:     e.session.UserID,
		ScheduleID: e.scheduleID,
		Options:    e.options(),
		Error:      e.lastError,
		Locked:     e.state != models.EditorEditing,
		CanEdit:    e.state == models.EditorViewing && !e.busy,
		CanSave:    e.state == models.EditorEditing && !e.busy,
		CanDelete:  e.state == models.EditorViewing && e.scheduleID != "" && !e.busy,
	}
	if e.state.Loaded() {
		grid := e.schedule
		v.Schedule = &grid
	}
	return v
}

func (e *ScheduleEditor) options() []models.Paper {
	if e.papers == nil {
		return []models.Paper{}
	}
	return e.papers.Papers()
}

// Bind switches the editor to sess. When the identity changes the in-flight
// fetch is cancelled, pending results are discarded and the editor returns
// to idle.
func (e *ScheduleEditor) Bind(sess models.Session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sess.UserID != e.session.UserID {
		e.invalidateLocked()
		e.state = models.EditorIdle
		e.scheduleID = ""
		e.schedule = models.DefaultSchedule()
		e.lastError = ""
	}
	e.session = sess
}

func (e *ScheduleEditor) logLocked() *zap.Logger {
	return e.logger.With(zap.String("user_id", e.session.UserID))
}

func (e *ScheduleEditor) invalidateLocked() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.generation++
}

// EnsureLoaded starts the first load of an idle editor. Editors that have
// already loaded, or are loading, are returned as they are.
func (e *ScheduleEditor) EnsureLoaded(ctx context.Context) (models.EditorView, error) {
	e.mu.Lock()
	if e.state != models.EditorIdle {
		v := e.viewLocked()
		e.mu.Unlock()
		return v, nil
	}
	fetchCtx, gen, sess, done := e.beginLoadLocked(ctx)
	e.mu.Unlock()
	defer done()
	return e.finishLoad(fetchCtx, gen, sess)
}

// Load fetches the stored schedule. A 404 means the user has none yet and
// opens an empty grid for editing. Any other failure moves the editor to
// failed with an inline error. Load never retries.
func (e *ScheduleEditor) Load(ctx context.Context) (models.EditorView, error) {
	e.mu.Lock()
	if e.busy {
		v := e.viewLocked()
		e.mu.Unlock()
		return v, errEditorBusy
	}
	fetchCtx, gen, sess, done := e.beginLoadLocked(ctx)
	e.mu.Unlock()
	defer done()
	return e.finishLoad(fetchCtx, gen, sess)
}

// Reload is the user-triggered form of Load.
func (e *ScheduleEditor) Reload(ctx context.Context) (models.EditorView, error) {
	return e.Load(ctx)
}

func (e *ScheduleEditor) beginLoadLocked(ctx context.Context) (context.Context, uint64, models.Session, context.CancelFunc) {
	e.invalidateLocked()
	fetchCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.state = models.EditorLoading
	e.lastError = ""
	return fetchCtx, e.generation, e.session, cancel
}

func (e *ScheduleEditor) finishLoad(ctx context.Context, gen uint64, sess models.Session) (models.EditorView, error) {
	record, err := e.repo.FindByUser(ctx, sess)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation {
		e.metrics.ObserveEditorAction("load", "stale")
		return e.viewLocked(), appErrors.ErrStaleResponse
	}
	e.cancel = nil

	switch {
	case err == nil:
		e.scheduleID = record.ID
		e.schedule = record.Schedule
		e.state = models.EditorViewing
		e.metrics.ObserveEditorAction("load", "ok")
	case errors.Is(err, appErrors.ErrNotFound):
		e.scheduleID = ""
		e.schedule = models.DefaultSchedule()
		e.state = models.EditorEditing
		e.metrics.ObserveEditorAction("load", "not_found")
	default:
		e.state = models.EditorFailed
		e.lastError = appErrors.FromError(err).Message
		e.metrics.ObserveEditorAction("load", "error")
		e.logLocked().Warn("schedule load failed", zap.Int("backend_status", apiclient.StatusCode(err)), zap.Error(err))
		e.notifier.Notify(models.NotificationError, msgOperationFailed)
		return e.viewLocked(), err
	}
	return e.viewLocked(), nil
}

// Unlock moves a viewed schedule into editing.
func (e *ScheduleEditor) Unlock() (models.EditorView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy {
		return e.viewLocked(), errEditorBusy
	}
	if e.state != models.EditorViewing {
		return e.viewLocked(), appErrors.Clone(appErrors.ErrInvalidTransition, "schedule is not in view mode")
	}
	e.state = models.EditorEditing
	e.metrics.ObserveEditorAction("unlock", "ok")
	return e.viewLocked(), nil
}

// SetSlot replaces exactly one slot. The value must be the empty marker, a
// paper name from the published list, or the slot's current value.
// Rejected edits leave the grid untouched.
func (e *ScheduleEditor) SetSlot(edit models.SlotEdit) (models.EditorView, error) {
	edit.Day = strings.ToLower(strings.TrimSpace(edit.Day))
	edit.Value = strings.TrimSpace(edit.Value)
	if edit.Value == "" {
		edit.Value = models.EmptySlot
	}
	if err := e.validate.Struct(edit); err != nil {
		return e.View(), appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot edit: "+e.validate.Describe(err))
	}
	day, _ := models.ParseWeekday(edit.Day)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy {
		return e.viewLocked(), errEditorBusy
	}
	if e.state != models.EditorEditing {
		return e.viewLocked(), appErrors.Clone(appErrors.ErrInvalidTransition, "schedule is locked")
	}

	current, _ := e.schedule.Slot(day, *edit.Index)
	if !e.allowedValue(edit.Value, current) {
		return e.viewLocked(), appErrors.Clone(appErrors.ErrValidation, "unknown paper "+edit.Value)
	}
	updated, err := e.schedule.WithSlot(day, *edit.Index, edit.Value)
	if err != nil {
		return e.viewLocked(), appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot edit")
	}
	e.schedule = updated
	return e.viewLocked(), nil
}

func (e *ScheduleEditor) allowedValue(value, current string) bool {
	if value == models.EmptySlot || value == current {
		return true
	}
	for _, p := range e.options() {
		if p.Name == value {
			return true
		}
	}
	return false
}

// Save persists the grid. Without a stored identifier it creates the
// schedule, otherwise it updates it. On success the grid is locked again.
// On failure the editor stays in editing and keeps the edits.
func (e *ScheduleEditor) Save(ctx context.Context) (models.EditorView, error) {
	e.mu.Lock()
	if e.busy {
		v := e.viewLocked()
		e.mu.Unlock()
		return v, errEditorBusy
	}
	if e.state != models.EditorEditing {
		v := e.viewLocked()
		e.mu.Unlock()
		return v, appErrors.Clone(appErrors.ErrInvalidTransition, "schedule is not being edited")
	}
	payload := models.SchedulePayload{User: e.session.UserID, Schedule: e.schedule}
	if err := e.validate.Struct(payload); err != nil {
		v := e.viewLocked()
		e.mu.Unlock()
		return v, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload: "+e.validate.Describe(err))
	}
	id := e.scheduleID
	gen := e.generation
	sess := e.session
	e.busy = true
	e.mu.Unlock()

	var (
		result *models.MutationResult
		err    error
	)
	if id != "" {
		result, err = e.repo.Update(ctx, sess, payload)
	} else {
		result, err = e.repo.Create(ctx, sess, payload)
		if err == nil {
			id = e.createdID(ctx, sess, result)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.busy = false
	if gen != e.generation {
		e.metrics.ObserveEditorAction("save", "stale")
		return e.viewLocked(), appErrors.ErrStaleResponse
	}
	if err != nil {
		if id != "" && errors.Is(err, appErrors.ErrNotFound) {
			// The stored record is gone; the next save creates a new one.
			e.scheduleID = ""
		}
		e.lastError = appErrors.FromError(err).Message
		e.metrics.ObserveEditorAction("save", "error")
		e.logLocked().Warn("schedule save failed", zap.Int("backend_status", apiclient.StatusCode(err)), zap.Error(err))
		e.notifier.Notify(models.NotificationError, msgOperationFailed)
		return e.viewLocked(), err
	}

	e.scheduleID = id
	e.state = models.EditorViewing
	e.lastError = ""
	e.metrics.ObserveEditorAction("save", "ok")
	e.notifier.Notify(models.NotificationSuccess, messageOr(result, msgScheduleSaved))
	return e.viewLocked(), nil
}

// createdID resolves the identifier of a freshly created schedule, reading
// it back when the create response does not carry one.
func (e *ScheduleEditor) createdID(ctx context.Context, sess models.Session, result *models.MutationResult) string {
	if result != nil && result.ID != "" {
		return result.ID
	}
	record, err := e.repo.FindByUser(ctx, sess)
	if err != nil {
		e.logger.Warn("created schedule id lookup failed", zap.String("user_id", sess.UserID), zap.Error(err))
		return ""
	}
	return record.ID
}

// Delete removes the stored schedule. On success the editor holds the
// default grid without identifier, exactly like a user who never saved.
func (e *ScheduleEditor) Delete(ctx context.Context) (models.EditorView, error) {
	e.mu.Lock()
	if e.busy {
		v := e.viewLocked()
		e.mu.Unlock()
		return v, errEditorBusy
	}
	if e.state != models.EditorViewing || e.scheduleID == "" {
		v := e.viewLocked()
		e.mu.Unlock()
		return v, appErrors.Clone(appErrors.ErrInvalidTransition, "no stored schedule to delete")
	}
	id := e.scheduleID
	gen := e.generation
	sess := e.session
	e.busy = true
	e.mu.Unlock()

	result, err := e.repo.Delete(ctx, sess, id)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.busy = false
	if gen != e.generation {
		e.metrics.ObserveEditorAction("delete", "stale")
		return e.viewLocked(), appErrors.ErrStaleResponse
	}
	if err != nil {
		e.lastError = appErrors.FromError(err).Message
		e.metrics.ObserveEditorAction("delete", "error")
		e.logLocked().Warn("schedule delete failed", zap.String("schedule_id", id), zap.Int("backend_status", apiclient.StatusCode(err)), zap.Error(err))
		e.notifier.Notify(models.NotificationError, msgOperationFailed)
		return e.viewLocked(), err
	}

	e.scheduleID = ""
	e.schedule = models.DefaultSchedule()
	e.state = models.EditorEditing
	e.lastError = ""
	e.metrics.ObserveEditorAction("delete", "ok")
	e.notifier.Notify(models.NotificationSuccess, messageOr(result, msgScheduleDeleted))
	return e.viewLocked(), nil
}

func messageOr(result *models.MutationResult, fallback string) string {
	if result != nil && strings.TrimSpace(result.Message) != "" {
		return result.Message
	}
	return fallback
}
