package repository

import (
	"context"
	"net/url"

	"github.com/noah-isme/cbdms-web/internal/models"
	appErrors "github.com/noah-isme/cbdms-web/pkg/errors"
)

const scheduleResource = "time_schedule/"

// ScheduleRepository reads and writes time schedules through the backend API.
type ScheduleRepository struct {
	api apiCaller
}

// NewScheduleRepository constructs a schedule repository.
func NewScheduleRepository(api apiCaller) *ScheduleRepository {
	return &ScheduleRepository{api: api}
}

// FindByUser returns the stored schedule of the session user. A missing
// schedule surfaces as errors.ErrNotFound. Weekdays absent from the
// response hold the empty marker; a response without an identifier is
// rejected as malformed.
func (r *ScheduleRepository) FindByUser(ctx context.Context, sess models.Session) (*models.ScheduleRecord, error) {
	record := models.ScheduleRecord{Schedule: models.DefaultSchedule()}
	if err := r.api.Get(ctx, sess.Token, scheduleResource+url.PathEscape(sess.UserID), &record); err != nil {
		return nil, err
	}
	if record.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrUpstream, "malformed backend response")
	}
	return &record, nil
}

// Create stores a new schedule for the session user.
func (r *ScheduleRepository) Create(ctx context.Context, sess models.Session, payload models.SchedulePayload) (*models.MutationResult, error) {
	var result models.MutationResult
	if err := r.api.Post(ctx, sess.Token, scheduleResource+url.PathEscape(sess.UserID), payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Update replaces the stored schedule of the session user.
func (r *ScheduleRepository) Update(ctx context.Context, sess models.Session, payload models.SchedulePayload) (*models.MutationResult, error) {
	var result models.MutationResult
	if err := r.api.Patch(ctx, sess.Token, scheduleResource+url.PathEscape(sess.UserID), payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Delete removes the schedule with the given identifier.
func (r *ScheduleRepository) Delete(ctx context.Context, sess models.Session, id string) (*models.MutationResult, error) {
	var result models.MutationResult
	if err := r.api.Delete(ctx, sess.Token, scheduleResource+url.PathEscape(id), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
