package repository

import (
	"context"
	"net/url"

	"github.com/noah-isme/cbdms-web/internal/models"
)

// PaperRepository lists the papers a teacher may assign.
type PaperRepository struct {
	api apiCaller
}

// NewPaperRepository constructs a paper repository.
func NewPaperRepository(api apiCaller) *PaperRepository {
	return &PaperRepository{api: api}
}

// ListByTeacher returns the ordered paper list of the session user.
func (r *PaperRepository) ListByTeacher(ctx context.Context, sess models.Session) ([]models.Paper, error) {
	papers := make([]models.Paper, 0)
	if err := r.api.Get(ctx, sess.Token, "paper/teacher/"+url.PathEscape(sess.UserID), &papers); err != nil {
		return nil, err
	}
	return papers, nil
}
