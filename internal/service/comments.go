package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"
	"storefront/internal/validation"

	"go.uber.org/zap"
)

const maxCommentLength = 300

// CommentService manages blog comments left by logged-in customers
type CommentService struct {
	state  *State
	logger *zap.Logger
}

// NewCommentService creates a new comment service
func NewCommentService(state *State) *CommentService {
	return &CommentService{
		state:  state,
		logger: util.GetLogger(),
	}
}

// List returns the comments of a post, oldest first
func (c *CommentService) List(ctx context.Context, postID string) []models.BlogComment {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	return append([]models.BlogComment{}, c.state.comments[postID]...)
}

// Add posts a comment as the logged-in customer
func (c *CommentService) Add(ctx context.Context, postID, text string) (models.BlogComment, error) {
	body, errs := checkCommentText(text)
	if !errs.Empty() {
		return models.BlogComment{}, errs
	}

	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	session := c.state.session
	if session == nil {
		return models.BlogComment{}, ErrNotAuthorized
	}

	owner := strings.ToLower(session.Email)
	author := strings.TrimSpace(session.Name)
	if author == "" {
		author, _, _ = strings.Cut(session.Email, "@")
	}

	comment := models.BlogComment{
		ID:          newCommentID(),
		OwnerID:     owner,
		AuthorEmail: owner,
		AuthorName:  author,
		Text:        body,
		CreatedAt:   time.Now().UnixMilli(),
	}
	c.setComments(ctx, postID, append(append([]models.BlogComment{}, c.state.comments[postID]...), comment))

	c.logger.Info("Comment added", zap.String("post_id", postID), zap.String("comment_id", comment.ID))
	return comment, nil
}

// Edit replaces the text of a comment owned by the logged-in customer.
// It reports whether a comment was changed.
func (c *CommentService) Edit(ctx context.Context, postID, id, text string) (bool, error) {
	body, errs := checkCommentText(text)
	if !errs.Empty() {
		return false, errs
	}

	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	idx, err := c.ownedComment(postID, id)
	if err != nil || idx < 0 {
		return false, err
	}

	list := append([]models.BlogComment{}, c.state.comments[postID]...)
	edited := time.Now().UnixMilli()
	list[idx].Text = body
	list[idx].EditedAt = &edited
	c.setComments(ctx, postID, list)
	return true, nil
}

// Delete removes a comment owned by the logged-in customer.
// It reports whether a comment was removed.
func (c *CommentService) Delete(ctx context.Context, postID, id string) (bool, error) {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	idx, err := c.ownedComment(postID, id)
	if err != nil || idx < 0 {
		return false, err
	}

	list := c.state.comments[postID]
	c.setComments(ctx, postID, append(list[:idx:idx], list[idx+1:]...))
	return true, nil
}

// ownedComment finds the comment if the session owns it; -1 otherwise
func (c *CommentService) ownedComment(postID, id string) (int, error) {
	if c.state.session == nil {
		return -1, ErrNotAuthorized
	}
	owner := strings.ToLower(c.state.session.Email)
	for i, cm := range c.state.comments[postID] {
		if cm.ID == id && cm.OwnerID == owner {
			return i, nil
		}
	}
	return -1, nil
}

func (c *CommentService) setComments(ctx context.Context, postID string, list []models.BlogComment) {
	c.state.comments[postID] = list
	c.state.persist(ctx, store.KeyComments, c.state.comments)
}

func checkCommentText(text string) (string, validation.Errors) {
	errs := validation.Errors{}
	body := strings.TrimSpace(text)
	switch {
	case body == "":
		errs.Add("text", "Escribe algo.")
	case utf8.RuneCountInString(body) > maxCommentLength:
		errs.Add("text", "Máximo 300 caracteres.")
	}
	return body, errs
}
