package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/bloglist/events"
	"github.com/cppla/bloglist/models"
	"github.com/cppla/bloglist/repository"
	"github.com/cppla/bloglist/utils"
)

// CreatePostInput is the payload of a create request. Title and URL are
// required; an empty Author becomes models.DefaultAuthor and a nil Likes becomes 0.
type CreatePostInput struct {
	Title  string
	Author string
	URL    string
	Likes  *int
}

// UpdatePostInput carries a partial update; nil fields are left untouched.
type UpdatePostInput struct {
	Title  *string
	Author *string
	URL    *string
	Likes  *int
}

// PostService lists posts for everyone and lets only the owner change them.
// Create and Delete write the post and the owner's ownedPostIds in one transaction.
type PostService struct {
	store        repository.Store
	tokens       TokenValidator
	events       events.Publisher
	log          *zap.Logger
	writeTimeout time.Duration
}

// PostServiceOption customises a PostService.
type PostServiceOption func(*PostService)

// WithEvents publishes lifecycle events to p after every committed change.
func WithEvents(p events.Publisher) PostServiceOption {
	return func(s *PostService) { s.events = p }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) PostServiceOption {
	return func(s *PostService) { s.log = l }
}

// WithWriteTimeout bounds every write; an expired write fails and is not retried.
func WithWriteTimeout(d time.Duration) PostServiceOption {
	return func(s *PostService) { s.writeTimeout = d }
}

// NewPostService creates a PostService over store, authenticating with tokens.
func NewPostService(store repository.Store, tokens TokenValidator, opts ...PostServiceOption) *PostService {
	s := &PostService{
		store:  store,
		tokens: tokens,
		events: events.Nop{},
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every post with its owner expanded. It needs no authentication.
func (s *PostService) List(ctx context.Context) ([]models.ExpandedPost, error) {
	posts, err := s.store.Posts().FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.ExpandedPost, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Expand())
	}
	return out, nil
}

// Snapshot returns every post as stored, for aggregation.
func (s *PostService) Snapshot(ctx context.Context) ([]models.Post, error) {
	return s.store.Posts().FindAll(ctx)
}

// SnapshotOwnedBy returns the posts in the user's ownedPostIds.
func (s *PostService) SnapshotOwnedBy(ctx context.Context, userID string) ([]models.Post, error) {
	if !models.IsValidID(userID) {
		return nil, ErrMalformedID
	}
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.Posts().FindByIDs(ctx, user.OwnedPostIDs)
}

// Create stores a new post owned by the token's user and appends it to the
// user's ownedPostIds. Both writes commit together or not at all.
func (s *PostService) Create(ctx context.Context, token string, in CreatePostInput) (*models.Post, error) {
	userID, err := s.authenticate(token)
	if err != nil {
		return nil, err
	}

	post, err := newPost(in)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.writeContext(ctx)
	defer cancel()

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		// the row lock serializes concurrent writes by the same user
		owner, err := s.lockUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		post.OwnerID = owner.ID
		if err := tx.Posts().Save(ctx, post); err != nil {
			return err
		}
		return tx.Users().AddOwnedPost(ctx, owner.ID, post.ID)
	})
	if err != nil {
		s.log.Warn("create post failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.log.Info("post created", zap.String("post_id", post.ID), zap.String("user_id", userID))
	s.publish(ctx, events.PostCreated, *post)
	return post, nil
}

// Update applies a partial update to a post owned by the token's user.
// A well-formed id with no post returns (nil, nil).
func (s *PostService) Update(ctx context.Context, token, postID string, in UpdatePostInput) (*models.Post, error) {
	userID, err := s.authenticate(token)
	if err != nil {
		return nil, err
	}
	if !models.IsValidID(postID) {
		return nil, ErrMalformedID
	}

	ctx, cancel := s.writeContext(ctx)
	defer cancel()

	var updated *models.Post
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		user, err := tx.Users().FindByID(ctx, userID)
		if err != nil {
			return userLookupError(err)
		}
		post, err := tx.Posts().FindByIDForUpdate(ctx, postID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if post.OwnerID != user.ID {
			return ErrIncorrectUser
		}

		if err := applyUpdate(post, in); err != nil {
			return err
		}
		if err := tx.Posts().Save(ctx, post); err != nil {
			return err
		}
		updated = post
		return nil
	})
	if err != nil {
		s.log.Warn("update post failed", zap.String("post_id", postID), zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if updated == nil {
		return nil, nil
	}

	s.publish(ctx, events.PostUpdated, *updated)
	return updated, nil
}

// Delete removes a post owned by the token's user together with its
// ownedPostIds entry. Deleting a post that does not exist succeeds.
func (s *PostService) Delete(ctx context.Context, token, postID string) error {
	userID, err := s.authenticate(token)
	if err != nil {
		return err
	}
	if !models.IsValidID(postID) {
		return ErrMalformedID
	}

	ctx, cancel := s.writeContext(ctx)
	defer cancel()

	var deleted *models.Post
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		user, err := s.lockUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		post, err := tx.Posts().FindByIDForUpdate(ctx, postID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if post.OwnerID != user.ID {
			return ErrIncorrectUser
		}

		if err := tx.Posts().Remove(ctx, post.ID); err != nil {
			return err
		}
		if err := tx.Users().RemoveOwnedPost(ctx, post.OwnerID, post.ID); err != nil {
			return err
		}
		deleted = post
		return nil
	})
	if err != nil {
		s.log.Warn("delete post failed", zap.String("post_id", postID), zap.String("user_id", userID), zap.Error(err))
		return err
	}

	if deleted != nil {
		s.log.Info("post deleted", zap.String("post_id", deleted.ID), zap.String("user_id", userID))
		s.publish(ctx, events.PostDeleted, *deleted)
	}
	return nil
}

func (s *PostService) authenticate(token string) (string, error) {
	userID, err := s.tokens.Validate(token)
	if err != nil {
		if _, ok := IsAuthError(err); ok {
			return "", err
		}
		return "", &AuthError{Reason: AuthInvalid, Err: err}
	}
	return userID, nil
}

func (s *PostService) lockUser(ctx context.Context, tx repository.Store, userID string) (*models.User, error) {
	user, err := tx.Users().FindByIDForUpdate(ctx, userID)
	if err != nil {
		return nil, userLookupError(err)
	}
	return user, nil
}

func (s *PostService) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.writeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.writeTimeout)
}

func (s *PostService) publish(ctx context.Context, kind string, post models.Post) {
	if err := s.events.Publish(context.WithoutCancel(ctx), events.NewPostEvent(kind, post)); err != nil {
		s.log.Warn("publish post event failed", zap.String("kind", kind), zap.String("post_id", post.ID), zap.Error(err))
	}
}

// userLookupError maps a missing token user to an authentication failure.
func userLookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &AuthError{Reason: AuthInvalid, Err: fmt.Errorf("token user: %w", err)}
	}
	return err
}

// plainText trims value and rejects it when it carries markup.
func plainText(field, value string) (string, error) {
	text := strings.TrimSpace(value)
	if utils.Sanitize(text) != text {
		return "", NewValidationError(field, field+" must not contain markup")
	}
	return text, nil
}

func newPost(in CreatePostInput) (*models.Post, error) {
	title, err := plainText("title", in.Title)
	if err != nil {
		return nil, err
	}
	if title == "" {
		return nil, NewValidationError("title", "title missing")
	}
	url := strings.TrimSpace(in.URL)
	if url == "" {
		return nil, NewValidationError("url", "url missing")
	}

	author, err := plainText("author", in.Author)
	if err != nil {
		return nil, err
	}
	if author == "" {
		author = models.DefaultAuthor
	}
	likes := 0
	if in.Likes != nil {
		if *in.Likes < 0 {
			return nil, NewValidationError("likes", "likes must not be negative")
		}
		likes = *in.Likes
	}

	return &models.Post{Title: title, Author: author, URL: url, Likes: likes}, nil
}

// applyUpdate validates every field before touching post.
func applyUpdate(post *models.Post, in UpdatePostInput) error {
	next := *post
	if in.Title != nil {
		title, err := plainText("title", *in.Title)
		if err != nil {
			return err
		}
		next.Title = title
	}
	if in.Author != nil {
		author, err := plainText("author", *in.Author)
		if err != nil {
			return err
		}
		next.Author = author
	}
	if in.URL != nil {
		next.URL = strings.TrimSpace(*in.URL)
	}
	if in.Likes != nil {
		if *in.Likes < 0 {
			return NewValidationError("likes", "likes must not be negative")
		}
		next.Likes = *in.Likes
	}
	*post = next
	return nil
}
