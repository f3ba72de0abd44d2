package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cppla/bloglist/events"
	"github.com/cppla/bloglist/models"
	"github.com/cppla/bloglist/repository"
	"github.com/cppla/bloglist/services"
	"github.com/cppla/bloglist/utils"
)

func validInput() services.CreatePostInput {
	return services.CreatePostInput{
		Title:  "React patterns",
		Author: "Michael Chan",
		URL:    "https://reactpatterns.com/",
		Likes:  intPtr(7),
	}
}

func TestCreateStoresPostAndOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, token := f.signUp(t, "root")

	post, err := f.posts.Create(ctx, token, validInput())
	require.NoError(t, err)
	assert.True(t, models.IsValidID(post.ID))
	assert.Equal(t, user.ID, post.OwnerID)
	assert.Equal(t, 7, post.Likes)

	list, err := f.posts.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "React patterns", list[0].Title)
	assert.Equal(t, user.ID, list[0].Owner.ID)
	assert.Equal(t, "root", list[0].Owner.Username)

	assert.Equal(t, []string{post.ID}, f.ownedIDs(t, user.ID))
}

func TestCreateDefaults(t *testing.T) {
	f := newFixture(t)
	_, token := f.signUp(t, "root")

	post, err := f.posts.Create(context.Background(), token, services.CreatePostInput{
		Title: "Type wars",
		URL:   "http://blog.cleancoder.com/uncle-bob/2016/05/01/TypeWars.html",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultAuthor, post.Author)
	assert.Equal(t, 0, post.Likes)
}

func TestCreateRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name  string
		input services.CreatePostInput
		field string
	}{
		{"no title", services.CreatePostInput{URL: "http://x"}, "title"},
		{"blank title", services.CreatePostInput{Title: "   ", URL: "http://x"}, "title"},
		{"no url", services.CreatePostInput{Title: "t"}, "url"},
		{"negative likes", services.CreatePostInput{Title: "t", URL: "http://x", Likes: intPtr(-1)}, "likes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			user, token := f.signUp(t, "root")

			_, err := f.posts.Create(context.Background(), token, tt.input)
			var valErr *services.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Equal(t, tt.field, valErr.Field)

			list, err := f.posts.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, list)
			assert.Empty(t, f.ownedIDs(t, user.ID))
		})
	}
}

func TestCreateKeepsPlainText(t *testing.T) {
	f := newFixture(t)
	_, token := f.signUp(t, "root")

	post, err := f.posts.Create(context.Background(), token, services.CreatePostInput{
		Title:  " Tom & Jerry: a < b ",
		Author: `Bob "the builder"`,
		URL:    " http://x ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Tom & Jerry: a < b", post.Title)
	assert.Equal(t, `Bob "the builder"`, post.Author)
	assert.Equal(t, "http://x", post.URL)

	stored, err := f.store.Posts().FindByID(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.Title, stored.Title)
}

func TestCreateRejectsMarkup(t *testing.T) {
	f := newFixture(t)
	user, token := f.signUp(t, "root")

	tests := map[string]struct {
		input services.CreatePostInput
		field string
	}{
		"generic title": {services.CreatePostInput{Title: "Generics <T> in Go", URL: "u"}, "title"},
		"script title":  {services.CreatePostInput{Title: "<script>alert(1)</script>", URL: "u"}, "title"},
		"bold author":   {services.CreatePostInput{Title: "t", Author: "<b>Bob</b>", URL: "u"}, "author"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := f.posts.Create(context.Background(), token, tt.input)
			var valErr *services.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Equal(t, tt.field, valErr.Field)
		})
	}

	list, err := f.posts.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.ownedIDs(t, user.ID))
}

func TestAuthenticationFailures(t *testing.T) {
	f := newFixture(t)
	user, _ := f.signUp(t, "root")
	ctx := context.Background()

	expired, err := utils.GenerateToken(testSecret, user.ID, user.Username, -time.Minute)
	require.NoError(t, err)
	foreign, err := utils.GenerateToken("another-secret", user.ID, user.Username, time.Hour)
	require.NoError(t, err)
	ghost, err := utils.GenerateToken(testSecret, uuid.NewString(), "ghost", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		reason services.AuthReason
	}{
		{"missing", "", services.AuthMissing},
		{"garbage", "not-a-jwt", services.AuthInvalid},
		{"wrong secret", foreign, services.AuthInvalid},
		{"expired", expired, services.AuthExpired},
		{"unknown user", ghost, services.AuthInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.posts.Create(ctx, tt.token, validInput())
			authErr, ok := services.IsAuthError(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tt.reason, authErr.Reason)
		})
	}

	list, err := f.posts.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTokenIsCheckedBeforeID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.posts.Update(ctx, "", "6", services.UpdatePostInput{})
	_, ok := services.IsAuthError(err)
	assert.True(t, ok)

	err = f.posts.Delete(ctx, "", "6")
	_, ok = services.IsAuthError(err)
	assert.True(t, ok)
}

func TestMalformedID(t *testing.T) {
	f := newFixture(t)
	_, token := f.signUp(t, "root")
	ctx := context.Background()

	for _, id := range []string{"6", "not-a-uuid", uuid.NewString() + "0"} {
		err := f.posts.Delete(ctx, token, id)
		assert.ErrorIs(t, err, services.ErrMalformedID, id)

		_, err = f.posts.Update(ctx, token, id, services.UpdatePostInput{Likes: intPtr(1)})
		assert.ErrorIs(t, err, services.ErrMalformedID, id)
	}
}

func TestDeleteByOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, token := f.signUp(t, "root")

	keep, err := f.posts.Create(ctx, token, validInput())
	require.NoError(t, err)
	gone, err := f.posts.Create(ctx, token, validInput())
	require.NoError(t, err)

	require.NoError(t, f.posts.Delete(ctx, token, gone.ID))

	_, err = f.store.Posts().FindByID(ctx, gone.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, []string{keep.ID}, f.ownedIDs(t, user.ID))
}

func TestDeleteByOtherUserIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, ownerToken := f.signUp(t, "root")
	_, otherToken := f.signUp(t, "mluukkai")

	post, err := f.posts.Create(ctx, ownerToken, validInput())
	require.NoError(t, err)

	err = f.posts.Delete(ctx, otherToken, post.ID)
	assert.ErrorIs(t, err, services.ErrIncorrectUser)

	stored, err := f.store.Posts().FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, stored.OwnerID)
	assert.Equal(t, []string{post.ID}, f.ownedIDs(t, owner.ID))
}

func TestDeleteIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, token := f.signUp(t, "root")

	assert.NoError(t, f.posts.Delete(ctx, token, uuid.NewString()))

	post, err := f.posts.Create(ctx, token, validInput())
	require.NoError(t, err)
	require.NoError(t, f.posts.Delete(ctx, token, post.ID))
	assert.NoError(t, f.posts.Delete(ctx, token, post.ID))
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, token := f.signUp(t, "root")
	_, otherToken := f.signUp(t, "mluukkai")

	post, err := f.posts.Create(ctx, token, validInput())
	require.NoError(t, err)

	t.Run("partial", func(t *testing.T) {
		updated, err := f.posts.Update(ctx, token, post.ID, services.UpdatePostInput{Likes: intPtr(8)})
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, 8, updated.Likes)
		assert.Equal(t, "React patterns", updated.Title)
		assert.Equal(t, "Michael Chan", updated.Author)
	})

	t.Run("empty title is accepted", func(t *testing.T) {
		updated, err := f.posts.Update(ctx, token, post.ID, services.UpdatePostInput{Title: strPtr("")})
		require.NoError(t, err)
		assert.Equal(t, "", updated.Title)
	})

	t.Run("negative likes", func(t *testing.T) {
		_, err := f.posts.Update(ctx, token, post.ID, services.UpdatePostInput{Title: strPtr("changed"), Likes: intPtr(-3)})
		assert.True(t, services.IsValidationError(err))

		stored, err := f.store.Posts().FindByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "", stored.Title)
		assert.Equal(t, 8, stored.Likes)
	})

	t.Run("markup in title", func(t *testing.T) {
		_, err := f.posts.Update(ctx, token, post.ID, services.UpdatePostInput{Title: strPtr("Generics <T> in Go")})
		var valErr *services.ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Equal(t, "title", valErr.Field)
	})

	t.Run("other user with invalid payload", func(t *testing.T) {
		_, err := f.posts.Update(ctx, otherToken, post.ID, services.UpdatePostInput{Likes: intPtr(-1)})
		assert.ErrorIs(t, err, services.ErrIncorrectUser)
	})

	t.Run("absent post with invalid payload", func(t *testing.T) {
		updated, err := f.posts.Update(ctx, token, uuid.NewString(), services.UpdatePostInput{Likes: intPtr(-1)})
		assert.NoError(t, err)
		assert.Nil(t, updated)
	})

	t.Run("other user", func(t *testing.T) {
		_, err := f.posts.Update(ctx, otherToken, post.ID, services.UpdatePostInput{Likes: intPtr(100)})
		assert.ErrorIs(t, err, services.ErrIncorrectUser)

		stored, err := f.store.Posts().FindByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, 8, stored.Likes)
	})

	t.Run("absent post", func(t *testing.T) {
		updated, err := f.posts.Update(ctx, token, uuid.NewString(), services.UpdatePostInput{Likes: intPtr(1)})
		assert.NoError(t, err)
		assert.Nil(t, updated)
	})
}

func TestConcurrentCreatesBySameUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, token := f.signUp(t, "root")

	const n = 8
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			post, err := f.posts.Create(ctx, token, validInput())
			if assert.NoError(t, err) {
				ids <- post.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	var created []string
	for id := range ids {
		created = append(created, id)
	}
	require.Len(t, created, n)
	assert.ElementsMatch(t, created, f.ownedIDs(t, user.ID))
}

type errOwnedUsers struct {
	repository.UserRepository
	err error
}

func (u errOwnedUsers) AddOwnedPost(context.Context, string, string) error { return u.err }

// errOwnedStore fails every ownership append, inside or outside transactions.
type errOwnedStore struct {
	repository.Store
	err error
}

func (s errOwnedStore) Users() repository.UserRepository {
	return errOwnedUsers{UserRepository: s.Store.Users(), err: s.err}
}

func (s errOwnedStore) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.WithinTx(ctx, func(tx repository.Store) error {
		return fn(errOwnedStore{Store: tx, err: s.err})
	})
}

func TestCreateRollsBackWhenOwnershipFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, token := f.signUp(t, "root")
	boom := errors.New("owned_posts unavailable")

	posts := services.NewPostService(errOwnedStore{Store: f.store, err: boom}, services.NewJWTValidator(testSecret))
	_, err := posts.Create(ctx, token, validInput())
	require.ErrorIs(t, err, boom)

	list, err := f.posts.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.ownedIDs(t, user.ID))
}

func TestLifecycleEventsArePublished(t *testing.T) {
	pub := &mockPublisher{}
	f := newFixture(t, services.WithEvents(pub))
	ctx := context.Background()
	user, token := f.signUp(t, "root")

	kind := func(k string) interface{} {
		return mock.MatchedBy(func(e events.PostEvent) bool { return e.Kind == k && e.OwnerID == user.ID })
	}
	pub.On("Publish", mock.Anything, kind(events.PostCreated)).Return(nil).Once()
	pub.On("Publish", mock.Anything, kind(events.PostUpdated)).Return(errors.New("bus down")).Once()
	pub.On("Publish", mock.Anything, kind(events.PostDeleted)).Return(nil).Once()

	post, err := f.posts.Create(ctx, token, validInput())
	require.NoError(t, err)
	// a failed publish does not fail the committed write
	_, err = f.posts.Update(ctx, token, post.ID, services.UpdatePostInput{Likes: intPtr(1)})
	require.NoError(t, err)
	require.NoError(t, f.posts.Delete(ctx, token, post.ID))
	// nothing to publish for an absent post
	require.NoError(t, f.posts.Delete(ctx, token, post.ID))

	pub.AssertExpectations(t)
	pub.AssertNumberOfCalls(t, "Publish", 3)
}

func TestSnapshotOwnedBy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, token := f.signUp(t, "root")
	_, otherToken := f.signUp(t, "mluukkai")

	mine, err := f.posts.Create(ctx, token, validInput())
	require.NoError(t, err)
	_, err = f.posts.Create(ctx, otherToken, validInput())
	require.NoError(t, err)

	posts, err := f.posts.SnapshotOwnedBy(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, mine.ID, posts[0].ID)

	all, err := f.posts.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.posts.SnapshotOwnedBy(ctx, "6")
	assert.ErrorIs(t, err, services.ErrMalformedID)
	_, err = f.posts.SnapshotOwnedBy(ctx, uuid.NewString())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
