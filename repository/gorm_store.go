package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/bloglist/models"
)

// GormStore implements Store on top of a gorm handle.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps db. The handle's lifecycle stays with the caller.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Models lists the tables the store needs, for AutoMigrate.
func Models() []interface{} {
	return []interface{}{&models.User{}, &models.Post{}, &models.OwnedPost{}}
}

func (s *GormStore) Posts() PostRepository {
	return &gormPostRepository{db: s.db}
}

func (s *GormStore) Users() UserRepository {
	return &gormUserRepository{db: s.db}
}

func (s *GormStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

type gormPostRepository struct {
	db *gorm.DB
}

func (r *gormPostRepository) FindAll(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if err := r.db.WithContext(ctx).Preload("Owner").Order("created_at ASC, id ASC").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (r *gormPostRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Post, error) {
	if len(ids) == 0 {
		return []models.Post{}, nil
	}
	var posts []models.Post
	if err := r.db.WithContext(ctx).Preload("Owner").Where("id IN ?", ids).Order("created_at ASC, id ASC").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts by id: %w", err)
	}
	return posts, nil
}

func (r *gormPostRepository) FindByID(ctx context.Context, id string) (*models.Post, error) {
	return r.first(r.db.WithContext(ctx), id)
}

func (r *gormPostRepository) FindByIDForUpdate(ctx context.Context, id string) (*models.Post, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *gormPostRepository) first(q *gorm.DB, id string) (*models.Post, error) {
	var post models.Post
	if err := q.Where("id = ?", id).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load post %s: %w", id, err)
	}
	return &post, nil
}

func (r *gormPostRepository) Save(ctx context.Context, post *models.Post) error {
	q := r.db.WithContext(ctx).Omit(clause.Associations)
	var err error
	if post.ID == "" {
		err = q.Create(post).Error
	} else {
		err = q.Save(post).Error
	}
	if err != nil {
		return fmt.Errorf("save post: %w", err)
	}
	return nil
}

func (r *gormPostRepository) Remove(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Post{}).Error; err != nil {
		return fmt.Errorf("delete post %s: %w", id, err)
	}
	return nil
}

type gormUserRepository struct {
	db *gorm.DB
}

func (r *gormUserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if user.OwnedPostIDs == nil {
		user.OwnedPostIDs = []string{}
	}
	return nil
}

func (r *gormUserRepository) FindAll(ctx context.Context) ([]models.User, error) {
	db := r.db.WithContext(ctx)
	var users []models.User
	if err := db.Order("created_at ASC, id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	var rows []models.OwnedPost
	if err := db.Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list owned posts: %w", err)
	}
	owned := make(map[string][]string, len(users))
	for _, row := range rows {
		owned[row.UserID] = append(owned[row.UserID], row.PostID)
	}
	for i := range users {
		users[i].OwnedPostIDs = owned[users[i].ID]
		if users[i].OwnedPostIDs == nil {
			users[i].OwnedPostIDs = []string{}
		}
	}
	return users, nil
}

func (r *gormUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, r.db.WithContext(ctx), "id = ?", id)
}

func (r *gormUserRepository) FindByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

func (r *gormUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, r.db.WithContext(ctx), "username = ?", username)
}

func (r *gormUserRepository) first(ctx context.Context, q *gorm.DB, cond string, arg string) (*models.User, error) {
	var user models.User
	if err := q.Where(cond, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	var ids []string
	if err := r.db.WithContext(ctx).Model(&models.OwnedPost{}).
		Where("user_id = ?", user.ID).
		Order("seq ASC").
		Pluck("post_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("load owned posts of %s: %w", user.ID, err)
	}
	if ids == nil {
		ids = []string{}
	}
	user.OwnedPostIDs = ids
	return &user, nil
}

func (r *gormUserRepository) AddOwnedPost(ctx context.Context, userID, postID string) error {
	row := models.OwnedPost{UserID: userID, PostID: postID}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("append owned post %s to %s: %w", postID, userID, err)
	}
	return nil
}

func (r *gormUserRepository) RemoveOwnedPost(ctx context.Context, userID, postID string) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.OwnedPost{}).Error; err != nil {
		return fmt.Errorf("remove owned post %s from %s: %w", postID, userID, err)
	}
	return nil
}
