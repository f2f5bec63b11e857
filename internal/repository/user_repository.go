package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/pinboard/internal/model"
)

// UserRow 用户搜索结果
type UserRow struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	PictureURL  string `json:"picture_url"`
}

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Taken(ctx context.Context, username, email string) (bool, error)
	Search(ctx context.Context, query string, excludeID int64, limit int) ([]UserRow, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Taken(ctx context.Context, username, email string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *userRepository) Search(ctx context.Context, query string, excludeID int64, limit int) ([]UserRow, error) {
	like := containsPattern(query)
	var rows []UserRow
	err := r.db.WithContext(ctx).Table("users AS u").
		Select("u.id, u.username, COALESCE(p.display_name, '') AS display_name, COALESCE(p.picture_url, '') AS picture_url").
		Joins("LEFT JOIN profiles p ON p.user_id = u.id").
		Where("u.id <> ?", excludeID).
		Where("LOWER(u.username) LIKE ? ESCAPE '!' OR LOWER(p.display_name) LIKE ? ESCAPE '!'", like, like).
		Order("u.username").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

type ProfileRepository interface {
	Get(ctx context.Context, userID int64) (*model.Profile, error)
	Upsert(ctx context.Context, p *model.Profile) error
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository { return &profileRepository{db: db} }

func (r *profileRepository) Get(ctx context.Context, userID int64) (*model.Profile, error) {
	var p model.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert 按 user_id 覆盖写
func (r *profileRepository) Upsert(ctx context.Context, p *model.Profile) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "bio", "picture_url", "updated_at"}),
	}).Create(p).Error
}
