package repository

import (
	"context"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/pinboard/internal/model"
)

type PictureRepository interface {
	CreateImage(ctx context.Context, img *model.ImageStorage) error
	CreatePicture(ctx context.Context, p *model.Picture) error
	Get(ctx context.Context, id int64) (*model.Picture, error)
	GetImage(ctx context.Context, id int64) (*model.ImageStorage, error)
	Delete(ctx context.Context, id int64) (int64, error)
	DeleteImage(ctx context.Context, id int64) (int64, error)
}

type pictureRepository struct {
	db *gorm.DB
}

func NewPictureRepository(db *gorm.DB) PictureRepository { return &pictureRepository{db: db} }

func (r *pictureRepository) CreateImage(ctx context.Context, img *model.ImageStorage) error {
	return r.db.WithContext(ctx).Create(img).Error
}

func (r *pictureRepository) CreatePicture(ctx context.Context, p *model.Picture) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *pictureRepository) Get(ctx context.Context, id int64) (*model.Picture, error) {
	var p model.Picture
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pictureRepository) GetImage(ctx context.Context, id int64) (*model.ImageStorage, error) {
	var img model.ImageStorage
	if err := r.db.WithContext(ctx).First(&img, id).Error; err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *pictureRepository) Delete(ctx context.Context, id int64) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&model.Picture{}, id)
	return res.RowsAffected, res.Error
}

func (r *pictureRepository) DeleteImage(ctx context.Context, id int64) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&model.ImageStorage{}, id)
	return res.RowsAffected, res.Error
}

type TagRepository interface {
	// Ensure 幂等写入标签并返回对应行，names 需已规范化
	Ensure(ctx context.Context, names []string) ([]model.Tag, error)
	Link(ctx context.Context, pictureID int64, tagIDs []int64) error
	Unlink(ctx context.Context, pictureID int64) (int64, error)
	ForPictures(ctx context.Context, pictureIDs []int64) (map[int64][]string, error)
	Count(ctx context.Context) (int64, error)
}

type tagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) TagRepository { return &tagRepository{db: db} }

func (r *tagRepository) Ensure(ctx context.Context, names []string) ([]model.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}
	rows := make([]model.Tag, len(names))
	for i, n := range names {
		rows[i] = model.Tag{Name: n}
	}
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&rows).Error; err != nil {
		return nil, err
	}
	var tags []model.Tag
	if err := db.Where("name IN ?", names).Order("name").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) Link(ctx context.Context, pictureID int64, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}
	links := make([]model.PictureTag, len(tagIDs))
	for i, id := range tagIDs {
		links[i] = model.PictureTag{PictureID: pictureID, TagID: id}
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
}

func (r *tagRepository) Unlink(ctx context.Context, pictureID int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("picture_id = ?", pictureID).Delete(&model.PictureTag{})
	return res.RowsAffected, res.Error
}

func (r *tagRepository) ForPictures(ctx context.Context, pictureIDs []int64) (map[int64][]string, error) {
	out := make(map[int64][]string, len(pictureIDs))
	if len(pictureIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		PictureID int64
		Name      string
	}
	err := r.db.WithContext(ctx).Table("picture_tags AS pt").
		Select("pt.picture_id, t.name").
		Joins("JOIN tags t ON t.id = pt.tag_id").
		Where("pt.picture_id IN ?", pictureIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.PictureID] = append(out[row.PictureID], row.Name)
	}
	for id := range out {
		sort.Strings(out[id])
	}
	return out, nil
}

func (r *tagRepository) Count(ctx context.Context) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Tag{}).Count(&cnt).Error
	return cnt, err
}
