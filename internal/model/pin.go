package model

import "time"

// ImageStorage 图片二进制，只存一份
type ImageStorage struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	ContentType string    `gorm:"size:64;not null" json:"content_type"`
	Data        []byte    `gorm:"not null" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ImageStorage) TableName() string { return "image_storage" }

// Picture 逻辑图片：原始 pin 与其所有 repin 共享
type Picture struct {
	ID          int64         `gorm:"primaryKey" json:"id"`
	ImageID     int64         `gorm:"not null;uniqueIndex" json:"image_id"`
	Image       *ImageStorage `gorm:"foreignKey:ImageID" json:"-"`
	OriginalURL string        `gorm:"size:1024" json:"original_url"`
	SourceURL   string        `gorm:"size:1024" json:"source_url"`
	SystemURL   string        `gorm:"size:255" json:"system_url"`
	CreatedAt   time.Time     `json:"created_at"`
}

func (Picture) TableName() string { return "pictures" }

// Pin 图片在某个画板上的一次放置
// OriginalPinID 为空表示原始 pin，否则指向根原始 pin（深度恒为 1）
type Pin struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	BoardID       int64     `gorm:"not null;index:idx_pin_board" json:"board_id"`
	Board         *Board    `gorm:"foreignKey:BoardID" json:"-"`
	PictureID     int64     `gorm:"not null;index:idx_pin_picture" json:"picture_id"`
	Picture       *Picture  `json:"-"`
	UserID        int64     `gorm:"not null;index:idx_pin_user" json:"user_id"`
	User          *User     `json:"-"`
	OriginalPinID *int64    `gorm:"index:idx_pin_original" json:"original_pin_id"`
	OriginalPin   *Pin      `gorm:"foreignKey:OriginalPinID" json:"-"`
	Description   string    `gorm:"type:text" json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Pin) TableName() string { return "pins" }

func (p *Pin) IsOriginal() bool { return p.OriginalPinID == nil }

// RootID 返回该 pin 所属 lineage 的根
func (p *Pin) RootID() int64 {
	if p.OriginalPinID != nil {
		return *p.OriginalPinID
	}
	return p.ID
}

// Tag 规范化（小写、去空白）后的标签
type Tag struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name"`
}

func (Tag) TableName() string { return "tags" }

type PictureTag struct {
	PictureID int64 `gorm:"primaryKey"`
	Picture   *Picture
	TagID     int64 `gorm:"primaryKey;index:idx_picture_tag_tag"`
	Tag       *Tag
}

func (PictureTag) TableName() string { return "picture_tags" }

// Comment 评论
type Comment struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	PinID     int64     `gorm:"not null;index:idx_comment_pin" json:"pin_id"`
	Pin       *Pin      `gorm:"foreignKey:PinID" json:"-"`
	UserID    int64     `gorm:"not null" json:"user_id"`
	User      *User     `json:"-"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (Comment) TableName() string { return "comments" }

// Like 按图片计数，同一用户对同一图片只能点赞一次
type Like struct {
	ID        int64 `gorm:"primaryKey"`
	UserID    int64 `gorm:"not null;uniqueIndex:idx_like_pair"`
	User      *User
	PictureID int64 `gorm:"not null;uniqueIndex:idx_like_pair;index:idx_like_picture"`
	Picture   *Picture
	CreatedAt time.Time
}

func (Like) TableName() string { return "likes" }
