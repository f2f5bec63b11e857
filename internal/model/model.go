package model

// All 返回需要迁移的全部模型
func All() []any {
	return []any{
		&User{},
		&Profile{},
		&Friendship{},
		&Board{},
		&FollowStream{},
		&StreamContent{},
		&ImageStorage{},
		&Picture{},
		&Pin{},
		&Tag{},
		&PictureTag{},
		&Comment{},
		&Like{},
	}
}
