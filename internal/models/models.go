package models

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"uniqueIndex;not null"     json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
}

// Token rows reference their owner by id only; use repo.FindTokensByUserID to list them.
type Token struct {
	ID     uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Token  string `gorm:"uniqueIndex;not null"     json:"token"`
	UserID uint   `gorm:"index;not null"           json:"user_id"`
}

func All() []any {
	return []any{&User{}, &Token{}}
}
