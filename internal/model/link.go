package model

import "time"

// ShortLink は短縮コードと元URLの対応を表す。
// ShortCodeは所有者に関係なく全体で一意。
type ShortLink struct {
	ID        string
	LongURL   string
	ShortCode string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
