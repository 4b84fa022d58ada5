package models

// Problem is a single practice exercise. Code is nil until something has
// been written for it.
type Problem struct {
	ID         int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Title      string  `gorm:"not null;size:200" json:"title"`
	Difficulty string  `gorm:"not null;size:50" json:"difficulty"`
	Solved     bool    `gorm:"not null;default:false" json:"solved"`
	Code       *string `gorm:"type:text" json:"code"`
}

// CodeOrEmpty returns the stored code, or "" when none has been written.
func (p Problem) CodeOrEmpty() string {
	if p.Code == nil {
		return ""
	}
	return *p.Code
}
