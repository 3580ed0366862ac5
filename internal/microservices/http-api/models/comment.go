package models

import "time"

// Comment is one node of a post's nested-set tree. Lft/Rgt define the
// node's interval and Level its depth; all three are owned by the
// comment repository and must never be written outside its transactions.
type Comment struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	PostID    int64     `json:"post_id" gorm:"not null;index:idx_comments_post_lft,priority:1;index:idx_comments_post_parent,priority:1"`
	ParentID  *int64    `json:"parent_id" gorm:"index:idx_comments_post_parent,priority:2"` // nil for root comments
	AuthorID  string    `json:"author_id" gorm:"type:uuid;not null;index"`
	Content   string    `json:"content" gorm:"not null;type:text"`
	IsBlocked bool      `json:"is_blocked" gorm:"default:false"`
	Lft       int       `json:"lft" gorm:"not null;index:idx_comments_post_lft,priority:2"`
	Rgt       int       `json:"rgt" gorm:"not null"`
	Level     int       `json:"level" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`

	// Associations
	Author User  `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE;"`
	Post   *Post `json:"post,omitempty" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE;"`
}

func (Comment) TableName() string {
	return "comments"
}

// IsLeaf reports whether the node has no descendants.
func (c *Comment) IsLeaf() bool {
	return c.Rgt == c.Lft+1
}

// Width is the size of the node's interval including itself.
func (c *Comment) Width() int {
	return c.Rgt - c.Lft + 1
}
