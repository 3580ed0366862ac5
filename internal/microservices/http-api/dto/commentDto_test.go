package dto

import (
	"testing"

	"postboard/internal/microservices/http-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v int64) *int64 { return &v }

func TestNewCommentForestNestsByParent(t *testing.T) {
	// two roots, the first with a child and a grandchild, sorted by lft
	comments := []models.Comment{
		{ID: 1, PostID: 7, Lft: 1, Rgt: 6, Level: 0, Content: "root"},
		{ID: 2, PostID: 7, ParentID: ptr(1), Lft: 2, Rgt: 5, Level: 1, Content: "child"},
		{ID: 3, PostID: 7, ParentID: ptr(2), Lft: 3, Rgt: 4, Level: 2, Content: "grandchild"},
		{ID: 4, PostID: 7, Lft: 7, Rgt: 8, Level: 0, Content: "second root"},
	}

	forest := NewCommentForest(comments)
	require.Len(t, forest, 2)

	assert.Equal(t, int64(1), forest[0].ID)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, int64(2), forest[0].Children[0].ID)
	require.Len(t, forest[0].Children[0].Children, 1)
	assert.Equal(t, int64(3), forest[0].Children[0].Children[0].ID)

	assert.Equal(t, int64(4), forest[1].ID)
	assert.Empty(t, forest[1].Children)
}

func TestNewCommentForestPreservesSiblingOrder(t *testing.T) {
	comments := []models.Comment{
		{ID: 1, Lft: 1, Rgt: 8, Level: 0},
		{ID: 2, ParentID: ptr(1), Lft: 2, Rgt: 3, Level: 1, Content: "first"},
		{ID: 3, ParentID: ptr(1), Lft: 4, Rgt: 5, Level: 1, Content: "second"},
		{ID: 4, ParentID: ptr(1), Lft: 6, Rgt: 7, Level: 1, Content: "third"},
	}

	forest := NewCommentForest(comments)
	require.Len(t, forest, 1)
	require.Len(t, forest[0].Children, 3)
	assert.Equal(t, "first", forest[0].Children[0].Content)
	assert.Equal(t, "second", forest[0].Children[1].Content)
	assert.Equal(t, "third", forest[0].Children[2].Content)
}

func TestNewCommentForestSurfacesOrphans(t *testing.T) {
	missing := int64(99)
	comments := []models.Comment{
		{ID: 1, Lft: 1, Rgt: 2, Level: 0},
		{ID: 2, ParentID: &missing, Lft: 3, Rgt: 4, Level: 1},
	}

	forest := NewCommentForest(comments)
	assert.Len(t, forest, 2)
}

func TestNewCommentForestEmpty(t *testing.T) {
	forest := NewCommentForest(nil)
	assert.NotNil(t, forest)
	assert.Empty(t, forest)
}
