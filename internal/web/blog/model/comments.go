package model

import (
	"time"

	gutils "github.com/Laisky/go-utils/v6"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment represents a comment in the blog
type Comment struct {
	// ID is the unique identifier for the comment
	ID primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	// BlogID is the blog this comment belongs to
	BlogID primitive.ObjectID `bson:"blog" json:"blog"`
	// AuthorID is the user who wrote the comment
	AuthorID primitive.ObjectID `bson:"author" json:"authorId"`
	// Text is the trimmed body of the comment
	Text string `bson:"text" json:"text"`
	// ParentID references the parent comment, nil for top-level comments
	ParentID *primitive.ObjectID `bson:"parentComment,omitempty" json:"parentComment,omitempty"`
	// ReplyIDs ids of direct replies
	ReplyIDs []primitive.ObjectID `bson:"replies" json:"replyIds"`
	Likes    []primitive.ObjectID `bson:"likes" json:"likes"`
	Dislikes []primitive.ObjectID `bson:"dislikes" json:"dislikes"`
	// CreatedAt records when the comment was first submitted
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`

	// Not stored in database, populated at runtime when retrieving comments
	Author  *Profile   `bson:"-" json:"author,omitempty"`
	Replies []*Comment `bson:"-" json:"replies"`
}

// Collection returns the name of the MongoDB collection for comments
func (Comment) Collection() string {
	return "comments"
}

// IsRoot whether c is a top-level comment
func (c *Comment) IsRoot() bool {
	return c.ParentID == nil
}

// NewComment create a new comment
func NewComment(blogID, authorID primitive.ObjectID, text string) *Comment {
	now := gutils.Clock.GetUTCNow()
	return &Comment{
		ID:        primitive.NewObjectID(),
		BlogID:    blogID,
		AuthorID:  authorID,
		Text:      text,
		ReplyIDs:  []primitive.ObjectID{},
		Likes:     []primitive.ObjectID{},
		Dislikes:  []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
		Replies:   []*Comment{},
	}
}

// Reaction kind of comment reaction
type Reaction string

const (
	// ReactionLike thumbs up
	ReactionLike Reaction = "like"
	// ReactionDislike thumbs down
	ReactionDislike Reaction = "dislike"
)
