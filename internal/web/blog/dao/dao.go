// Package dao contains all the data access object used in the application.
package dao

import (
	glog "github.com/Laisky/go-utils/v6/log"
	mongoLib "go.mongodb.org/mongo-driver/mongo"

	"github.com/Laisky/laisky-blog-rest/library/db/mongo"
)

const (
	colUsers    = "users"
	colBlogs    = "blogs"
	colComments = "comments"
)

// Blog dao type, stores users, blogs and comments in mongodb
type Blog struct {
	logger glog.Logger
	db     mongo.DB
}

// New create new dao
func New(logger glog.Logger, db mongo.DB) *Blog {
	return &Blog{
		logger: logger.Named("blog_dao"),
		db:     db,
	}
}

// GetUsersCol get users collection
func (d *Blog) GetUsersCol() *mongoLib.Collection {
	return d.db.GetCol(colUsers)
}

// GetBlogsCol get blogs collection
func (d *Blog) GetBlogsCol() *mongoLib.Collection {
	return d.db.GetCol(colBlogs)
}

// GetCommentsCol get comments collection
func (d *Blog) GetCommentsCol() *mongoLib.Collection {
	return d.db.GetCol(colComments)
}
