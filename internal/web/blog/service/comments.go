package service

// -------------------------------------
// nested comments of blogs
// -------------------------------------

import (
	"bytes"
	"context"
	"sort"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/laisky-blog-rest/internal/web/blog/model"
)

func commentNotFound() error {
	return model.NewUserError(model.ErrNotFound, "Comment not found")
}

// buildCommentTree organizes comments into a tree structure.
//
// Roots are returned newest first, replies oldest first, whatever the
// input order. Every comment is attached at most once, so comments whose
// ancestors are missing or form a cycle are dropped.
func buildCommentTree(comments []*model.Comment) []*model.Comment {
	known := make(map[primitive.ObjectID]struct{}, len(comments))
	for _, comment := range comments {
		known[comment.ID] = struct{}{}
		comment.Replies = []*model.Comment{}
	}

	roots := []*model.Comment{}
	children := make(map[primitive.ObjectID][]*model.Comment)
	for _, comment := range comments {
		if comment.ParentID == nil {
			roots = append(roots, comment)
			continue
		}

		if _, ok := known[*comment.ParentID]; ok {
			children[*comment.ParentID] = append(children[*comment.ParentID], comment)
		}
	}
	for _, replies := range children {
		sort.Slice(replies, func(i, j int) bool {
			return olderComment(replies[i], replies[j])
		})
	}

	visited := make(map[primitive.ObjectID]struct{}, len(comments))
	stack := make([]*model.Comment, 0, len(roots))
	for _, root := range roots {
		visited[root.ID] = struct{}{}
		stack = append(stack, root)
	}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range children[node.ID] {
			if _, ok := visited[child.ID]; ok {
				continue
			}

			visited[child.ID] = struct{}{}
			node.Replies = append(node.Replies, child)
			stack = append(stack, child)
		}
	}

	sort.Slice(roots, func(i, j int) bool {
		return olderComment(roots[j], roots[i])
	})

	return roots
}

// olderComment creation order, ties broken by id
func olderComment(a, b *model.Comment) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}

	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

// walkComments visit every comment of the trees
func walkComments(roots []*model.Comment, fn func(*model.Comment)) {
	stack := append([]*model.Comment{}, roots...)
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(node)
		stack = append(stack, node.Replies...)
	}
}

// populateCommentAuthors fill Author of every comment in the trees with one lookup
func (s *Blog) populateCommentAuthors(ctx context.Context, roots ...*model.Comment) error {
	var ids []primitive.ObjectID
	walkComments(roots, func(c *model.Comment) {
		ids = append(ids, c.AuthorID)
	})

	authors, err := s.profiles(ctx, ids)
	if err != nil {
		return err
	}

	walkComments(roots, func(c *model.Comment) {
		c.Author = authors[c.AuthorID]
		if c.Replies == nil {
			c.Replies = []*model.Comment{}
		}
	})
	return nil
}

// AddComment add a top-level comment to the blog of slug
func (s *Blog) AddComment(ctx context.Context, uid primitive.ObjectID, slug, text string) (*model.Comment, error) {
	text, err := sanitizeCommentText(text)
	if err != nil {
		return nil, err
	}

	blog, err := s.dao.GetBlogBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, blogNotFound()
		}

		return nil, errors.Wrap(err, "load blog")
	}

	comment := model.NewComment(blog.ID, uid, text)
	if err = s.saveComment(ctx, comment); err != nil {
		return nil, err
	}

	gmw.GetLogger(ctx).Info("comment added",
		zap.String("blog", blog.ID.Hex()),
		zap.String("comment", comment.ID.Hex()))
	return comment, nil
}

// AddReply reply to the comment parentID
func (s *Blog) AddReply(ctx context.Context, uid, parentID primitive.ObjectID, text string) (*model.Comment, error) {
	text, err := sanitizeCommentText(text)
	if err != nil {
		return nil, err
	}

	parent, err := s.dao.GetComment(ctx, parentID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, commentNotFound()
		}

		return nil, errors.Wrap(err, "load parent comment")
	}

	reply := model.NewComment(parent.BlogID, uid, text)
	reply.ParentID = &parent.ID
	if err = s.saveComment(ctx, reply); err != nil {
		return nil, err
	}
	if err = s.dao.AppendReply(ctx, parent.ID, reply.ID); err != nil {
		s.discardComment(ctx, reply)
		return nil, errors.Wrap(err, "link reply to parent")
	}

	return reply, nil
}

// saveComment insert comment, count it on the blog and populate its author
func (s *Blog) saveComment(ctx context.Context, comment *model.Comment) error {
	if err := s.dao.InsertComment(ctx, comment); err != nil {
		return errors.Wrap(err, "insert comment")
	}
	if err := s.dao.AttachComment(ctx, comment.BlogID, comment.ID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			if _, err = s.dao.DeleteComments(ctx, comment.ID); err != nil {
				s.logger.Warn("delete orphan comment", zap.Error(err),
					zap.String("comment", comment.ID.Hex()))
			}
			return blogNotFound()
		}

		return errors.Wrap(err, "attach comment to blog")
	}
	s.invalidateBlogs(ctx)

	return s.populateCommentAuthors(ctx, comment)
}

// discardComment best effort rollback of saveComment, failures are only logged
func (s *Blog) discardComment(ctx context.Context, comment *model.Comment) {
	if err := s.dao.DetachComments(ctx, comment.BlogID, comment.ID); err != nil &&
		!errors.Is(err, model.ErrNotFound) {
		s.logger.Warn("detach discarded comment", zap.Error(err),
			zap.String("comment", comment.ID.Hex()))
	}
	if _, err := s.dao.DeleteComments(ctx, comment.ID); err != nil {
		s.logger.Warn("delete discarded comment", zap.Error(err),
			zap.String("comment", comment.ID.Hex()))
	}
	s.invalidateBlogs(ctx)
}

// CommentTree top-level comments of the blog with nested replies
func (s *Blog) CommentTree(ctx context.Context, slug string) ([]*model.Comment, error) {
	blog, err := s.dao.GetBlogBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, blogNotFound()
		}

		return nil, errors.Wrap(err, "load blog")
	}

	comments, err := s.dao.ListComments(ctx, blog.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list comments")
	}

	roots := buildCommentTree(comments)
	if err = s.populateCommentAuthors(ctx, roots...); err != nil {
		return nil, err
	}

	return roots, nil
}

// loadOwnComment load comment that uid may modify
func (s *Blog) loadOwnComment(ctx context.Context, uid, id primitive.ObjectID) (*model.Comment, error) {
	actor, err := s.loadActor(ctx, uid)
	if err != nil {
		return nil, err
	}

	comment, err := s.dao.GetComment(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, commentNotFound()
		}

		return nil, errors.Wrap(err, "load comment")
	}

	if err = authorize(actor, comment.AuthorID, "comment"); err != nil {
		return nil, err
	}

	return comment, nil
}

// UpdateComment replace the text of a comment
func (s *Blog) UpdateComment(ctx context.Context, uid, id primitive.ObjectID, text string) (*model.Comment, error) {
	text, err := sanitizeCommentText(text)
	if err != nil {
		return nil, err
	}

	if _, err = s.loadOwnComment(ctx, uid, id); err != nil {
		return nil, err
	}

	comment, err := s.dao.UpdateCommentText(ctx, id, text)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, commentNotFound()
		}

		return nil, errors.Wrap(err, "update comment")
	}

	if err = s.populateCommentAuthors(ctx, comment); err != nil {
		return nil, err
	}

	return comment, nil
}

// DeleteComment remove a comment with all its replies, returns the number of removed comments
func (s *Blog) DeleteComment(ctx context.Context, uid, id primitive.ObjectID) (int, error) {
	comment, err := s.loadOwnComment(ctx, uid, id)
	if err != nil {
		return 0, err
	}

	all, err := s.dao.ListComments(ctx, comment.BlogID)
	if err != nil {
		return 0, errors.Wrap(err, "list comments")
	}
	ids := subtreeIDs(all, comment.ID)

	n, err := s.dao.DeleteComments(ctx, ids...)
	if err != nil {
		return 0, errors.Wrap(err, "delete comments")
	}
	if err = s.dao.DetachComments(ctx, comment.BlogID, ids...); err != nil &&
		!errors.Is(err, model.ErrNotFound) {
		return n, errors.Wrap(err, "detach comments from blog")
	}
	if comment.ParentID != nil {
		if err = s.dao.PullReply(ctx, *comment.ParentID, comment.ID); err != nil &&
			!errors.Is(err, model.ErrNotFound) {
			return n, errors.Wrap(err, "unlink reply from parent")
		}
	}
	s.invalidateBlogs(ctx)

	gmw.GetLogger(ctx).Info("comments deleted",
		zap.String("comment", id.Hex()),
		zap.Int("n", n))
	return n, nil
}

// subtreeIDs id of root and of every descendant of it
func subtreeIDs(comments []*model.Comment, root primitive.ObjectID) []primitive.ObjectID {
	children := make(map[primitive.ObjectID][]primitive.ObjectID)
	for _, c := range comments {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
	}

	ids := []primitive.ObjectID{root}
	visited := map[primitive.ObjectID]struct{}{root: {}}
	for i := 0; i < len(ids); i++ {
		for _, child := range children[ids[i]] {
			if _, ok := visited[child]; ok {
				continue
			}

			visited[child] = struct{}{}
			ids = append(ids, child)
		}
	}

	return ids
}

// LikeComment toggle uid's like, liking removes a dislike
func (s *Blog) LikeComment(ctx context.Context, uid, id primitive.ObjectID) (*model.Comment, error) {
	return s.reactComment(ctx, uid, id, model.ReactionLike)
}

// DislikeComment toggle uid's dislike, disliking removes a like
func (s *Blog) DislikeComment(ctx context.Context, uid, id primitive.ObjectID) (*model.Comment, error) {
	return s.reactComment(ctx, uid, id, model.ReactionDislike)
}

func (s *Blog) reactComment(ctx context.Context,
	uid, id primitive.ObjectID, reaction model.Reaction) (*model.Comment, error) {
	comment, err := s.dao.ReactComment(ctx, id, uid, reaction)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, commentNotFound()
		}

		return nil, errors.Wrapf(err, "%s comment", reaction)
	}

	if err = s.populateCommentAuthors(ctx, comment); err != nil {
		return nil, err
	}

	return comment, nil
}
