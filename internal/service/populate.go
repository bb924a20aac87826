package service

import (
	"context"

	"postshare/internal/models"
	"postshare/internal/repository"
)

// populatePosts expands every user reference across posts with a single directory lookup,
// so a page costs one user query no matter how many authors it mentions.
func populatePosts(ctx context.Context, users repository.UserRepository, posts []models.Post) ([]models.PostView, error) {
	var ids []uint
	for i := range posts {
		ids = append(ids, posts[i].ReferencedUserIDs()...)
	}
	dir, err := users.Summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.PostView, 0, len(posts))
	for i := range posts {
		views = append(views, models.PopulatePost(&posts[i], dir))
	}
	return views, nil
}

func populatePost(ctx context.Context, users repository.UserRepository, post *models.Post) (*models.PostView, error) {
	views, err := populatePosts(ctx, users, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func populateComments(ctx context.Context, users repository.UserRepository, post *models.Post) ([]models.CommentView, error) {
	dir, err := users.Summaries(ctx, post.ReferencedUserIDs())
	if err != nil {
		return nil, err
	}
	return models.PopulateComments(post.Comments, dir), nil
}
