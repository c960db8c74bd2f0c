// Package view assembles API response shapes from stored records.
// Every response is built here so that profile, favorited and tag data
// always comes from the live store state, never from stale counters.
package view

import (
	"context"

	"github.com/anmol4210/realworld-api/internal/model"
)

// Lookups is the slice of the store the assembler needs.
type Lookups interface {
	GetUser(ctx context.Context, id string) (model.User, error)
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	IsFavorited(ctx context.Context, userID, articleID string) (bool, error)
	CountFavorites(ctx context.Context, articleID string) (int, error)
	ListArticleTags(ctx context.Context, articleID string) ([]string, error)
}

type Assembler struct {
	store Lookups
}

func NewAssembler(store Lookups) *Assembler {
	return &Assembler{store: store}
}

// Profile renders a user as seen by the viewer. An empty viewerID means
// anonymous; anonymous viewers never follow anyone.
func (a *Assembler) Profile(ctx context.Context, viewerID string, user model.User) (model.Profile, error) {
	profile := model.Profile{
		Username: user.Username,
		Bio:      user.Bio,
		Image:    user.Image,
	}
	if viewerID != "" {
		following, err := a.store.IsFollowing(ctx, viewerID, user.ID)
		if err != nil {
			return model.Profile{}, err
		}
		profile.Following = following
	}
	return profile, nil
}

func (a *Assembler) Article(ctx context.Context, viewerID string, article model.Article) (model.ArticleView, error) {
	author, err := a.store.GetUser(ctx, article.AuthorID)
	if err != nil {
		return model.ArticleView{}, err
	}
	profile, err := a.Profile(ctx, viewerID, author)
	if err != nil {
		return model.ArticleView{}, err
	}
	tags, err := a.store.ListArticleTags(ctx, article.ID)
	if err != nil {
		return model.ArticleView{}, err
	}
	if tags == nil {
		tags = []string{}
	}
	count, err := a.store.CountFavorites(ctx, article.ID)
	if err != nil {
		return model.ArticleView{}, err
	}
	favorited := false
	if viewerID != "" {
		favorited, err = a.store.IsFavorited(ctx, viewerID, article.ID)
		if err != nil {
			return model.ArticleView{}, err
		}
	}
	return model.ArticleView{
		Slug:           article.Slug,
		Title:          article.Title,
		Description:    article.Description,
		Body:           article.Body,
		TagList:        tags,
		CreatedAt:      article.CreatedAt,
		UpdatedAt:      article.UpdatedAt,
		Favorited:      favorited,
		FavoritesCount: count,
		Author:         profile,
	}, nil
}

func (a *Assembler) Articles(ctx context.Context, viewerID string, articles []model.Article) ([]model.ArticleView, error) {
	views := make([]model.ArticleView, 0, len(articles))
	for _, article := range articles {
		view, err := a.Article(ctx, viewerID, article)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (a *Assembler) Comment(ctx context.Context, viewerID string, comment model.Comment) (model.CommentView, error) {
	author, err := a.store.GetUser(ctx, comment.AuthorID)
	if err != nil {
		return model.CommentView{}, err
	}
	profile, err := a.Profile(ctx, viewerID, author)
	if err != nil {
		return model.CommentView{}, err
	}
	return model.CommentView{
		ID:        comment.ID,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
		Author:    profile,
	}, nil
}

func (a *Assembler) Comments(ctx context.Context, viewerID string, comments []model.Comment) ([]model.CommentView, error) {
	views := make([]model.CommentView, 0, len(comments))
	for _, comment := range comments {
		view, err := a.Comment(ctx, viewerID, comment)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}
