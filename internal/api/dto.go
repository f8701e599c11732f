package api

import (
	"github.com/stella-dust/zolapub/internal/activity"
	"github.com/stella-dust/zolapub/internal/blogservice"
	"github.com/stella-dust/zolapub/internal/index"
	"github.com/stella-dust/zolapub/internal/reconcile"
)

// NewArticleRequest is the request body for creating a draft article.
type NewArticleRequest struct {
	Title string   `json:"title" example:"Hello Zola" validate:"required"`
	Tags  []string `json:"tags" example:"zola,go"`
}

// PublishRequest is the request body for publishing the site.
type PublishRequest struct {
	Message string `json:"message" example:"Publish 2024-05-17"`
}

// SyncReport is the batch report (aliased from the engine).
type SyncReport = reconcile.Report

// Article is a catalog entry (aliased from the index).
type Article = index.ArticleRow

// ArticleListResponse wraps catalog listings.
type ArticleListResponse struct {
	Articles []Article `json:"articles" validate:"required"`
}

// TagListResponse wraps tag counts.
type TagListResponse struct {
	Tags []index.TagCount `json:"tags" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// ActivityResponse wraps activity entries, newest first.
type ActivityResponse struct {
	Entries []activity.Entry `json:"entries" validate:"required"`
}

// NewArticleResponse is returned after a draft is created.
type NewArticleResponse = blogservice.NewArticleResult

// ImageUploadResponse is returned after a successful image upload.
type ImageUploadResponse = blogservice.AddImageResult

// PreviewResponse reports the preview server state.
type PreviewResponse struct {
	Status string `json:"status" example:"running" validate:"required"`
	URL    string `json:"url" example:"http://127.0.0.1:1111"`
}
