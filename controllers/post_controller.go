package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/bloglist/middleware"
	"github.com/cppla/bloglist/services"
	"github.com/cppla/bloglist/utils"
)

// PostController exposes the post service over HTTP.
type PostController struct {
	posts *services.PostService
	log   *zap.Logger
}

// NewPostController creates a new PostController instance.
func NewPostController(posts *services.PostService, log *zap.Logger) *PostController {
	return &PostController{posts: posts, log: log}
}

// ListPosts returns every post with its owner expanded.
func (p *PostController) ListPosts(ctx *gin.Context) {
	posts, err := p.posts.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, p.log, err)
		return
	}
	utils.Success(ctx, posts)
}

// CreatePost stores a post owned by the caller.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Title  string `json:"title"`
		Author string `json:"author"`
		URL    string `json:"url"`
		Likes  *int   `json:"likes"`
	}
	if !bindOptionalJSON(ctx, &req) {
		return
	}

	post, err := p.posts.Create(ctx.Request.Context(), middleware.BearerToken(ctx), services.CreatePostInput{
		Title:  req.Title,
		Author: req.Author,
		URL:    req.URL,
		Likes:  req.Likes,
	})
	if err != nil {
		respondError(ctx, p.log, err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, post)
}

// UpdatePost applies a partial update. An unknown id answers 200 with a null body.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req struct {
		Title  *string `json:"title"`
		Author *string `json:"author"`
		URL    *string `json:"url"`
		Likes  *int    `json:"likes"`
	}
	if !bindOptionalJSON(ctx, &req) {
		return
	}

	post, err := p.posts.Update(ctx.Request.Context(), middleware.BearerToken(ctx), ctx.Param("id"), services.UpdatePostInput{
		Title:  req.Title,
		Author: req.Author,
		URL:    req.URL,
		Likes:  req.Likes,
	})
	if err != nil {
		respondError(ctx, p.log, err)
		return
	}
	if post == nil {
		utils.Success(ctx, nil)
		return
	}
	utils.Success(ctx, post)
}

// DeletePost removes a post owned by the caller. Unknown ids also answer 204.
func (p *PostController) DeletePost(ctx *gin.Context) {
	if err := p.posts.Delete(ctx.Request.Context(), middleware.BearerToken(ctx), ctx.Param("id")); err != nil {
		respondError(ctx, p.log, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// bindOptionalJSON decodes the body into dst. An empty body leaves dst
// zero-valued so the service can report the missing fields itself.
func bindOptionalJSON(ctx *gin.Context, dst interface{}) bool {
	if err := ctx.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		utils.Error(ctx, http.StatusBadRequest, codeBadPayload, "invalid request payload")
		return false
	}
	return true
}
