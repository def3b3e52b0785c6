package app

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"platefeed/internal/service"
	"platefeed/internal/util"

	"github.com/gin-gonic/gin"
)

const (
	maxUploadFiles    = 5
	maxUploadFileSize = int64(5 * 1024 * 1024) // 5MB each
)

type PostHandler struct {
	postService        service.PostService
	interactionService service.InteractionService
	searchService      service.SearchService
	cloudinaryClient   *util.CloudinaryClient
}

func NewPostHandler(
	postService service.PostService,
	interactionService service.InteractionService,
	searchService service.SearchService,
	cloudinaryClient *util.CloudinaryClient,
) *PostHandler {
	return &PostHandler{
		postService:        postService,
		interactionService: interactionService,
		searchService:      searchService,
		cloudinaryClient:   cloudinaryClient,
	}
}

// CreatePost handles post creation
// POST /api/v1/posts
func (h *PostHandler) CreatePost(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	var req service.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	view, err := h.postService.CreatePost(userID.(string), req)
	if err != nil {
		util.FailFromError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusCreated, "Post created successfully", gin.H{"post": view})
}

// GetPost handles retrieving a single post view
// GET /api/v1/posts/:id
func (h *PostHandler) GetPost(c *gin.Context) {
	view, err := h.postService.GetPost(c.Param("id"), viewerID(c))
	if err != nil {
		util.FailFromError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Post retrieved successfully", gin.H{"post": view})
}

// ListPosts handles the feed listing
// GET /api/v1/posts?owner=&limit=&offset=&sort=&with_count=
func (h *PostHandler) ListPosts(c *gin.Context) {
	limit, offset, ok := paginationParams(c)
	if !ok {
		return
	}

	opts := service.ListPostsOptions{
		OwnerID:   c.Query("owner"),
		ViewerID:  viewerID(c),
		Limit:     limit,
		Offset:    offset,
		Sort:      c.DefaultQuery("sort", service.SortNewest),
		WithCount: c.Query("with_count") == "true",
	}

	views, total, err := h.postService.ListPosts(opts)
	if err != nil {
		util.FailFromError(c, err)
		return
	}

	data := gin.H{
		"posts":  views,
		"limit":  limit,
		"offset": offset,
	}
	if opts.WithCount {
		data["total"] = total
	}

	util.SuccessResponse(c, http.StatusOK, "Posts retrieved successfully", data)
}

// UpdatePost handles post updates by the owner
// PUT /api/v1/posts/:id
func (h *PostHandler) UpdatePost(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	var req service.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	view, err := h.postService.UpdatePost(userID.(string), c.Param("id"), req)
	if err != nil {
		util.FailFromError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Post updated successfully", gin.H{"post": view})
}

// DeletePost handles post deletion with full cascade
// DELETE /api/v1/posts/:id
func (h *PostHandler) DeletePost(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	deletedID, err := h.postService.DeletePost(userID.(string), c.Param("id"))
	if err != nil {
		util.FailFromError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Post deleted successfully", gin.H{"id": deletedID})
}

// UploadImages attaches images to an existing post
// POST /api/v1/posts/:id/images
func (h *PostHandler) UploadImages(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	if h.cloudinaryClient == nil {
		util.ErrorResponse(c, http.StatusServiceUnavailable, "Image upload is not configured", nil)
		return
	}

	postID := c.Param("id")
	view, err := h.postService.GetPost(postID, userID.(string))
	if err != nil {
		util.FailFromError(c, err)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		util.BadRequest(c, "Failed to parse multipart form")
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		util.BadRequest(c, "At least one image is required")
		return
	}
	if len(files) > maxUploadFiles {
		util.BadRequest(c, fmt.Sprintf("Maximum %d images allowed", maxUploadFiles))
		return
	}

	imageURLs := view.ImageURLs
	for _, fileHeader := range files {
		if fileHeader.Size > maxUploadFileSize {
			util.BadRequest(c, fmt.Sprintf("File %s exceeds 5MB limit", fileHeader.Filename))
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			util.BadRequest(c, fmt.Sprintf("Failed to open file %s", fileHeader.Filename))
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			util.BadRequest(c, fmt.Sprintf("Failed to read file %s", fileHeader.Filename))
			return
		}

		urls, err := h.cloudinaryClient.ProcessFileFromMemory(data, fileHeader.Filename)
		if err != nil {
			log.Printf("Error uploading image %s for post %s: %v", fileHeader.Filename, postID, err)
			util.ErrorResponse(c, http.StatusInternalServerError, "Failed to upload image", nil)
			return
		}
		imageURLs = append(imageURLs, urls...)
	}

	updated, err := h.postService.UpdatePost(userID.(string), postID, service.UpdatePostRequest{
		ImageURLs: imageURLs,
	})
	if err != nil {
		util.FailFromError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Images uploaded successfully", gin.H{"post": updated})
}

// ToggleLike flips the viewer's like on a post
// POST /api/v1/posts/:id/like
func (h *PostHandler) ToggleLike(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	postID, err := h.interactionService.ToggleLike(userID.(string), c.Param("id"))
	if err != nil {
		util.FailFromError(c, err)
		return
	}

	view, err := h.postService.GetPost(postID, userID.(string))
	if err != nil {
		util.FailFromError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Like toggled successfully", gin.H{"post": view})
}

// ToggleWantToGo flips the viewer's want-to-go on a post
// POST /api/v1/posts/:id/want-to-go
func (h *PostHandler) ToggleWantToGo(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	postID, err := h.interactionService.ToggleWantToGo(userID.(string), c.Param("id"))
	if err != nil {
		util.FailFromError(c, err)
		return
	}

	view, err := h.postService.GetPost(postID, userID.(string))
	if err != nil {
		util.FailFromError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Want-to-go toggled successfully", gin.H{"post": view})
}

// SharePost records one more share of a post
// POST /api/v1/posts/:id/share
func (h *PostHandler) SharePost(c *gin.Context) {
	postID, err := h.interactionService.IncrementShare(c.Param("id"))
	if err != nil {
		util.FailFromError(c, err)
		return
	}

	view, err := h.postService.GetPost(postID, viewerID(c))
	if err != nil {
		util.FailFromError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Share recorded successfully", gin.H{"post": view})
}

// GetLikeCount returns the like count for a post
// GET /api/v1/posts/:id/likes/count
func (h *PostHandler) GetLikeCount(c *gin.Context) {
	count, err := h.interactionService.GetLikeCount(c.Param("id"))
	if err != nil {
		util.FailFromError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Like count retrieved successfully", gin.H{"count": count})
}

// GetWantToGoCount returns the want-to-go count for a post
// GET /api/v1/posts/:id/want-to-go/count
func (h *PostHandler) GetWantToGoCount(c *gin.Context) {
	count, err := h.interactionService.GetWantToGoCount(c.Param("id"))
	if err != nil {
		util.FailFromError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Want-to-go count retrieved successfully", gin.H{"count": count})
}

// GetRatings returns the rating reference set
// GET /api/v1/ratings
func (h *PostHandler) GetRatings(c *gin.Context) {
	ratings, err := h.postService.ListRatings()
	if err != nil {
		util.FailFromError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Ratings retrieved successfully", gin.H{"ratings": ratings})
}

// AddTags attaches tags to a post owned by the caller
// POST /api/v1/posts/:id/tags
func (h *PostHandler) AddTags(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	var req struct {
		Tags []string `json:"tags" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	view, err := h.postService.AddTags(userID.(string), c.Param("id"), req.Tags)
	if err != nil {
		util.FailFromError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Tags added successfully", gin.H{"post": view})
}

// RemoveTag detaches one tag from a post owned by the caller
// DELETE /api/v1/posts/:id/tags/:name
func (h *PostHandler) RemoveTag(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	view, err := h.postService.RemoveTag(userID.(string), c.Param("id"), c.Param("name"))
	if err != nil {
		util.FailFromError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Tag removed successfully", gin.H{"post": view})
}

// SearchText searches posts by free text
// GET /api/v1/posts/search?q=
func (h *PostHandler) SearchText(c *gin.Context) {
	limit, offset, ok := paginationParams(c)
	if !ok {
		return
	}

	views, err := h.searchService.SearchText(c.Query("q"), limit, offset, viewerID(c))
	if err != nil {
		util.FailFromError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Search results retrieved successfully", gin.H{
		"posts":  views,
		"limit":  limit,
		"offset": offset,
	})
}

// SearchByTags searches posts carrying any of the given tags
// GET /api/v1/posts/search/tags?names=a,b
func (h *PostHandler) SearchByTags(c *gin.Context) {
	limit, offset, ok := paginationParams(c)
	if !ok {
		return
	}

	var names []string
	for _, name := range strings.Split(c.Query("names"), ",") {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			names = append(names, trimmed)
		}
	}

	views, err := h.searchService.SearchByTags(names, limit, offset, viewerID(c))
	if err != nil {
		util.FailFromError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Search results retrieved successfully", gin.H{
		"posts":  views,
		"limit":  limit,
		"offset": offset,
	})
}

func paginationParams(c *gin.Context) (limit, offset int, ok bool) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 0 {
		util.BadRequest(c, "Invalid limit parameter")
		return 0, 0, false
	}

	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		util.BadRequest(c, "Invalid offset parameter")
		return 0, 0, false
	}

	return limit, offset, true
}
