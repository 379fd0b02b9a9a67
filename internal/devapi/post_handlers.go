package devapi

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"smilegift/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	maxCaptionLength  = 500
	maxLocationLength = 100
	maxCommentLength  = 500
	maxTags           = 10
)

// ListPosts handles GET /api/posts
func (s *Server) ListPosts(c *fiber.Ctx) error {
	return s.listPosts(c, c.Query("author"))
}

// GetUserPosts handles GET /api/posts/user/:userId
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	userID, ok := parseID(c, "userId", "user")
	if !ok {
		return nil
	}
	if _, err := s.repo.GetUser(c.UserContext(), userID); err != nil {
		return respondWithRepoError(c, "User", err)
	}
	return s.listPosts(c, userID)
}

func (s *Server) listPosts(c *fiber.Ctx, authorID string) error {
	p := parsePage(c, defaultPageLimit)
	posts, total, err := s.repo.ListPosts(c.UserContext(), PostQuery{
		Sort:     c.Query("sort", "latest"),
		AuthorID: authorID,
		Search:   c.Query("search"),
		ViewerID: currentUserID(c),
		Offset:   p.offset(),
		Limit:    p.Limit,
	})
	if err != nil {
		return respondWithRepoError(c, "Post", err)
	}
	return c.JSON(models.PostsPage{Posts: posts, Pagination: paginate(p, total)})
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, ok := parseID(c, "id", "post")
	if !ok {
		return nil
	}
	post, err := s.repo.GetPost(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondWithRepoError(c, "Post", err)
	}
	return c.JSON(fiber.Map{"post": post})
}

// CreatePost handles POST /api/posts (multipart: image, caption, location, tags)
func (s *Server) CreatePost(c *fiber.Ctx) error {
	caption := strings.TrimSpace(c.FormValue("caption"))
	location := strings.TrimSpace(c.FormValue("location"))

	switch {
	case caption == "":
		return badRequest(c, "Caption is required")
	case utf8.RuneCountInString(caption) > maxCaptionLength:
		return badRequest(c, "Caption cannot exceed 500 characters")
	case utf8.RuneCountInString(location) > maxLocationLength:
		return badRequest(c, "Location cannot exceed 100 characters")
	}

	tags, err := parseTags(c.FormValue("tags"))
	if err != nil {
		return badRequest(c, "Tags must be a JSON array of strings")
	}

	url, mediaID, err := s.storeUpload(c, "image", maxImageSize)
	if err != nil {
		return nil
	}
	if url == "" {
		return badRequest(c, "Please upload an image")
	}

	post := &models.Post{
		Author:   models.Author{ID: currentUserID(c)},
		Caption:  caption,
		Location: location,
		Tags:     tags,
		Image:    &models.Image{URL: url, PublicID: mediaID},
	}
	if err := s.repo.CreatePost(c.UserContext(), post); err != nil {
		return respondWithRepoError(c, "Post", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Post created successfully",
		"post":    post,
	})
}

// parseTags decodes the JSON-encoded tag array, dropping blanks and
// duplicates.
func parseTags(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var in []string
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(in))
	var tags []string
	for _, t := range in {
		t = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "#"))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
		if len(tags) == maxTags {
			break
		}
	}
	return tags, nil
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, ok := parseID(c, "id", "post")
	if !ok {
		return nil
	}
	var req models.UpdatePostInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Caption != nil {
		caption := strings.TrimSpace(*req.Caption)
		if caption == "" || utf8.RuneCountInString(caption) > maxCaptionLength {
			return badRequest(c, "Caption must be between 1 and 500 characters")
		}
		req.Caption = &caption
	}
	if req.Location != nil && utf8.RuneCountInString(*req.Location) > maxLocationLength {
		return badRequest(c, "Location cannot exceed 100 characters")
	}

	userID := currentUserID(c)
	post, err := s.repo.UpdatePost(c.UserContext(), id, func(p *models.Post) error {
		if p.Author.ID != userID {
			return errForbidden
		}
		if req.Caption != nil {
			p.Caption = *req.Caption
		}
		if req.Location != nil {
			p.Location = strings.TrimSpace(*req.Location)
		}
		return nil
	})
	if errors.Is(err, errForbidden) {
		return respondWithError(c, fiber.StatusForbidden, &models.AppError{
			Code: models.CodeUnauthorized, Message: "You can only edit your own posts",
		})
	}
	if err != nil {
		return respondWithRepoError(c, "Post", err)
	}
	return c.JSON(fiber.Map{
		"message": "Post updated successfully",
		"post":    post,
	})
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, ok := parseID(c, "id", "post")
	if !ok {
		return nil
	}
	post, err := s.repo.GetPost(c.UserContext(), id, "")
	if err != nil {
		return respondWithRepoError(c, "Post", err)
	}
	if post.Author.ID != currentUserID(c) {
		return respondWithError(c, fiber.StatusForbidden, &models.AppError{
			Code: models.CodeUnauthorized, Message: "You can only delete your own posts",
		})
	}
	if err := s.repo.DeletePost(c.UserContext(), id); err != nil {
		return respondWithRepoError(c, "Post", err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}

// LikePost handles POST /api/posts/:id/like. It toggles the caller's like.
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, ok := parseID(c, "id", "post")
	if !ok {
		return nil
	}
	result, err := s.repo.ToggleLike(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondWithRepoError(c, "Post", err)
	}

	message := "Post unliked"
	if result.IsLikedByUser {
		message = "Post liked"
	}
	return c.JSON(fiber.Map{
		"message": message,
		"post":    result,
	})
}

// AddComment handles POST /api/posts/:id/comments
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, ok := parseID(c, "id", "post")
	if !ok {
		return nil
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return badRequest(c, "Comment cannot be empty")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return badRequest(c, "Comment cannot exceed 500 characters")
	}

	comment := &models.Comment{
		Content: content,
		Author:  models.Author{ID: currentUserID(c)},
	}
	count, err := s.repo.AddComment(c.UserContext(), id, comment)
	if err != nil {
		return respondWithRepoError(c, "Post", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":       "Comment added successfully",
		"comment":       comment,
		"commentsCount": count,
	})
}

// ListComments handles GET /api/posts/:id/comments
func (s *Server) ListComments(c *fiber.Ctx) error {
	id, ok := parseID(c, "id", "post")
	if !ok {
		return nil
	}
	p := parsePage(c, 20)
	comments, total, err := s.repo.ListComments(c.UserContext(), id, p.offset(), p.Limit)
	if err != nil {
		return respondWithRepoError(c, "Post", err)
	}
	return c.JSON(models.CommentsPage{Comments: comments, Pagination: paginate(p, total)})
}
