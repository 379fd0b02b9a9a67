package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"smilegift/internal/apiclient"
	"smilegift/internal/models"
)

// PostsAPI covers /posts.
type PostsAPI struct {
	t     Transport
	users *resolver
}

func postQuery(f models.PostFilters) url.Values {
	q := pageQuery(f.Page, f.Limit)
	setString(q, "sort", f.Sort)
	setString(q, "author", f.Author)
	setString(q, "search", f.Search)
	return q
}

func (p *PostsAPI) List(ctx context.Context, f models.PostFilters) (*models.PostsPage, error) {
	return p.page(ctx, "/posts", f)
}

func (p *PostsAPI) page(ctx context.Context, path string, f models.PostFilters) (*models.PostsPage, error) {
	resp, err := get(ctx, p.t, path, postQuery(f))
	if err != nil {
		return nil, err
	}
	var out models.PostsPage
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *PostsAPI) Get(ctx context.Context, id string) (*models.Post, error) {
	resp, err := get(ctx, p.t, "/posts/"+escape(id), nil)
	if err != nil {
		return nil, err
	}
	var out models.Post
	if err := decodeEnvelope(resp, "post", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create uploads a new post. Tags travel as a JSON-encoded array.
func (p *PostsAPI) Create(ctx context.Context, in models.CreatePostInput) (*models.Post, error) {
	form := apiclient.NewForm().
		File(apiclient.File{Field: "image", Name: in.ImageName, Content: in.Image}).
		Field("caption", in.Caption)
	if in.Location != "" {
		form.Field("location", in.Location)
	}
	if len(in.Tags) > 0 {
		tags, err := json.Marshal(in.Tags)
		if err != nil {
			return nil, err
		}
		form.Field("tags", string(tags))
	}

	resp, err := sendForm(ctx, p.t, http.MethodPost, "/posts", form)
	if err != nil {
		return nil, err
	}
	var out models.Post
	if err := decodeEnvelope(resp, "post", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *PostsAPI) Update(ctx context.Context, id string, in models.UpdatePostInput) (*models.Post, error) {
	resp, err := send(ctx, p.t, http.MethodPut, "/posts/"+escape(id), in)
	if err != nil {
		return nil, err
	}
	var out models.Post
	if err := decodeEnvelope(resp, "post", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *PostsAPI) Delete(ctx context.Context, id string) error {
	_, err := p.t.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: "/posts/" + escape(id)})
	return err
}

// Like toggles the caller's like and returns the new counters.
func (p *PostsAPI) Like(ctx context.Context, id string) (*models.LikeResult, error) {
	resp, err := send(ctx, p.t, http.MethodPost, "/posts/"+escape(id)+"/like", nil)
	if err != nil {
		return nil, err
	}
	var out models.LikeResult
	if err := decodeEnvelope(resp, "post", &out); err != nil {
		return nil, err
	}
	if out.PostID == "" {
		out.PostID = id
	}
	return &out, nil
}

func (p *PostsAPI) AddComment(ctx context.Context, postID, content string) (*models.CommentResult, error) {
	resp, err := send(ctx, p.t, http.MethodPost, "/posts/"+escape(postID)+"/comments",
		map[string]string{"content": content})
	if err != nil {
		return nil, err
	}
	var out models.CommentResult
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *PostsAPI) Comments(ctx context.Context, postID string, page, limit int) (*models.CommentsPage, error) {
	resp, err := get(ctx, p.t, "/posts/"+escape(postID)+"/comments", pageQuery(page, limit))
	if err != nil {
		return nil, err
	}
	var out models.CommentsPage
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ByUser lists the posts of a user id.
func (p *PostsAPI) ByUser(ctx context.Context, userID string, f models.PostFilters) (*models.PostsPage, error) {
	return p.page(ctx, "/posts/user/"+escape(userID), f)
}

// ByUsername lists the posts of a username or user id.
func (p *PostsAPI) ByUsername(ctx context.Context, username string, f models.PostFilters) (*models.PostsPage, error) {
	id, err := p.users.userID(ctx, username)
	if err != nil {
		return nil, err
	}
	return p.ByUser(ctx, id, f)
}
