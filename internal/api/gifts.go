package api

import (
	"context"
	"net/http"
	"net/url"

	"smilegift/internal/apiclient"
	"smilegift/internal/models"
)

// GiftsAPI covers /gifts.
type GiftsAPI struct {
	t Transport
}

// Create records a gift request. The server alone decides its status.
func (g *GiftsAPI) Create(ctx context.Context, in models.CreateGiftInput) (*models.Gift, error) {
	resp, err := send(ctx, g.t, http.MethodPost, "/gifts", in)
	if err != nil {
		return nil, err
	}
	return decodeGift(resp)
}

func (g *GiftsAPI) List(ctx context.Context, f models.GiftFilters) (*models.GiftsPage, error) {
	q := pageQuery(f.Page, f.Limit)
	setString(q, "status", string(f.Status))
	return g.page(ctx, "/gifts", q)
}

func (g *GiftsAPI) Get(ctx context.Context, id string) (*models.Gift, error) {
	resp, err := get(ctx, g.t, "/gifts/"+escape(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeGift(resp)
}

func (g *GiftsAPI) ForPost(ctx context.Context, postID string, page, limit int) (*models.GiftsPage, error) {
	return g.page(ctx, "/gifts/post/"+escape(postID), pageQuery(page, limit))
}

func (g *GiftsAPI) ForUser(ctx context.Context, userID string, dir models.GiftDirection, page, limit int) (*models.GiftsPage, error) {
	q := pageQuery(page, limit)
	setString(q, "type", string(dir))
	return g.page(ctx, "/gifts/user/"+escape(userID), q)
}

func (g *GiftsAPI) UserStats(ctx context.Context, userID string) (*models.GiftStats, error) {
	resp, err := get(ctx, g.t, "/gifts/user/"+escape(userID)+"/stats", nil)
	if err != nil {
		return nil, err
	}
	var out models.GiftStats
	if err := decodeEnvelope(resp, "stats", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyPayment asks the server to confirm a transaction. No page calls it.
func (g *GiftsAPI) VerifyPayment(ctx context.Context, transactionID, paymentID string) (*models.Gift, error) {
	resp, err := send(ctx, g.t, http.MethodPost, "/gifts/"+escape(transactionID)+"/verify",
		map[string]string{"paymentId": paymentID})
	if err != nil {
		return nil, err
	}
	return decodeGift(resp)
}

func (g *GiftsAPI) page(ctx context.Context, path string, q url.Values) (*models.GiftsPage, error) {
	resp, err := get(ctx, g.t, path, q)
	if err != nil {
		return nil, err
	}
	var out models.GiftsPage
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func decodeGift(resp *apiclient.Response) (*models.Gift, error) {
	var out models.Gift
	if err := decodeEnvelope(resp, "gift", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
