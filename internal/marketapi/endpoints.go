package marketapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"bookbazaar/internal/domain"
)

// Page is one slice of a listing. Count is the server's total when it sent
// one; otherwise it falls back to len(Items).
type Page[T any] struct {
	Items []T
	Count int
}

type listResponse[T any] struct {
	Results []T  `json:"results"`
	Count   *int `json:"count"`
}

func (r listResponse[T]) page() Page[T] {
	p := Page[T]{Items: r.Results}
	if p.Items == nil {
		p.Items = []T{}
	}
	if r.Count != nil {
		p.Count = *r.Count
	} else {
		p.Count = len(p.Items)
	}
	return p
}

// ToggleResult is the like endpoint's answer. It carries no count.
type ToggleResult struct {
	Success bool `json:"success"`
	IsLiked bool `json:"is_liked"`
}

type LoginResult struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    struct {
		ID       int    `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

func (c *Client) ListBooks(ctx context.Context, params url.Values) (Page[domain.Book], error) {
	var resp listResponse[domain.Book]
	if err := c.do(ctx, http.MethodGet, "/books/", params, nil, &resp); err != nil {
		return Page[domain.Book]{}, err
	}
	return resp.page(), nil
}

func (c *Client) GetBook(ctx context.Context, id int) (domain.Book, error) {
	var b domain.Book
	err := c.do(ctx, http.MethodGet, "/books/"+strconv.Itoa(id)+"/", nil, nil, &b)
	return b, err
}

func (c *Client) ToggleBookLike(ctx context.Context, id int) (ToggleResult, error) {
	return c.toggle(ctx, "/books/"+strconv.Itoa(id)+"/like/")
}

func (c *Client) ToggleCommentLike(ctx context.Context, id int) (ToggleResult, error) {
	return c.toggle(ctx, "/comments/"+strconv.Itoa(id)+"/like/")
}

func (c *Client) toggle(ctx context.Context, path string) (ToggleResult, error) {
	var res ToggleResult
	if err := c.do(ctx, http.MethodPost, path, nil, nil, &res); err != nil {
		return ToggleResult{}, err
	}
	if !res.Success {
		return ToggleResult{}, fmt.Errorf("marketapi: like toggle at %s was rejected", path)
	}
	return res, nil
}

func (c *Client) Comments(ctx context.Context, bookID int) ([]domain.Comment, error) {
	var resp struct {
		Comments []domain.Comment `json:"comments"`
	}
	if err := c.do(ctx, http.MethodGet, "/books/"+strconv.Itoa(bookID)+"/comments/", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Comments, nil
}

func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := c.do(ctx, http.MethodGet, "/categories/", nil, nil, &out)
	return out, err
}

func (c *Client) Regions(ctx context.Context) ([]domain.Region, error) {
	var out []domain.Region
	err := c.do(ctx, http.MethodGet, "/regions/", nil, nil, &out)
	return out, err
}

func (c *Client) Shops(ctx context.Context) ([]domain.Shop, error) {
	var out []domain.Shop
	err := c.do(ctx, http.MethodGet, "/shops/", nil, nil, &out)
	return out, err
}

func (c *Client) GetShop(ctx context.Context, id int) (domain.Shop, error) {
	var s domain.Shop
	err := c.do(ctx, http.MethodGet, "/shops/"+strconv.Itoa(id)+"/", nil, nil, &s)
	return s, err
}

func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var res LoginResult
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login/", nil, body, &res); err != nil {
		return LoginResult{}, err
	}
	return res, nil
}
