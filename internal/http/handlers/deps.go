package handlers

import (
	"bookbazaar/internal/events"
	"bookbazaar/internal/services"
)

type Deps struct {
	BookHandler     *BookHandler
	LikeHandler     *LikeHandler
	ShopHandler     *ShopHandler
	APIHandler      *APIHandler
	StreamHandler   *StreamHandler
	AuthHandler     *AuthHandler
	WishlistHandler *WishlistHandler
}

func NewDeps(catalog *services.CatalogService, likeSvc *services.LikeService, auth *services.AuthService, wish *services.WishlistService, broker *events.Broker) *Deps {
	return &Deps{
		BookHandler:     &BookHandler{Catalog: catalog, Likes: likeSvc},
		LikeHandler:     &LikeHandler{Catalog: catalog, Likes: likeSvc, Auth: auth},
		ShopHandler:     &ShopHandler{Catalog: catalog, Likes: likeSvc},
		APIHandler:      &APIHandler{Catalog: catalog, Likes: likeSvc},
		StreamHandler:   &StreamHandler{Broker: broker},
		AuthHandler:     &AuthHandler{Auth: auth},
		WishlistHandler: &WishlistHandler{Wish: wish},
	}
}
