package domain

type Category struct {
	ID            int        `json:"id"`
	Name          string     `json:"name"`
	Subcategories []Category `json:"subcategories,omitempty"`
}

type District struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Region struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	Districts []District `json:"districts,omitempty"`
}

type Book struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	CoverType   string  `json:"cover_type"` // hard | soft
	IsUsed      bool    `json:"is_used"`
	Type        string  `json:"type"` // seller | exchange | gift
	CategoryID  int     `json:"category"`
	Region      string  `json:"region,omitempty"`
	District    string  `json:"district,omitempty"`
	ShopID      int     `json:"shop,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	Image       string  `json:"image,omitempty"`
	IsLiked     bool    `json:"is_liked"`
	LikeCount   int     `json:"like_count"`
}

// Comment is a node of a book's comment thread. Replies nest one level deep
// in practice, but nothing here depends on that.
type Comment struct {
	ID        int       `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt string    `json:"created_at,omitempty"`
	IsLiked   bool      `json:"is_liked"`
	LikeCount int       `json:"like_count"`
	Replies   []Comment `json:"replies,omitempty"`
}

type Shop struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Region      string  `json:"region,omitempty"`
	District    string  `json:"district,omitempty"`
	Logo        string  `json:"logo,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	BookCount   int     `json:"book_count,omitempty"`
}

// LikeState is the displayed like status of a book or comment.
type LikeState struct {
	Liked bool `json:"isLiked"`
	Count int  `json:"likeCount"`
}
