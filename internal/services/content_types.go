package services

import "time"

// Article is an editorial page addressed by ID or by its unique slug.
type Article struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Content     string     `json:"content"`
	Excerpt     string     `json:"excerpt,omitempty"`
	CoverImage  string     `json:"coverImage,omitempty"`
	Author      string     `json:"author"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"publishedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type ArticleFilter struct {
	Published *bool
}

// HelpCenter is a support organisation users can be referred to.
type HelpCenter struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	Email       string    `json:"email"`
	Address     string    `json:"address,omitempty"`
	Logo        string    `json:"logo,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type HelpCenterFilter struct {
	IsActive *bool
}

type StoryType string

const (
	StoryImage StoryType = "image"
	StoryVideo StoryType = "video"
	StoryText  StoryType = "text"
)

// UserSummary is the public slice of a User embedded in stories and testimonials.
type UserSummary struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// Story is a survivor's post. Media is referenced by URL only.
type Story struct {
	ID        string       `json:"id"`
	UserID    string       `json:"userId"`
	Caption   string       `json:"caption"`
	MediaURL  string       `json:"mediaUrl,omitempty"`
	Type      StoryType    `json:"type"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	User      *UserSummary `json:"user,omitempty"`
}

// Testimonial is a curated video testimony managed by an admin.
type Testimonial struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Date        time.Time    `json:"date"`
	AdminID     string       `json:"adminId"`
	Thumbnail   string       `json:"thumbnail,omitempty"`
	VideoURL    string       `json:"videoUrl"`
	Published   bool         `json:"published"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Admin       *UserSummary `json:"admin,omitempty"`
}

// PageOptions selects a window of a sorted list. OrderBy names a column the
// store whitelists; Desc flips the direction. Ties are broken by ID.
type PageOptions struct {
	Skip    int
	Take    int
	OrderBy string
	Desc    bool
}

type StoryFilter struct {
	UserID string
	Type   StoryType
	PageOptions
}

type TestimonialFilter struct {
	Published *bool
	AdminID   string
	PageOptions
}

type PageMeta struct {
	Total int `json:"total"`
	Skip  int `json:"skip"`
	Take  int `json:"take"`
	Pages int `json:"pages"`
}

type StoryPage struct {
	Data []*Story `json:"data"`
	Meta PageMeta `json:"meta"`
}

type TestimonialPage struct {
	Data []*Testimonial `json:"data"`
	Meta PageMeta       `json:"meta"`
}

type StoryTypeCounts struct {
	Image int `json:"image"`
	Video int `json:"video"`
	Text  int `json:"text"`
}

type StoryStats struct {
	Total  int             `json:"total"`
	ByType StoryTypeCounts `json:"byType"`
}

type TestimonialStats struct {
	Total       int `json:"total"`
	Published   int `json:"published"`
	Unpublished int `json:"unpublished"`
}

func summarizeUser(u *User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName, PhotoURL: u.PhotoURL}
}
