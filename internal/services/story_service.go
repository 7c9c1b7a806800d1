package services

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserLookup resolves accounts by internal ID, returning (nil, nil) when absent.
type UserLookup interface {
	FindUserByID(ctx context.Context, id string) (*User, error)
}

// StoryStore persists stories. ListStories returns the requested window and the
// total number of matches; CountStories counts all stories when t is empty.
type StoryStore interface {
	InsertStory(ctx context.Context, st *Story) error
	FindStory(ctx context.Context, id string) (*Story, error)
	ListStories(ctx context.Context, filter StoryFilter) ([]*Story, int, error)
	CountStories(ctx context.Context, t StoryType) (int, error)
	UpdateStory(ctx context.Context, st *Story) error
	DeleteStory(ctx context.Context, id string) error
}

type CreateStoryRequest struct {
	Caption  string    `json:"caption" validate:"required"`
	MediaURL string    `json:"mediaUrl"`
	Type     StoryType `json:"type" validate:"omitempty,oneof=image video text"`
}

type UpdateStoryRequest struct {
	Caption  *string    `json:"caption"`
	MediaURL *string    `json:"mediaUrl"`
	Type     *StoryType `json:"type"`
}

var (
	imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}
	videoExts = map[string]bool{".mp4": true, ".mov": true, ".avi": true, ".webm": true}
)

// InferStoryType guesses the type from the media URL's extension. Stories
// without media, or with an unknown extension, are text.
func InferStoryType(mediaURL string) StoryType {
	if mediaURL == "" {
		return StoryText
	}
	p := mediaURL
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	ext := strings.ToLower(path.Ext(p))
	switch {
	case imageExts[ext]:
		return StoryImage
	case videoExts[ext]:
		return StoryVideo
	default:
		return StoryText
	}
}

func validStoryType(t StoryType) bool {
	return t == StoryImage || t == StoryVideo || t == StoryText
}

type StoryService struct {
	store    StoryStore
	users    UserLookup
	log      *zap.Logger
	now      func() time.Time
	idGen    func() string
	validate *validator.Validate
}

func NewStoryService(store StoryStore, users UserLookup, log *zap.Logger) *StoryService {
	if log == nil {
		log = zap.NewNop()
	}
	return &StoryService{
		store:    store,
		users:    users,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		idGen:    uuid.NewString,
		validate: newValidator(),
	}
}

// withAuthors attaches the author summary to each story, looking every user up once.
func (s *StoryService) withAuthors(ctx context.Context, stories ...*Story) error {
	seen := map[string]*UserSummary{}
	for _, st := range stories {
		sum, ok := seen[st.UserID]
		if !ok {
			u, err := s.users.FindUserByID(ctx, st.UserID)
			if err != nil {
				return err
			}
			sum = summarizeUser(u)
			seen[st.UserID] = sum
		}
		st.User = sum
	}
	return nil
}

// Create posts a story for userID, who must have an account.
func (s *StoryService) Create(ctx context.Context, userID string, req *CreateStoryRequest) (*Story, error) {
	if req == nil {
		return nil, NewInvalidError("story payload required")
	}
	req.Caption = strings.TrimSpace(req.Caption)
	req.MediaURL = strings.TrimSpace(req.MediaURL)
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	u, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewInvalidError("user not found")
	}
	t := req.Type
	if t == "" {
		t = InferStoryType(req.MediaURL)
	}
	now := s.now()
	st := &Story{
		ID:        s.idGen(),
		UserID:    u.ID,
		Caption:   req.Caption,
		MediaURL:  req.MediaURL,
		Type:      t,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertStory(ctx, st); err != nil {
		s.log.Error("create story failed", zap.Error(err))
		return nil, err
	}
	st.User = summarizeUser(u)
	s.log.Info("story created", zap.String("story_id", st.ID), zap.String("type", string(st.Type)))
	return st, nil
}

func (s *StoryService) load(ctx context.Context, id string) (*Story, error) {
	st, err := s.store.FindStory(ctx, id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, NewNotFoundError("story with ID " + id + " not found")
	}
	return st, nil
}

func (s *StoryService) Get(ctx context.Context, id string) (*Story, error) {
	st, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.withAuthors(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// List pages through stories ordered by createdAt (default) or updatedAt.
func (s *StoryService) List(ctx context.Context, filter StoryFilter) (*StoryPage, error) {
	if filter.Type != "" && !validStoryType(filter.Type) {
		return nil, NewInvalidError("type must be one of image, video, text")
	}
	page, err := normalizePage(filter.PageOptions, "createdAt", "updatedAt")
	if err != nil {
		return nil, err
	}
	filter.PageOptions = page
	stories, total, err := s.store.ListStories(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := s.withAuthors(ctx, stories...); err != nil {
		return nil, err
	}
	if stories == nil {
		stories = []*Story{}
	}
	return &StoryPage{Data: stories, Meta: pageMeta(total, page)}, nil
}

func (s *StoryService) ByUser(ctx context.Context, userID string, skip, take int) (*StoryPage, error) {
	return s.List(ctx, StoryFilter{UserID: userID, PageOptions: PageOptions{Skip: skip, Take: take, Desc: true}})
}

func (s *StoryService) ByType(ctx context.Context, t StoryType, skip, take int) (*StoryPage, error) {
	return s.List(ctx, StoryFilter{Type: t, PageOptions: PageOptions{Skip: skip, Take: take, OrderBy: "createdAt", Desc: true}})
}

func (s *StoryService) Statistics(ctx context.Context) (*StoryStats, error) {
	var stats StoryStats
	counts := []struct {
		t   StoryType
		dst *int
	}{
		{"", &stats.Total},
		{StoryImage, &stats.ByType.Image},
		{StoryVideo, &stats.ByType.Video},
		{StoryText, &stats.ByType.Text},
	}
	for _, c := range counts {
		n, err := s.store.CountStories(ctx, c.t)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}
	return &stats, nil
}

// Update changes the caption and media of a story owned by actorID. The type
// only changes together with the media.
func (s *StoryService) Update(ctx context.Context, actorID, id string, req *UpdateStoryRequest) (*Story, error) {
	if req == nil {
		return nil, NewInvalidError("update payload required")
	}
	if req.Type != nil && !validStoryType(*req.Type) {
		return nil, NewInvalidError("type must be one of image, video, text")
	}
	cur, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.UserID != actorID {
		return nil, NewForbiddenError("only the author can change this story")
	}
	updated := *cur
	if req.Caption != nil {
		caption := strings.TrimSpace(*req.Caption)
		if caption == "" {
			return nil, NewInvalidError("caption must not be empty")
		}
		updated.Caption = caption
	}
	if req.MediaURL != nil {
		updated.MediaURL = strings.TrimSpace(*req.MediaURL)
		if req.Type != nil {
			updated.Type = *req.Type
		} else {
			updated.Type = InferStoryType(updated.MediaURL)
		}
	}
	updated.UpdatedAt = s.now()
	if err := s.store.UpdateStory(ctx, &updated); err != nil {
		return nil, err
	}
	if err := s.withAuthors(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *StoryService) Delete(ctx context.Context, actorID, id string) error {
	cur, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if cur.UserID != actorID {
		return NewForbiddenError("only the author can delete this story")
	}
	if err := s.store.DeleteStory(ctx, id); err != nil {
		return err
	}
	s.log.Info("story deleted", zap.String("story_id", id))
	return nil
}
