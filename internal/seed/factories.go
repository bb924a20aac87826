// Package seed provides helpers to create demo data for development and
// testing. These helpers are not used by the running server.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"postshare/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password123"

// Categories used for seeded posts, alongside models.DefaultCategory.
var Categories = []string{
	models.DefaultCategory, "Technology", "Travel", "Food", "Music", "Sports", "Books", "Art",
}

// Factory builds domain entities from fake data. It never touches the database.
type Factory struct {
	faker        *gofakeit.Faker
	rng          *rand.Rand
	opts         Options
	passwordHash string
	now          func() time.Time
}

// NewFactory creates a Factory. A zero opts.RandomSeed seeds from the clock.
func NewFactory(opts Options) (*Factory, error) {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	hash := DemoPassword
	if !opts.SkipBcrypt {
		b, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash demo password: %w", err)
		}
		hash = string(b)
	}

	return &Factory{
		faker: gofakeit.New(seed),
		//nolint:gosec // Weak random number generator is fine for seeding
		rng:          rand.New(rand.NewSource(seed)),
		opts:         opts,
		passwordHash: hash,
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

// BuildUser returns an unsaved user. n keeps usernames and emails unique within one run.
func (f *Factory) BuildUser(n int) *models.User {
	username := fmt.Sprintf("%s%d", strings.ToLower(f.faker.Username()), n)
	if len(username) > 30 {
		username = username[len(username)-30:]
	}
	return &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: f.passwordHash,
		Bio:      f.faker.Sentence(10),
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username),
	}
}

// BuildPost returns an unsaved post owned by ownerID with a created_at spread over MaxDays.
func (f *Factory) BuildPost(ownerID uint) *models.Post {
	tags := make([]string, 0, 3)
	for i := f.rng.Intn(4); i > 0; i-- {
		tags = append(tags, strings.ToLower(f.faker.Noun()))
	}

	post := &models.Post{
		UserID:      ownerID,
		Title:       strings.TrimSuffix(f.faker.Sentence(5), "."),
		Description: f.faker.Paragraph(1, 3, 8, " "),
		Category:    Categories[f.rng.Intn(len(Categories))],
		Tags:        models.ParseTags(strings.Join(tags, ",")),
		CreatedAt:   f.pastTime(),
	}
	if f.rng.Float32() < 0.4 {
		post.Image = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID())
	}
	return post
}

// BuildComment returns a comment by authorID written after the post it belongs to.
func (f *Factory) BuildComment(authorID uint, after time.Time) models.Comment {
	return models.Comment{
		ID:        uuid.NewString(),
		UserID:    authorID,
		Text:      f.faker.Sentence(8),
		CreatedAt: f.laterThan(after),
		Likes:     []uint{},
		Replies:   []models.Reply{},
	}
}

// BuildReply returns a reply by authorID written after its comment.
func (f *Factory) BuildReply(authorID uint, after time.Time) models.Reply {
	return models.Reply{
		ID:        uuid.NewString(),
		UserID:    authorID,
		Text:      f.faker.Sentence(6),
		CreatedAt: f.laterThan(after),
		Likes:     []uint{},
	}
}

// Pick returns up to n distinct ids from ids, never including skip.
func (f *Factory) Pick(ids []uint, n int, skip uint) []uint {
	out := make([]uint, 0, n)
	for _, i := range f.rng.Perm(len(ids)) {
		if len(out) == n {
			break
		}
		if ids[i] != skip {
			out = append(out, ids[i])
		}
	}
	return out
}

// Intn exposes the factory's seeded generator so one seed reproduces a whole run.
func (f *Factory) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return f.rng.Intn(n)
}

func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return f.now().Add(-back)
}

func (f *Factory) laterThan(t time.Time) time.Time {
	gap := f.now().Sub(t)
	if gap <= time.Minute {
		return t
	}
	return t.Add(time.Duration(f.rng.Int63n(int64(gap))))
}
