package seed

import (
	"context"
	"fmt"
	"log"

	"postshare/internal/models"

	"gorm.io/gorm"
)

// Options configure the seeder.
type Options struct {
	NumUsers    int
	NumPosts    int
	MaxFollows  int
	MaxLikes    int
	MaxComments int
	MaxDays     int
	SkipBcrypt  bool
	ShouldClean bool
	// RandomSeed makes a run reproducible when non-zero.
	RandomSeed int64
}

// DefaultOptions is the preset used by cmd/seed without flags.
var DefaultOptions = Options{
	NumUsers:    25,
	NumPosts:    80,
	MaxFollows:  8,
	MaxLikes:    10,
	MaxComments: 4,
	MaxDays:     90,
}

// Report counts what one run wrote.
type Report struct {
	Users    int
	Follows  int
	Posts    int
	Likes    int
	Comments int
	Replies  int
}

// Seeder writes a consistent demo data set: follow edges are recorded on both users and
// each follow leaves a notification in the followed user's inbox.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

func NewSeeder(db *gorm.DB, opts Options) (*Seeder, error) {
	f, err := NewFactory(opts)
	if err != nil {
		return nil, err
	}
	return &Seeder{db: db, opts: opts, factory: f}, nil
}

// Seed is a convenience wrapper around NewSeeder and Run.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Report, error) {
	s, err := NewSeeder(db, opts)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx)
}

// Run seeds users, the follow mesh, posts and their engagement.
func (s *Seeder) Run(ctx context.Context) (*Report, error) {
	log.Printf("🌱 Seeding %d users and %d posts...", s.opts.NumUsers, s.opts.NumPosts)
	db := s.db.WithContext(ctx)
	report := &Report{}

	if s.opts.ShouldClean {
		if err := clearData(db); err != nil {
			return nil, fmt.Errorf("clear data: %w", err)
		}
	}

	users, err := s.createUsers(db)
	if err != nil {
		return nil, fmt.Errorf("create users: %w", err)
	}
	report.Users = len(users)
	if len(users) == 0 {
		return report, nil
	}

	follows, err := s.followMesh(db, users)
	if err != nil {
		return nil, fmt.Errorf("follow mesh: %w", err)
	}
	report.Follows = follows
	log.Printf("✓ %d users, %d follow edges", report.Users, report.Follows)

	if err := s.createPosts(db, users, report); err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	log.Printf("✓ %d posts, %d likes, %d comments, %d replies",
		report.Posts, report.Likes, report.Comments, report.Replies)
	return report, nil
}

func clearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	if db.Dialector.Name() == "postgres" {
		return db.Exec(`TRUNCATE TABLE posts, users RESTART IDENTITY CASCADE`).Error
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.User{}).Error
	})
}

func (s *Seeder) createUsers(db *gorm.DB) ([]*models.User, error) {
	users := make([]*models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		users = append(users, s.factory.BuildUser(i))
	}
	if len(users) == 0 {
		return users, nil
	}
	if err := db.CreateInBatches(users, 100).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Seeder) followMesh(db *gorm.DB, users []*models.User) (int, error) {
	ids := make([]uint, len(users))
	byID := make(map[uint]*models.User, len(users))
	for i, u := range users {
		ids[i] = u.ID
		byID[u.ID] = u
	}

	edges := 0
	for _, actor := range users {
		for _, targetID := range s.factory.Pick(ids, s.factory.Intn(s.opts.MaxFollows+1), actor.ID) {
			target := byID[targetID]
			actor.Following = models.AddID(actor.Following, targetID)
			target.Followers = models.AddID(target.Followers, actor.ID)
			target.Notifications = append(target.Notifications,
				models.NewNotification(models.NotificationFollow, actor.ID, nil, s.factory.now()))
			edges++
		}
	}

	return edges, db.Transaction(func(tx *gorm.DB) error {
		for _, u := range users {
			if err := tx.Model(u).Select("followers", "following", "notifications").Updates(u).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Seeder) createPosts(db *gorm.DB, users []*models.User, report *Report) error {
	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}

	posts := make([]*models.Post, 0, s.opts.NumPosts)
	for i := 0; i < s.opts.NumPosts; i++ {
		post := s.factory.BuildPost(ids[s.factory.Intn(len(ids))])

		post.Likes = s.factory.Pick(ids, s.factory.Intn(s.opts.MaxLikes+1), 0)
		report.Likes += len(post.Likes)

		for c := s.factory.Intn(s.opts.MaxComments + 1); c > 0; c-- {
			comment := s.factory.BuildComment(ids[s.factory.Intn(len(ids))], post.CreatedAt)
			comment.Likes = s.factory.Pick(ids, s.factory.Intn(3), 0)
			if s.factory.Intn(3) == 0 {
				comment.Replies = append(comment.Replies,
					s.factory.BuildReply(ids[s.factory.Intn(len(ids))], comment.CreatedAt))
				report.Replies++
			}
			post.Comments = append(post.Comments, comment)
			report.Comments++
		}
		posts = append(posts, post)
	}
	if len(posts) == 0 {
		return nil
	}
	if err := db.CreateInBatches(posts, 100).Error; err != nil {
		return err
	}
	report.Posts = len(posts)
	return nil
}
