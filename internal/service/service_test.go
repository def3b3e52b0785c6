package service

import (
	"fmt"
	"strings"
	"testing"

	"platefeed/internal/model"
	"platefeed/internal/repository"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires the full service stack over an in-memory database, with
// caching and messaging absent the way a degraded deployment would run.
type testEnv struct {
	db *gorm.DB

	userRepo   repository.UserRepository
	ratingRepo repository.RatingRepository
	postRepo   repository.PostRepository
	likeRepo   repository.LikeRepository
	wtgRepo    repository.WantToGoRepository
	tagRepo    repository.TagRepository
	notifRepo  repository.NotificationRepository

	auth         AuthService
	views        ViewService
	tags         TagService
	interactions InteractionService
	posts        PostService
	search       SearchService
	notifs       NotificationService
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named shared-cache DSN keeps every pooled connection on the same
	// database; a bare :memory: gives each connection its own.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.Rating{},
		&model.Post{},
		&model.Like{},
		&model.WantToGo{},
		&model.Tag{},
		&model.PostTag{},
		&model.Notification{},
	); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)

	env := &testEnv{
		db:         db,
		userRepo:   repository.NewUserRepository(db),
		ratingRepo: repository.NewRatingRepository(db),
		postRepo:   repository.NewPostRepository(db, nil),
		likeRepo:   repository.NewLikeRepository(db, nil),
		wtgRepo:    repository.NewWantToGoRepository(db, nil),
		tagRepo:    repository.NewTagRepository(db, nil),
		notifRepo:  repository.NewNotificationRepository(db),
	}

	if err := env.ratingRepo.Seed(); err != nil {
		t.Fatalf("seed ratings: %v", err)
	}

	env.auth = NewAuthService(env.userRepo, "test-secret")
	env.views = NewViewService(env.postRepo, env.likeRepo, env.wtgRepo, env.tagRepo)
	env.tags = NewTagService(env.tagRepo, env.postRepo)
	env.notifs = NewNotificationService(env.notifRepo, nil)
	env.interactions = NewInteractionService(env.likeRepo, env.wtgRepo, env.postRepo, env.userRepo, env.notifs)
	env.posts = NewPostService(db, env.postRepo, env.userRepo, env.ratingRepo, env.tagRepo,
		env.likeRepo, env.wtgRepo, env.notifRepo, env.tags, env.views)
	env.search = NewSearchService(env.tagRepo, env.views)

	return env
}

func (e *testEnv) createUser(t *testing.T, name string) *model.User {
	t.Helper()
	user := &model.User{
		DisplayName:  name,
		Email:        strings.ToLower(name) + "@example.com",
		PasswordHash: "x",
	}
	if err := e.userRepo.Create(user); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

func (e *testEnv) createPost(t *testing.T, ownerID, title string, tags ...string) *PostView {
	t.Helper()
	view, err := e.posts.CreatePost(ownerID, CreatePostRequest{
		Title: title,
		Tags:  tags,
	})
	if err != nil {
		t.Fatalf("create post %q: %v", title, err)
	}
	return view
}
