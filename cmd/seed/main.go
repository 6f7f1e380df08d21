// Package main provides a tool to seed the database with demo content.
//
// It creates a demo account, the technology and lifestyle tags, and two
// blogs with one comment each. Writes go through the service layer so
// tags are resolved and blogs are indexed exactly as over the API.
// Stop the server first: both hold exclusive locks on the data directory.
//
// Usage:
//
//	go run ./cmd/seed
//	go run ./cmd/seed -reset                       # Clear blogs, comments and tags first
//	go run ./cmd/seed -reset -- -data-path ./data  # Server flags follow --
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/samber/do/v2"

	"github.com/inkwell-blog/inkwell-server/internal/config"
	"github.com/inkwell-blog/inkwell-server/internal/di"
	"github.com/inkwell-blog/inkwell-server/internal/di/providers"
	"github.com/inkwell-blog/inkwell-server/internal/domain"
	domainerrors "github.com/inkwell-blog/inkwell-server/internal/errors"
	"github.com/inkwell-blog/inkwell-server/internal/service"
)

var reset = flag.Bool("reset", false, "Delete existing blogs, comments and tags before seeding")

const (
	demoUsername = "demo"
	demoEmail    = "demo@inkwell.dev"
	demoPassword = "inkwell-demo"
)

type seedBlog struct {
	title       string
	description string
	tag         string
	comment     string
}

var blogs = []seedBlog{
	{
		title:       "The Future of AI",
		description: "A deep dive into the advancements and implications of artificial intelligence.",
		tag:         "technology",
		comment:     "Great article! Very insightful.",
	},
	{
		title:       "Healthy Living Tips",
		description: "Simple and effective tips for a healthier lifestyle.",
		tag:         "lifestyle",
		comment:     "Thanks for the tips, very helpful!",
	},
}

func main() {
	flag.Parse()

	if err := run(context.Background()); err != nil {
		log.Fatalf("Error seeding database: %v", err)
	}

	fmt.Println("Database seeded successfully!")
}

func run(ctx context.Context) error {
	cfg, err := config.Load(flag.Args())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	injector := di.NewContainer()
	do.OverrideValue(injector, cfg)
	defer func() {
		if err := injector.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	fmt.Printf("Opening %s store in: %s\n", cfg.Store.Driver, cfg.Data.Path)

	storeHandle, err := do.Invoke[*providers.StoreHandle](injector)
	if err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}

	if *reset {
		if err := clearContent(ctx, storeHandle); err != nil {
			return fmt.Errorf("clear existing data: %w", err)
		}
	}

	return seed(ctx, injector)
}

// clearContent deletes every blog (with its comments) and every tag. Accounts are kept.
func clearContent(ctx context.Context, st *providers.StoreHandle) error {
	existing, err := st.ListAllBlogs(ctx)
	if err != nil {
		return fmt.Errorf("list blogs: %w", err)
	}
	for _, b := range existing {
		if err := st.DeleteBlog(ctx, b.ID); err != nil {
			return fmt.Errorf("delete blog %s: %w", b.ID, err)
		}
	}

	tags, err := st.ListTags(ctx)
	if err != nil {
		return fmt.Errorf("list tags: %w", err)
	}
	for _, t := range tags {
		if _, err := st.DeleteTag(ctx, t.ID); err != nil {
			return fmt.Errorf("delete tag %s: %w", t.Name, err)
		}
	}

	fmt.Printf("Cleared %d blogs and %d tags.\n", len(existing), len(tags))
	return nil
}

func seed(ctx context.Context, injector do.Injector) error {
	authService := do.MustInvoke[*service.AuthService](injector)
	tagService := do.MustInvoke[*service.TagService](injector)
	blogService := do.MustInvoke[*service.BlogService](injector)
	commentService := do.MustInvoke[*service.CommentService](injector)

	author, err := demoIdentity(ctx, authService)
	if err != nil {
		return err
	}
	fmt.Printf("Using account %s <%s>\n", author.Username, author.Email)

	for _, b := range blogs {
		_, err := tagService.Create(ctx, author, service.TagRequest{Name: b.tag})
		if err != nil && !domainerrors.HasCode(err, domainerrors.CodeConflict) {
			return fmt.Errorf("create tag %s: %w", b.tag, err)
		}
	}
	fmt.Println("Created tags.")

	for _, b := range blogs {
		blog, err := blogService.Create(ctx, author, service.BlogRequest{
			Title:       b.title,
			Description: b.description,
			Tags:        domain.TagList{b.tag},
		})
		if err != nil {
			return fmt.Errorf("create blog %q: %w", b.title, err)
		}

		if _, err := commentService.Add(ctx, author, blog.ID, service.CommentRequest{Text: b.comment}); err != nil {
			return fmt.Errorf("comment on %q: %w", b.title, err)
		}
		fmt.Printf("Created blog %q (%s) with one comment\n", blog.Title, blog.ID)
	}

	return nil
}

// demoIdentity registers the demo account, or logs in when it already exists.
func demoIdentity(ctx context.Context, authService *service.AuthService) (*service.Identity, error) {
	user, err := authService.Register(ctx, service.RegisterRequest{
		Username: demoUsername,
		Email:    demoEmail,
		Password: demoPassword,
	})
	if err == nil {
		return &service.Identity{ID: user.ID, Username: user.Username, Email: user.Email}, nil
	}
	if !domainerrors.HasCode(err, domainerrors.CodeAlreadyExists) {
		return nil, fmt.Errorf("register demo user: %w", err)
	}

	login, err := authService.Login(ctx, service.LoginRequest{Email: demoEmail, Password: demoPassword})
	if err != nil {
		return nil, fmt.Errorf("log in as demo user: %w", err)
	}
	return &service.Identity{ID: login.User.ID, Username: login.User.Username, Email: login.User.Email}, nil
}
