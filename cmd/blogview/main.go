package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"blogview/internal/blogapi"
	"blogview/internal/config"
	"blogview/internal/domain"
	"blogview/internal/feed"
	"blogview/internal/likes"
	"blogview/internal/localstore"
	"blogview/internal/popular"
	"blogview/internal/session"
)

const usage = `usage: blogview <command> [flags]

commands:
  login       authenticate and store the session token
  logout      forget the session token
  posts       show a page of posts and the popular sidebar
  post        show, edit, or delete a single post with its comments
  new         create a post
  like        toggle your like on a post
  comment     add, edit, or delete a comment
  categories  list categories
  popular     show the popular ranking
`

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles the wired components a command works with.
type app struct {
	cfg    *config.Config
	store  *localstore.Store
	sess   *session.Session
	client *blogapi.Client
	svc    *feed.Service
}

func run() error {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("a command is required")
	}

	// A .env next to the binary is a convenience, not a requirement.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	store, err := localstore.Open(cfg.StatePath)
	if err != nil {
		return fmt.Errorf("open local state: %w", err)
	}
	defer store.Close()

	sess, err := session.New(store)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	client := blogapi.NewClient(cfg.BaseURL, sess)
	client.SetTimeout(cfg.RequestTimeout)

	likeStore := likes.NewStore(client, logger)
	popularList := popular.NewList(client, client, likeStore, cfg.PopularLimit, logger)
	toggles := likes.NewController(likeStore, client, popularList, logger)
	svc := feed.NewService(client, sess, likeStore, toggles, popularList, cfg.PageSize, logger)

	a := &app{cfg: cfg, store: store, sess: sess, client: client, svc: svc}

	ctx := context.Background()
	cmd, args := os.Args[1], os.Args[2:]

	switch cmd {
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.logout()
	case "posts":
		return a.posts(ctx, args)
	case "post":
		return a.post(ctx, args)
	case "new":
		return a.newPost(ctx, args)
	case "like":
		return a.like(ctx, args)
	case "comment":
		return a.comment(ctx, args)
	case "categories":
		return a.categories(ctx)
	case "popular":
		return a.popular(ctx)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("username", envOrDefault("BLOG_USERNAME", ""), "account username or email")
	password := fs.String("password", envOrDefault("BLOG_PASSWORD", ""), "account password")
	fs.Parse(args)

	if *username == "" || *password == "" {
		return fmt.Errorf("-username and -password are required (or set BLOG_USERNAME and BLOG_PASSWORD)")
	}

	token, err := a.client.Login(ctx, *username, *password)
	if err != nil {
		return err
	}
	if err := a.sess.SetToken(token); err != nil {
		return err
	}

	fmt.Printf("Logged in as %s\n", *username)
	return nil
}

func (a *app) logout() error {
	if err := a.sess.Clear(); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

func (a *app) posts(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("posts", flag.ExitOnError)
	pageNumber := fs.Int("page", 0, "page number, starting at 0")
	fs.Parse(args)

	page, err := a.svc.LoadPage(ctx, *pageNumber)
	if err != nil {
		// Fall back to the last snapshot when the server cannot be reached.
		if cached := a.printCachedPage(ctx); cached {
			return nil
		}
		return err
	}

	fmt.Printf("Posts (page %d/%d, %d total)\n\n", page.PageNumber+1, page.TotalPages, page.TotalElements)
	for _, p := range page.Posts {
		st := a.svc.LikeState(p.ID)
		heart := "-"
		if st.Liked {
			heart = "*"
		}
		line := fmt.Sprintf("  #%-5d %s %3d  %s", p.ID, heart, st.Count, p.Title)
		if title := a.svc.CategoryTitle(ctx, &p); title != "" {
			line += fmt.Sprintf("  [%s]", title)
		}
		if !p.CreatedAt.IsZero() {
			line += "  " + p.CreatedAt.Format("02/01/2006")
		}
		fmt.Println(line)
	}
	if page.LastPage {
		fmt.Println("\n(last page)")
	}

	a.printPopular(a.svc.Popular())
	a.saveSnapshots(ctx, page)
	return nil
}

func (a *app) post(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("post", flag.ExitOnError)
	id := fs.Int64("id", 0, "post id")
	title := fs.String("title", "", "new title (edits the post together with -desc)")
	desc := fs.String("desc", "", "new description")
	del := fs.Bool("delete", false, "delete the post")
	fs.Parse(args)

	if *id <= 0 {
		return fmt.Errorf("-id is required")
	}

	if *del {
		if err := a.svc.DeletePost(ctx, *id); err != nil {
			return loginHint(err)
		}
		fmt.Printf("Post #%d deleted\n", *id)
		return nil
	}

	if *title != "" || *desc != "" {
		updated, err := a.svc.UpdatePost(ctx, *id, *title, *desc)
		if err != nil {
			return loginHint(err)
		}
		fmt.Printf("Post #%d updated: %s\n", updated.ID, updated.Title)
		return nil
	}

	post, comments, err := a.svc.PostDetail(ctx, *id)
	if err != nil {
		return err
	}

	fmt.Printf("#%d %s\n", post.ID, post.Title)
	if title := a.svc.CategoryTitle(ctx, post); title != "" {
		fmt.Printf("[%s]\n", title)
	}
	if !post.CreatedAt.IsZero() {
		fmt.Println(post.CreatedAt.Format("02/01/2006"))
	}
	fmt.Printf("\n%s\n", post.Description)
	fmt.Printf("\nPhoto: %s\n", a.client.PhotoURL(post.ID))

	fmt.Printf("\nComments (%d):\n", len(comments))
	for _, c := range comments {
		fmt.Printf("  #%-5d %s: %s\n", c.ID, c.UserName, c.Description)
	}
	return nil
}

func (a *app) newPost(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("new", flag.ExitOnError)
	title := fs.String("title", "", "post title")
	desc := fs.String("desc", "", "post description")
	categoryID := fs.Int64("category", 0, "category id")
	fs.Parse(args)

	post, err := a.svc.CreatePost(ctx, *categoryID, *title, *desc)
	if err != nil {
		return loginHint(err)
	}
	fmt.Printf("Post #%d created: %s\n", post.ID, post.Title)
	return nil
}

func (a *app) like(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("like", flag.ExitOnError)
	id := fs.Int64("id", 0, "post id")
	fs.Parse(args)

	if *id <= 0 {
		return fmt.Errorf("-id is required")
	}

	post, err := a.client.GetPost(ctx, *id)
	if err != nil {
		return err
	}

	// Hydrate first so the toggle works from the server's current count and
	// ownership rather than from zero state.
	a.svc.Hydrate(ctx, []domain.Post{*post})
	applied, err := a.svc.ToggleLike(ctx, post.ID)
	if err != nil {
		return loginHint(err)
	}
	if !applied {
		return fmt.Errorf("another toggle is still in flight for post #%d", post.ID)
	}

	st := a.svc.LikeState(post.ID)
	if st.Liked {
		fmt.Printf("Liked #%d %s (%d likes)\n", post.ID, post.Title, st.Count)
	} else {
		fmt.Printf("Unliked #%d %s (%d likes)\n", post.ID, post.Title, st.Count)
	}
	return nil
}

func (a *app) comment(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("comment", flag.ExitOnError)
	postID := fs.Int64("post", 0, "post id to comment on")
	text := fs.String("text", "", "comment text")
	editID := fs.Int64("edit", 0, "comment id to edit (with -text)")
	deleteID := fs.Int64("delete", 0, "comment id to delete")
	fs.Parse(args)

	switch {
	case *deleteID > 0:
		if err := a.svc.DeleteComment(ctx, *deleteID); err != nil {
			return loginHint(err)
		}
		fmt.Printf("Comment #%d deleted\n", *deleteID)
		return nil

	case *editID > 0:
		updated, err := a.svc.EditComment(ctx, *editID, *text)
		if err != nil {
			return loginHint(err)
		}
		fmt.Printf("Comment #%d updated\n", updated.ID)
		return nil

	case *postID > 0:
		created, err := a.svc.AddComment(ctx, *postID, *text)
		if err != nil {
			return loginHint(err)
		}
		fmt.Printf("Comment #%d added to post #%d\n", created.ID, *postID)
		return nil

	default:
		return fmt.Errorf("one of -post, -edit, or -delete is required")
	}
}

func (a *app) categories(ctx context.Context) error {
	m := a.svc.Categories(ctx)
	if len(m) == 0 {
		fmt.Println("No categories")
		return nil
	}
	for id, title := range m {
		fmt.Printf("  #%-5d %s\n", id, title)
	}
	return nil
}

func (a *app) popular(ctx context.Context) error {
	items := a.svc.Popular()
	if len(items) == 0 {
		// Nothing loaded this run; build the ranking from the server alone.
		items = a.svc.LoadPopular(ctx)
	}
	a.printPopular(items)
	return nil
}

func (a *app) printPopular(items []domain.PopularItem) {
	fmt.Println("\nPopular Posts")
	if len(items) == 0 {
		fmt.Println("  (no data yet)")
		return
	}
	for _, item := range items {
		line := fmt.Sprintf("  #%-5d %3d likes  %s", item.ID, item.LikeCount, item.Title)
		if !item.CreatedAt.IsZero() {
			line += "  " + item.CreatedAt.Format("02/01/2006")
		}
		fmt.Println(line)
	}
}

// printCachedPage renders the last saved snapshot. Returns false when
// there is nothing cached.
func (a *app) printCachedPage(ctx context.Context) bool {
	posts, err := a.store.LoadPageSnapshot(ctx)
	if err != nil || len(posts) == 0 {
		return false
	}

	fmt.Println("Server unreachable, showing cached posts:")
	for _, p := range posts {
		heart := "-"
		if p.Liked {
			heart = "*"
		}
		line := fmt.Sprintf("  #%-5d %s %3d  %s", p.ID, heart, p.LikeCount, p.Title)
		if p.CategoryTitle != "" {
			line += fmt.Sprintf("  [%s]", p.CategoryTitle)
		}
		fmt.Println(line)
	}

	if items, err := a.store.LoadPopularSnapshot(ctx); err == nil && len(items) > 0 {
		a.printPopular(items)
	}
	return true
}

// saveSnapshots caches what was just rendered; a failure only costs the
// offline fallback, so it is reported and swallowed.
func (a *app) saveSnapshots(ctx context.Context, page *domain.PostPage) {
	snapshot := make([]localstore.SnapshotPost, len(page.Posts))
	for i, p := range page.Posts {
		st := a.svc.LikeState(p.ID)
		snapshot[i] = localstore.SnapshotPost{
			ID:            p.ID,
			Title:         p.Title,
			Description:   p.Description,
			CategoryTitle: a.svc.CategoryTitle(ctx, &p),
			LikeCount:     st.Count,
			Liked:         st.Liked,
			CreatedAt:     p.CreatedAt,
		}
	}
	if err := a.store.SavePageSnapshot(ctx, snapshot); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not cache page: %v\n", err)
	}
	if err := a.store.SavePopularSnapshot(ctx, a.svc.Popular()); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not cache popular list: %v\n", err)
	}
}

// loginHint turns the login-required sentinel into an actionable message.
func loginHint(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrLoginRequired) {
		return fmt.Errorf("login required: run 'blogview login' first")
	}
	return err
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
