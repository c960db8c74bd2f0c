package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/anmol4210/realworld-api/internal/auth"
	"github.com/anmol4210/realworld-api/internal/client"
	"github.com/anmol4210/realworld-api/internal/config"
	httpapp "github.com/anmol4210/realworld-api/internal/http"
	"github.com/anmol4210/realworld-api/internal/store/sqlite"
)

// Build metadata, set via -ldflags "-X main.version=...".
var (
	version   = "dev"
	commit    = ""
	buildTime = ""
)

// CLIConfig holds the CLI client configuration persisted to disk.
type CLIConfig struct {
	BaseURL  string `json:"base_url"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token"`
}

func main() {
	if len(os.Args) < 2 {
		runServer()
		return
	}

	cmd := os.Args[1]

	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		printUsage()
		return
	}

	if cmd == "-v" || cmd == "--version" || cmd == "version" {
		fmt.Printf("realworld %s\n", version)
		return
	}

	if strings.HasPrefix(cmd, "-") {
		runServer()
		return
	}

	args := os.Args[2:]

	switch cmd {
	case "server", "serve":
		runServer()
	case "register":
		cmdRegister(args)
	case "login":
		cmdLogin(args)
	case "post":
		cmdPost(args)
	case "read", "list":
		cmdRead(args)
	case "comment":
		cmdComment(args)
	case "follow":
		cmdFollow(args, true)
	case "unfollow":
		cmdFollow(args, false)
	case "favorite":
		cmdFavorite(args, true)
	case "unfavorite":
		cmdFavorite(args, false)
	case "whoami", "status":
		cmdWhoami(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`realworld - Social blogging platform

Usage: realworld <command> [options]

Quick Start:
  realworld register --username alice --email a@example.com --password secret
  realworld post --title "Hello" --body "My first article"

Client Commands:
  register            Create an account and store the token
  login               Log in with email and password
  post                Publish an article
  read                Read articles (or one article with comments)
  comment             Comment on an article
  follow / unfollow   Follow or unfollow a user
  favorite            Mark an article as a favorite
  unfavorite          Remove an article from favorites
  whoami              Show the stored account and token status

Server:
  server              Start the API server (default if no command)

Examples:
  realworld post --title "Go tips" --body "..." --tags go,tips
  realworld read --limit 5
  realworld read --slug go_tips_Ab3xZ
  realworld comment --slug go_tips_Ab3xZ --body "Nice one"
  realworld favorite --slug go_tips_Ab3xZ

Environment Variables (server):
  REALWORLD_ADDR          Listen address (default: :8080)
  REALWORLD_DB            Database path (default: realworld.db)
  REALWORLD_JWT_SECRET    Token signing secret
  REALWORLD_TOKEN_TTL     Token lifetime (default: 1440h)
  REALWORLD_SESSION_TTL   Login session lifetime (default: 5m)`)
}

// ============================================================================
// SERVER
// ============================================================================

func runServer() {
	cfg := config.Load()
	cfg.Version = version
	cfg.Commit = commit
	cfg.BuildTime = buildTime

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer store.Close()

	authSvc := auth.NewService(store, []byte(cfg.JWTSecret), cfg.TokenTTL, cfg.SessionTTL)
	server := httpapp.NewServer(store, authSvc, cfg)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("realworld listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
}

// ============================================================================
// CLIENT COMMANDS
// ============================================================================

func cmdRegister(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("username", "", "Username (required, at least 4 chars)")
	email := fs.String("email", "", "Email (required)")
	password := fs.String("password", "", "Password (required, at least 6 chars)")
	baseURL := fs.String("url", "http://localhost:8080", "Server URL")
	fs.Parse(args)

	if *username == "" || *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "Error: --username, --email and --password are required")
		os.Exit(1)
	}

	c := client.New(strings.TrimSuffix(*baseURL, "/"))
	user, err := c.Register(*username, *email, *password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := CLIConfig{
		BaseURL:  c.BaseURL,
		Username: user.Username,
		Email:    user.Email,
		Token:    user.Token,
	}
	if err := saveCLIConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Registered '%s'\n", user.Username)
	fmt.Printf("  Config: %s\n", cliConfigPath())
}

func cmdLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Email (required)")
	password := fs.String("password", "", "Password (required)")
	baseURL := fs.String("url", "", "Server URL (defaults to the stored one)")
	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "Error: --email and --password are required")
		os.Exit(1)
	}

	cfg, _ := loadCLIConfig()
	server := cfg.BaseURL
	if *baseURL != "" {
		server = strings.TrimSuffix(*baseURL, "/")
	}
	if server == "" {
		server = "http://localhost:8080"
	}

	c := client.New(server)
	user, err := c.Login(*email, *password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg = CLIConfig{
		BaseURL:  server,
		Username: user.Username,
		Email:    user.Email,
		Token:    user.Token,
	}
	if err := saveCLIConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Logged in as '%s'\n", user.Username)
}

func cmdPost(args []string) {
	fs := flag.NewFlagSet("post", flag.ExitOnError)
	title := fs.String("title", "", "Article title (required)")
	description := fs.String("description", "", "Short description")
	body := fs.String("body", "", "Article body")
	tags := fs.String("tags", "", "Comma-separated tags")
	fs.Parse(args)

	if *title == "" {
		fmt.Fprintln(os.Stderr, "Error: --title is required")
		os.Exit(1)
	}

	c, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var tagList []string
	if *tags != "" {
		tagList = strings.Split(*tags, ",")
		for i := range tagList {
			tagList[i] = strings.TrimSpace(tagList[i])
		}
	}

	article, err := c.PostArticle(*title, *description, *body, tagList)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Posted: %s\n", article.Title)
	fmt.Printf("  Slug: %s\n", article.Slug)
}

func cmdRead(args []string) {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	slug := fs.String("slug", "", "Read one article with its comments")
	tag := fs.String("tag", "", "Filter by tag")
	author := fs.String("author", "", "Filter by author username")
	favorited := fs.String("favorited", "", "Filter by favoriting username")
	limit := fs.Int("limit", 10, "Number of articles")
	fs.Parse(args)

	cfg, _ := loadCLIConfig()
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	c := client.New(baseURL)
	c.Token = cfg.Token

	if *slug != "" {
		article, err := c.GetArticle(*slug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("\n%s\n", article.Title)
		fmt.Printf("  by %s | ♥ %d", article.Author.Username, article.FavoritesCount)
		if len(article.TagList) > 0 {
			fmt.Printf(" | #%s", strings.Join(article.TagList, " #"))
		}
		fmt.Println()
		if article.Description != "" {
			fmt.Printf("  %s\n", article.Description)
		}
		if article.Body != "" {
			fmt.Printf("\n  %s\n", article.Body)
		}

		comments, err := c.ListComments(*slug)
		if err == nil && len(comments) > 0 {
			fmt.Printf("\n  --- Comments (%d) ---\n", len(comments))
			for _, comment := range comments {
				fmt.Printf("  %s: %s\n", comment.Author.Username, comment.Body)
			}
		}
		return
	}

	query := url.Values{}
	if *tag != "" {
		query.Set("tag", *tag)
	}
	if *author != "" {
		query.Set("author", *author)
	}
	if *favorited != "" {
		query.Set("favorited", *favorited)
	}
	query.Set("limit", strconv.Itoa(*limit))

	articles, err := c.ListArticles(query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	for i, a := range articles {
		fmt.Printf("%d. %s\n", i+1, a.Title)
		fmt.Printf("   by %s | ♥ %d | %s\n\n", a.Author.Username, a.FavoritesCount, a.Slug)
	}
}

func cmdComment(args []string) {
	fs := flag.NewFlagSet("comment", flag.ExitOnError)
	slug := fs.String("slug", "", "Article slug (required)")
	body := fs.String("body", "", "Comment text (required)")
	fs.Parse(args)

	if *slug == "" || *body == "" {
		fmt.Fprintln(os.Stderr, "Error: --slug and --body are required")
		os.Exit(1)
	}

	c, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	comment, err := c.PostComment(*slug, *body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Commented on %s\n", *slug)
	fmt.Printf("  ID: %s\n", comment.ID)
}

func cmdFollow(args []string, follow bool) {
	fs := flag.NewFlagSet("follow", flag.ExitOnError)
	username := fs.String("user", "", "Username (required)")
	fs.Parse(args)

	if *username == "" {
		fmt.Fprintln(os.Stderr, "Error: --user is required")
		os.Exit(1)
	}

	c, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var profile *client.Profile
	if follow {
		profile, err = c.Follow(*username)
	} else {
		profile, err = c.Unfollow(*username)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if profile.Following {
		fmt.Printf("✓ Following '%s'\n", profile.Username)
	} else {
		fmt.Printf("✓ Not following '%s'\n", profile.Username)
	}
}

func cmdFavorite(args []string, favorite bool) {
	fs := flag.NewFlagSet("favorite", flag.ExitOnError)
	slug := fs.String("slug", "", "Article slug (required)")
	fs.Parse(args)

	if *slug == "" {
		fmt.Fprintln(os.Stderr, "Error: --slug is required")
		os.Exit(1)
	}

	c, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var article *client.Article
	if favorite {
		article, err = c.Favorite(*slug)
	} else {
		article, err = c.Unfavorite(*slug)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ %s now has %d favorites\n", article.Slug, article.FavoritesCount)
}

func cmdWhoami(args []string) {
	cfg, err := loadCLIConfig()
	if err != nil {
		fmt.Println("Status: Not logged in")
		fmt.Println("\nRun: realworld register --username <name> --email <email> --password <pw>")
		return
	}

	fmt.Printf("User:   %s\n", cfg.Username)
	fmt.Printf("Email:  %s\n", cfg.Email)
	fmt.Printf("Server: %s\n", cfg.BaseURL)

	if cfg.Token == "" {
		fmt.Println("Token:  Not authenticated")
		fmt.Println("\nRun: realworld login")
		return
	}

	c := client.New(cfg.BaseURL)
	c.Token = cfg.Token
	if user, err := c.CurrentUser(); err == nil {
		fmt.Println("Token:  Valid")
		cfg.Token = user.Token
		_ = saveCLIConfig(cfg)
	} else {
		fmt.Println("Token:  Invalid or expired")
		fmt.Println("\nRun: realworld login")
	}
}

// ============================================================================
// HELPERS
// ============================================================================

func cliConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".realworld", "config.json")
}

func loadCLIConfig() (CLIConfig, error) {
	data, err := os.ReadFile(cliConfigPath())
	if err != nil {
		return CLIConfig{}, errors.New("not logged in")
	}
	var cfg CLIConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return CLIConfig{}, err
	}
	return cfg, nil
}

func saveCLIConfig(cfg CLIConfig) error {
	path := cliConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, _ := json.MarshalIndent(cfg, "", "  ")
	return os.WriteFile(path, data, 0600)
}

func loadAuthenticatedClient() (*client.Client, error) {
	cfg, err := loadCLIConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Token == "" {
		return nil, errors.New("not authenticated - run 'realworld login'")
	}

	c := client.New(cfg.BaseURL)
	c.Token = cfg.Token
	return c, nil
}
