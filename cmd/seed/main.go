package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/url"
	"time"

	"github.com/anmol4210/realworld-api/internal/client"
)

var users = []struct {
	username string
	bio      string
}{
	{"jacobian", "Writes about web frameworks"},
	{"annegpt", "Food, travel and side projects"},
	{"marvin42", "Paranoid android, occasional blogger"},
	{"sallyride", "Space, science and everything between"},
	{"tinkerer", "Building things and writing them up"},
}

var articles = []struct {
	title       string
	description string
	tags        []string
}{
	{"How to train your dragon", "Ever wonder how?", []string{"dragons", "training"}},
	{"The case for boring technology", "Choose boring", []string{"engineering", "opinion"}},
	{"A week of cooking with only five ingredients", "Less is more", []string{"cooking"}},
	{"What I learned rewriting our billing system", "Twice", []string{"engineering"}},
	{"Notes from a solo bike trip across Portugal", "Hills, coffee, repeat", []string{"travel", "cycling"}},
	{"Why I still write unit tests first", "Old habits", []string{"testing", "opinion"}},
	{"The quiet joy of reading documentation", "RTFM, lovingly", []string{"writing"}},
	{"Sourdough for people who kill plants", "It forgives you", []string{"cooking", "baking"}},
}

var comments = []string{
	"Great write-up, thanks for sharing.",
	"I tried this last month and had the opposite experience.",
	"Do you have numbers to back this up?",
	"This is exactly what I needed to read today.",
	"Bookmarked. Would love a follow-up on the edge cases.",
	"Strong disagree, but well argued.",
	"The section on tradeoffs was especially good.",
	"How long did the whole process take you?",
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Server URL")
	flag.Parse()

	log.Printf("Seeding database at %s...\n", *baseURL)

	var clients []*client.Client
	for _, u := range users {
		c := client.New(*baseURL)
		user, err := c.Register(u.username, u.username+"@example.com", "password123")
		if err != nil {
			log.Fatalf("register %s: %v", u.username, err)
		}
		if _, err := c.UpdateUser(map[string]any{"bio": u.bio}); err != nil {
			log.Printf("✗ Failed to set bio for %s: %v", u.username, err)
		}
		log.Printf("✓ Registered user: %s", user.Username)
		clients = append(clients, c)
	}

	// Publish articles from random users
	type posted struct {
		slug   string
		author int
	}
	var slugs []posted
	for _, a := range articles {
		idx := rand.Intn(len(clients))
		c := clients[idx]

		body := "Full text for \"" + a.title + "\". " + a.description + "."
		article, err := c.PostArticle(a.title, a.description, body, a.tags)
		if err != nil {
			log.Printf("✗ Failed to post article: %v", err)
			continue
		}
		slugs = append(slugs, posted{slug: article.Slug, author: idx})
		log.Printf("✓ Posted %s (by %s)", article.Slug, users[idx].username)

		// Small delay to spread out created_at times
		time.Sleep(50 * time.Millisecond)
	}

	// Comment from random users
	for _, p := range slugs {
		numComments := rand.Intn(3) + 1
		for i := 0; i < numComments; i++ {
			idx := rand.Intn(len(clients))
			text := comments[rand.Intn(len(comments))]
			if _, err := clients[idx].PostComment(p.slug, text); err != nil {
				log.Printf("✗ Failed to comment: %v", err)
				continue
			}
			log.Printf("✓ Comment on %s (by %s)", p.slug, users[idx].username)
		}
	}

	// Follow and favorite
	for i, c := range clients {
		target := users[(i+1)%len(users)].username
		if _, err := c.Follow(target); err != nil {
			log.Printf("✗ %s could not follow %s: %v", users[i].username, target, err)
		}

		for _, p := range slugs {
			if p.author == i {
				continue
			}
			if rand.Float32() < 0.4 {
				if _, err := c.Favorite(p.slug); err != nil {
					continue
				}
			}
		}
	}
	log.Printf("✓ Added follows and favorites")

	tags, _ := clients[0].ListTags()
	feed, _ := clients[0].ListArticles(url.Values{})

	fmt.Println("\n=== Seed Complete ===")
	fmt.Printf("Users:    %d\n", len(users))
	fmt.Printf("Articles: %d\n", len(feed))
	fmt.Printf("Tags:     %d\n", len(tags))
	fmt.Println("\nAPI at:", *baseURL)
}
