// Package stats computes aggregate figures over a snapshot of posts.
// Every function is pure: no I/O, no shared state, deterministic for a
// given input order.
package stats

import "github.com/cppla/bloglist/models"

// Favorite is the most-liked post.
type Favorite struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Likes  int    `json:"likes"`
}

// AuthorBlogs is the author with the most posts.
type AuthorBlogs struct {
	Author string `json:"author"`
	Blogs  int    `json:"blogs"`
}

// AuthorLikes is the author whose posts collected the most likes.
type AuthorLikes struct {
	Author string `json:"author"`
	Likes  int    `json:"likes"`
}

// Summary bundles every aggregate for one snapshot.
type Summary struct {
	Posts        int         `json:"posts"`
	TotalLikes   int         `json:"totalLikes"`
	FavoriteBlog Favorite    `json:"favoriteBlog"`
	MostBlogs    AuthorBlogs `json:"mostBlogs"`
	MostLikes    AuthorLikes `json:"mostLikes"`
}

// TotalLikes sums the likes of every post.
func TotalLikes(posts []models.Post) int {
	total := 0
	for _, p := range posts {
		total += p.Likes
	}
	return total
}

// FavoriteBlog returns the post with the most likes. The earliest post wins a tie.
func FavoriteBlog(posts []models.Post) Favorite {
	if len(posts) == 0 {
		return Favorite{}
	}
	best := posts[0]
	for _, p := range posts[1:] {
		if p.Likes > best.Likes {
			best = p
		}
	}
	return Favorite{Title: best.Title, Author: best.Author, Likes: best.Likes}
}

// DistinctAuthors lists every author once, in ascending order.
func DistinctAuthors(posts []models.Post) []string {
	names := make([]string, len(posts))
	for i, p := range posts {
		names[i] = p.Author
	}
	return DedupeSorted(SortStrings(names))
}

// MostBlogs returns the author with the most posts. Among equally prolific
// authors the smallest name wins.
func MostBlogs(posts []models.Post) AuthorBlogs {
	authors := DistinctAuthors(posts)
	if len(authors) == 0 {
		return AuthorBlogs{}
	}

	var leader AuthorBlogs
	for i, author := range authors {
		count := 0
		for _, p := range posts {
			if p.Author == author {
				count++
			}
		}
		if i == 0 || count > leader.Blogs {
			leader = AuthorBlogs{Author: author, Blogs: count}
		}
	}
	return leader
}

// MostLikes returns the author with the highest summed likes. Among equal
// totals the smallest name wins.
func MostLikes(posts []models.Post) AuthorLikes {
	authors := DistinctAuthors(posts)
	if len(authors) == 0 {
		return AuthorLikes{}
	}

	var leader AuthorLikes
	for i, author := range authors {
		likes := 0
		for _, p := range posts {
			if p.Author == author {
				likes += p.Likes
			}
		}
		if i == 0 || likes > leader.Likes {
			leader = AuthorLikes{Author: author, Likes: likes}
		}
	}
	return leader
}

// Summarize computes every aggregate for posts.
func Summarize(posts []models.Post) Summary {
	return Summary{
		Posts:        len(posts),
		TotalLikes:   TotalLikes(posts),
		FavoriteBlog: FavoriteBlog(posts),
		MostBlogs:    MostBlogs(posts),
		MostLikes:    MostLikes(posts),
	}
}
