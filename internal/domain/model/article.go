package model

import "time"

// Article belongs to exactly one author, referenced by user id. The
// reference is a plain foreign key: when the author's account is
// deleted the article is cascade-deleted right after, so a dangling
// author id exists only transiently.
type Article struct {
	ID      int64     `json:"id"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	Author  int64     `json:"author"`
	Created time.Time `json:"created"`
}

// DeletedArticle is the tombstone kept when an article is removed,
// either explicitly or by account deletion.
type DeletedArticle struct {
	ID      int64     `json:"id"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	Author  int64     `json:"author"`
	Created time.Time `json:"created"`
}
