package model

import (
	"time"

	"ignews/pkg/richtext"
)

const PostType = "post"

type PostSummary struct {
	UID                  string     `json:"uid"`
	FirstPublicationDate *time.Time `json:"first_publication_date"`
	Title                string     `json:"title"`
	Subtitle             string     `json:"subtitle"`
	Author               string     `json:"author"`
}

type Banner struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

type Section struct {
	Heading string         `json:"heading"`
	Body    richtext.Field `json:"body"`
}

type PostDocument struct {
	UID                  string
	FirstPublicationDate *time.Time
	Title                string
	Banner               Banner
	Author               string
	Content              []Section
}
