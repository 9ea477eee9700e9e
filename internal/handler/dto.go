package handler

import (
	"time"

	"ignews/internal/listing"
	"ignews/internal/model"
)

type PostSummaryResponse struct {
	UID                  string  `json:"uid"`
	FirstPublicationDate *string `json:"first_publication_date"`
	Title                string  `json:"title"`
	Subtitle             string  `json:"subtitle"`
	Author               string  `json:"author"`
}

type ViewResponse struct {
	ID      string                `json:"id"`
	Results []PostSummaryResponse `json:"results"`
	HasMore bool                  `json:"has_more"`
	Failure string                `json:"failure,omitempty"`
}

type LoadMoreResponse struct {
	ViewResponse
	Appended int `json:"appended"`
}

func toPostSummaryResponse(p model.PostSummary) PostSummaryResponse {
	res := PostSummaryResponse{
		UID:      p.UID,
		Title:    p.Title,
		Subtitle: p.Subtitle,
		Author:   p.Author,
	}

	if p.FirstPublicationDate != nil {
		date := p.FirstPublicationDate.Format(time.RFC3339)
		res.FirstPublicationDate = &date
	}

	return res
}

func toViewResponse(id string, state listing.State) ViewResponse {
	results := make([]PostSummaryResponse, 0, len(state.Items))
	for _, item := range state.Items {
		results = append(results, toPostSummaryResponse(item))
	}

	return ViewResponse{
		ID:      id,
		Results: results,
		HasMore: state.HasMore(),
		Failure: state.Failure,
	}
}
