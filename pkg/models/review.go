package models

import "time"

type ReviewUser struct {
	Name string `json:"name"`
}

type Review struct {
	ID        string     `json:"_id"`
	Book      string     `json:"book"`
	User      ReviewUser `json:"user"`
	Rating    int        `json:"rating"`
	Comment   string     `json:"comment"`
	CreatedAt time.Time  `json:"createdAt"`
}

type ReviewInput struct {
	Book    string `json:"book" validate:"required"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required"`
}

type ReviewList struct {
	Reviews []Review `json:"reviews"`
}
