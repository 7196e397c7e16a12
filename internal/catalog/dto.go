package catalog

import "time"

type CreateTitleRequest struct {
	ISBN        string   `json:"isbn" binding:"required"`
	Category    string   `json:"category"`
	Name        string   `json:"name" binding:"required"`
	Author      string   `json:"author"`
	Publisher   string   `json:"publisher"`
	PublishDate *string  `json:"publish_date,omitempty"` // "2006-01-02"
	Price       *float64 `json:"price,omitempty"`
	TotalCopies *int     `json:"total_copies,omitempty"` // advisory metadata
	Description *string  `json:"description,omitempty"`
}

type CreateCopyRequest struct {
	ISBN   string `json:"isbn" binding:"required"`
	CopyID string `json:"copy_id" binding:"required"`
}

type SetCopyConditionRequest struct {
	Condition string `json:"condition" binding:"required"`
}

type TitleResponse struct {
	ISBN            string     `json:"isbn"`
	Category        string     `json:"category"`
	Name            string     `json:"name"`
	Author          string     `json:"author"`
	Publisher       string     `json:"publisher"`
	PublishDate     *time.Time `json:"publish_date,omitempty"`
	Price           *float64   `json:"price,omitempty"`
	TotalCopies     int        `json:"total_copies"`
	AvailableCopies int        `json:"available_copies"`
	Description     *string    `json:"description,omitempty"`
}

type CopyResponse struct {
	CopyID       string    `json:"copy_id"`
	ISBN         string    `json:"isbn"`
	Availability string    `json:"availability"`
	Condition    string    `json:"condition"`
	CreatedAt    time.Time `json:"created_at"`
}

func buildTitleResponse(t *Title) TitleResponse {
	resp := TitleResponse{
		ISBN:            t.ISBN,
		Category:        t.Category,
		Name:            t.Name,
		Author:          t.Author,
		Publisher:       t.Publisher,
		TotalCopies:     t.TotalCopies,
		AvailableCopies: t.AvailableCopies,
	}
	if t.PublishDate.Valid {
		val := t.PublishDate.Time
		resp.PublishDate = &val
	}
	if t.Price.Valid {
		val := t.Price.Float64
		resp.Price = &val
	}
	if t.Description.Valid {
		val := t.Description.String
		resp.Description = &val
	}
	return resp
}

func buildCopyResponse(c *Copy) CopyResponse {
	return CopyResponse{
		CopyID:       c.CopyID,
		ISBN:         c.ISBN,
		Availability: c.Availability,
		Condition:    c.Condition,
		CreatedAt:    c.CreatedAt,
	}
}
