package readers

import "time"

type CreateReaderRequest struct {
	CardNo     string  `json:"card_no" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	Gender     string  `json:"gender"`
	IDCard     *string `json:"id_card,omitempty"`
	Department string  `json:"department"`
	Phone      string  `json:"phone"`
	Address    string  `json:"address"`
	MaxLoans   *int    `json:"max_loans,omitempty"` // defaults from config
}

// UpdateReaderRequest carries partial updates. current_loan_count is not
// settable through this interface.
type UpdateReaderRequest struct {
	Name       *string `json:"name,omitempty"`
	Gender     *string `json:"gender,omitempty"`
	Department *string `json:"department,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Address    *string `json:"address,omitempty"`
	MaxLoans   *int    `json:"max_loans,omitempty"`
	Status     *string `json:"status,omitempty"`
}

type ReaderResponse struct {
	CardNo           string    `json:"card_no"`
	Name             string    `json:"name"`
	Gender           string    `json:"gender"`
	IDCard           *string   `json:"id_card,omitempty"`
	Department       string    `json:"department"`
	Phone            string    `json:"phone"`
	Address          string    `json:"address"`
	MaxLoans         int       `json:"max_loans"`
	CurrentLoanCount int       `json:"current_loan_count"`
	Status           string    `json:"status"`
	RegistrationDate time.Time `json:"registration_date"`
}

func buildReaderResponse(r *Reader) ReaderResponse {
	resp := ReaderResponse{
		CardNo:           r.CardNo,
		Name:             r.Name,
		Gender:           r.Gender,
		Department:       r.Department,
		Phone:            r.Phone,
		Address:          r.Address,
		MaxLoans:         r.MaxLoans,
		CurrentLoanCount: r.CurrentLoanCount,
		Status:           r.Status,
		RegistrationDate: r.RegistrationDate,
	}
	if r.IDCard.Valid {
		val := r.IDCard.String
		resp.IDCard = &val
	}
	return resp
}
