package catalog

import (
	"database/sql"
	"time"
)

const (
	AvailabilityAvailable = "AVAILABLE"
	AvailabilityOnLoan    = "ON_LOAN"
)

const (
	ConditionNormal  = "NORMAL"
	ConditionDamaged = "DAMAGED"
	ConditionLost    = "LOST"
)

// Title is one row of the titles table. The authoritative copy counts are
// derived from the copies table; total_copies/available_copies are kept in
// step by the catalog and circulation transactions.
type Title struct {
	ISBN            string
	Category        string
	Name            string
	Author          string
	Publisher       string
	PublishDate     sql.NullTime
	Price           sql.NullFloat64
	TotalCopies     int
	AvailableCopies int
	Description     sql.NullString
	CreatedAt       time.Time
}

// Copy is one physical, independently loanable instance of a Title.
// availability is mutated only by the circulation engine.
type Copy struct {
	CopyID       string
	ISBN         string
	Availability string
	Condition    string
	CreatedAt    time.Time
}

// TitleFilter holds the independent optional search predicates.
type TitleFilter struct {
	ISBN     *string // exact
	Name     *string // case-insensitive substring
	Author   *string // case-insensitive substring
	Category *string // case-insensitive substring
}

func validCondition(c string) bool {
	switch c {
	case ConditionNormal, ConditionDamaged, ConditionLost:
		return true
	}
	return false
}
