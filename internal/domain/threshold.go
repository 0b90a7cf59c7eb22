package domain

import "time"

type Condition string

const (
	ConditionAbove Condition = "above"
	ConditionBelow Condition = "below"
)

func (c Condition) Valid() bool {
	return c == ConditionAbove || c == ConditionBelow
}

// Threshold is a user-registered price rule. Target is kept as the decimal
// string it was created with; a record that fails to parse at evaluation
// time is skipped, never fired.
type Threshold struct {
	ID        uint
	OwnerUID  string
	Ticker    string
	Target    string
	Condition Condition
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}
