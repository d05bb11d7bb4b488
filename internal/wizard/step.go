// Package wizard drives the multi-step booking flow: it owns the draft,
// validates each step and clears selections that an upstream edit invalidates.
package wizard

import "fmt"

// Step is a position in the fixed step sequence.
type Step int

const (
	StepDetails Step = iota
	StepWheelClass
	StepCategory
	StepModel
	StepDates
	StepReview
	StepSuccess
)

var stepNames = [...]string{"Details", "WheelClass", "Category", "Model", "Dates", "Review", "Success"}

// Steps lists every step in order.
func Steps() []Step {
	return []Step{StepDetails, StepWheelClass, StepCategory, StepModel, StepDates, StepReview, StepSuccess}
}

func (s Step) Valid() bool {
	return s >= StepDetails && s <= StepSuccess
}

func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return stepNames[s]
}
