package points

import (
	"errors"
	"fmt"

	"github.com/dukerupert/focuspal/internal/model"
)

// Point values awarded or deducted by the ledger.
const (
	ActivityComplete   = 10
	ActivityIncomplete = 5
	EarlyFinishBonus   = 5
	BeatAverageBonus   = 3
	ThreeStrikePenalty = 15
	AchievementUnlock  = 20
)

// StrikeLimit incomplete activities in a row on one day cost a
// ThreeStrikePenalty. A completed activity breaks the run.
const StrikeLimit = 3

var ErrInvalidAmount = errors.New("points amount must be positive")

// Breakdown is the points result for one activity or a sum of activities.
type Breakdown struct {
	Earned   int `json:"earned"`
	Bonus    int `json:"bonus"`
	Deducted int `json:"deducted"`
}

func (b Breakdown) Net() int {
	return b.Earned + b.Bonus - b.Deducted
}

func (b Breakdown) Add(o Breakdown) Breakdown {
	return Breakdown{
		Earned:   b.Earned + o.Earned,
		Bonus:    b.Bonus + o.Bonus,
		Deducted: b.Deducted + o.Deducted,
	}
}

// Describe renders the breakdown the way task cards show it.
func (b Breakdown) Describe() string {
	switch {
	case b.Deducted > 0 && b.Earned == 0 && b.Bonus == 0:
		return fmt.Sprintf("-%d pts (incomplete)", b.Deducted)
	case b.Bonus > 0:
		return fmt.Sprintf("+%d pts (+%d bonus)", b.Net(), b.Bonus)
	default:
		return fmt.Sprintf("%+d pts", b.Net())
	}
}

// ForActivity computes the points for a single activity. A nil category
// falls back to the default recommended duration. The category's
// PointsMultiplier is not applied.
func ForActivity(a model.Activity, category *model.Category) Breakdown {
	if !a.IsComplete {
		return Breakdown{Deducted: ActivityIncomplete}
	}

	recommended := model.DefaultRecommendedDuration
	if category != nil {
		recommended = category.RecommendedDuration()
	}

	b := Breakdown{Earned: ActivityComplete}
	if a.Duration() < recommended {
		b.Bonus = EarlyFinishBonus
	}
	return b
}

// ForActivities sums ForActivity over activities, resolving categories by ID.
func ForActivities(activities []model.Activity, categories map[string]model.Category) Breakdown {
	var total Breakdown
	for _, a := range activities {
		var cat *model.Category
		if c, ok := categories[a.CategoryID]; ok {
			cat = &c
		}
		total = total.Add(ForActivity(a, cat))
	}
	return total
}

// StrikeDue reports whether a day's activities, in start order, contain a run
// of StrikeLimit incompletes. A day is charged at most once however long the
// run or however many runs it holds.
func StrikeDue(activities []model.Activity) bool {
	run := 0
	for _, a := range activities {
		if a.IsComplete {
			run = 0
			continue
		}
		run++
		if run >= StrikeLimit {
			return true
		}
	}
	return false
}

// Entry is one signed ledger line.
type Entry struct {
	Amount int
	Reason model.PointsReason
}

// Entries splits a breakdown into the ledger lines that record it.
func Entries(b Breakdown) []Entry {
	var entries []Entry
	if b.Earned > 0 {
		entries = append(entries, Entry{Amount: b.Earned, Reason: model.ReasonActivityComplete})
	}
	if b.Bonus > 0 {
		entries = append(entries, Entry{Amount: b.Bonus, Reason: model.ReasonEarlyFinishBonus})
	}
	if b.Deducted > 0 {
		entries = append(entries, Entry{Amount: -b.Deducted, Reason: model.ReasonActivityIncomplete})
	}
	return entries
}

// Award adds amount to the day record, as bonus or earned depending on reason.
func Award(p *model.ChildPoints, amount int, reason model.PointsReason) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if reason.IsBonus() {
		p.BonusPoints += amount
	} else {
		p.PointsEarned += amount
	}
	return nil
}

// Deduct adds amount to the day's deductions.
func Deduct(p *model.ChildPoints, amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	p.PointsDeducted += amount
	return nil
}

// Apply folds a signed ledger entry into a day record.
func Apply(p *model.ChildPoints, e Entry) error {
	if e.Amount < 0 {
		return Deduct(p, -e.Amount)
	}
	return Award(p, e.Amount, e.Reason)
}
