package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Dosada05/matchkid/models"
)

// EligibilityTarget is the opponent team or tournament a coach wants to act on.
type EligibilityTarget struct {
	Sport    models.Sport
	Category models.Category
	// Exclude drops one team from the candidates, e.g. the opponent itself.
	Exclude uuid.UUID
}

type EligibleTeam struct {
	Team             models.Team
	CategoryMismatch bool
}

// SelectEligibleTeam picks the team a coach acts with. Teams must be in storage
// order. An exact category match wins; otherwise the first team of the right sport
// is returned with CategoryMismatch set.
func SelectEligibleTeam(teams []models.Team, target EligibilityTarget) (EligibleTeam, error) {
	if len(teams) == 0 {
		return EligibleTeam{}, ErrNoTeams
	}

	var fallback *models.Team
	for i := range teams {
		t := &teams[i]
		if t.Sport != target.Sport || (target.Exclude != uuid.Nil && t.ID == target.Exclude) {
			continue
		}
		if t.Category == target.Category {
			return EligibleTeam{Team: *t}, nil
		}
		if fallback == nil {
			fallback = t
		}
	}
	if fallback == nil {
		return EligibleTeam{}, fmt.Errorf("%w: %s", ErrNoEligibleTeam, target.Sport)
	}
	return EligibleTeam{Team: *fallback, CategoryMismatch: true}, nil
}

// CategoryMismatchError asks the caller to confirm acting with a team of another
// category. It matches ErrCategoryConfirmationRequired.
type CategoryMismatchError struct {
	Team     models.Team
	Expected models.Category
}

func (e *CategoryMismatchError) Error() string {
	return fmt.Sprintf("team %q plays in %s, not %s: confirmation required", e.Team.Name, e.Team.Category, e.Expected)
}

func (e *CategoryMismatchError) Unwrap() error { return ErrCategoryConfirmationRequired }

// chooseActingTeam applies SelectEligibleTeam and the confirmation rule.
func chooseActingTeam(teams []models.Team, target EligibilityTarget, confirmed bool) (models.Team, error) {
	choice, err := SelectEligibleTeam(teams, target)
	if err != nil {
		return models.Team{}, err
	}
	if choice.CategoryMismatch && !confirmed {
		return models.Team{}, &CategoryMismatchError{Team: choice.Team, Expected: target.Category}
	}
	return choice.Team, nil
}
