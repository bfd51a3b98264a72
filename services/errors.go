package services

import (
	"errors"
	"fmt"
)

// Error categories. Every specific error below wraps one of them, so the HTTP
// layer maps by category with errors.Is.
var (
	ErrValidationFailed   = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")
	ErrNotFound           = errors.New("requested resource not found")
	ErrUnavailable        = errors.New("service unavailable")
)

var (
	// Validation and business rules
	ErrPasswordTooShort   = fmt.Errorf("%w: password must be at least 8 characters", ErrValidationFailed)
	ErrInvalidEmail       = fmt.Errorf("%w: email address is invalid", ErrValidationFailed)
	ErrInvalidScore       = fmt.Errorf("%w: scores must be non-negative integers", ErrValidationFailed)
	ErrSameTeam           = fmt.Errorf("%w: a team cannot challenge itself", ErrValidationFailed)
	ErrSportMismatch      = fmt.Errorf("%w: teams must play the same sport", ErrValidationFailed)
	ErrNoTeams            = fmt.Errorf("%w: you have no team yet", ErrValidationFailed)
	ErrNoEligibleTeam     = fmt.Errorf("%w: no eligible team for this sport", ErrValidationFailed)
	ErrInvalidCapacity    = fmt.Errorf("%w: max teams must be positive", ErrValidationFailed)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthenticated)

	// Conflicts
	ErrEmailTaken                   = fmt.Errorf("%w: email is already taken", ErrConflict)
	ErrTeamDuplicate                = fmt.Errorf("%w: you already have a team for this sport and category", ErrConflict)
	ErrChallengeNotPending          = fmt.Errorf("%w: challenge is no longer pending", ErrConflict)
	ErrMatchAlreadyFinished         = fmt.Errorf("%w: match is already finished", ErrConflict)
	ErrAlreadyRegistered            = fmt.Errorf("%w: team is already registered for this tournament", ErrConflict)
	ErrTournamentFull               = fmt.Errorf("%w: tournament is full", ErrConflict)
	ErrTournamentClosed             = fmt.Errorf("%w: tournament registration is closed", ErrConflict)
	ErrCategoryConfirmationRequired = fmt.Errorf("%w: category mismatch must be confirmed", ErrConflict)

	// Authorization
	ErrNotTeamOwner          = fmt.Errorf("%w: only the team owner can perform this action", ErrForbiddenOperation)
	ErrNotChallengeRecipient = fmt.Errorf("%w: only the receiving team can answer this challenge", ErrForbiddenOperation)
	ErrNotChallengeParty     = fmt.Errorf("%w: challenge does not involve your teams", ErrForbiddenOperation)
	ErrNotMatchParticipant   = fmt.Errorf("%w: only a team playing this match can record its score", ErrForbiddenOperation)
	ErrNotTournamentOwner    = fmt.Errorf("%w: only the tournament owner can perform this action", ErrForbiddenOperation)
	ErrAdminOnly             = fmt.Errorf("%w: administrator role required", ErrForbiddenOperation)

	// Not found
	ErrUserNotFound       = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrTeamNotFound       = fmt.Errorf("%w: team not found", ErrNotFound)
	ErrPlayerNotFound     = fmt.Errorf("%w: player not found", ErrNotFound)
	ErrChallengeNotFound  = fmt.Errorf("%w: challenge not found", ErrNotFound)
	ErrMatchNotFound      = fmt.Errorf("%w: match not found", ErrNotFound)
	ErrTournamentNotFound = fmt.Errorf("%w: tournament not found", ErrNotFound)

	ErrLogoStorageUnavailable = fmt.Errorf("%w: logo storage is not configured", ErrUnavailable)
)

// validationError reports a bad or missing input field.
func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidationFailed, fmt.Sprintf(format, args...))
}
