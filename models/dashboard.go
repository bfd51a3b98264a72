package models

// DashboardStats is the admin overview of platform activity.
type DashboardStats struct {
	UsersTotal           int `json:"users_total"`
	TeamsTotal           int `json:"teams_total"`
	PendingChallenges    int `json:"pending_challenges"`
	ScheduledMatches     int `json:"scheduled_matches"`
	FinishedMatches      int `json:"finished_matches"`
	OpenTournaments      int `json:"open_tournaments"`
	AcceptedWithoutMatch int `json:"accepted_without_match"`
}
