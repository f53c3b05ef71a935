package model

import (
	"errors"
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------
// Analytics Types
// -----------------------------------------------------------------------------

// Period is a reporting window for user analytics.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

// CachedPeriods are the periods with a local cache entry (the dashboard filters).
var CachedPeriods = []Period{PeriodWeek, PeriodMonth, PeriodYear}

// AllPeriods are every period the backend reports on.
var AllPeriods = []Period{PeriodWeek, PeriodMonth, PeriodYear, PeriodAll}

// ErrUnknownPeriod is returned by ParsePeriod for unrecognized values.
var ErrUnknownPeriod = errors.New("unknown period")

// ParsePeriod converts a string to a Period.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodWeek, PeriodMonth, PeriodYear, PeriodAll:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
}

// Cached reports whether the period has a local cache entry.
func (p Period) Cached() bool {
	for _, c := range CachedPeriods {
		if c == p {
			return true
		}
	}
	return false
}

func (p Period) String() string { return string(p) }

// AnalyticsSnapshot is the user analytics for one reporting period.
// Treat a published snapshot as immutable; use Clone before modifying.
type AnalyticsSnapshot struct {
	Labels           []string `json:"labels"`
	DataAll          []int64  `json:"data_all"`
	DataAdmin        []int64  `json:"data_admin"`
	DataProfessional []int64  `json:"data_professional"`
	DataUser         []int64  `json:"data_user"`

	TotalUsers        int64 `json:"total_users"`
	NewUsers          int64 `json:"new_users"`
	AdminCount        int64 `json:"admin_count"`
	ProfessionalCount int64 `json:"professional_count"`
	RegularCount      int64 `json:"regular_count"`

	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Period    Period `json:"period,omitempty"`
	GroupBy   string `json:"group_by,omitempty"`
}

// ErrSeriesMismatch is returned when series and labels differ in length.
var ErrSeriesMismatch = errors.New("analytics series length mismatch")

// Validate checks that the label sequence and all four series have equal length.
func (s AnalyticsSnapshot) Validate() error {
	n := len(s.Labels)
	for name, series := range map[string][]int64{
		"data_all":          s.DataAll,
		"data_admin":        s.DataAdmin,
		"data_professional": s.DataProfessional,
		"data_user":         s.DataUser,
	} {
		if len(series) != n {
			return fmt.Errorf("%w: %s has %d points, labels has %d", ErrSeriesMismatch, name, len(series), n)
		}
	}
	return nil
}

// Clone returns a deep copy of the snapshot.
func (s AnalyticsSnapshot) Clone() AnalyticsSnapshot {
	out := s
	out.Labels = append([]string(nil), s.Labels...)
	out.DataAll = append([]int64(nil), s.DataAll...)
	out.DataAdmin = append([]int64(nil), s.DataAdmin...)
	out.DataProfessional = append([]int64(nil), s.DataProfessional...)
	out.DataUser = append([]int64(nil), s.DataUser...)
	return out
}

// -----------------------------------------------------------------------------
// User Management Types
// -----------------------------------------------------------------------------

// UserStatus is the account status an admin can assign.
type UserStatus string

const (
	StatusActive      UserStatus = "active"
	StatusInactive    UserStatus = "inactive"
	StatusDeactivated UserStatus = "deactivated"
	StatusSuspended   UserStatus = "suspended"
)

// ErrInvalidStatus is returned by ParseUserStatus for unrecognized values.
var ErrInvalidStatus = errors.New("invalid user status")

// ParseUserStatus converts a string to a UserStatus.
func ParseUserStatus(s string) (UserStatus, error) {
	switch st := UserStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusActive, StatusInactive, StatusDeactivated, StatusSuspended:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// User is a platform account as listed by the admin API.
type User struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Role          string     `json:"role"` // "admin", "professional", "user"
	Status        UserStatus `json:"status"`
	CreatedAt     string     `json:"created_at"`
	ActiveInRedis bool       `json:"is_active_in_redis"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// UserPage is one page of the paginated user list.
type UserPage struct {
	Results          []User `json:"results"`
	Total            int    `json:"total"`
	Page             int    `json:"page"`
	PageSize         int    `json:"page_size"`
	ActiveUsersCount int    `json:"active_users_count"`
}

// Default pagination used by the backend.
const (
	DefaultPage     = 1
	DefaultPageSize = 15
)

// UserFilter selects a page of users.
type UserFilter struct {
	Page     int
	PageSize int
	Query    string // partial match on name or email
	Role     string
	Status   UserStatus
}

// WithDefaults fills unset pagination fields.
func (f UserFilter) WithDefaults() UserFilter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	return f
}

// -----------------------------------------------------------------------------
// Session Types
// -----------------------------------------------------------------------------

// Tokens is the bearer token pair issued on admin login.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
