package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"week", PeriodWeek, false},
		{"Month", PeriodMonth, false},
		{" year ", PeriodYear, false},
		{"all", PeriodAll, false},
		{"day", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePeriod(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownPeriod) {
					t.Errorf("ParsePeriod(%q) error = %v, want ErrUnknownPeriod", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePeriod(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParsePeriod(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPeriodCached(t *testing.T) {
	for _, p := range CachedPeriods {
		if !p.Cached() {
			t.Errorf("%s.Cached() = false, want true", p)
		}
	}
	if PeriodAll.Cached() {
		t.Error("all.Cached() = true, want false")
	}
}

func TestAnalyticsSnapshot(t *testing.T) {
	t.Run("decode backend payload", func(t *testing.T) {
		raw := `{
			"labels": ["Mon", "Tue"],
			"data_all": [3, 4],
			"data_admin": [1, 0],
			"data_professional": [1, 2],
			"data_user": [1, 2],
			"total_users": 120,
			"new_users": 7,
			"admin_count": 3,
			"professional_count": 40,
			"regular_count": 77,
			"start_date": "2026-10-12",
			"end_date": "2026-10-18",
			"period": "week",
			"group_by": "day"
		}`
		var s AnalyticsSnapshot
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		if s.TotalUsers != 120 || s.NewUsers != 7 {
			t.Errorf("totals = %d/%d, want 120/7", s.TotalUsers, s.NewUsers)
		}
		if s.Period != PeriodWeek {
			t.Errorf("Period = %q, want week", s.Period)
		}
		if err := s.Validate(); err != nil {
			t.Errorf("Validate: %v", err)
		}
	})

	t.Run("validate rejects ragged series", func(t *testing.T) {
		s := AnalyticsSnapshot{
			Labels:           []string{"a", "b"},
			DataAll:          []int64{1, 2},
			DataAdmin:        []int64{1},
			DataProfessional: []int64{1, 2},
			DataUser:         []int64{1, 2},
		}
		if err := s.Validate(); !errors.Is(err, ErrSeriesMismatch) {
			t.Errorf("Validate error = %v, want ErrSeriesMismatch", err)
		}
	})

	t.Run("counts only snapshot is valid", func(t *testing.T) {
		s := AnalyticsSnapshot{TotalUsers: 10, Period: PeriodAll}
		if err := s.Validate(); err != nil {
			t.Errorf("Validate: %v", err)
		}
	})

	t.Run("clone is independent", func(t *testing.T) {
		s := AnalyticsSnapshot{Labels: []string{"a"}, DataAll: []int64{1}}
		c := s.Clone()
		c.Labels[0] = "b"
		c.DataAll[0] = 9
		if s.Labels[0] != "a" || s.DataAll[0] != 1 {
			t.Error("Clone shares backing arrays with original")
		}
	})
}

func TestParseUserStatus(t *testing.T) {
	for _, s := range []string{"active", "inactive", "deactivated", "SUSPENDED"} {
		if _, err := ParseUserStatus(s); err != nil {
			t.Errorf("ParseUserStatus(%q) unexpected error: %v", s, err)
		}
	}
	if _, err := ParseUserStatus("banned"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("ParseUserStatus(banned) error = %v, want ErrInvalidStatus", err)
	}
}

func TestUserFilterWithDefaults(t *testing.T) {
	f := UserFilter{Query: "ann"}.WithDefaults()
	if f.Page != DefaultPage || f.PageSize != DefaultPageSize {
		t.Errorf("defaults = %d/%d, want %d/%d", f.Page, f.PageSize, DefaultPage, DefaultPageSize)
	}

	f = UserFilter{Page: 3, PageSize: 50}.WithDefaults()
	if f.Page != 3 || f.PageSize != 50 {
		t.Errorf("explicit = %d/%d, want 3/50", f.Page, f.PageSize)
	}
}

func TestUserFullName(t *testing.T) {
	u := User{FirstName: "Ada", LastName: "Lovelace"}
	if got := u.FullName(); got != "Ada Lovelace" {
		t.Errorf("FullName = %q", got)
	}
	if got := (User{FirstName: "Ada"}).FullName(); got != "Ada" {
		t.Errorf("FullName = %q, want Ada", got)
	}
}
