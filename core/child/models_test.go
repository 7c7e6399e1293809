package child

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestChild_AgeMonths(t *testing.T) {
	tests := []struct {
		name  string
		birth time.Time
		now   time.Time
		want  int
	}{
		{name: "no birth date", now: date(2024, 5, 10), want: 0},
		{name: "born today", birth: date(2024, 5, 10), now: date(2024, 5, 10), want: 0},
		{name: "not born yet", birth: date(2024, 6, 10), now: date(2024, 5, 10), want: 0},
		{name: "one day short of a month", birth: date(2024, 4, 11), now: date(2024, 5, 10), want: 0},
		{name: "exactly one month", birth: date(2024, 4, 10), now: date(2024, 5, 10), want: 1},
		{name: "across years", birth: date(2022, 11, 20), now: date(2024, 5, 10), want: 17},
		{name: "two years", birth: date(2022, 5, 10), now: date(2024, 5, 10), want: 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Child{BirthDate: tt.birth}
			if got := c.AgeMonths(tt.now); got != tt.want {
				t.Errorf("AgeMonths() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestChild_FullName(t *testing.T) {
	if got := (Child{FirstName: "Ana"}).FullName(); got != "Ana" {
		t.Errorf("FullName() = %q, want %q", got, "Ana")
	}
	if got := (Child{FirstName: "Ana", LastName: "Souza"}).FullName(); got != "Ana Souza" {
		t.Errorf("FullName() = %q, want %q", got, "Ana Souza")
	}
}
