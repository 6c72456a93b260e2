package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDate indica una fecha con formato o tipo no soportado.
var ErrInvalidDate = errors.New("invalid date")

const dayLayout = "2006-01-02"

// Day representa un dia de calendario en UTC, sin componente horario.
type Day struct {
	t time.Time
}

// DayOf normaliza un instante a su dia de calendario, descartando la hora.
func DayOf(t time.Time) Day {
	u := t.UTC()
	return Day{t: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDay interpreta una fecha ISO-8601 (YYYY-MM-DD).
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DayOf(t), nil
}

// Today devuelve el dia de calendario actual en UTC.
func Today() Day {
	return DayOf(time.Now())
}

// Time devuelve la medianoche UTC del dia.
func (d Day) Time() time.Time {
	return d.t
}

// AddDays devuelve el dia desplazado n dias (n puede ser negativo).
func (d Day) AddDays(n int) Day {
	return DayOf(d.t.AddDate(0, 0, n))
}

func (d Day) Before(other Day) bool { return d.t.Before(other.t) }

func (d Day) After(other Day) bool { return d.t.After(other.t) }

func (d Day) Equal(other Day) bool { return d.t.Equal(other.t) }

func (d Day) IsZero() bool { return d.t.IsZero() }

func (d Day) String() string {
	return d.t.Format(dayLayout)
}

// MarshalJSON serializa como "YYYY-MM-DD".
func (d Day) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON acepta "YYYY-MM-DD"; cualquier otra forma falla con ErrInvalidDate.
func (d *Day) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(data))
	}
	parsed, err := ParseDay(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
