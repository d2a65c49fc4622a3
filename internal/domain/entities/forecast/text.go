package forecast

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DayLayout is the layout of a day key such as 20240115.
const DayLayout = "20060102"

var monthNames = [...]string{
	"Gennaio", "Febbraio", "Marzo", "Aprile", "Maggio", "Giugno",
	"Luglio", "Agosto", "Settembre", "Ottobre", "Novembre", "Dicembre",
}

// Title capitalizes every run of letters and lowercases the rest of it, so
// "ww3MED" becomes "Ww3Med".
func Title(s string) string {
	caser := cases.Title(language.Italian)
	var b strings.Builder
	runes := []rune(s)
	for i := 0; i < len(runes); {
		j := i
		letters := unicode.IsLetter(runes[i])
		for j < len(runes) && unicode.IsLetter(runes[j]) == letters {
			j++
		}
		if letters {
			b.WriteString(caser.String(string(runes[i:j])))
		} else {
			b.WriteString(string(runes[i:j]))
		}
		i = j
	}
	return b.String()
}

// TitleWords title-cases each word and joins them with spaces.
func TitleWords(words []string) string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = Title(w)
	}
	return strings.Join(out, " ")
}

// FormatDay renders the leading YYYYMMDD of key as "15 Gennaio 2024".
func FormatDay(key string) (string, error) {
	if len(key) < 8 {
		return "", fmt.Errorf("day key %q is too short", key)
	}
	month, err := strconv.Atoi(key[4:6])
	if err != nil || month < 1 || month > 12 {
		return "", fmt.Errorf("day key %q has an invalid month", key)
	}
	return fmt.Sprintf("%s %s %s", key[6:8], monthNames[month-1], key[0:4]), nil
}

// FormatRun renders the hour part of a run key as "Corsa del 00 UTC".
func FormatRun(run string) string {
	hour := ""
	if len(run) >= 10 {
		hour = run[8:10]
	} else if len(run) > 8 {
		hour = run[8:]
	}
	return fmt.Sprintf("Corsa del %s UTC", hour)
}

// DayKey returns the day key of t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayLayout)
}
