package cli

import (
	"fmt"
	"strings"
	"time"

	"bebidas_pos/internal/reports"
)

const dateLayout = "2006-01-02"

// resolvePeriod turns an operator period into a day range. Accepted forms:
// hoy, ayer, semana (last 7 days), mes (current month), mes-pasado,
// YYYY-MM-DD and YYYY-MM-DD..YYYY-MM-DD. Empty means today.
func resolvePeriod(raw string, now time.Time) (reports.Range, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	today := startOfDay(now)

	switch value {
	case "", "hoy":
		return reports.Range{From: today, To: today}, nil
	case "ayer":
		day := today.AddDate(0, 0, -1)
		return reports.Range{From: day, To: day}, nil
	case "semana":
		return reports.Range{From: today.AddDate(0, 0, -6), To: today}, nil
	case "mes":
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return reports.Range{From: first, To: today}, nil
	case "mes-pasado":
		first := time.Date(today.Year(), today.Month()-1, 1, 0, 0, 0, 0, today.Location())
		return reports.Range{From: first, To: first.AddDate(0, 1, -1)}, nil
	}

	from, to, found := strings.Cut(value, "..")
	if !found {
		to = from
	}
	r, err := reports.ParseRange(from, to)
	if err != nil {
		return reports.Range{}, fmt.Errorf("período inválido %q: usá hoy, ayer, semana, mes, mes-pasado o AAAA-MM-DD[..AAAA-MM-DD]", raw)
	}
	return r, nil
}

func looksLikePeriod(value string) bool {
	switch strings.ToLower(value) {
	case "hoy", "ayer", "semana", "mes", "mes-pasado":
		return true
	}
	from, _, _ := strings.Cut(value, "..")
	_, err := time.Parse(dateLayout, from)
	return err == nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func formatRange(r reports.Range) string {
	from, to := "-", "-"
	if !r.From.IsZero() {
		from = r.From.Format("02/01/2006")
	}
	if !r.To.IsZero() {
		to = r.To.Format("02/01/2006")
	}
	if from == to {
		return from
	}
	return from + " al " + to
}
