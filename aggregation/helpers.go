// C:\Users\wasab\OneDrive\デスクトップ\PYRO\aggregation\helpers.go
package aggregation

import (
	"sort"
	"strings"
	"time"

	"pyrotrack/model"
)

// 記録の日付はテキスト由来のため、いくつかの書式を受け付けます。
var dateLayouts = []string{
	"2006/1/2",
	"2006-1-2",
	"2006.1.2",
	"2006年1月2日",
	"20060102",
	time.RFC3339,
}

// parseDate は日付文字列を日付 (時刻なし) にします。解釈できなければ ok=false。
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// Match は記録が絞り込み条件に当てはまるかを返します。
// 日付を解釈できない記録は期間条件では除外しません。
func Match(rec model.OutboundRecord, f model.AggregationFilters) bool {
	if len(f.Persons) > 0 {
		found := false
		for _, p := range f.Persons {
			if p == rec.Person {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.StartDate == "" && f.EndDate == "" {
		return true
	}
	day, ok := parseDate(rec.Date)
	if !ok {
		return true
	}
	if start, ok := parseDate(f.StartDate); ok && day.Before(start) {
		return false
	}
	if end, ok := parseDate(f.EndDate); ok && day.After(end) {
		return false
	}
	return true
}

// Filter は条件に合う記録を元の順序のまま返します。
func Filter(history []model.OutboundRecord, f model.AggregationFilters) []model.OutboundRecord {
	out := make([]model.OutboundRecord, 0, len(history))
	for _, rec := range history {
		if Match(rec, f) {
			out = append(out, rec)
		}
	}
	return out
}

// Persons は履歴に現れる経手人を重複なしで名前順に返します。
func Persons(history []model.OutboundRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, rec := range history {
		if !seen[rec.Person] {
			seen[rec.Person] = true
			out = append(out, rec.Person)
		}
	}
	sort.Strings(out)
	return out
}
