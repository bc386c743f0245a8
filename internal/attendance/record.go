package attendance

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Record is a persisted attendance check-in.
type Record struct {
	ID            int64     `json:"id"`
	DateTime      time.Time `json:"dateTime"`
	Name          string    `json:"name"`
	Company       string    `json:"company"`
	Supervisor    string    `json:"supervisor"`
	SignatureData string    `json:"signatureData"`
}

// Input is a check-in submission as received from the form.
type Input struct {
	DateTime      *time.Time `json:"dateTime"`
	Name          string     `json:"name"`
	Company       string     `json:"company"`
	Supervisor    string     `json:"supervisor"`
	SignatureData string     `json:"signatureData"`
}

// Validate trims the input and builds the record to store. now is used when DateTime is absent.
func (in Input) Validate(now time.Time) (Record, error) {
	rec := Record{
		Name:          strings.TrimSpace(in.Name),
		Company:       strings.TrimSpace(in.Company),
		Supervisor:    strings.TrimSpace(in.Supervisor),
		SignatureData: strings.TrimSpace(in.SignatureData),
	}
	required := []struct {
		field, value string
	}{
		{"name", rec.Name},
		{"company", rec.Company},
		{"supervisor", rec.Supervisor},
		{"signatureData", rec.SignatureData},
	}
	for _, r := range required {
		if r.value == "" {
			return Record{}, &ValidationError{Field: r.field, Message: r.field + " is required"}
		}
	}

	rec.DateTime = now
	if in.DateTime != nil && !in.DateTime.IsZero() {
		rec.DateTime = *in.DateTime
	}
	return rec, nil
}

// FoldName normalizes a name for case-insensitive comparison.
// A Caser keeps state between calls, so each call gets its own.
func FoldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// SameName reports whether two names match case-insensitively.
func SameName(a, b string) bool {
	return FoldName(a) == FoldName(b)
}

// FilterByName keeps records whose name contains q case-insensitively. An empty q keeps all.
func FilterByName(records []Record, q string) []Record {
	q = FoldName(q)
	if q == "" {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if strings.Contains(FoldName(r.Name), q) {
			out = append(out, r)
		}
	}
	return out
}
