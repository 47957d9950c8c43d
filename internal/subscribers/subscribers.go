// Package subscribers loads the mailing list from a CSV file.
package subscribers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Sentinel errors for subscriber loading.
var (
	ErrNotFound           = errors.New("subscribers file not found")
	ErrMissingEmailColumn = errors.New("subscribers CSV must have an 'email' column")
	ErrParse              = errors.New("failed to parse subscribers CSV")
)

// Subscriber is one list member. Name may be empty.
type Subscriber struct {
	Email string
	Name  string
}

// Recipient formats the address for the To header: "Name <email>" or the
// bare email when no name is known.
func (s Subscriber) Recipient() string {
	if s.Name != "" {
		return s.Name + " <" + s.Email + ">"
	}
	return s.Email
}

// Load reads subscribers from a CSV file with a header row.
func Load(path string) ([]Subscriber, error) {
	f, err := os.Open(path) // #nosec G304 -- operator-provided path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("opening subscribers file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads subscribers from CSV. The header must contain "email" and may
// contain "name"; other columns are ignored. Rows whose email is empty or
// lacks "@" are skipped. Values are trimmed.
func Parse(r io.Reader) ([]Subscriber, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingEmailColumn
		}
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	emailCol, nameCol := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")) {
		case "email":
			if emailCol < 0 {
				emailCol = i
			}
		case "name":
			if nameCol < 0 {
				nameCol = i
			}
		}
	}
	if emailCol < 0 {
		return nil, ErrMissingEmailColumn
	}

	var subs []Subscriber
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}

		email := field(record, emailCol)
		if email == "" || !strings.Contains(email, "@") {
			continue
		}
		subs = append(subs, Subscriber{Email: email, Name: field(record, nameCol)})
	}
	return subs, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
