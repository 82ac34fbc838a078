package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/rileyhilliard/provmon/internal/errors"
	"github.com/rileyhilliard/provmon/internal/table"
)

// MinInterval is the shortest dashboard refresh interval accepted.
const MinInterval = time.Second

// ParseInterval parses a refresh interval flag. An empty flag returns
// fallback.
func ParseInterval(flag string, fallback time.Duration) (time.Duration, error) {
	if flag == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(flag)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' doesn't look like a valid interval", flag),
			"Try something like 10s, 30s, or 1m.")
	}
	if d < MinInterval {
		return 0, errors.New(errors.ErrConfig,
			"Interval too short",
			fmt.Sprintf("Minimum interval is %s to avoid hammering status endpoints.", MinInterval))
	}
	return d, nil
}

// ParseSort parses "column" or "column:asc|desc" against the known column
// keys. An empty flag means no sort.
func ParseSort(flag string, keys []string) (table.Sort, error) {
	if flag == "" {
		return table.Sort{}, nil
	}

	column, dir, _ := strings.Cut(flag, ":")
	known := false
	for _, k := range keys {
		if k == column {
			known = true
			break
		}
	}
	if !known {
		return table.Sort{}, errors.New(errors.ErrConfig,
			fmt.Sprintf("Can't sort by '%s'", column),
			"Sortable columns: "+strings.Join(keys, ", "))
	}

	switch strings.ToLower(dir) {
	case "", "asc":
		return table.Sort{Column: column, Direction: table.DirAsc}, nil
	case "desc":
		return table.Sort{Column: column, Direction: table.DirDesc}, nil
	default:
		return table.Sort{}, errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown sort direction '%s'", dir),
			"Use "+column+":asc or "+column+":desc.")
	}
}

// ValidatePage rejects pages below 1.
func ValidatePage(page int) error {
	if page < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Page %d is out of range", page),
			"Pages start at 1.")
	}
	return nil
}
