package storage

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// sqlite guarda los timestamps como TEXT con ancho fijo para que ordenen bien
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

func ParseDialect(s string) (Dialect, error) {
	switch Dialect(strings.ToLower(strings.TrimSpace(s))) {
	case Postgres:
		return Postgres, nil
	case SQLite:
		return SQLite, nil
	}
	return "", fmt.Errorf("unknown sql dialect %q", s)
}

func (d Dialect) driver() string {
	if d == SQLite {
		return "sqlite"
	}
	return "pgx"
}

func (d Dialect) gooseDialect() string {
	if d == SQLite {
		return "sqlite3"
	}
	return "postgres"
}

var rePlaceholder = regexp.MustCompile(`\$\d+`)

// rebind pasa los $N de postgres a ? para sqlite. Las queries usan los
// argumentos en orden, así que el reemplazo posicional alcanza.
func (d Dialect) rebind(q string) string {
	if d != SQLite {
		return q
	}
	return rePlaceholder.ReplaceAllString(q, "?")
}

func (d Dialect) timeArg(t time.Time) any {
	if d == SQLite {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t
}

// dbTime escanea tanto TIMESTAMPTZ (pgx) como TEXT (sqlite).
type dbTime struct {
	Time  time.Time
	Valid bool
}

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = v, true
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	}
	return fmt.Errorf("dbTime: unsupported type %T", src)
}

func (t *dbTime) parse(s string) error {
	for _, layout := range []string{sqliteTimeLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00"} {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time, t.Valid = v, true
			return nil
		}
	}
	return fmt.Errorf("dbTime: cannot parse %q", s)
}
