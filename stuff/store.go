package stuff

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	_ "github.com/mattn/go-sqlite3"
)

const (
	Active State = iota
	Ticked
	Forgotten

	// AnyState matches everything that was not forgotten
	AnyState State = -1

	PageSize  = 9
	tagPrefix = "#"
)

type (
	State int

	Record struct {
		ID    int64
		Body  string
		State State
	}

	Query struct {
		// Tag limits results to stuff with the given tag, empty means all
		Tag   string
		State State
		// Oldest reverses the default latest-first order
		Oldest bool
		Offset int
		// Limit defaults to PageSize + 1 so callers know if there is more
		Limit int
	}

	Store struct {
		db        *sql.DB
		writeable bool
	}
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Ticked:
		return "ticked"
	case Forgotten:
		return "forgotten"
	case AnyState:
		return "any"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ParseState is the inverse of State.String
func ParseState(s string) (State, error) {
	for _, st := range []State{Active, Ticked, Forgotten, AnyState} {
		if strings.EqualFold(st.String(), s) {
			return st, nil
		}
	}
	return Active, fmt.Errorf("unknown state %q", s)
}

func openDatabase(ctx context.Context, file string, readwrite bool) (*sql.DB, error) {
	if readwrite {
		err := os.MkdirAll(filepath.Dir(file), 0755)
		if err != nil {
			return nil, fmt.Errorf("unable to create directory to store %v, cause %w", file, err)
		}
	}
	var connstr string
	if readwrite {
		connstr = fmt.Sprintf("file:%v?_journal=wal&_foreign_keys=on&mode=rwc", file)
	} else {
		connstr = fmt.Sprintf("file:%v?_foreign_keys=on&mode=ro", file)
	}
	conn, err := sql.Open("sqlite3", connstr)
	if err != nil {
		return nil, fmt.Errorf("unable to open %v, cause %v", file, err)
	}
	err = conn.PingContext(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to ping store %v, cause %v", file, err)
	}
	return conn, nil
}

// Open returns the store kept in file, creating it when readwrite is true
func Open(ctx context.Context, file string, readwrite bool) (*Store, error) {
	conn, err := openDatabase(ctx, file, readwrite)
	if err != nil {
		return nil, err
	}
	s := &Store{db: conn, writeable: readwrite}
	if readwrite {
		err = s.init(ctx)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("unable to init store %v, cause %v", file, err)
		}
	}
	return s, nil
}

// Add stores text as a new active item. Words starting with '#' become
// tags and are removed from the body.
func (s *Store) Add(ctx context.Context, text string) (Record, []string, error) {
	if !s.writeable {
		return Record{}, nil, ReadOnly{}
	}
	if strings.TrimSpace(text) == "" {
		return Record{}, nil, EmptyBody{}
	}
	body, tags := ExtractTags(text)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, nil, fmt.Errorf("unable to start transaction, cause %w", err)
	}
	defer tx.Rollback()
	res, err := tx.ExecContext(ctx, `insert into stuff(body, state, created_at) values (?, ?, ?)`,
		body, Active, time.Now().Unix())
	if err != nil {
		return Record{}, nil, fmt.Errorf("unable to add stuff, cause %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Record{}, nil, fmt.Errorf("unable to add stuff, cause %w", err)
	}
	for _, tag := range tags {
		_, err = tx.ExecContext(ctx, `insert into tags(stuff_id, tag, tag_hash64) values (?, ?, ?)`,
			id, tag, tagHash(tag))
		if err != nil {
			return Record{}, nil, fmt.Errorf("unable to tag stuff %v with %v, cause %w", id, tag, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return Record{}, nil, fmt.Errorf("unable to commit new stuff, cause %w", err)
	}
	return Record{ID: id, Body: body, State: Active}, tags, nil
}

// Query returns the records matching q
func (s *Store) Query(ctx context.Context, q Query) ([]Record, error) {
	if q.Limit <= 0 {
		q.Limit = PageSize + 1
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	order := "desc"
	if q.Oldest {
		order = "asc"
	}
	var where []string
	var args []interface{}
	from := "stuff s"
	if q.Tag != "" {
		from = "stuff s inner join tags t on t.stuff_id = s.stuff_id"
		where = append(where, "t.tag_hash64 = ?", "t.tag = ?")
		args = append(args, tagHash(q.Tag), q.Tag)
	}
	if q.State == AnyState {
		where = append(where, "s.state <> ?")
		args = append(args, Forgotten)
	} else {
		where = append(where, "s.state = ?")
		args = append(args, q.State)
	}
	args = append(args, q.Limit, q.Offset)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`select s.stuff_id, s.body, s.state from %v
		where %v
		order by s.stuff_id %v limit ? offset ?`, from, strings.Join(where, " and "), order), args...)
	if err != nil {
		return nil, fmt.Errorf("unable to query stuff, cause %w", err)
	}
	defer rows.Close()
	out := []Record{}
	for rows.Next() {
		var r Record
		err = rows.Scan(&r.ID, &r.Body, &r.State)
		if err != nil {
			return nil, fmt.Errorf("unable to scan stuff, cause %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get returns a single record and its tags
func (s *Store) Get(ctx context.Context, id int64) (Record, []string, error) {
	r := Record{ID: id}
	err := s.db.QueryRowContext(ctx, `select body, state from stuff where stuff_id = ?`, id).Scan(&r.Body, &r.State)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, nil, NotFound{ID: id}
	} else if err != nil {
		return Record{}, nil, fmt.Errorf("unable to load stuff %v, cause %w", id, err)
	}
	rows, err := s.db.QueryContext(ctx, `select tag from tags where stuff_id = ? order by tag asc`, id)
	if err != nil {
		return Record{}, nil, fmt.Errorf("unable to load tags for %v, cause %w", id, err)
	}
	defer rows.Close()
	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return Record{}, nil, fmt.Errorf("unable to scan tag, cause %w", err)
		}
		tags = append(tags, tag)
	}
	return r, tags, rows.Err()
}

// LatestTags lists distinct tags, most recently used first
func (s *Store) LatestTags(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `select tag from tags group by tag order by max(stuff_id) desc limit ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("unable to list tags, cause %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("unable to scan tag, cause %w", err)
		}
		out = append(out, tag)
	}
	return out, rows.Err()
}

func (s *Store) Tick(ctx context.Context, id int64) error {
	return s.setState(ctx, id, Ticked)
}

func (s *Store) Untick(ctx context.Context, id int64) error {
	return s.setState(ctx, id, Active)
}

func (s *Store) Forget(ctx context.Context, id int64) error {
	return s.setState(ctx, id, Forgotten)
}

func (s *Store) setState(ctx context.Context, id int64, st State) error {
	if !s.writeable {
		return ReadOnly{}
	}
	res, err := s.db.ExecContext(ctx, `update stuff set state = ? where stuff_id = ?`, st, id)
	if err != nil {
		return fmt.Errorf("unable to change stuff %v to %v, cause %w", id, st, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to change stuff %v to %v, cause %w", id, st, err)
	} else if n == 0 {
		return NotFound{ID: id}
	}
	return nil
}

func (s *Store) init(ctx context.Context) error {
	for _, cmd := range []string{
		`create table if not exists stuff(
			stuff_id integer primary key autoincrement,
			body text not null,
			state integer not null,
			created_at integer not null
		)`,
		`create table if not exists tags(
			stuff_id integer not null,
			tag text not null,
			tag_hash64 integer not null,
			primary key (stuff_id, tag),
			foreign key (stuff_id) references stuff(stuff_id)
		)`,
		`create index if not exists idx_tags_tag_hash64
			on tags(tag_hash64)
		`,
	} {
		_, err := s.db.ExecContext(ctx, cmd)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ExtractTags splits text into body and tags, line breaks are kept
func ExtractTags(text string) (string, []string) {
	seen := map[string]struct{}{}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		var words []string
		for _, w := range strings.Fields(line) {
			if len(w) > 1 && strings.HasPrefix(w, tagPrefix) {
				seen[w[len(tagPrefix):]] = struct{}{}
				continue
			}
			words = append(words, w)
		}
		lines[i] = strings.Join(words, " ")
	}
	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return strings.TrimSpace(strings.Join(lines, "\n")), tags
}

func tagHash(tag string) int64 {
	return int64(xxhash.Sum64String(tag))
}
