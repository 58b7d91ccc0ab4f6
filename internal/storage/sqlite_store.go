package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/simpyt/search-room/internal/domain"
)

// ErrDuplicateListing is returned when a room already tracks the external id.
var ErrDuplicateListing = errors.New("storage: listing already pinned in this room")

type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) EnsureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS user_criteria (
  room_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  ts INTEGER NOT NULL,
  source TEXT NOT NULL,
  criteria_json TEXT NOT NULL,
  weights_json TEXT NOT NULL DEFAULT '{}'
);`,
		`CREATE INDEX IF NOT EXISTS idx_user_criteria_room ON user_criteria(room_id, user_id, ts);`,
		`CREATE TABLE IF NOT EXISTS combined_criteria (
  room_id TEXT NOT NULL,
  ts INTEGER NOT NULL,
  mode TEXT NOT NULL,
  criteria_json TEXT NOT NULL,
  weights_json TEXT NOT NULL DEFAULT '{}',
  from_user_ids_json TEXT NOT NULL DEFAULT '[]',
  infeasible_json TEXT NOT NULL DEFAULT '[]',
  conflicts_json TEXT NOT NULL DEFAULT '[]'
);`,
		`CREATE INDEX IF NOT EXISTS idx_combined_criteria_room ON combined_criteria(room_id, ts);`,
		`CREATE TABLE IF NOT EXISTS compatibility_snapshots (
  id TEXT PRIMARY KEY,
  room_id TEXT NOT NULL,
  ts INTEGER NOT NULL,
  score REAL NOT NULL,
  level TEXT NOT NULL,
  comment TEXT NOT NULL DEFAULT '',
  criteria_refs_json TEXT NOT NULL DEFAULT '[]'
);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_room ON compatibility_snapshots(room_id, ts);`,
		`CREATE TABLE IF NOT EXISTS listings (
  id TEXT PRIMARY KEY,
  room_id TEXT NOT NULL,
  external_id TEXT NOT NULL,
  source TEXT NOT NULL,
  url TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  price REAL,
  rooms REAL,
  living_space REAL,
  year_built REAL,
  lot_size REAL,
  location TEXT NOT NULL DEFAULT '',
  features_json TEXT NOT NULL DEFAULT '[]',
  status TEXT NOT NULL,
  seen_by_json TEXT NOT NULL DEFAULT '[]',
  created_at INTEGER NOT NULL,
  UNIQUE(room_id, external_id)
);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ---- user criteria (append-only) ----

func (s *SQLiteStore) SaveUserCriteria(uc domain.UserCriteria) error {
	cj, err := json.Marshal(uc.Criteria)
	if err != nil {
		return err
	}
	wj, err := json.Marshal(uc.Weights)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
INSERT INTO user_criteria (room_id, user_id, ts, source, criteria_json, weights_json)
VALUES (?, ?, ?, ?, ?, ?)
`, uc.RoomID, uc.UserID, uc.Timestamp.UnixNano(), string(uc.Source), string(cj), string(wj))
	return err
}

// LatestUserCriteria returns the newest record per user in the room, ordered by user id.
func (s *SQLiteStore) LatestUserCriteria(roomID string) ([]domain.UserCriteria, error) {
	rows, err := s.db.Query(`
SELECT user_id, ts, source, criteria_json, weights_json
FROM user_criteria
WHERE room_id = ?
ORDER BY ts ASC
`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	latest := make(map[string]domain.UserCriteria)
	for rows.Next() {
		var (
			uc     domain.UserCriteria
			ts     int64
			src    string
			cj, wj string
		)
		if err := rows.Scan(&uc.UserID, &ts, &src, &cj, &wj); err != nil {
			return nil, err
		}
		uc.RoomID = roomID
		uc.Timestamp = time.Unix(0, ts).UTC()
		uc.Source = domain.CriteriaSource(src)
		if err := json.Unmarshal([]byte(cj), &uc.Criteria); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(wj), &uc.Weights); err != nil {
			return nil, err
		}
		latest[uc.UserID] = uc
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.UserCriteria, 0, len(latest))
	for _, uc := range latest {
		out = append(out, uc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// ---- combined criteria (derived, append-only) ----

func (s *SQLiteStore) SaveCombinedCriteria(cc domain.CombinedCriteria) error {
	cj, err := json.Marshal(cc.Criteria)
	if err != nil {
		return err
	}
	wj, _ := json.Marshal(cc.Weights)
	fj, _ := json.Marshal(cc.FromUserIDs)
	ij, _ := json.Marshal(cc.Infeasible)
	xj, _ := json.Marshal(cc.Conflicts)
	_, err = s.db.Exec(`
INSERT INTO combined_criteria (room_id, ts, mode, criteria_json, weights_json, from_user_ids_json, infeasible_json, conflicts_json)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, cc.RoomID, cc.Timestamp.UnixNano(), string(cc.CombineMode), string(cj), string(wj), string(fj), string(ij), string(xj))
	return err
}

func (s *SQLiteStore) LatestCombinedCriteria(roomID string) (domain.CombinedCriteria, bool, error) {
	var (
		cc                 domain.CombinedCriteria
		ts                 int64
		mode               string
		cj, wj, fj, ij, xj string
	)
	err := s.db.QueryRow(`
SELECT ts, mode, criteria_json, weights_json, from_user_ids_json, infeasible_json, conflicts_json
FROM combined_criteria
WHERE room_id = ?
ORDER BY ts DESC
LIMIT 1
`, roomID).Scan(&ts, &mode, &cj, &wj, &fj, &ij, &xj)
	if err == sql.ErrNoRows {
		return domain.CombinedCriteria{}, false, nil
	}
	if err != nil {
		return domain.CombinedCriteria{}, false, err
	}
	cc.RoomID = roomID
	cc.Timestamp = time.Unix(0, ts).UTC()
	cc.CombineMode = domain.CombineMode(mode)
	if err := json.Unmarshal([]byte(cj), &cc.Criteria); err != nil {
		return domain.CombinedCriteria{}, false, err
	}
	_ = json.Unmarshal([]byte(wj), &cc.Weights)
	_ = json.Unmarshal([]byte(fj), &cc.FromUserIDs)
	_ = json.Unmarshal([]byte(ij), &cc.Infeasible)
	_ = json.Unmarshal([]byte(xj), &cc.Conflicts)
	return cc, true, nil
}

// ---- compatibility snapshots (derived, append-only) ----

func (s *SQLiteStore) SaveSnapshot(snap domain.CompatibilitySnapshot) error {
	rj, err := json.Marshal(snap.CriteriaRefs)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
INSERT INTO compatibility_snapshots (id, room_id, ts, score, level, comment, criteria_refs_json)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, snap.ID, snap.RoomID, snap.Timestamp.UnixNano(), snap.ScorePercent, string(snap.Level), snap.Comment, string(rj))
	return err
}

func (s *SQLiteStore) LatestSnapshot(roomID string) (domain.CompatibilitySnapshot, bool, error) {
	var (
		snap  domain.CompatibilitySnapshot
		ts    int64
		level string
		rj    string
	)
	err := s.db.QueryRow(`
SELECT id, ts, score, level, comment, criteria_refs_json
FROM compatibility_snapshots
WHERE room_id = ?
ORDER BY ts DESC
LIMIT 1
`, roomID).Scan(&snap.ID, &ts, &snap.ScorePercent, &level, &snap.Comment, &rj)
	if err == sql.ErrNoRows {
		return domain.CompatibilitySnapshot{}, false, nil
	}
	if err != nil {
		return domain.CompatibilitySnapshot{}, false, err
	}
	snap.RoomID = roomID
	snap.Timestamp = time.Unix(0, ts).UTC()
	snap.Level = domain.CompatibilityLevel(level)
	_ = json.Unmarshal([]byte(rj), &snap.CriteriaRefs)
	return snap, true, nil
}

// ---- listings ----

func (s *SQLiteStore) HasListing(roomID, externalID string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM listings WHERE room_id = ? AND external_id = ?`,
		roomID, externalID).Scan(&n)
	return n > 0, err
}

// CreateListing inserts the listing; the UNIQUE(room_id, external_id) constraint
// is the dedup authority, so concurrent pins of the same URL cannot both win.
func (s *SQLiteStore) CreateListing(l domain.Listing) error {
	fj, _ := json.Marshal(l.Features)
	sj, _ := json.Marshal(l.SeenBy)
	_, err := s.db.Exec(`
INSERT INTO listings
(id, room_id, external_id, source, url, title, price, rooms, living_space, year_built, lot_size, location, features_json, status, seen_by_json, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, l.ID, l.RoomID, l.ExternalID, l.Source, l.URL, l.Title,
		l.Price, l.Rooms, l.LivingSpace, l.YearBuilt, l.LotSize,
		l.Location, string(fj), string(l.Status), string(sj), l.CreatedAt.UnixNano())
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return ErrDuplicateListing
	}
	return err
}

func (s *SQLiteStore) GetListing(roomID, id string) (domain.Listing, bool, error) {
	row := s.db.QueryRow(`
SELECT id, external_id, source, url, title, price, rooms, living_space, year_built, lot_size, location, features_json, status, seen_by_json, created_at
FROM listings WHERE room_id = ? AND id = ?
`, roomID, id)
	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return domain.Listing{}, false, nil
	}
	if err != nil {
		return domain.Listing{}, false, err
	}
	l.RoomID = roomID
	return l, true, nil
}

func (s *SQLiteStore) ListListings(roomID string) ([]domain.Listing, error) {
	rows, err := s.db.Query(`
SELECT id, external_id, source, url, title, price, rooms, living_space, year_built, lot_size, location, features_json, status, seen_by_json, created_at
FROM listings WHERE room_id = ?
ORDER BY created_at DESC
`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		l.RoomID = roomID
		out = append(out, l)
	}
	return out, rows.Err()
}

// UpdateListingStatus mutates status only; everything else on a listing is fixed
// at creation.
func (s *SQLiteStore) UpdateListingStatus(roomID, id string, status domain.ListingStatus) (bool, error) {
	res, err := s.db.Exec(`UPDATE listings SET status = ? WHERE room_id = ? AND id = ?`,
		string(status), roomID, id)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (s *SQLiteStore) MarkListingSeen(roomID, id, userID string) (bool, error) {
	l, ok, err := s.GetListing(roomID, id)
	if err != nil || !ok {
		return false, err
	}
	for _, u := range l.SeenBy {
		if u == userID {
			return true, nil
		}
	}
	l.SeenBy = append(l.SeenBy, userID)
	sj, _ := json.Marshal(l.SeenBy)
	_, err = s.db.Exec(`UPDATE listings SET seen_by_json = ? WHERE room_id = ? AND id = ?`,
		string(sj), roomID, id)
	return err == nil, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (domain.Listing, error) {
	var (
		l       domain.Listing
		status  string
		fj, sj  string
		created int64
	)
	err := row.Scan(
		&l.ID, &l.ExternalID, &l.Source, &l.URL, &l.Title,
		&l.Price, &l.Rooms, &l.LivingSpace, &l.YearBuilt, &l.LotSize,
		&l.Location, &fj, &status, &sj, &created,
	)
	if err != nil {
		return domain.Listing{}, err
	}
	l.Status = domain.ListingStatus(status)
	l.CreatedAt = time.Unix(0, created).UTC()
	_ = json.Unmarshal([]byte(fj), &l.Features)
	_ = json.Unmarshal([]byte(sj), &l.SeenBy)
	return l, nil
}
