package store

import (
	"database/sql"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type Station struct {
	StationID string
	Name      string
	RiverSite bool
}

func (s *Store) UpsertStation(st Station) error {
	_, err := s.db.Exec(`
		INSERT INTO stations (station_id, name, river_site)
		VALUES (?, ?, ?)
		ON CONFLICT(station_id) DO UPDATE SET
			name = excluded.name,
			river_site = excluded.river_site
	`, st.StationID, st.Name, st.RiverSite)
	return err
}

// GetStation returns nil when the station is unknown.
func (s *Store) GetStation(stationID string) (*Station, error) {
	var st Station
	err := s.db.QueryRow(`SELECT station_id, name, river_site FROM stations WHERE station_id = ?`, stationID).
		Scan(&st.StationID, &st.Name, &st.RiverSite)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) ListStations() ([]Station, error) {
	rows, err := s.db.Query(`SELECT station_id, name, river_site FROM stations ORDER BY station_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []Station
	for rows.Next() {
		var st Station
		if err := rows.Scan(&st.StationID, &st.Name, &st.RiverSite); err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}
