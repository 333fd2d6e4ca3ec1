package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"uctl/internal/device"
)

// SnapshotRepo stores the last applied snapshot per domain as a JSON blob.
// Only the newest snapshot is kept; the cache exists to prime the UI, not
// to keep history.
type SnapshotRepo struct {
	db *sql.DB
}

func NewSnapshotRepo(db *sql.DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

func (r *SnapshotRepo) Save(ctx context.Context, snapshot device.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode %s snapshot: %w", snapshot.Domain, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO device_snapshots(domain, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(domain) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, string(snapshot.Domain), string(payload), toUnixMillis(snapshot.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save %s snapshot: %w", snapshot.Domain, err)
	}

	return nil
}

func (r *SnapshotRepo) Load(ctx context.Context, domain device.Domain) (device.Snapshot, bool, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `
		SELECT payload FROM device_snapshots WHERE domain = ?
	`, string(domain)).Scan(&payload)
	if err == sql.ErrNoRows {
		return device.Snapshot{}, false, nil
	}
	if err != nil {
		return device.Snapshot{}, false, fmt.Errorf("load %s snapshot: %w", domain, err)
	}

	var snapshot device.Snapshot
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		return device.Snapshot{}, false, fmt.Errorf("decode %s snapshot: %w", domain, err)
	}

	return snapshot, true, nil
}

// LoadAll returns every cached snapshot keyed by domain.
func (r *SnapshotRepo) LoadAll(ctx context.Context) (map[device.Domain]device.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT domain, payload FROM device_snapshots`)
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}
	defer rows.Close()

	out := make(map[device.Domain]device.Snapshot)
	for rows.Next() {
		var domain, payload string
		if err := rows.Scan(&domain, &payload); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		var snapshot device.Snapshot
		if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
			return nil, fmt.Errorf("decode %s snapshot: %w", domain, err)
		}

		out[device.Domain(domain)] = snapshot
	}

	return out, rows.Err()
}
