package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/dekarrin/lrk/internal/lrkservice/dao"
	"github.com/google/uuid"
)

// BuildsDB is the sqlite-backed dao.BuildRepository.
type BuildsDB struct {
	db *sql.DB
}

func (repo *BuildsDB) init() error {
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS builds (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL,
		grammar_hash TEXT NOT NULL,
		k INTEGER NOT NULL,
		success INTEGER NOT NULL,
		state_count INTEGER NOT NULL,
		conflict_msg TEXT NOT NULL,
		table_data BLOB,
		created_at INTEGER NOT NULL
	);`)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *BuildsDB) Create(ctx context.Context, rec dao.BuildRecord) (dao.BuildRecord, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.BuildRecord{}, err
	}
	rec.ID = newUUID
	rec.CreatedAt = time.Now()

	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO builds (id, user_id, grammar_hash, k, success, state_count, conflict_msg, table_data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		convertToDB_UUID(rec.ID), convertToDB_UUID(rec.UserID), rec.GrammarHash, rec.K,
		boolToInt(rec.Success), rec.StateCount, rec.ConflictMsg, rec.TableData, rec.CreatedAt.Unix(),
	)
	if err != nil {
		return dao.BuildRecord{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, rec.ID)
}

func (repo *BuildsDB) GetByID(ctx context.Context, id uuid.UUID) (dao.BuildRecord, error) {
	var userID string
	var success int
	var created int64
	rec := dao.BuildRecord{ID: id}

	row := repo.db.QueryRowContext(ctx,
		`SELECT user_id, grammar_hash, k, success, state_count, conflict_msg, table_data, created_at
		 FROM builds WHERE id = ?;`, convertToDB_UUID(id),
	)
	if err := row.Scan(&userID, &rec.GrammarHash, &rec.K, &success, &rec.StateCount, &rec.ConflictMsg, &rec.TableData, &created); err != nil {
		return rec, wrapDBError(err)
	}

	if err := convertFromDB_UUID(userID, &rec.UserID); err != nil {
		return rec, err
	}
	rec.Success = success != 0
	rec.CreatedAt = time.Unix(created, 0)
	return rec, nil
}

func (repo *BuildsDB) GetAllForUser(ctx context.Context, userID uuid.UUID) ([]dao.BuildRecord, error) {
	rows, err := repo.db.QueryContext(ctx,
		`SELECT id, grammar_hash, k, success, state_count, conflict_msg, created_at
		 FROM builds WHERE user_id = ? ORDER BY created_at DESC;`, convertToDB_UUID(userID),
	)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.BuildRecord
	for rows.Next() {
		var id string
		var success int
		var created int64
		rec := dao.BuildRecord{UserID: userID}

		if err := rows.Scan(&id, &rec.GrammarHash, &rec.K, &success, &rec.StateCount, &rec.ConflictMsg, &created); err != nil {
			return nil, wrapDBError(err)
		}
		if err := convertFromDB_UUID(id, &rec.ID); err != nil {
			return nil, err
		}
		rec.Success = success != 0
		rec.CreatedAt = time.Unix(created, 0)
		all = append(all, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError(err)
	}
	return all, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
