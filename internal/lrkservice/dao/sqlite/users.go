package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/dekarrin/lrk/internal/lrkservice/dao"
	"github.com/google/uuid"
)

// UsersDB is the sqlite-backed dao.UserRepository.
type UsersDB struct {
	db *sql.DB
}

func (repo *UsersDB) init() error {
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		last_logout_time INTEGER NOT NULL
	);`)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *UsersDB) Create(ctx context.Context, user dao.User) (dao.User, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.User{}, err
	}

	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, last_logout_time) VALUES (?, ?, ?, ?)`,
		newUUID.String(), user.Username, user.PasswordHash, user.LastLogoutTime.Unix(),
	)
	if err != nil {
		return dao.User{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func (repo *UsersDB) GetByUsername(ctx context.Context, username string) (dao.User, error) {
	var id string
	var logout int64
	user := dao.User{Username: username}

	row := repo.db.QueryRowContext(ctx,
		`SELECT id, password_hash, last_logout_time FROM users WHERE username = ?;`, username,
	)
	if err := row.Scan(&id, &user.PasswordHash, &logout); err != nil {
		return user, wrapDBError(err)
	}

	if err := convertFromDB_UUID(id, &user.ID); err != nil {
		return user, err
	}
	user.LastLogoutTime = time.Unix(logout, 0)
	return user, nil
}

func (repo *UsersDB) GetByID(ctx context.Context, id uuid.UUID) (dao.User, error) {
	var logout int64
	user := dao.User{ID: id}

	row := repo.db.QueryRowContext(ctx,
		`SELECT username, password_hash, last_logout_time FROM users WHERE id = ?;`, convertToDB_UUID(id),
	)
	if err := row.Scan(&user.Username, &user.PasswordHash, &logout); err != nil {
		return user, wrapDBError(err)
	}
	user.LastLogoutTime = time.Unix(logout, 0)
	return user, nil
}

func (repo *UsersDB) Update(ctx context.Context, id uuid.UUID, user dao.User) (dao.User, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE users SET username=?, password_hash=?, last_logout_time=? WHERE id=?;`,
		user.Username, user.PasswordHash, user.LastLogoutTime.Unix(), convertToDB_UUID(id),
	)
	if err != nil {
		return dao.User{}, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return dao.User{}, wrapDBError(err)
	}
	if rowsAff < 1 {
		return dao.User{}, dao.ErrNotFound
	}
	return repo.GetByID(ctx, id)
}
