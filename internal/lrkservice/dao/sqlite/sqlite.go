// Package sqlite implements internal/lrkservice/dao atop a pure-Go SQLite
// driver, mirroring the teacher's server/dao/sqlite package: a single file
// per table-backed repository sharing one *sql.DB connection opened in
// NewDatastore.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dekarrin/lrk/internal/lrkservice/dao"
	"github.com/google/uuid"
	"modernc.org/sqlite"
)

type store struct {
	dbFilename string
	db         *sql.DB

	users  *UsersDB
	builds *BuildsDB
}

// NewDatastore opens (creating if necessary) the SQLite database under
// storageDir and initializes its schema.
func NewDatastore(storageDir string) (dao.Store, error) {
	st := &store{dbFilename: "lrk.db"}

	fileName := filepath.Join(storageDir, st.dbFilename)

	var err error
	st.db, err = sql.Open("sqlite", fileName)
	if err != nil {
		return nil, wrapDBError(err)
	}

	st.users = &UsersDB{db: st.db}
	if err := st.users.init(); err != nil {
		return nil, err
	}

	st.builds = &BuildsDB{db: st.db}
	if err := st.builds.init(); err != nil {
		return nil, err
	}

	return st, nil
}

func (s *store) Users() dao.UserRepository   { return s.users }
func (s *store) Builds() dao.BuildRepository { return s.builds }

func (s *store) Close() error {
	return s.db.Close()
}

// wrapDBError maps a raw database/sql or modernc.org/sqlite error onto this
// module's dao sentinel errors, same mapping the teacher's store uses.
func wrapDBError(err error) error {
	if err == nil {
		return nil
	}
	sqliteErr := &sqlite.Error{}
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code() == 19 {
			return dao.ErrConstraintViolation
		}
		return fmt.Errorf("%s", sqlite.ErrorCodeString[sqliteErr.Code()])
	}
	if errors.Is(err, sql.ErrNoRows) {
		return dao.ErrNotFound
	}
	return err
}

func convertToDB_UUID(u uuid.UUID) string { return u.String() }

func convertFromDB_UUID(s string, target *uuid.UUID) error {
	u, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("stored UUID %q is invalid: %w", s, err)
	}
	*target = u
	return nil
}
