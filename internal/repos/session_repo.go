package repos

import (
	"bookbazaar/internal/domain"

	"github.com/jmoiron/sqlx"
)

type SessionRepo struct{ DB *sqlx.DB }

func NewSessionRepo(db *sqlx.DB) *SessionRepo { return &SessionRepo{DB: db} }

func (r *SessionRepo) Bind(sid string, u domain.User) error {
	_, err := r.DB.Exec(`INSERT INTO sessions(id,user_id,name,access_token,last_seen)
                          VALUES(?,?,?,?,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET
                            user_id=excluded.user_id,
                            name=excluded.name,
                            access_token=excluded.access_token,
                            last_seen=CURRENT_TIMESTAMP`, sid, u.ID, u.Name, u.AccessToken)
	return err
}

// User returns the account bound to sid. sql.ErrNoRows when the session is
// unknown or signed out.
func (r *SessionRepo) User(sid string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `
      SELECT user_id, COALESCE(name,'') AS name, access_token
      FROM sessions
      WHERE id=? AND user_id IS NOT NULL AND access_token IS NOT NULL`, sid)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *SessionRepo) Unbind(sid string) error {
	_, err := r.DB.Exec(`UPDATE sessions SET user_id=NULL,access_token=NULL,last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid)
	return err
}
