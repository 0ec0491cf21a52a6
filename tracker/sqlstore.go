package tracker

import (
	"database/sql"
	"time"

	"github.com/blindly-cash/relay-go/common"
	"github.com/blindly-cash/relay-go/database"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// SQLStore persists requests in a sqlite table so they survive restarts.
type SQLStore struct {
	db        *sql.DB
	stmtCache *database.StmtCache
}

type sqlRequest struct {
	RequestId string
	Status    string
	TxHash    sql.NullString
	Detail    sql.NullString
	UpdatedAt int64
}

func (s *sqlRequest) encode(r *Request) *sqlRequest {
	s.RequestId = r.ID.String()[2:]
	s.Status = string(r.Status)
	if r.TxHash != (ethcommon.Hash{}) {
		s.TxHash = sql.NullString{String: r.TxHash.String()[2:], Valid: true}
	}
	if r.Detail != "" {
		s.Detail = sql.NullString{String: r.Detail, Valid: true}
	}
	s.UpdatedAt = r.UpdatedAt.UnixNano()
	return s
}

func (s *sqlRequest) decode() *Request {
	r := &Request{
		ID:        common.HexStrToBytes32(s.RequestId),
		Status:    Status(s.Status),
		Detail:    s.Detail.String,
		UpdatedAt: time.Unix(0, s.UpdatedAt),
	}
	if s.TxHash.Valid {
		r.TxHash = common.HexStrToBytes32(s.TxHash.String)
	}
	return r
}

func NewSQLStore(db *sql.DB) (*SQLStore, error) {
	if _, err := db.Exec(redeemRequestTable); err != nil {
		return nil, err
	}

	return &SQLStore{
		db:        db,
		stmtCache: database.NewStmtCache(db),
	}, nil
}

func (st *SQLStore) Close() error {
	st.stmtCache.Clear()
	return nil
}

func (st *SQLStore) Get(id ethcommon.Hash) (*Request, bool, error) {
	query := `SELECT requestId, status, txHash, detail, updatedAt FROM redeemRequest WHERE requestId = ?`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return nil, false, err
	}

	var sr sqlRequest
	if err := stmt.QueryRow(id.String()[2:]).Scan(
		&sr.RequestId,
		&sr.Status,
		&sr.TxHash,
		&sr.Detail,
		&sr.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}

	return sr.decode(), true, nil
}

func (st *SQLStore) Put(r *Request) error {
	query := `INSERT OR REPLACE INTO redeemRequest (requestId, status, txHash, detail, updatedAt) VALUES (?, ?, ?, ?, ?)`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return err
	}

	sr := (&sqlRequest{}).encode(r)
	_, err = stmt.Exec(sr.RequestId, sr.Status, sr.TxHash, sr.Detail, sr.UpdatedAt)
	return err
}

func (st *SQLStore) CompareAndSwap(id ethcommon.Hash, expected *Status, next *Request) (bool, error) {
	sr := (&sqlRequest{}).encode(next)

	var (
		res sql.Result
		err error
	)
	if expected == nil {
		query := `INSERT OR IGNORE INTO redeemRequest (requestId, status, txHash, detail, updatedAt) VALUES (?, ?, ?, ?, ?)`
		stmt, perr := st.stmtCache.Prepare(query)
		if perr != nil {
			return false, perr
		}
		res, err = stmt.Exec(sr.RequestId, sr.Status, sr.TxHash, sr.Detail, sr.UpdatedAt)
	} else {
		query := `UPDATE redeemRequest SET status = ?, txHash = ?, detail = ?, updatedAt = ? WHERE requestId = ? AND status = ?`
		stmt, perr := st.stmtCache.Prepare(query)
		if perr != nil {
			return false, perr
		}
		res, err = stmt.Exec(sr.Status, sr.TxHash, sr.Detail, sr.UpdatedAt, id.String()[2:], string(*expected))
	}
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
