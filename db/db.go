package db

import (
	"database/sql"
	"strings"
	"time"
	"walletwatch/config"
	"walletwatch/log"

	_ "github.com/mattn/go-sqlite3"
)

var db *sql.DB

// transactRetries bounds how often a busy transaction is retried before the
// error propagates as a storage failure.
const transactRetries = 5

// Init opens the configured sqlite database and prepares the schema.
func Init() {
	if err := Open(config.GetDBPath()); err != nil {
		panic(err)
	}
}

// Open connects to the sqlite database at the given path.
// WAL mode keeps API reads usable while a collection cycle writes.
func Open(path string) error {
	dsn := path + "?_busy_timeout=5000&_journal_mode=WAL"

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return err
	}

	// A small pool lets API reads proceed while a cycle writes; writer
	// serialization already comes from the scheduler's one-cycle guarantee,
	// so at most one connection ever holds a write transaction.
	conn.SetMaxOpenConns(4)

	if err := conn.Ping(); err != nil {
		return err
	}

	db = conn

	return createSchema()
}

// Close releases the database handle. Used by tests.
func Close() error {
	if db == nil {
		return nil
	}
	return db.Close()
}

func transact(txFunc func(*sql.Tx) error) error {
	var err error

	for i := 0; i < transactRetries; i++ {
		err = runTx(txFunc)
		if err == nil || !busyErr(err) {
			return err
		}

		time.Sleep(100 * time.Millisecond)
	}

	return err
}

func runTx(txFunc func(*sql.Tx) error) (err error) {
	tx, err := db.Begin()
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	err = txFunc(tx)
	return err
}

func busyErr(err error) bool {
	if err == nil {
		return false
	}

	log.Error.Println(err)

	return strings.Contains(err.Error(), "database is locked") ||
		strings.Contains(err.Error(), "database table is locked")
}
