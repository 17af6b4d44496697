package storage

import (
	"os"
)

// Usage is the on-disk footprint of the Zotero database and the history store.
type Usage struct {
	Database int64
	// WAL counts the database's -wal and -shm files while Zotero has it open.
	WAL     int64
	Journal int64
	// History includes the SQLite backend's -wal and -shm files.
	History int64
}

// Total returns the sum of every part.
func (u Usage) Total() int64 {
	return u.Database + u.WAL + u.Journal + u.History
}

// MeasureUsage stats databasePath, its SQLite side files, and historyPath.
// Missing files count as zero; an empty path is skipped.
func MeasureUsage(databasePath, historyPath string) (Usage, error) {
	var u Usage
	var err error
	if databasePath != "" {
		if u.Database, err = fileSize(databasePath); err != nil {
			return u, err
		}
		if u.WAL, err = fileSize(databasePath+"-wal", databasePath+"-shm"); err != nil {
			return u, err
		}
		if u.Journal, err = fileSize(databasePath + "-journal"); err != nil {
			return u, err
		}
	}
	if historyPath != "" {
		if u.History, err = fileSize(historyPath, historyPath+"-wal", historyPath+"-shm"); err != nil {
			return u, err
		}
	}
	return u, nil
}

func fileSize(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
		}
	}
	return total, nil
}
