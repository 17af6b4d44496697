// Package librarytest builds small Zotero-shaped databases for tests.
package librarytest

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// schema mirrors the subset of the Zotero schema read by the loader.
const schema = `
CREATE TABLE items (
	itemID INTEGER PRIMARY KEY,
	itemTypeID INT NOT NULL DEFAULT 0,
	key TEXT NOT NULL UNIQUE
);
CREATE TABLE itemAttachments (
	itemID INTEGER PRIMARY KEY,
	parentItemID INT,
	linkMode INT NOT NULL DEFAULT 0,
	contentType TEXT,
	path TEXT
);
CREATE TABLE fields (
	fieldID INTEGER PRIMARY KEY,
	fieldName TEXT NOT NULL UNIQUE
);
CREATE TABLE itemDataValues (
	valueID INTEGER PRIMARY KEY,
	value UNIQUE
);
CREATE TABLE itemData (
	itemID INT,
	fieldID INT,
	valueID INT,
	PRIMARY KEY (itemID, fieldID)
);
CREATE TABLE creators (
	creatorID INTEGER PRIMARY KEY,
	firstName TEXT,
	lastName TEXT,
	fieldMode INT NOT NULL DEFAULT 0
);
CREATE TABLE itemCreators (
	itemID INT NOT NULL,
	creatorID INT NOT NULL,
	creatorTypeID INT NOT NULL DEFAULT 1,
	orderIndex INT NOT NULL DEFAULT 0,
	PRIMARY KEY (itemID, creatorID, creatorTypeID, orderIndex)
);
CREATE TABLE deletedItems (
	itemID INTEGER PRIMARY KEY,
	dateDeleted DEFAULT CURRENT_TIMESTAMP NOT NULL
);
INSERT INTO fields (fieldID, fieldName) VALUES (1, 'title'), (6, 'date'), (14, 'url');
`

// Creator is one author of a paper.
type Creator struct {
	Last  string
	First string
	Order int
}

// Attachment is a file stored under <root>/storage/<Key>/.
type Attachment struct {
	Key         string
	ContentType string
	// Path is the stored path, usually "storage:<filename>".
	Path string
}

// Paper is a parent item. Empty Title or Date leaves the field unset.
type Paper struct {
	Title       string
	Date        string
	URL         string
	Creators    []Creator
	Attachments []Attachment
}

// Fixture is a writable Zotero database under a temporary library root.
type Fixture struct {
	t      testing.TB
	db     *sql.DB
	Root   string
	nextID int64
	keyN   int
}

// New creates <tempdir>/zotero.sqlite with the Zotero tables.
func New(t testing.TB) *Fixture {
	t.Helper()
	root := t.TempDir()
	db, err := sql.Open("sqlite3", filepath.Join(root, "zotero.sqlite"))
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		t.Fatalf("create fixture schema: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &Fixture{t: t, db: db, Root: root, nextID: 1}
}

// DB exposes the writable handle for tests that need to corrupt the schema.
func (f *Fixture) DB() *sql.DB {
	return f.db
}

// AddPaper inserts a parent item with its fields, creators and attachments.
// It returns the parent item ID followed by the attachment item IDs.
func (f *Fixture) AddPaper(p Paper) (int64, []int64) {
	f.t.Helper()
	parentID := f.insertItem("")
	f.setField(parentID, "title", p.Title)
	f.setField(parentID, "date", p.Date)
	f.setField(parentID, "url", p.URL)
	for _, c := range p.Creators {
		res, err := f.db.Exec(`INSERT INTO creators (firstName, lastName) VALUES (?, ?)`, c.First, c.Last)
		if err != nil {
			f.t.Fatalf("insert creator: %v", err)
		}
		creatorID, _ := res.LastInsertId()
		if _, err := f.db.Exec(
			`INSERT INTO itemCreators (itemID, creatorID, orderIndex) VALUES (?, ?, ?)`,
			parentID, creatorID, c.Order,
		); err != nil {
			f.t.Fatalf("insert item creator: %v", err)
		}
	}
	ids := make([]int64, 0, len(p.Attachments))
	for _, a := range p.Attachments {
		attID := f.insertItem(a.Key)
		var path any
		if a.Path != "" {
			path = a.Path
		}
		if _, err := f.db.Exec(
			`INSERT INTO itemAttachments (itemID, parentItemID, contentType, path) VALUES (?, ?, ?, ?)`,
			attID, parentID, a.ContentType, path,
		); err != nil {
			f.t.Fatalf("insert attachment: %v", err)
		}
		ids = append(ids, attID)
	}
	return parentID, ids
}

// Trash moves an item into the Zotero trash.
func (f *Fixture) Trash(itemID int64) {
	f.t.Helper()
	if _, err := f.db.Exec(`INSERT INTO deletedItems (itemID) VALUES (?)`, itemID); err != nil {
		f.t.Fatalf("trash item %d: %v", itemID, err)
	}
}

func (f *Fixture) insertItem(key string) int64 {
	f.t.Helper()
	id := f.nextID
	f.nextID++
	if key == "" {
		f.keyN++
		key = "PARENT" + string(rune('A'+f.keyN%26)) + string(rune('A'+f.keyN/26))
	}
	if _, err := f.db.Exec(`INSERT INTO items (itemID, key) VALUES (?, ?)`, id, key); err != nil {
		f.t.Fatalf("insert item: %v", err)
	}
	return id
}

func (f *Fixture) setField(itemID int64, name, value string) {
	f.t.Helper()
	if value == "" {
		return
	}
	if _, err := f.db.Exec(`INSERT OR IGNORE INTO itemDataValues (value) VALUES (?)`, value); err != nil {
		f.t.Fatalf("insert value: %v", err)
	}
	if _, err := f.db.Exec(`
INSERT INTO itemData (itemID, fieldID, valueID)
SELECT ?, fields.fieldID, itemDataValues.valueID
  FROM fields, itemDataValues
 WHERE fields.fieldName = ? AND itemDataValues.value = ?`,
		itemID, name, value,
	); err != nil {
		f.t.Fatalf("insert item data: %v", err)
	}
}
