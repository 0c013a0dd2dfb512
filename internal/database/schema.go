package database

const schema = `
CREATE TABLE favorites (
	id INTEGER PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	poster_url TEXT NOT NULL DEFAULT '',
	rating REAL NOT NULL DEFAULT 0,
	year INTEGER NOT NULL DEFAULT 0,
	description TEXT NOT NULL DEFAULT '',
	genres TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE INDEX idx_favorites_title ON favorites(title);
`

// migrations[0] is empty because version 0 uses the base schema
var migrations = []string{
	"",
}
