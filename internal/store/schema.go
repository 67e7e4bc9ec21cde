package store

// Rows are read back in rowid order so a reload reproduces the parsed
// table order, including duplicate dimension ids.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    user_id              TEXT NOT NULL,
    tutorial_id          INTEGER NOT NULL,
    session_start_at     TEXT NOT NULL,
    session_end_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tutorials (
    tutorial_id          INTEGER NOT NULL,
    title                TEXT NOT NULL,
    tag_id               INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tags (
    id                   INTEGER NOT NULL,
    name                 TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS source_tracker (
    path                 TEXT PRIMARY KEY,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL,
    reject_negative      INTEGER NOT NULL DEFAULT 1,
    rejected_rows        INTEGER NOT NULL DEFAULT 0,
    loaded_at            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS file_tracker (
    table_name           TEXT PRIMARY KEY,
    file_path            TEXT NOT NULL,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_end ON sessions(session_end_at);
CREATE INDEX IF NOT EXISTS idx_tutorials_id ON tutorials(tutorial_id);
`
