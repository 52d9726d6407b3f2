package history

const schemaSQL = `
CREATE TABLE IF NOT EXISTS windows (
    window_start   TEXT PRIMARY KEY,
    window_end     TEXT NOT NULL,
    first_seen_at  TEXT NOT NULL,
    prev_start     TEXT
);

CREATE TABLE IF NOT EXISTS samples (
    sampled_at     TEXT PRIMARY KEY,
    window_start   TEXT,
    tokens_used    INTEGER NOT NULL,
    token_limit    INTEGER NOT NULL,
    burn_rate      REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_samples_window ON samples(window_start);
`
