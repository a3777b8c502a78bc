package db

// Schema is the full database layout. Constraint names are referenced by the
// repositories when translating driver errors.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id                SERIAL PRIMARY KEY,
	email             TEXT NOT NULL UNIQUE,
	password_hash     TEXT NOT NULL,
	first_name        TEXT NOT NULL,
	last_name         TEXT NOT NULL DEFAULT '',
	is_admin          BOOLEAN NOT NULL DEFAULT FALSE,
	status            TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'inactive')),
	profile_image_key TEXT,
	profile_image_url TEXT,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS events (
	id                       SERIAL PRIMARY KEY,
	event_date               DATE NOT NULL,
	event_type               TEXT NOT NULL DEFAULT 'boules',
	location                 TEXT NOT NULL,
	start_time               TEXT NOT NULL DEFAULT '',
	status                   TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'confirmed', 'completed')),
	entry_fee                INTEGER NOT NULL DEFAULT 50,
	min_players              INTEGER NOT NULL DEFAULT 16 CHECK (min_players >= 2),
	teams_generated          BOOLEAN NOT NULL DEFAULT FALSE,
	allow_late_registrations BOOLEAN NOT NULL DEFAULT FALSE,
	created_at               TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_events_event_date ON events(event_date);

CREATE TABLE IF NOT EXISTS registrations (
	id             SERIAL PRIMARY KEY,
	event_id       INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	user_id        INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	phone_number   TEXT NOT NULL DEFAULT '',
	payment_status TEXT NOT NULL DEFAULT 'pending' CHECK (payment_status IN ('pending', 'paid')),
	check_in_code  TEXT NOT NULL UNIQUE,
	checked_in_at  TIMESTAMPTZ,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (event_id, user_id)
);

CREATE TABLE IF NOT EXISTS teams (
	id         SERIAL PRIMARY KEY,
	event_id   INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_teams_event_id ON teams(event_id);

CREATE TABLE IF NOT EXISTS team_members (
	id      SERIAL PRIMARY KEY,
	team_id INTEGER NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	UNIQUE (team_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_team_members_user_id ON team_members(user_id);

CREATE TABLE IF NOT EXISTS matches (
	id             SERIAL PRIMARY KEY,
	event_id       INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	team_a_id      INTEGER NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
	team_b_id      INTEGER NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
	round_number   INTEGER NOT NULL DEFAULT 1,
	court_number   INTEGER NOT NULL,
	status         TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'ongoing', 'locked', 'disputed')),
	score_a        INTEGER,
	score_b        INTEGER,
	winner_team_id INTEGER REFERENCES teams(id) ON DELETE SET NULL,
	completed_at   TIMESTAMPTZ,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT chk_match_distinct_teams CHECK (team_a_id <> team_b_id)
);

CREATE INDEX IF NOT EXISTS idx_matches_event_id ON matches(event_id);

CREATE TABLE IF NOT EXISTS result_confirmations (
	id         SERIAL PRIMARY KEY,
	match_id   INTEGER NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
	user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	score_a    INTEGER NOT NULL CHECK (score_a >= 0),
	score_b    INTEGER NOT NULL CHECK (score_b >= 0),
	status     TEXT NOT NULL DEFAULT 'submitted' CHECK (status IN ('submitted', 'confirmed', 'disputed')),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (match_id, user_id)
);

CREATE TABLE IF NOT EXISTS standings (
	id         SERIAL PRIMARY KEY,
	event_id   INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	wins       INTEGER NOT NULL DEFAULT 0,
	points     INTEGER NOT NULL DEFAULT 0,
	sos        INTEGER NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (event_id, user_id)
);
`
