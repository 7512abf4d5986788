package database

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		problem_name TEXT NOT NULL,
		problem_link TEXT NOT NULL UNIQUE,
		video_id TEXT NOT NULL DEFAULT '',
		platform TEXT NOT NULL DEFAULT '',
		difficulty TEXT NOT NULL DEFAULT '',
		solved INTEGER NOT NULL DEFAULT 1,
		revise_count INTEGER NOT NULL DEFAULT 0,
		last_attempted_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS labels (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		UNIQUE (kind, name)
	)`,

	`CREATE TABLE IF NOT EXISTS question_labels (
		question_id INTEGER NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
		label_id INTEGER NOT NULL REFERENCES labels(id) ON DELETE CASCADE,
		PRIMARY KEY (question_id, label_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_questions_problem_link ON questions(problem_link)`,
	`CREATE INDEX IF NOT EXISTS idx_labels_kind ON labels(kind)`,
}
