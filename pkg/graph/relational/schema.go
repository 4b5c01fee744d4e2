package relational

// schemaDDL is the full set of statements defining the relational schema
// (spec §4.6): nodes, edges, a labels table (one row per node per label,
// supporting multi-label nodes even though graph.Node carries a single
// Kind), and a properties table flattening the top-level string fields of
// Data for the pattern matcher's property predicates. Indexes are
// declared up front rather than as an afterthought, following
// steveyegge-beads's migration style of one DDL statement per concern, and
// enumerate exactly the eight spec §4.6 names: edges by from, to, and
// edge_type separately; labels by label and by (label, entity_id);
// properties by (key, value) and (key, value, entity_id); entities by
// (kind, id).
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS nodes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		file_path TEXT NOT NULL DEFAULT '',
		data TEXT NOT NULL DEFAULT '{}'
	)`,
	`CREATE TABLE IF NOT EXISTS edges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		from_id INTEGER NOT NULL REFERENCES nodes(id),
		to_id INTEGER NOT NULL REFERENCES nodes(id),
		edge_type TEXT NOT NULL,
		data TEXT NOT NULL DEFAULT '{}'
	)`,
	`CREATE TABLE IF NOT EXISTS labels (
		node_id INTEGER NOT NULL REFERENCES nodes(id),
		label TEXT NOT NULL,
		PRIMARY KEY (node_id, label)
	)`,
	`CREATE TABLE IF NOT EXISTS properties (
		node_id INTEGER NOT NULL REFERENCES nodes(id),
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (node_id, key)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_nodes_kind_id ON nodes(kind, id)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(from_id)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_id)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_type ON edges(edge_type)`,
	`CREATE INDEX IF NOT EXISTS idx_labels_label ON labels(label)`,
	`CREATE INDEX IF NOT EXISTS idx_labels_label_entity ON labels(label, node_id)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_key_value ON properties(key, value)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_key_value_entity ON properties(key, value, node_id)`,
	`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`,
}
