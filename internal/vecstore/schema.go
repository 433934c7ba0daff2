package vecstore

import "fmt"

const schemaSQL = `
-- Embedding cache keyed by sha256(model, text)
CREATE TABLE IF NOT EXISTS embeddings (
    key TEXT PRIMARY KEY,
    model TEXT NOT NULL,
    dim INTEGER NOT NULL,
    vector BLOB NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_embeddings_model ON embeddings(model);
`

// vecTableName is the scratch KNN table for one embedding dimension.
func vecTableName(dim int) string {
	return fmt.Sprintf("vec_items_%d", dim)
}

func vecTableSQL(dim int) string {
	return fmt.Sprintf(`
CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec0(
    item_id INTEGER PRIMARY KEY,
    embedding float[%d] distance_metric=cosine
);`, vecTableName(dim), dim)
}
