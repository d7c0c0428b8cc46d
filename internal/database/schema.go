package database

// RequiredSchemaVersion is the lowest schema_migrations version the
// repositories can run against.
const RequiredSchemaVersion = 1

// Schema creates the tables read and written by the repositories. It is
// idempotent and records RequiredSchemaVersion once applied.
const Schema = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    INTEGER PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS historical_records (
    id              UUID PRIMARY KEY,
    model           TEXT NOT NULL,
    brand           TEXT,
    year            INTEGER,
    hours           INTEGER,
    price           NUMERIC(14, 2),
    record_date     DATE,
    source          TEXT NOT NULL CHECK (source IN ('auction', 'pvp')),
    import_batch_id UUID NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_historical_records_source ON historical_records (source);
CREATE INDEX IF NOT EXISTS idx_historical_records_model ON historical_records (model);

CREATE TABLE IF NOT EXISTS auctions (
    id             UUID PRIMARY KEY,
    model          TEXT NOT NULL,
    year           INTEGER,
    hours          INTEGER,
    purchase_price NUMERIC(14, 2),
    status         TEXT NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_auctions_status_model ON auctions (status, model);

CREATE TABLE IF NOT EXISTS purchases (
    id             UUID PRIMARY KEY,
    model          TEXT NOT NULL,
    year           INTEGER,
    hours          INTEGER,
    pvp_price      NUMERIC(14, 2),
    repuestos_cost NUMERIC(14, 2),
    status         TEXT NOT NULL DEFAULT 'COMPRADA',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_purchases_model ON purchases (model);

INSERT INTO schema_migrations (version) VALUES (1) ON CONFLICT (version) DO NOTHING;
`
