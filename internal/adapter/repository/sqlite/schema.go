package sqlite

// Schema creates the embedded store. Amounts are stored as canonical
// decimal strings and summed in Go; timestamps use timeLayout so that
// text order matches time order.
const Schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS accounts (
    code        TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    type        TEXT NOT NULL CHECK (type IN ('asset', 'liability', 'equity', 'income', 'expense')),
    restricted  INTEGER NOT NULL DEFAULT 0,
    description TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS accounts_single_restricted_idx ON accounts (restricted) WHERE restricted = 1;

CREATE TABLE IF NOT EXISTS account_balances (
    account_code TEXT PRIMARY KEY REFERENCES accounts (code),
    debit_total  TEXT NOT NULL DEFAULT '0',
    credit_total TEXT NOT NULL DEFAULT '0',
    encumbered   TEXT NOT NULL DEFAULT '0',
    version      INTEGER NOT NULL DEFAULT 0,
    updated_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ledger_entries (
    id               TEXT PRIMARY KEY,
    transaction_id   TEXT NOT NULL,
    transaction_type TEXT NOT NULL,
    account_code     TEXT NOT NULL REFERENCES accounts (code),
    debit            TEXT NOT NULL,
    credit           TEXT NOT NULL,
    description      TEXT NOT NULL DEFAULT '',
    reference_type   TEXT NOT NULL DEFAULT '',
    reference_id     TEXT NOT NULL DEFAULT '',
    user_id          TEXT NOT NULL DEFAULT '',
    metadata         TEXT,
    posting_date     TEXT NOT NULL,
    created_at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS ledger_entries_transaction_idx ON ledger_entries (transaction_id);
CREATE INDEX IF NOT EXISTS ledger_entries_account_idx ON ledger_entries (account_code, created_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS ledger_entries_reference_idx ON ledger_entries (reference_type, reference_id);

CREATE UNIQUE INDEX IF NOT EXISTS ledger_entries_event_idx
    ON ledger_entries (transaction_type, reference_type, reference_id, account_code)
    WHERE reference_id <> '';

CREATE UNIQUE INDEX IF NOT EXISTS ledger_entries_prize_idx
    ON ledger_entries (reference_id)
    WHERE transaction_type IN ('prize_payout', 'community_support_reallocation') AND CAST(debit AS REAL) > 0 AND reference_id <> '';

CREATE UNIQUE INDEX IF NOT EXISTS ledger_entries_withdrawal_open_idx
    ON ledger_entries (reference_id)
    WHERE transaction_type IN ('wallet_withdrawal', 'withdrawal_request') AND CAST(debit AS REAL) > 0 AND reference_id <> '';

CREATE UNIQUE INDEX IF NOT EXISTS ledger_entries_withdrawal_settle_idx
    ON ledger_entries (reference_id)
    WHERE transaction_type IN ('withdrawal_complete', 'withdrawal_reject') AND CAST(debit AS REAL) > 0 AND reference_id <> '';

CREATE TRIGGER IF NOT EXISTS ledger_entries_no_update
    BEFORE UPDATE ON ledger_entries
BEGIN
    SELECT RAISE(ABORT, 'ledger entries are append only');
END;

CREATE TRIGGER IF NOT EXISTS ledger_entries_no_delete
    BEFORE DELETE ON ledger_entries
BEGIN
    SELECT RAISE(ABORT, 'ledger entries are append only');
END;

CREATE TABLE IF NOT EXISTS fund_reservations (
    id           TEXT PRIMARY KEY,
    account_code TEXT NOT NULL REFERENCES accounts (code),
    draw_id      TEXT NOT NULL UNIQUE,
    status       TEXT NOT NULL CHECK (status IN ('active', 'consumed', 'released')),
    prizes       TEXT NOT NULL DEFAULT '[]',
    amount       TEXT NOT NULL,
    remaining    TEXT NOT NULL,
    created_at   TEXT NOT NULL,
    updated_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS fund_reservations_active_idx
    ON fund_reservations (account_code, created_at) WHERE status = 'active';

CREATE TABLE IF NOT EXISTS outbox_events (
    id             TEXT PRIMARY KEY,
    aggregate_id   TEXT NOT NULL,
    aggregate_type TEXT NOT NULL,
    event_type     TEXT NOT NULL,
    payload        TEXT NOT NULL,
    created_at     TEXT NOT NULL,
    published_at   TEXT,
    published      INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS outbox_events_unpublished_idx ON outbox_events (created_at) WHERE published = 0;
`
