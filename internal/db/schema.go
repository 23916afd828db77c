package db

import (
	"context"
	"fmt"
)

// setupSchema creates the tables, stored procedures and indexes the
// service relies on. Every statement is idempotent, so running it on an
// already-initialized database is a no-op.
//
// The account table is keyed by the client-assigned id; the transaction
// table is append-only and keyed by a sequence number assigned at
// insert time, which is the ordering used to answer "most recent N".
const setupSchema = `
CREATE TABLE IF NOT EXISTS account(
    number  BIGSERIAL,
    id      BIGINT,
    balance BIGINT,

    PRIMARY KEY (id)
);

CREATE TABLE IF NOT EXISTS transaction(
    number  BIGSERIAL,
    from_id BIGINT,
    to_id   BIGINT,
    amount  BIGINT,

    PRIMARY KEY (number)
);

CREATE OR REPLACE PROCEDURE insert_account(
    IN _id BIGINT,
    IN _balance BIGINT)
LANGUAGE plpgsql
AS $$
BEGIN
    INSERT INTO account(id, balance)
    VALUES (_id, _balance);
END
$$;

CREATE OR REPLACE PROCEDURE apply_balance_delta(
    IN _id BIGINT,
    IN _delta BIGINT)
LANGUAGE plpgsql
AS $$
BEGIN
    UPDATE account
    SET balance = balance + _delta
    WHERE id = _id;
END
$$;

CREATE OR REPLACE PROCEDURE append_ledger_entry(
    IN _from_id BIGINT,
    IN _to_id BIGINT,
    IN _amount BIGINT)
LANGUAGE plpgsql
AS $$
BEGIN
    INSERT INTO transaction(from_id, to_id, amount)
    VALUES (_from_id, _to_id, _amount);
END
$$;

CREATE INDEX IF NOT EXISTS id_index ON account (id);
`

// dropAllTables wipes the public schema. Used only when the operator
// asks for a clean start.
const dropAllTables = `
DROP SCHEMA public CASCADE;
CREATE SCHEMA public;
GRANT ALL ON SCHEMA public TO postgres;
GRANT ALL ON SCHEMA public TO public;
`

// Setup ensures the schema and stored procedures exist. When reset is
// true all existing tables are dropped first.
func (p *Pool) Setup(ctx context.Context, reset bool) error {
	conn, err := p.Lease(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if reset {
		if _, err := conn.Exec(ctx, dropAllTables); err != nil {
			return fmt.Errorf("failed to drop existing tables: %w", err)
		}
	}

	if _, err := conn.Exec(ctx, setupSchema); err != nil {
		return fmt.Errorf("failed to set up schema: %w", err)
	}
	return nil
}
