package db

// SchemaSQL defines the portal tables. Every statement is idempotent.
const SchemaSQL = `
    -- Student accounts
    DEFINE TABLE IF NOT EXISTS user SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS name ON user TYPE string;
    DEFINE FIELD IF NOT EXISTS email ON user TYPE string;
    DEFINE FIELD IF NOT EXISTS password_hash ON user TYPE string;
    DEFINE FIELD IF NOT EXISTS created_at ON user TYPE datetime DEFAULT time::now();
    DEFINE INDEX IF NOT EXISTS user_email ON user FIELDS email UNIQUE;

    -- Admin accounts
    DEFINE TABLE IF NOT EXISTS admin SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS name ON admin TYPE string;
    DEFINE FIELD IF NOT EXISTS admin_id ON admin TYPE string;
    DEFINE FIELD IF NOT EXISTS password_hash ON admin TYPE string;
    DEFINE FIELD IF NOT EXISTS created_at ON admin TYPE datetime DEFAULT time::now();
    DEFINE INDEX IF NOT EXISTS admin_admin_id ON admin FIELDS admin_id UNIQUE;

    -- Admission applications, one per user
    DEFINE TABLE IF NOT EXISTS application SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS user_id ON application TYPE string;
    DEFINE FIELD IF NOT EXISTS full_name ON application TYPE string;
    DEFINE FIELD IF NOT EXISTS email ON application TYPE string;
    DEFINE FIELD IF NOT EXISTS phone ON application TYPE string;
    DEFINE FIELD IF NOT EXISTS dob ON application TYPE string;
    DEFINE FIELD IF NOT EXISTS department ON application TYPE string;
    DEFINE FIELD IF NOT EXISTS ssc_result ON application TYPE string;
    DEFINE FIELD IF NOT EXISTS hsc_result ON application TYPE string;
    DEFINE FIELD IF NOT EXISTS created_at ON application TYPE datetime DEFAULT time::now();
    DEFINE INDEX IF NOT EXISTS application_user ON application FIELDS user_id UNIQUE;

    -- Chat history, one record per user keyed by user id
    DEFINE TABLE IF NOT EXISTS chat_history SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS turns ON chat_history TYPE array<object> FLEXIBLE;
    REMOVE FIELD IF EXISTS turns.* ON chat_history;
    DEFINE FIELD turns.* ON chat_history TYPE object FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS updated_at ON chat_history TYPE datetime DEFAULT time::now();
`
