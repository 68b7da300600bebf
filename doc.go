// Package lotbook tracks investment portfolios as an append-only record of
// transactions and recomputes every derived view by replay. Transactions and
// the links between sells and the lots they consume are the only durable
// state; lots, holdings and gain entries are rebuilt on demand.
//
// The core functionalities include:
//   - Lot Matching: Recording sells against specific acquisition lots, either
//     through explicit allocations or FIFO, with links kept in the ledger.
//   - Corporate Actions: Applying splits, bonuses, mergers, demergers and
//     renames as ledger events whose effects are derived at read time.
//   - Holdings: Valuing open positions on any date, with live or historical
//     quotes where available and book value otherwise.
//   - Capital Gains: Classifying realized gains per Indian tax rules,
//     including holding-period cutoffs, the 2018 grandfathering clause and
//     the July 2024 rate changeover, bucketed by advance-tax window.
//   - Interest Accrual: Crediting yearly interest on small-savings schemes
//     from published rate tables, with idempotent regeneration.
//   - Persistence: Encoding ledgers to a line-oriented, self-identifying
//     JSONL form suitable for plain files under version control.
package lotbook
