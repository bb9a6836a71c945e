// Package models defines the persisted domain models for SettleUp.
//
// # Models
//
//   - Group: a set of members sharing expenses, kept in one currency
//   - Member: a participant in exactly one group
//   - Expense: an amount paid by one member and split between members
//   - Settlement: a payment recorded after members settle up
//
// Balances and suggested transactions are never stored. They are derived
// from the expense and settlement ledger on every read (see package
// calculator).
//
// # Design Principles
//
//  1. Amounts are money.Amount (integer minor units), never floats
//  2. Relationships use ID strings instead of pointers
//  3. Timestamps are Unix seconds
package models
