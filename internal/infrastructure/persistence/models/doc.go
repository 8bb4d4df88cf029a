// Package models contains the GORM persistence models of the engine.
// Domain types stay free of ORM tags; each model converts to and from its
// domain type with FromDomain and ToDomain.
//
//   - base.go: shared identity, version and tenant columns
//   - inventory.go: stock units and the stock movement log
//   - finance.go: ledger entries and their settlements
//   - partner.go: customer accounts, account transactions and the partner registry
//   - cashier.go: cash sessions
//   - trade.go: purchase orders and sales
//   - tenant.go: per-tenant policy settings
package models
