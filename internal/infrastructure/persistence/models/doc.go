// Package models contains the GORM persistence models. Domain types never
// carry gorm tags; every model converts with ToDomain and a FromDomain
// constructor.
package models

// AllModels returns every model, in dependency order, for AutoMigrate in
// tests and the sqlite driver.
func AllModels() []any {
	return []any{
		&ContactModel{},
		&BudgetEventModel{},
		&BudgetRevisionModel{},
		&PayableDocumentModel{},
		&PaymentModel{},
		&DocumentSequenceModel{},
	}
}
