package event

import (
	"github.com/bizledger/backend/internal/domain/budget"
	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/shared"
)

// RegisterLedgerEvents registers every ledger and budget event with the serializer
func RegisterLedgerEvents(serializer *EventSerializer) {
	payment := func() shared.DomainEvent { return &finance.PaymentRecordedEvent{} }
	status := func() shared.DomainEvent { return &finance.DocumentStatusChangedEvent{} }

	serializer.Register(finance.EventTypePaymentRecorded, payment)
	serializer.Register(finance.EventTypePaymentAdjusted, payment)
	serializer.Register(finance.EventTypeDocumentPosted, status)
	serializer.Register(finance.EventTypeDocumentCancelled, status)

	serializer.Register(budget.EventTypeAchievementRecorded, func() shared.DomainEvent { return &budget.AchievementRecordedEvent{} })
	serializer.Register(budget.EventTypeBudgetRevised, func() shared.DomainEvent { return &budget.RevisedEvent{} })
}
