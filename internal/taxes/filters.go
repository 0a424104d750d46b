package taxes

import "github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/model"

// Predicate selects enriched sale events.
type Predicate func(model.EnrichedSaleEvent) bool

// Criteria lists the fields a Predicate must match. Zero-value fields are
// not checked.
type Criteria struct {
	PlanType    model.PlanType
	QualifiedIn model.Qualification
}

// NewFilter returns a Predicate matching every field set in c.
func NewFilter(c Criteria) Predicate {
	return func(e model.EnrichedSaleEvent) bool {
		if c.PlanType != "" && e.PlanType != c.PlanType {
			return false
		}
		if c.QualifiedIn != "" && e.QualifiedIn != c.QualifiedIn {
			return false
		}
		return true
	}
}

// Predefined plan filters.
var (
	IsFrQualifiedSo  = NewFilter(Criteria{PlanType: model.PlanTypeSO, QualifiedIn: model.QualifiedFR})
	IsUsQualifiedSo  = NewFilter(Criteria{PlanType: model.PlanTypeSO, QualifiedIn: model.QualifiedUS})
	IsFrQualifiedRsu = NewFilter(Criteria{PlanType: model.PlanTypeRS, QualifiedIn: model.QualifiedFR})
	IsUsQualifiedRsu = NewFilter(Criteria{PlanType: model.PlanTypeRS, QualifiedIn: model.QualifiedUS})
	IsEspp           = NewFilter(Criteria{PlanType: model.PlanTypeESPP})
)

// Select returns the events matching p, preserving order.
func Select(events []model.EnrichedSaleEvent, p Predicate) []model.EnrichedSaleEvent {
	selected := make([]model.EnrichedSaleEvent, 0, len(events))
	for _, e := range events {
		if p(e) {
			selected = append(selected, e)
		}
	}
	return selected
}
