package domain

import dErrors "ledgerdesk/pkg/domain-errors"

// PartyType selects one of the three parallel co-owner tables. The three
// variants share one record shape and one state machine; the type only decides
// which flags apply and whether removal is soft or hard.
type PartyType string

const (
	PartyTypeCompany     PartyType = "company"
	PartyTypePartnership PartyType = "partnership"
	PartyTypeTrust       PartyType = "trust"
)

// PartyTypes lists all party types in a stable order.
var PartyTypes = []PartyType{PartyTypeCompany, PartyTypePartnership, PartyTypeTrust}

// ParsePartyType validates a path segment into a PartyType.
func ParsePartyType(raw string) (PartyType, error) {
	switch PartyType(raw) {
	case PartyTypeCompany, PartyTypePartnership, PartyTypeTrust:
		return PartyType(raw), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "invalid party type")
}

func (t PartyType) String() string { return string(t) }
