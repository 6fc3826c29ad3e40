package party

import (
	id "ledgerdesk/pkg/domain"
	dErrors "ledgerdesk/pkg/domain-errors"
)

// TypeDescriptor parameterizes the generic party machinery per party type:
// which table backs it, which flags and percentage field are legal, and
// whether the owner's remove is a soft transition or a hard delete.
type TypeDescriptor struct {
	Type              id.PartyType
	Table             string
	InvitationTable   string
	AllowsDirector    bool
	AllowsOwnership   bool
	AllowsBeneficiary bool
	SoftRemove        bool
}

var descriptors = map[id.PartyType]TypeDescriptor{
	id.PartyTypeCompany: {
		Type:            id.PartyTypeCompany,
		Table:           "company_parties",
		InvitationTable: "company_invitations",
		AllowsDirector:  true,
	},
	id.PartyTypePartnership: {
		Type:            id.PartyTypePartnership,
		Table:           "partnership_parties",
		InvitationTable: "partnership_invitations",
		AllowsOwnership: true,
	},
	id.PartyTypeTrust: {
		Type:              id.PartyTypeTrust,
		Table:             "trust_parties",
		InvitationTable:   "trust_invitations",
		AllowsBeneficiary: true,
		SoftRemove:        true,
	},
}

// DescriptorFor returns the descriptor for a party type.
func DescriptorFor(t id.PartyType) TypeDescriptor {
	return descriptors[t]
}

// ValidateFlags rejects flags that do not belong to the record's type.
func (d TypeDescriptor) ValidateFlags(r *Record) error {
	if !d.AllowsDirector && (r.IsDirector || r.IsShareholder) {
		return dErrors.New(dErrors.CodeValidation, "director/shareholder flags only apply to company parties")
	}
	if !d.AllowsOwnership && r.OwnershipPercent != 0 {
		return dErrors.New(dErrors.CodeValidation, "ownership percentage only applies to partnership parties")
	}
	if !d.AllowsBeneficiary && (r.IsTrustee || r.IsBeneficiary || r.BeneficiaryPercent != 0) {
		return dErrors.New(dErrors.CodeValidation, "trustee/beneficiary fields only apply to trust parties")
	}
	if r.OwnershipPercent < 0 || r.OwnershipPercent > 100 {
		return dErrors.New(dErrors.CodeValidation, "ownership percentage must be between 0 and 100")
	}
	if r.BeneficiaryPercent < 0 || r.BeneficiaryPercent > 100 {
		return dErrors.New(dErrors.CodeValidation, "beneficiary percentage must be between 0 and 100")
	}
	return nil
}

// Percentage returns the type's percentage value for invitation snapshots.
func (d TypeDescriptor) Percentage(r *Record) float64 {
	switch {
	case d.AllowsOwnership:
		return r.OwnershipPercent
	case d.AllowsBeneficiary:
		return r.BeneficiaryPercent
	default:
		return 0
	}
}
