package workflow

import "github.com/joalafu15/Backend/internal/protodef/model"

// ComputeProperties derives the "can-I" flags shown to the candidate.
// Declining the terms or the offer, or not having taken Qiyas, closes every action.
func ComputeProperties(c *model.CandidateDo) model.CandidateProperties {
	if isFalse(c.JobTermsAccepted) || isFalse(c.JobOfferAccepted) || isFalse(c.HasTakenQiyas) {
		return model.CandidateProperties{}
	}
	return model.CandidateProperties{
		CanAcceptTerms:     c.JobTermsAccepted == nil && c.AcceptedTermsAt == nil,
		CanAcceptOffer:     c.JobOfferAccepted == nil && c.AcceptedOfferAt == nil,
		CanEditInformation: c.SubmittedInformationAt == nil,
		CanUploadDocument:  c.SubmittedAttachmentsAt == nil,
	}
}

func isFalse(b *bool) bool {
	return b != nil && !*b
}
