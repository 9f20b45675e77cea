package workflow

import (
	"github.com/joalafu15/Backend/internal/protodef/model"

	"github.com/qiniu/x/xlog"
)

// Report counts candidate progress, optionally within one administration.
func (l *Lifecycle) Report(xl *xlog.Logger, administrationID string) (*model.CandidateReport, error) {
	if xl == nil {
		xl = l.xl
	}
	accepted := true
	report := &model.CandidateReport{}
	counts := []struct {
		target *int
		query  model.CandidateQuery
	}{
		{&report.TotalRegistered, model.CandidateQuery{HasUser: true}},
		{&report.TotalTermsAccepted, model.CandidateQuery{JobTermsAccepted: &accepted}},
		{&report.TotalOfferAccepted, model.CandidateQuery{JobOfferAccepted: &accepted}},
		{&report.TotalCompletedInformation, model.CandidateQuery{InformationSubmitted: true, AttachmentsSubmitted: true}},
		{&report.TotalCompletedSectorPreferences, model.CandidateQuery{SectorPreferencesSubmitted: true}},
	}
	for _, c := range counts {
		c.query.AdministrationID = administrationID
		n, err := l.candidates.CountCandidates(xl, c.query)
		if err != nil {
			return nil, err
		}
		*c.target = n
	}
	return report, nil
}
