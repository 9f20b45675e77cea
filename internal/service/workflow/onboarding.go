package workflow

import (
	"strings"

	errors2 "github.com/joalafu15/Backend/internal/protodef/errors"
	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/store"

	"github.com/qiniu/x/xlog"
)

// OnboardingInstructions renders the onboardingInstructions setting for a qualified candidate
// whose contract has been validated.
func (l *Lifecycle) OnboardingInstructions(xl *xlog.Logger, candidateID string) (*model.OnboardingInstructionsResponse, error) {
	if xl == nil {
		xl = l.xl
	}
	candidate, err := l.load(xl, candidateID)
	if err != nil {
		return nil, err
	}
	setting, err := l.settings.GetSetting(xl, model.SettingOnboardingInstructions)
	if err != nil {
		return nil, notFound("onboarding instructions", err)
	}
	if !setting.Active {
		return nil, errors2.NewValidation("onboarding instructions are not published")
	}
	if candidate.ContractValidated == nil || !*candidate.ContractValidated {
		return nil, errors2.NewValidation("contract is not validated")
	}
	if candidate.QualifiedSectorID == "" || candidate.QualifiedSchoolID == "" {
		return nil, errors2.NewValidation("candidate is not qualified to a sector and school")
	}
	jobPosition, err := l.catalog.GetJobPosition(xl, candidate.JobPositionID)
	if err != nil {
		return nil, unresolved("job position", err)
	}
	sector, err := l.catalog.GetSector(xl, candidate.QualifiedSectorID)
	if err != nil {
		return nil, unresolved("sector", err)
	}
	school, err := l.catalog.GetSchool(xl, candidate.QualifiedSchoolID)
	if err != nil {
		return nil, unresolved("school", err)
	}
	r := strings.NewReplacer(
		"{{candidateName}}", candidate.FullName,
		"{{jobTitle}}", jobPosition.Title,
		"{{sectorName}}", sector.Name,
		"{{schoolName}}", school.Name,
		"{{schoolManagerName}}", school.SchoolManagerName,
		"{{schoolManagerPhoneNumber}}", school.SchoolManagerPhoneNumber,
	)
	return &model.OnboardingInstructionsResponse{Value: r.Replace(setting.Value)}, nil
}

func unresolved(what string, err error) error {
	if err == store.ErrNotFound {
		return errors2.NewValidation(what + " cannot be resolved")
	}
	return err
}
