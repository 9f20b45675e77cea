package workflow

import (
	"fmt"

	errors2 "github.com/joalafu15/Backend/internal/protodef/errors"
	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/store"

	"github.com/qiniu/x/xlog"
)

// SaveSectorPreferences 保存 sector 志愿并提交，随后尝试提交第一阶段。
// 第一阶段条件未满足时不报错，返回 phaseOneSubmitted=false。
func (l *Lifecycle) SaveSectorPreferences(xl *xlog.Logger, candidateID string, choices []string) (*model.PreferencesResponse, error) {
	if xl == nil {
		xl = l.xl
	}
	unlock := l.locks.Lock(candidateID)
	defer unlock()
	preferences, err := l.savePreferences(xl, candidateID, model.PreferenceKindSector, choices)
	if err != nil {
		return nil, err
	}
	resp := &model.PreferencesResponse{Preferences: preferences}
	if len(preferences) == 0 {
		return resp, nil
	}
	completed := []string{"save-sector-preferences"}
	if _, err := l.runLocked(xl, candidateID, l.sectorPreferencesStep()); err != nil {
		return nil, errors2.NewPartialFailure("sector preferences saved but not submitted", completed, err)
	}
	completed = append(completed, "submit-sector-preferences")
	if _, err := l.runLocked(xl, candidateID, phaseOneStep); err != nil {
		if errors2.Is(err, errors2.KindValidation) {
			xl.Infof("candidate %s: phase one not ready yet, %v", candidateID, err)
			return resp, nil
		}
		return nil, errors2.NewPartialFailure("sector preferences submitted but phase one failed", completed, err)
	}
	resp.PhaseOneSubmitted = true
	return resp, nil
}

// SaveSchoolPreferences 保存 school 志愿并提交。
func (l *Lifecycle) SaveSchoolPreferences(xl *xlog.Logger, candidateID string, choices []string) (*model.PreferencesResponse, error) {
	if xl == nil {
		xl = l.xl
	}
	unlock := l.locks.Lock(candidateID)
	defer unlock()
	preferences, err := l.savePreferences(xl, candidateID, model.PreferenceKindSchool, choices)
	if err != nil {
		return nil, err
	}
	resp := &model.PreferencesResponse{Preferences: preferences}
	if len(preferences) == 0 {
		return resp, nil
	}
	if _, err := l.runLocked(xl, candidateID, l.schoolPreferencesStep()); err != nil {
		return nil, errors2.NewPartialFailure("school preferences saved but not submitted", []string{"save-school-preferences"}, err)
	}
	return resp, nil
}

// savePreferences expects the caller to hold the candidate lock.
func (l *Lifecycle) savePreferences(xl *xlog.Logger, candidateID string, kind model.PreferenceKind, choices []string) ([]model.PreferenceDo, error) {
	candidate, err := l.load(xl, candidateID)
	if err != nil {
		return nil, err
	}
	lock, submitted := model.LockPhase1, candidate.SubmittedSectorPreferencesAt
	if kind == model.PreferenceKindSchool {
		lock, submitted = model.LockPhase3, candidate.SubmittedSchoolPreferencesAt
	}
	if err := l.gate.checkOpen(xl, candidate, lock); err != nil {
		return nil, err
	}
	if submitted != nil {
		return nil, errors2.NewConflict(string(kind) + " preferences already submitted")
	}
	if len(choices) > model.MaxPreferenceChoices {
		return nil, errors2.NewValidation(fmt.Sprintf("at most %d choices are allowed", model.MaxPreferenceChoices))
	}
	for _, target := range choices {
		if err := l.checkTarget(xl, candidate, kind, target); err != nil {
			return nil, err
		}
	}
	return l.ranker.setPreferences(xl, kind, candidateID, choices)
}

// checkTarget 志愿必须存在并对候选人的职位开放，学校还必须属于候选人的合格 sector。
func (l *Lifecycle) checkTarget(xl *xlog.Logger, candidate *model.CandidateDo, kind model.PreferenceKind, target string) error {
	if kind == model.PreferenceKindSector {
		sector, err := l.catalog.GetSector(xl, target)
		if err == store.ErrNotFound {
			return errors2.NewValidation(fmt.Sprintf("sector %s does not exist", target))
		}
		if err != nil {
			return err
		}
		if !sector.OpenTo(candidate.JobPositionID) {
			return errors2.NewValidation(fmt.Sprintf("sector %s is not open to job position %s", target, candidate.JobPositionID))
		}
		return nil
	}
	school, err := l.catalog.GetSchool(xl, target)
	if err == store.ErrNotFound {
		return errors2.NewValidation(fmt.Sprintf("school %s does not exist", target))
	}
	if err != nil {
		return err
	}
	if candidate.QualifiedSectorID == "" || school.SectorID != candidate.QualifiedSectorID {
		return errors2.NewValidation(fmt.Sprintf("school %s is not in the qualified sector", target))
	}
	if !school.OpenTo(candidate.JobPositionID) {
		return errors2.NewValidation(fmt.Sprintf("school %s is not open to job position %s", target, candidate.JobPositionID))
	}
	return nil
}

func (l *Lifecycle) ListPreferences(xl *xlog.Logger, kind model.PreferenceKind, candidateID string) ([]model.PreferenceDo, error) {
	if xl == nil {
		xl = l.xl
	}
	if _, err := l.load(xl, candidateID); err != nil {
		return nil, err
	}
	return l.ranker.ListPreferences(xl, kind, candidateID)
}

// AvailableSectors 候选人职位可以选择的 sector。
func (l *Lifecycle) AvailableSectors(xl *xlog.Logger, candidateID string) ([]model.SectorDo, error) {
	if xl == nil {
		xl = l.xl
	}
	candidate, err := l.load(xl, candidateID)
	if err != nil {
		return nil, err
	}
	return l.catalog.ListSectors(xl, candidate.JobPositionID)
}

// AvailableSchools 合格 sector 中对候选人职位开放的学校。尚未确定合格 sector 时为空。
func (l *Lifecycle) AvailableSchools(xl *xlog.Logger, candidateID string) ([]model.SchoolDo, error) {
	if xl == nil {
		xl = l.xl
	}
	candidate, err := l.load(xl, candidateID)
	if err != nil {
		return nil, err
	}
	if candidate.QualifiedSectorID == "" {
		return []model.SchoolDo{}, nil
	}
	return l.catalog.ListSchools(xl, candidate.JobPositionID, candidate.QualifiedSectorID)
}
