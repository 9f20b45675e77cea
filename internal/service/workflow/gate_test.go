package workflow

import (
	"testing"

	errors2 "github.com/joalafu15/Backend/internal/protodef/errors"
	"github.com/joalafu15/Backend/internal/protodef/model"
)

func TestLockApplies(t *testing.T) {
	cases := []struct {
		name    string
		setting *model.SettingDo
		group   string
		want    bool
	}{
		{"no setting", nil, "", false},
		{"active without group", &model.SettingDo{Active: true}, "", true},
		{"inactive without group", &model.SettingDo{Active: false, Value: "A"}, "", false},
		{"active, group listed", &model.SettingDo{Active: true, Value: "A;B"}, "B", true},
		{"active, group not listed", &model.SettingDo{Active: true, Value: "A;B"}, "C", false},
		{"active, empty list", &model.SettingDo{Active: true}, "C", false},
		{"inactive, group listed", &model.SettingDo{Active: false, Value: "A;B"}, "A", false},
	}
	for _, tc := range cases {
		if got := LockApplies(tc.setting, tc.group); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsLocked(t *testing.T) {
	env := newTestEnv(t, "")
	env.addCandidate(t, "plain", nil)
	env.addCandidate(t, "grouped", func(c *model.CandidateDo) { c.Group = "B" })
	env.setLock(model.LockPhase1, true, "A")

	locked, err := env.svc.Gate.IsLocked(nil, "plain", model.LockPhase1)
	if err != nil || !locked {
		t.Errorf("ungrouped candidate: locked=%v err=%v, want locked", locked, err)
	}
	locked, err = env.svc.Gate.IsLocked(nil, "grouped", model.LockPhase1)
	if err != nil || locked {
		t.Errorf("exempt group: locked=%v err=%v, want unlocked", locked, err)
	}
	locked, err = env.svc.Gate.IsLocked(nil, "plain", model.LockPhase2)
	if err != nil || locked {
		t.Errorf("missing setting: locked=%v err=%v, want unlocked", locked, err)
	}
	_, err = env.svc.Gate.IsLocked(nil, "nobody", model.LockPhase1)
	if !errors2.Is(err, errors2.KindNotFound) {
		t.Errorf("unknown candidate err = %v, want not found", err)
	}
}

func TestCandidateSettings(t *testing.T) {
	env := newTestEnv(t, "")
	env.addCandidate(t, "c1", func(c *model.CandidateDo) { c.Group = "A" })
	env.setLock(model.LockPhase1, true, "A")
	env.setLock(model.LockPhase2, true, "B")

	settings, err := env.svc.Gate.CandidateSettings(nil, "c1")
	if err != nil {
		t.Fatal(err)
	}
	want := model.CandidateSettings{LockPhase1: true}
	if *settings != want {
		t.Errorf("settings = %+v, want %+v", *settings, want)
	}
}
