package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindOfWrapped(t *testing.T) {
	base := stderrors.New("slot update failed")
	err := fmt.Errorf("book slot: %w", NewPartialFailure("interview slot booking incomplete", []string{"reserve-seat", "save-candidate"}, base))
	if KindOf(err) != KindPartialFailure {
		t.Fatalf("KindOf = %v", KindOf(err))
	}
	if !stderrors.Is(err, base) {
		t.Error("expected the cause to stay reachable through Unwrap")
	}
	if !strings.Contains(err.Error(), "reserve-seat, save-candidate") {
		t.Errorf("message does not list completed steps: %s", err.Error())
	}
}

func TestKindOfPlainError(t *testing.T) {
	if KindOf(stderrors.New("x")) != KindUnknown {
		t.Error("plain errors have no kind")
	}
	if KindOf(nil) != KindUnknown {
		t.Error("nil has no kind")
	}
}

func TestConstructors(t *testing.T) {
	cases := []struct {
		err  *WorkflowError
		kind Kind
	}{
		{NewNotFound("candidate not found"), KindNotFound},
		{NewConflict("already submitted"), KindConflict},
		{NewForbidden("phase locked"), KindForbidden},
		{NewValidation("missing attachments"), KindValidation},
		{NewExternalService("sms failed", stderrors.New("timeout")), KindExternalService},
	}
	for _, c := range cases {
		if !Is(c.err, c.kind) {
			t.Errorf("%s: kind = %v, want %v", c.err.Summary, c.err.Kind, c.kind)
		}
	}
}
