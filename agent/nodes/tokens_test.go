package enginenode

import "testing"

func TestIsCancelToken(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"cancel", "  CANCEL ", "nevermind", "never mind", "stop"} {
		if !IsCancelToken(text) {
			t.Fatalf("expected %q to cancel", text)
		}
	}
	for _, text := range []string{"cancel the order", "please stop it", "delete bob"} {
		if IsCancelToken(text) {
			t.Fatalf("%q must not be treated as a bare cancel", text)
		}
	}
}

func TestIsAffirmative(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"yes", "y", " YES ", "yeah", "yep", "ok", "okay", "sure", "confirm"} {
		if !IsAffirmative(text) {
			t.Fatalf("expected %q to confirm", text)
		}
	}
	for _, text := range []string{"no", "yes but wait", "maybe", "cancel"} {
		if IsAffirmative(text) {
			t.Fatalf("%q must not confirm", text)
		}
	}
}
