package config

import (
	"errors"
	"strings"
	"testing"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("HM_TEST_HOST", "db.local")

	got, err := ExpandEnv("host=${HM_TEST_HOST} bare=$HM_TEST_HOST price=$$5")
	if err != nil {
		t.Fatalf("ExpandEnv() error = %v", err)
	}
	if want := "host=db.local bare=db.local price=$5"; got != want {
		t.Errorf("ExpandEnv() = %q, want %q", got, want)
	}
}

func TestExpandEnv_Missing(t *testing.T) {
	_, err := ExpandEnv("${HM_TEST_B} ${HM_TEST_A} ${HM_TEST_B}")
	if !errors.Is(err, ErrMissingEnv) {
		t.Fatalf("ExpandEnv() error = %v, want ErrMissingEnv", err)
	}
	if !strings.HasSuffix(err.Error(), "HM_TEST_A, HM_TEST_B") {
		t.Errorf("error should list sorted names, got %q", err)
	}
}
