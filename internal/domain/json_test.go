package domain_test

import (
	"encoding/json"
	"testing"

	"intakeflow/internal/domain"
)

func TestMarshalWritesBothStatusFields(t *testing.T) {
	f := domain.Form{ID: "f1", FormType: domain.FormIntake, Title: "T", Status: domain.StatusKlantAkkoord}
	data, err := json.Marshal(f)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["status"] != "klant_akkoord" || raw["intakeStatus"] != "klant_akkoord" {
		t.Fatalf("status=%v intakeStatus=%v", raw["status"], raw["intakeStatus"])
	}
}

func TestUnmarshalPrefersIntakeStatus(t *testing.T) {
	var f domain.Form
	if err := json.Unmarshal([]byte(`{"id":"f1","status":"draft","intakeStatus":"im_routering"}`), &f); err != nil {
		t.Fatal(err)
	}
	if f.Status != domain.StatusIMRoutering {
		t.Fatalf("status = %s", f.Status)
	}
}

func TestUnmarshalLegacyStatusOnly(t *testing.T) {
	var f domain.Form
	if err := json.Unmarshal([]byte(`{"id":"f1","status":"bij_ba"}`), &f); err != nil {
		t.Fatal(err)
	}
	if f.Status != domain.StatusBijBA {
		t.Fatalf("status = %s", f.Status)
	}
}

func TestUnmarshalMissingBothDefaultsToDraft(t *testing.T) {
	var f domain.Form
	if err := json.Unmarshal([]byte(`{"id":"f1"}`), &f); err != nil {
		t.Fatal(err)
	}
	if f.Status != domain.StatusDraft {
		t.Fatalf("status = %s", f.Status)
	}
}

func TestNormalizeStatus(t *testing.T) {
	if got := domain.NormalizeStatus("", ""); got != domain.StatusDraft {
		t.Fatalf("empty = %s", got)
	}
	if got := domain.NormalizeStatus(domain.StatusBijBA, domain.StatusDraft); got != domain.StatusBijBA {
		t.Fatalf("prefers intake: %s", got)
	}
	if got := domain.NormalizeStatus("", domain.StatusFBBacklog); got != domain.StatusFBBacklog {
		t.Fatalf("legacy fallback: %s", got)
	}
}

func TestKlantTokenUsable(t *testing.T) {
	f := domain.Form{KlantToken: "tok", Status: domain.StatusKlantInvoer}
	if !f.KlantTokenUsable() {
		t.Fatal("usable in klant_invoer")
	}
	f.Status = domain.StatusKlantAkkoord
	if !f.KlantTokenUsable() {
		t.Fatal("usable in klant_akkoord")
	}
	f.Status = domain.StatusIMAanvullen
	if f.KlantTokenUsable() {
		t.Fatal("not usable elsewhere")
	}
	f = domain.Form{Status: domain.StatusKlantInvoer}
	if f.KlantTokenUsable() {
		t.Fatal("no token, not usable")
	}
}
