package domain

import "encoding/json"

// formAlias avoids recursing into Form's own marshal methods.
type formAlias Form

type formJSON struct {
	formAlias
	LegacyStatus Status `json:"status,omitempty"`
	IntakeStatus Status `json:"intakeStatus,omitempty"`
}

// MarshalJSON writes the canonical status to both generations' fields so
// exported forms round-trip through older builds.
func (f Form) MarshalJSON() ([]byte, error) {
	return json.Marshal(formJSON{
		formAlias:    formAlias(f),
		LegacyStatus: f.Status,
		IntakeStatus: f.Status,
	})
}

// UnmarshalJSON accepts either status field, preferring intakeStatus.
func (f *Form) UnmarshalJSON(data []byte) error {
	var raw formJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = Form(raw.formAlias)
	f.Status = NormalizeStatus(raw.IntakeStatus, raw.LegacyStatus)
	return nil
}
