package models

import "fmt"

// Slot names one of the three derived text variants.
type Slot string

const (
	SlotRaw           Slot = "raw"
	SlotFillerRemoved Slot = "filler_removed"
	SlotCorrected     Slot = "corrected"
)

func ParseSlot(s string) (Slot, error) {
	switch Slot(s) {
	case SlotRaw, SlotFillerRemoved, SlotCorrected:
		return Slot(s), nil
	}
	return "", fmt.Errorf("unknown slot %q", s)
}

// Transcript holds the raw transcript and its two derivations.
// Each variant is an independent copy; editing one never touches another.
type Transcript struct {
	Raw           string          `json:"raw"`
	FillerRemoved string          `json:"filler_removed"`
	Corrected     string          `json:"corrected"`
	Errors        map[Slot]string `json:"errors,omitempty"`
}

func (t *Transcript) Get(slot Slot) string {
	switch slot {
	case SlotRaw:
		return t.Raw
	case SlotFillerRemoved:
		return t.FillerRemoved
	case SlotCorrected:
		return t.Corrected
	}
	return ""
}

func (t *Transcript) Set(slot Slot, text string) error {
	switch slot {
	case SlotRaw:
		t.Raw = text
	case SlotFillerRemoved:
		t.FillerRemoved = text
	case SlotCorrected:
		t.Corrected = text
	default:
		return fmt.Errorf("unknown slot %q", slot)
	}
	return nil
}

func (t *Transcript) SetError(slot Slot, msg string) {
	if t.Errors == nil {
		t.Errors = map[Slot]string{}
	}
	t.Errors[slot] = msg
}

func (t Transcript) Clone() Transcript {
	out := t
	if t.Errors != nil {
		out.Errors = make(map[Slot]string, len(t.Errors))
		for k, v := range t.Errors {
			out.Errors[k] = v
		}
	}
	return out
}

// TranscriptionRequest is built per call and lives only as long as it.
type TranscriptionRequest struct {
	AudioBase64 string `json:"audioData"`
	MIMEType    string `json:"mimeType"`
	Provider    string `json:"-"`
}
