// Package session implements the forms that hold runtime configuration
// and per-generation bookkeeping: the singleton Settings and Session
// forms and the per-generation GenerationCohort (spec §3), plus the
// supplemented DeltaDebugController
// form from original_source/include/Data.h.
package session

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/timefuzz-go/timefuzz/internal/forms"
	"github.com/timefuzz-go/timefuzz/internal/fuzzerr"
)

// Settings is the recognized configuration surface (spec §3, §4.5
// singleton id 3).
type Settings struct {
	DisableExclusionTree bool `toml:"disableExclusionTree"`

	GenerationLengthMin int64 `toml:"generationLengthMin"`
	GenerationLengthMax int64 `toml:"generationLengthMax"`

	ExtensionMin int64 `toml:"extension_min"`
	ExtensionMax int64 `toml:"extension_max"`

	BacktrackMin int64 `toml:"backtrack_min"`
	BacktrackMax int64 `toml:"backtrack_max"`

	MaxActiveInputs           int64 `toml:"maxActiveInputs"`
	MaxSimultaneousGeneration int   `toml:"maxSimultaneousGeneration"`

	StoreOutput bool `toml:"storeOutput"`
}

// DefaultSettings returns the settings a fresh session starts with
// absent a config file.
func DefaultSettings() Settings {
	return Settings{
		GenerationLengthMin:       4,
		GenerationLengthMax:       64,
		ExtensionMin:              1,
		ExtensionMax:              8,
		BacktrackMin:              0,
		BacktrackMax:              4,
		MaxActiveInputs:           1024,
		MaxSimultaneousGeneration: 8,
	}
}

// LoadSettings reads a TOML settings file, falling back to defaults
// for any field the file omits by decoding on top of DefaultSettings.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fuzzerr.New(fuzzerr.KindDecode, err)
	}
	if _, err := toml.Decode(string(data), &s); err != nil {
		return s, fuzzerr.New(fuzzerr.KindDecode, err)
	}
	return s, nil
}

const settingsClassVersion int32 = 0x1

func (s *Settings) FormEnvelope() forms.Envelope {
	return forms.Envelope{Version: settingsClassVersion, ID: forms.SettingsID}
}

func (s *Settings) FourCC() forms.FourCC { return forms.TagSettings }
