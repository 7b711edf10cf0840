package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Preset is a named geometry/fit profile loadable by --preset.
type Preset struct {
	Name     string `yaml:"name"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	FitWidth bool   `yaml:"fit_width"`
	Upscale  bool   `yaml:"upscale"`
	Grid     string `yaml:"grid"`
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// Встроенные профили; пользовательский файл может их переопределить.
var builtinPresets = []Preset{
	{Name: "thumb", Width: 40, Height: 24},
	{Name: "half", Width: 80, Height: 48},
	{Name: "sheet", Width: 160, Height: 96, Grid: "3x3"},
}

// PresetPath returns the user preset file location.
func PresetPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "timg", "presets.yaml")
}

// LoadPreset ищет профиль сначала в пользовательском YAML-файле,
// затем среди встроенных.
func LoadPreset(name string) (*Preset, error) {
	if path := PresetPath(); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			var pf presetFile
			if err := yaml.Unmarshal(data, &pf); err != nil {
				return nil, fmt.Errorf("ошибка чтения %s: %w", path, err)
			}
			for i := range pf.Presets {
				if pf.Presets[i].Name == name {
					return &pf.Presets[i], nil
				}
			}
		}
	}

	for i := range builtinPresets {
		if builtinPresets[i].Name == name {
			return &builtinPresets[i], nil
		}
	}

	return nil, fmt.Errorf("неизвестный пресет: %s", name)
}

// SavePreset добавляет профиль в пользовательский файл (или заменяет
// одноимённый). Встроенные профили перекрываются, но не изменяются.
func SavePreset(p Preset) error {
	path := PresetPath()
	if path == "" {
		return fmt.Errorf("не удалось определить домашний каталог")
	}

	var pf presetFile
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &pf); err != nil {
			return fmt.Errorf("ошибка чтения %s: %w", path, err)
		}
	}

	replaced := false
	for i := range pf.Presets {
		if pf.Presets[i].Name == p.Name {
			pf.Presets[i] = p
			replaced = true
		}
	}
	if !replaced {
		pf.Presets = append(pf.Presets, p)
	}

	return WritePresets(pf.Presets, path)
}

// WritePresets saves presets to the user preset file, creating the
// directory when needed.
func WritePresets(presets []Preset, path string) error {
	data, err := yaml.Marshal(&presetFile{Presets: presets})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
