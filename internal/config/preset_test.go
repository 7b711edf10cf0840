package config

import (
	"testing"
)

func TestLoadBuiltinPreset(t *testing.T) {
	t.Setenv("HOME", t.TempDir()) // пользовательского файла нет

	p, err := LoadPreset("thumb")
	if err != nil {
		t.Fatal(err)
	}
	if p.Width != 40 || p.Height != 24 {
		t.Errorf("thumb должен быть 40x24, получили %dx%d", p.Width, p.Height)
	}

	if _, err := LoadPreset("no-such-preset"); err == nil {
		t.Error("неизвестный пресет должен вернуть ошибку")
	}
}

func TestUserPresetOverridesBuiltin(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	custom := []Preset{
		{Name: "thumb", Width: 64, Height: 32, FitWidth: true},
		{Name: "wall", Width: 300, Height: 200, Grid: "4x2"},
	}
	if err := WritePresets(custom, PresetPath()); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPreset("thumb")
	if err != nil {
		t.Fatal(err)
	}
	if p.Width != 64 || !p.FitWidth {
		t.Errorf("пользовательский thumb должен перекрыть встроенный, получили %+v", p)
	}

	p, err = LoadPreset("wall")
	if err != nil {
		t.Fatal(err)
	}
	if p.Grid != "4x2" {
		t.Errorf("ожидали сетку 4x2, получили %q", p.Grid)
	}

	// Встроенные профили остаются доступны рядом с пользовательскими.
	if _, err := LoadPreset("sheet"); err != nil {
		t.Errorf("встроенный sheet должен находиться: %v", err)
	}
}

func TestSavePresetAppendsAndReplaces(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := SavePreset(Preset{Name: "mine", Width: 120, Height: 72}); err != nil {
		t.Fatal(err)
	}
	p, err := LoadPreset("mine")
	if err != nil {
		t.Fatal(err)
	}
	if p.Width != 120 || p.Height != 72 {
		t.Errorf("сохранённый профиль должен находиться, получили %+v", p)
	}

	// Повторное сохранение заменяет, а не дублирует.
	if err := SavePreset(Preset{Name: "mine", Width: 60, Height: 36, Grid: "2x2"}); err != nil {
		t.Fatal(err)
	}
	p, err = LoadPreset("mine")
	if err != nil {
		t.Fatal(err)
	}
	if p.Width != 60 || p.Grid != "2x2" {
		t.Errorf("повторное сохранение должно заменить профиль, получили %+v", p)
	}
}
