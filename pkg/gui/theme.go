package gui

import (
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// Terminal safe color palette is available here
// https://upload.wikimedia.org/wikipedia/commons/1/15/Xterm_256color_chart.svg

// Theme colors the board and the panels around it
type Theme struct {
	Name           string
	SquareDark     tcell.Color
	SquareLight    tcell.Color
	SquareSelected tcell.Color
	SquareDest     tcell.Color
	White          tcell.Color
	Black          tcell.Color
	Rank           tcell.Color
	File           tcell.Color
	Msg            tcell.Color
}

// ThemeHex is the serialisable form of a Theme
type ThemeHex struct {
	Name           string `json:"name"`
	SquareDark     string `json:"squareDark"`
	SquareLight    string `json:"squareLight"`
	SquareSelected string `json:"squareSelected"`
	SquareDest     string `json:"squareDest"`
	White          string `json:"white"`
	Black          string `json:"black"`
	Rank           string `json:"rank"`
	File           string `json:"file"`
	Msg            string `json:"msg"`
}

// fmtHex returns a one character hex for ColorDefault so that it survives a
// round trip instead of being read back as black
func fmtHex(v int32) string {
	if v == -1 {
		return "#0"
	}
	return fmt.Sprintf("#%06x", v)
}

func (t Theme) Hex() ThemeHex {
	return ThemeHex{
		Name:           t.Name,
		SquareDark:     fmtHex(t.SquareDark.Hex()),
		SquareLight:    fmtHex(t.SquareLight.Hex()),
		SquareSelected: fmtHex(t.SquareSelected.Hex()),
		SquareDest:     fmtHex(t.SquareDest.Hex()),
		White:          fmtHex(t.White.Hex()),
		Black:          fmtHex(t.Black.Hex()),
		Rank:           fmtHex(t.Rank.Hex()),
		File:           fmtHex(t.File.Hex()),
		Msg:            fmtHex(t.Msg.Hex()),
	}
}

func (t ThemeHex) Theme() Theme {
	return Theme{
		Name:           t.Name,
		SquareDark:     tcell.GetColor(t.SquareDark),
		SquareLight:    tcell.GetColor(t.SquareLight),
		SquareSelected: tcell.GetColor(t.SquareSelected),
		SquareDest:     tcell.GetColor(t.SquareDest),
		White:          tcell.GetColor(t.White),
		Black:          tcell.GetColor(t.Black),
		Rank:           tcell.GetColor(t.Rank),
		File:           tcell.GetColor(t.File),
		Msg:            tcell.GetColor(t.Msg),
	}
}

var ErrNoTheme = errors.New("theme: no theme found")

// ImportThemes returns the theme named want from themes
func ImportThemes(want string, themes []ThemeHex) (Theme, error) {
	for _, t := range themes {
		if t.Name == want {
			return t.Theme(), nil
		}
	}
	return Theme{}, ErrNoTheme
}

// LookupTheme finds a builtin theme by name
func LookupTheme(name string) (Theme, error) {
	themes := make([]ThemeHex, len(Themes))
	for i, t := range Themes {
		themes[i] = t.Hex()
	}
	return ImportThemes(name, themes)
}

// ThemeBasic is the default theme
var ThemeBasic = Theme{
	Name:           "basic",
	SquareDark:     tcell.Color188,
	SquareLight:    tcell.Color230,
	SquareSelected: tcell.Color226,
	SquareDest:     tcell.Color223,
	White:          tcell.Color232,
	Black:          tcell.Color232,
	Rank:           tcell.Color247,
	File:           tcell.Color247,
	Msg:            tcell.Color160,
}

var ThemeDark = Theme{
	Name:           "dark",
	SquareDark:     tcell.Color94,
	SquareLight:    tcell.Color180,
	SquareSelected: tcell.Color142,
	SquareDest:     tcell.Color108,
	White:          tcell.Color231,
	Black:          tcell.Color16,
	Rank:           tcell.Color245,
	File:           tcell.Color245,
	Msg:            tcell.Color203,
}

var Themes = []Theme{ThemeBasic, ThemeDark}
