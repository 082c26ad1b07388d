package synth

import "github.com/dshills/imebridge/internal/input/key"

// Stroke is one key press with the modifiers held around it.
type Stroke struct {
	Code key.Code
	Mods key.Modifier
}

// Keymap maps characters to strokes.
type Keymap map[rune]Stroke

var shiftedDigits = map[rune]rune{
	'!': '1',
	'$': '4',
	'%': '5',
	'^': '6',
	'&': '7',
	'(': '9',
	')': '0',
}

var punctuation = map[rune]Stroke{
	' ':  {Code: key.CodeSpace},
	'\n': {Code: key.CodeEnter},
	'\t': {Code: key.CodeTab},
	',':  {Code: key.CodeComma},
	'.':  {Code: key.CodePeriod},
	'`':  {Code: key.CodeGrave},
	'-':  {Code: key.CodeMinus},
	'=':  {Code: key.CodeEquals},
	'[':  {Code: key.CodeLeftBracket},
	']':  {Code: key.CodeRightBracket},
	'\\': {Code: key.CodeBackslash},
	';':  {Code: key.CodeSemicolon},
	'\'': {Code: key.CodeApostrophe},
	'/':  {Code: key.CodeSlash},
	'@':  {Code: key.CodeAt},
	'+':  {Code: key.CodePlus},
	'*':  {Code: key.CodeStar},
	'#':  {Code: key.CodePound},
	'~':  {Code: key.CodeGrave, Mods: key.ModShift},
	'_':  {Code: key.CodeMinus, Mods: key.ModShift},
	'{':  {Code: key.CodeLeftBracket, Mods: key.ModShift},
	'}':  {Code: key.CodeRightBracket, Mods: key.ModShift},
	'|':  {Code: key.CodeBackslash, Mods: key.ModShift},
	':':  {Code: key.CodeSemicolon, Mods: key.ModShift},
	'"':  {Code: key.CodeApostrophe, Mods: key.ModShift},
	'<':  {Code: key.CodeComma, Mods: key.ModShift},
	'>':  {Code: key.CodePeriod, Mods: key.ModShift},
	'?':  {Code: key.CodeSlash, Mods: key.ModShift},
}

// USKeymap returns the virtual keyboard map for a US layout.
func USKeymap() Keymap {
	m := make(Keymap, 100)
	for r := 'a'; r <= 'z'; r++ {
		c, _ := key.Letter(r)
		m[r] = Stroke{Code: c}
		m[r-'a'+'A'] = Stroke{Code: c, Mods: key.ModShift}
	}
	for r := '0'; r <= '9'; r++ {
		c, _ := key.Digit(r)
		m[r] = Stroke{Code: c}
	}
	for r, d := range shiftedDigits {
		c, _ := key.Digit(d)
		m[r] = Stroke{Code: c, Mods: key.ModShift}
	}
	for r, s := range punctuation {
		m[r] = s
	}
	return m
}
