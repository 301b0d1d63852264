package hook

// Linux input event codes (linux/input-event-codes.h).
const (
	evKey = 0x01

	keyEsc        = 1
	keyBackspace  = 14
	keyTab        = 15
	keyEnter      = 28
	keyLeftCtrl   = 29
	keyLeftShift  = 42
	keyRightShift = 54
	keyLeftAlt    = 56
	keySpace      = 57
	keyCapsLock   = 58
	keyKPEnter    = 96
	keyRightCtrl  = 97
	keyRightAlt   = 100
	keyLeftMeta   = 125
	keyRightMeta  = 126

	valueRelease = 0
	valuePress   = 1
	valueRepeat  = 2
)

// usLayout maps key codes to the unshifted and shifted characters of a US
// keyboard.
var usLayout = map[uint16][2]rune{
	2: {'1', '!'}, 3: {'2', '@'}, 4: {'3', '#'}, 5: {'4', '$'}, 6: {'5', '%'},
	7: {'6', '^'}, 8: {'7', '&'}, 9: {'8', '*'}, 10: {'9', '('}, 11: {'0', ')'},
	12: {'-', '_'}, 13: {'=', '+'},

	16: {'q', 'Q'}, 17: {'w', 'W'}, 18: {'e', 'E'}, 19: {'r', 'R'}, 20: {'t', 'T'},
	21: {'y', 'Y'}, 22: {'u', 'U'}, 23: {'i', 'I'}, 24: {'o', 'O'}, 25: {'p', 'P'},
	26: {'[', '{'}, 27: {']', '}'},

	30: {'a', 'A'}, 31: {'s', 'S'}, 32: {'d', 'D'}, 33: {'f', 'F'}, 34: {'g', 'G'},
	35: {'h', 'H'}, 36: {'j', 'J'}, 37: {'k', 'K'}, 38: {'l', 'L'},
	39: {';', ':'}, 40: {'\'', '"'}, 41: {'`', '~'}, 43: {'\\', '|'},

	44: {'z', 'Z'}, 45: {'x', 'X'}, 46: {'c', 'C'}, 47: {'v', 'V'}, 48: {'b', 'B'},
	49: {'n', 'N'}, 50: {'m', 'M'},
	51: {',', '<'}, 52: {'.', '>'}, 53: {'/', '?'},

	keySpace: {' ', ' '},

	55: {'*', '*'}, 74: {'-', '-'}, 78: {'+', '+'}, 98: {'/', '/'},
}

// Translator turns raw key codes into KeyEvents, tracking modifier state for
// one device.
type Translator struct {
	shift    int
	ctrl     int
	alt      int
	meta     int
	capsLock bool
}

// Translate handles one EV_KEY record. It returns false for releases and
// modifier keys, which produce no event.
func (t *Translator) Translate(code uint16, value int32) (KeyEvent, bool) {
	if t.trackModifier(code, value) {
		return KeyEvent{}, false
	}
	if value != valuePress && value != valueRepeat {
		return KeyEvent{}, false
	}

	if t.ctrl > 0 || t.alt > 0 || t.meta > 0 {
		return KeyEvent{Key: KeyChord}, true
	}

	switch code {
	case keyBackspace:
		return KeyEvent{Key: KeyBackspace}, true
	case keyEnter, keyKPEnter:
		return KeyEvent{Key: KeyEnter, Rune: '\n'}, true
	case keyTab:
		return KeyEvent{Key: KeyTab, Rune: '\t'}, true
	case keyEsc:
		return KeyEvent{Key: KeyEscape}, true
	}

	chars, ok := usLayout[code]
	if !ok {
		return KeyEvent{Key: KeyNavigation}, true
	}

	shifted := t.shift > 0
	if isLetter(chars[0]) && t.capsLock {
		shifted = !shifted
	}
	if shifted {
		return KeyEvent{Key: KeyRune, Rune: chars[1]}, true
	}
	return KeyEvent{Key: KeyRune, Rune: chars[0]}, true
}

func (t *Translator) trackModifier(code uint16, value int32) bool {
	var counter *int
	switch code {
	case keyLeftShift, keyRightShift:
		counter = &t.shift
	case keyLeftCtrl, keyRightCtrl:
		counter = &t.ctrl
	case keyLeftAlt, keyRightAlt:
		counter = &t.alt
	case keyLeftMeta, keyRightMeta:
		counter = &t.meta
	case keyCapsLock:
		if value == valuePress {
			t.capsLock = !t.capsLock
		}
		return true
	default:
		return false
	}

	switch value {
	case valuePress:
		*counter++
	case valueRelease:
		if *counter > 0 {
			*counter--
		}
	}
	return true
}

func isLetter(r rune) bool {
	return r >= 'a' && r <= 'z'
}
