package extract

import (
	"strconv"

	"github.com/sanskardagade/PDF-FILLER-NEW/internal/models"
)

// showEvent records one text-showing instruction together with the fill
// color and text position in effect when it was executed.
type showEvent struct {
	x, y  float64
	color models.RGB
}

// colorTimeline interprets a decoded page content stream and returns one
// event per text-showing operator, in stream order. Fill color state is
// global to the instruction stream: whichever color was last set before a
// show operator is the one attributed to it. Color-space selection (cs)
// resets the fill color to the default black. Stroke color operators are
// ignored. The interpreter is deliberately best-effort; unknown operators
// just clear the operand stack.
func colorTimeline(stream []byte) []showEvent {
	var (
		events   []showEvent
		fill     = models.RGB{}
		operands []float64
		tx, ty   float64
		lineX    float64
		leading  float64
	)

	clamp01 := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}

	show := func() {
		events = append(events, showEvent{x: tx, y: ty, color: fill})
	}

	sc := newTokenizer(stream)
	for {
		tok, ok := sc.next()
		if !ok {
			break
		}
		switch tok.kind {
		case tokNumber:
			operands = append(operands, tok.num)
		case tokOperator:
			switch tok.text {
			case "rg":
				if len(operands) >= 3 {
					n := len(operands)
					fill = models.RGB{
						R: clamp01(operands[n-3]),
						G: clamp01(operands[n-2]),
						B: clamp01(operands[n-1]),
					}
				}
			case "g":
				if len(operands) >= 1 {
					v := clamp01(operands[len(operands)-1])
					fill = models.RGB{R: v, G: v, B: v}
				}
			case "k":
				if len(operands) >= 4 {
					n := len(operands)
					c, m, y, kk := operands[n-4], operands[n-3], operands[n-2], operands[n-1]
					fill = models.RGB{
						R: clamp01((1 - c) * (1 - kk)),
						G: clamp01((1 - m) * (1 - kk)),
						B: clamp01((1 - y) * (1 - kk)),
					}
				}
			case "sc", "scn":
				// Device color set through the generic operators; only the
				// gray and RGB arities are attributable.
				switch len(operands) {
				case 1:
					v := clamp01(operands[0])
					fill = models.RGB{R: v, G: v, B: v}
				case 3:
					fill = models.RGB{R: clamp01(operands[0]), G: clamp01(operands[1]), B: clamp01(operands[2])}
				}
			case "cs":
				fill = models.RGB{}
			case "BT":
				tx, ty, lineX = 0, 0, 0
			case "Tm":
				if len(operands) >= 6 {
					n := len(operands)
					tx = operands[n-2]
					ty = operands[n-1]
					lineX = tx
				}
			case "Td":
				if len(operands) >= 2 {
					n := len(operands)
					lineX += operands[n-2]
					ty += operands[n-1]
					tx = lineX
				}
			case "TD":
				if len(operands) >= 2 {
					n := len(operands)
					lineX += operands[n-2]
					leading = -operands[n-1]
					ty += operands[n-1]
					tx = lineX
				}
			case "TL":
				if len(operands) >= 1 {
					leading = operands[len(operands)-1]
				}
			case "T*":
				ty -= leading
				tx = lineX
			case "Tj", "TJ", "'":
				if tok.text == "'" {
					ty -= leading
					tx = lineX
				}
				show()
			case "\"":
				ty -= leading
				tx = lineX
				show()
			}
			operands = operands[:0]
		default:
			// names, strings and array delimiters are not numeric operands
		}
	}
	return events
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokName
	tokString
	tokDelim
	tokOperator
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

// tokenizer splits a content stream into numbers, names, strings and
// operator keywords. Inline image data between ID and EI is skipped.
type tokenizer struct {
	data []byte
	pos  int
}

func newTokenizer(data []byte) *tokenizer {
	return &tokenizer{data: data}
}

func isWhitespace(c byte) bool {
	switch c {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (t *tokenizer) next() (token, bool) {
	for t.pos < len(t.data) && isWhitespace(t.data[t.pos]) {
		t.pos++
	}
	if t.pos >= len(t.data) {
		return token{}, false
	}

	c := t.data[t.pos]
	switch {
	case c == '%':
		for t.pos < len(t.data) && t.data[t.pos] != '\n' && t.data[t.pos] != '\r' {
			t.pos++
		}
		return t.next()
	case c == '(':
		return t.scanLiteralString(), true
	case c == '<':
		if t.pos+1 < len(t.data) && t.data[t.pos+1] == '<' {
			t.pos += 2
			return token{kind: tokDelim, text: "<<"}, true
		}
		return t.scanHexString(), true
	case c == '>':
		if t.pos+1 < len(t.data) && t.data[t.pos+1] == '>' {
			t.pos += 2
			return token{kind: tokDelim, text: ">>"}, true
		}
		t.pos++
		return token{kind: tokDelim, text: ">"}, true
	case c == '[' || c == ']' || c == '{' || c == '}':
		t.pos++
		return token{kind: tokDelim, text: string(c)}, true
	case c == '/':
		return t.scanName(), true
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		return t.scanNumber(), true
	default:
		return t.scanOperator(), true
	}
}

func (t *tokenizer) scanLiteralString() token {
	t.pos++ // consume '('
	depth := 1
	start := t.pos
	for t.pos < len(t.data) && depth > 0 {
		switch t.data[t.pos] {
		case '\\':
			t.pos++ // skip escaped char
		case '(':
			depth++
		case ')':
			depth--
		}
		t.pos++
	}
	end := t.pos
	if end > start && depth == 0 {
		end-- // drop closing ')'
	}
	return token{kind: tokString, text: string(t.data[start:end])}
}

func (t *tokenizer) scanHexString() token {
	t.pos++ // consume '<'
	start := t.pos
	for t.pos < len(t.data) && t.data[t.pos] != '>' {
		t.pos++
	}
	text := string(t.data[start:t.pos])
	if t.pos < len(t.data) {
		t.pos++ // consume '>'
	}
	return token{kind: tokString, text: text}
}

func (t *tokenizer) scanName() token {
	t.pos++ // consume '/'
	start := t.pos
	for t.pos < len(t.data) && !isWhitespace(t.data[t.pos]) && !isDelim(t.data[t.pos]) {
		t.pos++
	}
	return token{kind: tokName, text: string(t.data[start:t.pos])}
}

func (t *tokenizer) scanNumber() token {
	start := t.pos
	t.pos++
	for t.pos < len(t.data) && !isWhitespace(t.data[t.pos]) && !isDelim(t.data[t.pos]) {
		t.pos++
	}
	text := string(t.data[start:t.pos])
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{kind: tokOperator, text: text}
	}
	return token{kind: tokNumber, text: text, num: n}
}

func (t *tokenizer) scanOperator() token {
	start := t.pos
	for t.pos < len(t.data) && !isWhitespace(t.data[t.pos]) && !isDelim(t.data[t.pos]) {
		t.pos++
	}
	op := string(t.data[start:t.pos])
	if op == "ID" {
		t.skipInlineImage()
	}
	return token{kind: tokOperator, text: op}
}

// skipInlineImage advances past binary inline image data up to the EI
// marker so it is not misread as tokens.
func (t *tokenizer) skipInlineImage() {
	for t.pos+1 < len(t.data) {
		if t.data[t.pos] == 'E' && t.data[t.pos+1] == 'I' &&
			(t.pos+2 >= len(t.data) || isWhitespace(t.data[t.pos+2])) &&
			(t.pos == 0 || isWhitespace(t.data[t.pos-1])) {
			t.pos += 2
			return
		}
		t.pos++
	}
	t.pos = len(t.data)
}
