// Copyright 2026 gbfuzz project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package jsonload is a lenient JSON loader used as a fuzzing target.
// On top of standard JSON it accepts single-quoted strings, unquoted object keys,
// trailing commas, comments, hex integers, NaN and Infinity.
// Every decision point of the loader reports a coverage location.
package jsonload

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/gbfuzz/gbfuzz/pkg/cover"
)

// MaxDepth limits nesting of arrays and objects.
const MaxDepth = 512

// SyntaxError describes malformed input.
type SyntaxError struct {
	Msg    string
	Offset int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v: offset %v", e.Msg, e.Offset)
}

// Load decodes data reporting visited branches to tr (which may be nil).
// Objects are decoded to map[string]any, arrays to []any, integers to int64
// (float64 if they overflow), other numbers to float64.
func Load(tr *cover.Tracer, data string) (any, error) {
	d := &decoder{tr: tr, data: data}
	d.hit("start")
	v, err := d.value()
	if err != nil {
		return nil, err
	}
	if err := d.space(); err != nil {
		return nil, err
	}
	if d.pos != len(d.data) {
		d.hit("extra_data")
		return nil, d.errorf("extra data")
	}
	d.hit("done")
	return v, nil
}

// Loads decodes data without instrumentation.
func Loads(data string) (any, error) {
	return Load(nil, data)
}

// Oracle returns the instrumented loader: malformed inputs fail with a *SyntaxError.
func Oracle() cover.Func {
	return func(tr *cover.Tracer, input string) error {
		_, err := Load(tr, input)
		return err
	}
}

type Status int

const (
	Valid Status = iota
	Invalid
	// Error means the loader failed with something other than a syntax error.
	Error
)

func (s Status) String() string {
	switch s {
	case Valid:
		return "VALID"
	case Invalid:
		return "INVALID"
	case Error:
		return "ERROR"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Classify loads the input and classifies the result. The returned error explains
// INVALID and ERROR statuses.
func Classify(input string) (status Status, err error) {
	defer func() {
		if r := recover(); r != nil {
			status, err = Error, fmt.Errorf("loader panicked: %v", r)
		}
	}()
	_, err = Loads(input)
	var serr *SyntaxError
	switch {
	case err == nil:
		return Valid, nil
	case errors.As(err, &serr):
		return Invalid, err
	default:
		return Error, err
	}
}

type decoder struct {
	tr    *cover.Tracer
	data  string
	pos   int
	depth int
}

func (d *decoder) hit(branch string) {
	d.tr.Hit(cover.Loc("json_" + branch))
}

func (d *decoder) errorf(msg string, args ...any) error {
	return &SyntaxError{Msg: fmt.Sprintf(msg, args...), Offset: d.pos}
}

func (d *decoder) eof() bool {
	return d.pos >= len(d.data)
}

func (d *decoder) peek() byte {
	if d.eof() {
		return 0
	}
	return d.data[d.pos]
}

// space skips whitespace and comments.
func (d *decoder) space() error {
	for !d.eof() {
		switch c := d.data[d.pos]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			d.pos++
		case strings.HasPrefix(d.data[d.pos:], "//"):
			d.hit("line_comment")
			end := strings.IndexByte(d.data[d.pos:], '\n')
			if end < 0 {
				d.pos = len(d.data)
			} else {
				d.pos += end + 1
			}
		case strings.HasPrefix(d.data[d.pos:], "/*"):
			d.hit("block_comment")
			end := strings.Index(d.data[d.pos+2:], "*/")
			if end < 0 {
				d.hit("block_comment_unterminated")
				return d.errorf("unterminated comment")
			}
			d.pos += end + 4
		default:
			return nil
		}
	}
	return nil
}

func (d *decoder) value() (any, error) {
	if err := d.space(); err != nil {
		return nil, err
	}
	if d.eof() {
		d.hit("value_eof")
		return nil, d.errorf("expecting value")
	}
	switch c := d.peek(); {
	case c == '{':
		return d.nested(d.object)
	case c == '[':
		return d.nested(d.array)
	case c == '"' || c == '\'':
		return d.str()
	case c == '-' || c >= '0' && c <= '9':
		return d.number()
	case c == 't':
		return d.literal("true", true)
	case c == 'f':
		return d.literal("false", false)
	case c == 'n':
		return d.literal("null", nil)
	case c == 'N':
		return d.literal("NaN", math.NaN())
	case c == 'I':
		return d.literal("Infinity", math.Inf(1))
	default:
		d.hit("value_unexpected")
		return nil, d.errorf("expecting value, got %q", c)
	}
}

func (d *decoder) nested(fn func() (any, error)) (any, error) {
	if d.depth >= MaxDepth {
		d.hit("too_deep")
		return nil, d.errorf("nesting deeper than %v", MaxDepth)
	}
	d.depth++
	defer func() { d.depth-- }()
	return fn()
}

func (d *decoder) literal(word string, v any) (any, error) {
	if !strings.HasPrefix(d.data[d.pos:], word) {
		d.hit("literal_bad_" + word)
		return nil, d.errorf("expecting %v", word)
	}
	d.hit("literal_" + word)
	d.pos += len(word)
	return v, nil
}

func (d *decoder) object() (any, error) {
	d.hit("object")
	d.pos++
	obj := make(map[string]any)
	if err := d.space(); err != nil {
		return nil, err
	}
	if d.peek() == '}' {
		d.hit("object_empty")
		d.pos++
		return obj, nil
	}
	for {
		key, err := d.key()
		if err != nil {
			return nil, err
		}
		if err := d.space(); err != nil {
			return nil, err
		}
		if d.peek() != ':' {
			d.hit("object_no_colon")
			return nil, d.errorf("expecting ':' delimiter")
		}
		d.pos++
		val, err := d.value()
		if err != nil {
			return nil, err
		}
		if _, dup := obj[key]; dup {
			d.hit("object_dup_key")
		}
		obj[key] = val
		if err := d.space(); err != nil {
			return nil, err
		}
		switch d.peek() {
		case '}':
			d.hit("object_end")
			d.pos++
			return obj, nil
		case ',':
			d.pos++
			if err := d.space(); err != nil {
				return nil, err
			}
			if d.peek() == '}' {
				d.hit("object_trailing_comma")
				d.pos++
				return obj, nil
			}
			d.hit("object_next")
		default:
			d.hit("object_no_delim")
			return nil, d.errorf("expecting ',' delimiter")
		}
	}
}

func (d *decoder) key() (string, error) {
	if err := d.space(); err != nil {
		return "", err
	}
	c := d.peek()
	if c == '"' || c == '\'' {
		d.hit("key_quoted")
		return d.str()
	}
	if !isIdentStart(c) {
		d.hit("key_bad")
		return "", d.errorf("expecting property name")
	}
	d.hit("key_unquoted")
	start := d.pos
	for !d.eof() && isIdent(d.peek()) {
		d.pos++
	}
	return d.data[start:d.pos], nil
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdent(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

func (d *decoder) array() (any, error) {
	d.hit("array")
	d.pos++
	arr := []any{}
	if err := d.space(); err != nil {
		return nil, err
	}
	if d.peek() == ']' {
		d.hit("array_empty")
		d.pos++
		return arr, nil
	}
	for {
		val, err := d.value()
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
		if err := d.space(); err != nil {
			return nil, err
		}
		switch d.peek() {
		case ']':
			d.hit("array_end")
			d.pos++
			return arr, nil
		case ',':
			d.pos++
			if err := d.space(); err != nil {
				return nil, err
			}
			if d.peek() == ']' {
				d.hit("array_trailing_comma")
				d.pos++
				return arr, nil
			}
			d.hit("array_next")
		default:
			d.hit("array_no_delim")
			return nil, d.errorf("expecting ',' delimiter")
		}
	}
}

func (d *decoder) str() (string, error) {
	quote := d.data[d.pos]
	if quote == '\'' {
		d.hit("string_single")
	} else {
		d.hit("string_double")
	}
	d.pos++
	buf := new(strings.Builder)
	for {
		if d.eof() {
			d.hit("string_unterminated")
			return "", d.errorf("unterminated string")
		}
		c := d.data[d.pos]
		switch {
		case c == quote:
			d.pos++
			return buf.String(), nil
		case c == '\\':
			if err := d.escape(buf); err != nil {
				return "", err
			}
		case c < 0x20:
			d.hit("string_control")
			return "", d.errorf("invalid control character %q", c)
		case c < utf8.RuneSelf:
			buf.WriteByte(c)
			d.pos++
		default:
			r, size := utf8.DecodeRuneInString(d.data[d.pos:])
			if r == utf8.RuneError && size == 1 {
				d.hit("string_bad_utf8")
			} else {
				d.hit("string_utf8")
			}
			buf.WriteRune(r)
			d.pos += size
		}
	}
}

var simpleEscapes = map[byte]byte{
	'"':  '"',
	'\'': '\'',
	'\\': '\\',
	'/':  '/',
	'b':  '\b',
	'f':  '\f',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
}

func (d *decoder) escape(buf *strings.Builder) error {
	d.pos++
	if d.eof() {
		d.hit("escape_eof")
		return d.errorf("unterminated string")
	}
	c := d.data[d.pos]
	if v, ok := simpleEscapes[c]; ok {
		d.hit("escape_simple")
		buf.WriteByte(v)
		d.pos++
		return nil
	}
	if c != 'u' {
		d.hit("escape_bad")
		return d.errorf("invalid \\escape %q", c)
	}
	d.pos++
	r1, err := d.hex4()
	if err != nil {
		return err
	}
	if !utf16.IsSurrogate(r1) {
		d.hit("escape_unicode")
		buf.WriteRune(r1)
		return nil
	}
	if strings.HasPrefix(d.data[d.pos:], "\\u") {
		save := d.pos
		d.pos += 2
		r2, err := d.hex4()
		if err != nil {
			return err
		}
		if r := utf16.DecodeRune(r1, r2); r != utf8.RuneError {
			d.hit("escape_surrogate_pair")
			buf.WriteRune(r)
			return nil
		}
		d.pos = save
	}
	d.hit("escape_lone_surrogate")
	buf.WriteRune(utf8.RuneError)
	return nil
}

func (d *decoder) hex4() (rune, error) {
	if len(d.data)-d.pos < 4 {
		d.hit("escape_short_unicode")
		return 0, d.errorf("invalid \\uXXXX escape")
	}
	v, err := strconv.ParseUint(d.data[d.pos:d.pos+4], 16, 16)
	if err != nil {
		d.hit("escape_bad_unicode")
		return 0, d.errorf("invalid \\uXXXX escape")
	}
	d.pos += 4
	return rune(v), nil
}

func (d *decoder) number() (any, error) {
	start := d.pos
	if d.peek() == '-' {
		d.hit("number_negative")
		d.pos++
		if strings.HasPrefix(d.data[d.pos:], "Infinity") {
			d.hit("number_neg_infinity")
			d.pos += len("Infinity")
			return math.Inf(-1), nil
		}
	}
	if strings.HasPrefix(d.data[d.pos:], "0x") || strings.HasPrefix(d.data[d.pos:], "0X") {
		return d.hexNumber(start)
	}
	switch c := d.peek(); {
	case c == '0':
		d.hit("number_zero")
		d.pos++
	case c >= '1' && c <= '9':
		d.hit("number_int")
		d.digits()
	default:
		d.hit("number_no_digits")
		return nil, d.errorf("expecting digit")
	}
	float := false
	if d.peek() == '.' {
		d.hit("number_frac")
		float = true
		d.pos++
		if d.digits() == 0 {
			d.hit("number_frac_empty")
			return nil, d.errorf("expecting fraction digits")
		}
	}
	if c := d.peek(); c == 'e' || c == 'E' {
		d.hit("number_exp")
		float = true
		d.pos++
		if c := d.peek(); c == '+' || c == '-' {
			d.hit("number_exp_sign")
			d.pos++
		}
		if d.digits() == 0 {
			d.hit("number_exp_empty")
			return nil, d.errorf("expecting exponent digits")
		}
	}
	text := d.data[start:d.pos]
	if !float {
		if v, err := strconv.ParseInt(text, 10, 64); err == nil {
			return v, nil
		}
		d.hit("number_int_overflow")
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return nil, d.errorf("bad number %q", text)
	}
	return v, nil
}

func (d *decoder) hexNumber(start int) (any, error) {
	d.hit("number_hex")
	d.pos += 2
	digits := d.pos
	for !d.eof() && isHex(d.peek()) {
		d.pos++
	}
	if d.pos == digits {
		d.hit("number_hex_empty")
		return nil, d.errorf("expecting hex digits")
	}
	v, err := strconv.ParseInt(d.data[digits:d.pos], 16, 64)
	if err != nil {
		d.hit("number_hex_overflow")
		return nil, d.errorf("hex number %q overflows", d.data[start:d.pos])
	}
	if d.data[start] == '-' {
		v = -v
	}
	return v, nil
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func (d *decoder) digits() int {
	start := d.pos
	for !d.eof() && d.peek() >= '0' && d.peek() <= '9' {
		d.pos++
	}
	return d.pos - start
}
