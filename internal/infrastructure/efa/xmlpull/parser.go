// Package xmlpull - потоковый однопроходный обход XML поверх encoding/xml.
//
// Parser держит один текущий тег (открывающий или закрывающий) и текст перед ним.
// Обход идет только вперед: Enter входит в элемент, Exit пропускает остаток
// элемента и выходит из него, Next пропускает текущий элемент целиком.
package xmlpull

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	apperrors "github.com/efa-transit/internal/pkg/errors"
	"golang.org/x/net/html/charset"
)

// Parser - потоковый XML-обходчик
type Parser struct {
	dec     *xml.Decoder
	uri     string
	payload []byte

	tok   xml.Token // xml.StartElement, xml.EndElement или nil в конце документа
	text  strings.Builder
	stack []string
}

// New создает парсер для ответа сервера. Кодировка берется из XML-декларации.
func New(payload []byte, uri string) (*Parser, error) {
	dec := xml.NewDecoder(bytes.NewReader(payload))
	dec.CharsetReader = charset.NewReaderLabel
	dec.Strict = true

	p := &Parser{dec: dec, uri: uri, payload: payload}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

// URI - адрес запроса, для сообщений об ошибках
func (p *Parser) URI() string {
	return p.uri
}

// advance читает токены до следующего тега, накапливая текст
func (p *Parser) advance() error {
	p.text.Reset()
	for {
		t, err := p.dec.Token()
		if err == io.EOF {
			p.tok = nil
			return nil
		}
		if err != nil {
			return p.errorf("", "malformed xml: %v", err)
		}
		switch tt := t.(type) {
		case xml.StartElement:
			p.tok = tt.Copy()
			return nil
		case xml.EndElement:
			p.tok = tt
			return nil
		case xml.CharData:
			p.text.Write(tt)
		}
	}
}

func (p *Parser) errorf(tag, format string, args ...interface{}) error {
	return (&apperrors.ParserError{
		URI:     p.uri,
		Tag:     tag,
		Message: fmt.Sprintf(format, args...),
	}).WithPayload(p.payload)
}

func (p *Parser) describe() string {
	switch t := p.tok.(type) {
	case xml.StartElement:
		return "<" + t.Name.Local + ">"
	case xml.EndElement:
		return "</" + t.Name.Local + ">"
	}
	return "end of document"
}

// Name - имя текущего открывающего тега или пустая строка
func (p *Parser) Name() string {
	if t, ok := p.tok.(xml.StartElement); ok {
		return t.Name.Local
	}
	return ""
}

// AtEnd - текущий токен является закрывающим тегом или концом документа
func (p *Parser) AtEnd() bool {
	_, ok := p.tok.(xml.StartElement)
	return !ok
}

// Test проверяет, что текущий токен - открывающий тег name
func (p *Parser) Test(name string) bool {
	return p.Name() == name
}

// Require требует открывающий тег name
func (p *Parser) Require(name string) error {
	if !p.Test(name) {
		return p.errorf(name, "expected <%s>, got %s", name, p.describe())
	}
	return nil
}

// Enter входит в элемент name
func (p *Parser) Enter(name string) error {
	if err := p.Require(name); err != nil {
		return err
	}
	p.stack = append(p.stack, name)
	return p.advance()
}

// EnterAny входит в текущий элемент, каким бы он ни был
func (p *Parser) EnterAny() error {
	name := p.Name()
	if name == "" {
		return p.errorf("", "expected start tag, got %s", p.describe())
	}
	return p.Enter(name)
}

// Exit пропускает оставшиеся дочерние элементы и выходит из элемента name
func (p *Parser) Exit(name string) error {
	if len(p.stack) == 0 || p.stack[len(p.stack)-1] != name {
		return p.errorf(name, "exit from <%s> while not inside it", name)
	}
	for {
		switch t := p.tok.(type) {
		case xml.StartElement:
			if err := p.Next(); err != nil {
				return err
			}
		case xml.EndElement:
			if t.Name.Local != name {
				return p.errorf(name, "expected </%s>, got </%s>", name, t.Name.Local)
			}
			p.stack = p.stack[:len(p.stack)-1]
			return p.advance()
		default:
			return p.errorf(name, "unexpected end of document inside <%s>", name)
		}
	}
}

// Next пропускает текущий элемент вместе с поддеревом
func (p *Parser) Next() error {
	if _, ok := p.tok.(xml.StartElement); !ok {
		return p.errorf("", "cannot skip %s", p.describe())
	}
	if err := p.dec.Skip(); err != nil {
		return p.errorf(p.Name(), "malformed xml: %v", err)
	}
	return p.advance()
}

// SkipTo пропускает соседние элементы до тега name.
// Возвращает false, если на этом уровне тега нет.
func (p *Parser) SkipTo(name string) (bool, error) {
	for !p.AtEnd() {
		if p.Test(name) {
			return true, nil
		}
		if err := p.Next(); err != nil {
			return false, err
		}
	}
	return false, nil
}

// OptSkip пропускает элемент name, если он текущий
func (p *Parser) OptSkip(name string) error {
	if p.Test(name) {
		return p.Next()
	}
	return nil
}

// OptSkipAll пропускает подряд идущие элементы name
func (p *Parser) OptSkipAll(name string) error {
	for p.Test(name) {
		if err := p.Next(); err != nil {
			return err
		}
	}
	return nil
}

// Text - текст, предшествующий текущему токену (после Enter - содержимое элемента)
func (p *Parser) Text() string {
	return p.text.String()
}

// ValueTag читает текстовое содержимое элемента name и выходит из него
func (p *Parser) ValueTag(name string) (string, error) {
	if err := p.Enter(name); err != nil {
		return "", err
	}
	text := p.Text()
	if err := p.Exit(name); err != nil {
		return "", err
	}
	return text, nil
}

// OptValueTag читает текст элемента name, если он текущий
func (p *Parser) OptValueTag(name string) (string, error) {
	if !p.Test(name) {
		return "", nil
	}
	return p.ValueTag(name)
}

func (p *Parser) attr(name string) (string, bool) {
	t, ok := p.tok.(xml.StartElement)
	if !ok {
		return "", false
	}
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Attr - обязательный атрибут текущего тега
func (p *Parser) Attr(name string) (string, error) {
	v, ok := p.attr(name)
	if !ok {
		return "", p.errorf(p.Name(), "missing attribute %q", name)
	}
	return v, nil
}

// OptAttr - атрибут или пустая строка; пробелы по краям удаляются
func (p *Parser) OptAttr(name string) string {
	v, _ := p.attr(name)
	return strings.TrimSpace(v)
}

// IntAttr - обязательный целочисленный атрибут
func (p *Parser) IntAttr(name string) (int, error) {
	v, err := p.Attr(name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, p.errorf(p.Name(), "attribute %q is not an integer: %q", name, v)
	}
	return n, nil
}

// OptIntAttr - целочисленный атрибут или def, если его нет
func (p *Parser) OptIntAttr(name string, def int) (int, error) {
	v := p.OptAttr(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, p.errorf(p.Name(), "attribute %q is not an integer: %q", name, v)
	}
	return n, nil
}

// OptFloatAttr - вещественный атрибут или NaN, если его нет
func (p *Parser) OptFloatAttr(name string) (float64, error) {
	v := p.OptAttr(name)
	if v == "" {
		return math.NaN(), nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, p.errorf(p.Name(), "attribute %q is not a number: %q", name, v)
	}
	return f, nil
}

// Errorf создает ошибку разбора с контекстом текущего тега
func (p *Parser) Errorf(format string, args ...interface{}) error {
	return p.errorf(p.Name(), format, args...)
}
