package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
	"sync/atomic"
)

const contextTokenPrefix = "efa1:"

// Context - непрозрачный токен продолжения поиска маршрута.
// Используется ровно одним запросом "ещё", который возвращает новый Context.
type Context struct {
	commandURI string
	consumed   atomic.Bool
}

// NewContext создает токен из командного URI сессии
func NewContext(commandURI string) *Context {
	return &Context{commandURI: commandURI}
}

func (c *Context) CanQueryLater() bool {
	return c != nil && c.commandURI != ""
}

func (c *Context) CanQueryEarlier() bool {
	return c != nil && c.commandURI != ""
}

// CommandURI - адрес для команд tripNext/tripPrev
func (c *Context) CommandURI() string {
	return c.commandURI
}

// Consume помечает токен использованным. Возвращает false при повторном использовании.
func (c *Context) Consume() bool {
	return c.consumed.CompareAndSwap(false, true)
}

// Consumed сообщает, был ли токен уже использован
func (c *Context) Consumed() bool {
	return c.consumed.Load()
}

// Token - сериализованная форма для передачи клиенту
func (c *Context) Token() string {
	return contextTokenPrefix + base64.RawURLEncoding.EncodeToString([]byte(c.commandURI))
}

func (c *Context) MarshalText() ([]byte, error) {
	return []byte(c.Token()), nil
}

func (c *Context) UnmarshalText(text []byte) error {
	parsed, err := ParseContext(string(text))
	if err != nil {
		return err
	}
	c.commandURI = parsed.commandURI
	return nil
}

func (c *Context) String() string {
	return fmt.Sprintf("Context<later=%t,earlier=%t>", c.CanQueryLater(), c.CanQueryEarlier())
}

// ParseContext восстанавливает токен, полученный от клиента
func ParseContext(token string) (*Context, error) {
	if !strings.HasPrefix(token, contextTokenPrefix) {
		return nil, fmt.Errorf("malformed context token")
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(token, contextTokenPrefix))
	if err != nil {
		return nil, fmt.Errorf("malformed context token: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty context token")
	}
	return NewContext(string(raw)), nil
}
