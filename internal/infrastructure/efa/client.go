// Package efa - клиент серверов EFA: поиск локаций, ближайшие станции,
// табло отправлений и поиск маршрутов с постраничной догрузкой.
//
// Все провайдеры обслуживаются одним движком, различия задаются ProviderConfig.
package efa

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/efa-transit/internal/domain"
	"github.com/efa-transit/internal/infrastructure/efa/xmlpull"
	apperrors "github.com/efa-transit/internal/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	_ "time/tzdata"
)

const (
	serverProduct = "efa"

	// maxResponseSize - ограничение размера ответа сервера
	maxResponseSize = 16 << 20

	defaultTimeout = 30 * time.Second
)

// Client - движок EFA для одного провайдера. Не хранит состояния между вызовами
// и безопасен для конкурентного использования.
type Client struct {
	cfg        ProviderConfig
	httpClient *http.Client
	logger     *zap.Logger
	loc        *time.Location
	enc        encoding.Encoding
}

// NewClient создает клиент для провайдера. httpClient == nil - клиент с таймаутом по умолчанию.
func NewClient(cfg ProviderConfig, httpClient *http.Client, logger *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	enc, err := cfg.encoding()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.location()
	if err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger.With(zap.String("provider", string(cfg.ID))),
		loc:        loc,
		enc:        enc,
	}, nil
}

// Config - конфигурация провайдера
func (c *Client) Config() ProviderConfig {
	return c.cfg
}

// fetch выполняет запрос и возвращает тело ответа и фактический URI.
// Тело закрывается на любом пути выхода.
func (c *Client) fetch(ctx context.Context, req *request) ([]byte, string, error) {
	post := c.cfg.HTTPPost && !req.forceGet
	uri := req.uri(post)

	var body io.Reader
	method := http.MethodGet
	if post {
		method = http.MethodPost
		body = strings.NewReader(req.params.encode())
	}

	c.logger.Debug("Calling EFA endpoint",
		zap.String("method", method),
		zap.String("uri", uri))

	httpReq, err := http.NewRequestWithContext(ctx, method, uri, body)
	if err != nil {
		return nil, uri, fmt.Errorf("failed to create request: %w", err)
	}
	if post {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if req.referer != "" {
		httpReq.Header.Set("Referer", req.referer)
	}
	httpReq.Header.Set("Accept-Language", c.cfg.language())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("Failed to execute request", zap.String("uri", uri), zap.Error(err))
		return nil, uri, &apperrors.IOError{URI: uri, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("EFA server returned error",
			zap.String("uri", uri),
			zap.Int("status_code", resp.StatusCode))
		return nil, uri, &apperrors.IOError{URI: uri, StatusCode: resp.StatusCode}
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, uri, &apperrors.IOError{URI: uri, Err: err}
	}

	c.logger.Debug("EFA response received",
		zap.String("uri", uri),
		zap.Int("bytes", len(payload)))

	return payload, uri, nil
}

// looksLikeHTML - сервер вернул HTML-страницу (сбой, редирект на логин, истекшая сессия)
func looksLikeHTML(payload []byte) bool {
	head := payload
	if len(head) > 1024 {
		head = head[:1024]
	}
	head = bytes.ToLower(bytes.TrimSpace(head))
	if bytes.HasPrefix(head, []byte("<?xml")) {
		if end := bytes.Index(head, []byte("?>")); end >= 0 {
			head = bytes.TrimSpace(head[end+2:])
		}
	}
	return bytes.HasPrefix(head, []byte("<html")) ||
		bytes.HasPrefix(head, []byte("<!doctype html"))
}

// protocolError логирует HTML-ответ и возвращает повторяемую ошибку
func (c *Client) protocolError(uri string, payload []byte) error {
	c.logger.Warn("EFA server returned html instead of data", zap.String("uri", uri))
	return apperrors.NewProtocolError(uri, "html", payload)
}

// newParser создает XML-парсер и распознает HTML вместо данных
func (c *Client) newParser(uri string, payload []byte) (*xmlpull.Parser, error) {
	if looksLikeHTML(payload) {
		return nil, c.protocolError(uri, payload)
	}
	p, err := xmlpull.New(payload, uri)
	if err != nil {
		return nil, err
	}
	if p.Test("html") {
		return nil, c.protocolError(uri, payload)
	}
	return p, nil
}

// enterItdRequest читает заголовок itdRequest и входит в него
func (c *Client) enterItdRequest(p *xmlpull.Parser) (*domain.ResultHeader, error) {
	if err := p.Require("itdRequest"); err != nil {
		return nil, err
	}

	version, err := p.Attr("version")
	if err != nil {
		return nil, err
	}
	now, err := p.Attr("now")
	if err != nil {
		return nil, err
	}
	sessionID, err := p.Attr("sessionID")
	if err != nil {
		return nil, err
	}

	serverTime, err := c.parseServerTime(now)
	if err != nil {
		return nil, p.Errorf("cannot parse server time %q", now)
	}

	header := &domain.ResultHeader{
		ServerProduct: serverProduct,
		ServerVersion: version,
		ServerTime:    serverTime,
		SessionID:     sessionID,
	}

	if err := p.Enter("itdRequest"); err != nil {
		return nil, err
	}
	for _, name := range []string{"clientHeaderLines", "itdVersionInfo", "itdInfoLinkList", "serverMetaInfo"} {
		if err := p.OptSkip(name); err != nil {
			return nil, err
		}
	}

	return header, nil
}

// parseServerTime разбирает атрибут now: "2012-03-14T12:34:56" или "2012-03-14 12:34"
func (c *Client) parseServerTime(now string) (time.Time, error) {
	if len(now) < 16 {
		return time.Time{}, fmt.Errorf("server time too short")
	}
	date, err := time.ParseInLocation("2006-01-02", now[:10], c.loc)
	if err != nil {
		return time.Time{}, err
	}

	clock := now[11:]
	layout := "15:04:05"
	if len(clock) == 5 {
		layout = "15:04"
	}
	t, err := time.Parse(layout, clock)
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), t.Second(), 0, c.loc), nil
}
