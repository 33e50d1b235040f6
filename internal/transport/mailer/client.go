// Package mailer отправляет письма через HTTP API почтового релея.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	pkgerrors "github.com/pkg/errors"
)

const RouteSendMessage = "/api/v1/messages"

// Константы минимального и максимально значения в заголовке Retry-After.
const (
	minRetryAfter     = 1
	maxRetryAfter     = 120
	defaultRetryAfter = 60 * time.Second
)

type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text,omitempty"`
	HTML    string `json:"html,omitempty"`
}

// HTTPClient отправляет письма через релей.
type HTTPClient struct {
	baseURL    string
	from       string
	httpClient *http.Client
}

func New(baseURL, from string) HTTPClient {
	return HTTPClient{
		baseURL:    baseURL,
		from:       from,
		httpClient: http.DefaultClient,
	}
}

// Send отправляет текстовое письмо.
func (c HTTPClient) Send(ctx context.Context, to, subject, text string) error {
	return c.post(ctx, Message{From: c.from, To: to, Subject: subject, Text: text})
}

// SendHTML отправляет письмо с html телом.
func (c HTTPClient) SendHTML(ctx context.Context, to, subject, html string) error {
	return c.post(ctx, Message{From: c.from, To: to, Subject: subject, HTML: html})
}

// post отправляет сообщение на релей. При ответе со статусом отличным от 200/202 возвращает StatusCodeError, или
// TooManyRequestError в случае http.StatusTooManyRequests.
//
//nolint:nonamedreturns
func (c HTTPClient) post(ctx context.Context, msg Message) (err error) {
	payload, marshalErr := json.Marshal(msg)
	if marshalErr != nil {
		return pkgerrors.Wrap(marshalErr, "marshal message")
	}

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+RouteSendMessage, bytes.NewReader(payload))
	if reqErr != nil {
		return pkgerrors.Wrap(reqErr, "create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return pkgerrors.Wrapf(doErr, "send message to %s", msg.To)
	}
	defer func() {
		// тело дочитываем, чтобы соединение вернулось в пул
		_, _ = io.Copy(io.Discard, resp.Body)
		if closeErr := resp.Body.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted:
		return nil
	case http.StatusTooManyRequests:
		return NewTooManyRequestError(parseRetryAfter(resp.Header.Get("Retry-After")))
	default:
		return pkgerrors.WithMessagef(NewStatusCodeError(resp.StatusCode), "send message to %s", msg.To)
	}
}

// parseRetryAfter в случае ошибки или значения вне [minRetryAfter, maxRetryAfter] возвращает 60 секунд.
func parseRetryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < minRetryAfter || seconds > maxRetryAfter {
		return defaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}
