package testutils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
)

type RequestOptions struct {
	headers map[string]string
	payload any
}

type RequestArgs struct {
	Router http.Handler
	Method string
	URL    string
	Body   io.Reader
}

// MakeRequest прогоняет запрос через роутер и возвращает записанный ответ.
func MakeRequest(args RequestArgs, opts ...func(*RequestOptions)) (*http.Response, error) {
	options := RequestOptions{
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(&options)
	}

	body := args.Body
	if options.payload != nil {
		raw, err := json.Marshal(options.payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request payload: %s", err.Error())
		}
		body = bytes.NewReader(raw)
		options.headers["Content-Type"] = "application/json"
	}

	request := httptest.NewRequest(args.Method, args.URL, body)
	for k, v := range options.headers {
		request.Header.Set(k, v)
	}

	recorder := httptest.NewRecorder()
	args.Router.ServeHTTP(recorder, request)

	return recorder.Result(), nil
}

func WithHeader(name, value string) func(*RequestOptions) {
	return func(fn *RequestOptions) {
		fn.headers[name] = value
	}
}

// WithBearer добавляет заголовок Authorization с JWT токеном.
func WithBearer(token string) func(*RequestOptions) {
	return WithHeader("Authorization", "Bearer "+token)
}

// WithJSON сериализует payload в тело запроса.
func WithJSON(payload any) func(*RequestOptions) {
	return func(fn *RequestOptions) {
		fn.payload = payload
	}
}
