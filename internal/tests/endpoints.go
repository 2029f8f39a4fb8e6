package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/stretchr/testify/require"
)

func GetGOK[T any](t *testing.T, router http.Handler, path string) T {
	t.Helper()

	var receiver T
	endpointWithReceiver(t, router, http.MethodGet, path, nil, http.StatusOK, &receiver)

	return receiver
}

func PostGOK[T any](t *testing.T, router http.Handler, path string, body any) T {
	t.Helper()

	var receiver T
	endpointWithReceiver(t, router, http.MethodPost, path, body, http.StatusOK, &receiver)

	return receiver
}

func GetOK(t *testing.T, router http.Handler, path string, receiver ...any) {
	t.Helper()

	if len(receiver) > 0 {
		endpointWithReceiver(t, router, http.MethodGet, path, nil, http.StatusOK, receiver[0])
	} else {
		endpoint(t, router, http.MethodGet, path, nil, http.StatusOK)
	}
}

// GetText performs a GET expecting the status code and returns the raw response.
func GetText(t *testing.T, router http.Handler, path string, expectedStatus int) *httptest.ResponseRecorder {
	t.Helper()

	return endpoint(t, router, http.MethodGet, path, nil, expectedStatus)
}

func GetQueryOK(t *testing.T, router http.Handler, path string, params any, receiver any) {
	t.Helper()

	values, err := query.Values(params)
	if err != nil {
		t.Fatalf("failed to encode values: %v", err)
	}

	endpointWithReceiver(t, router, http.MethodGet, path+"?"+values.Encode(), nil, http.StatusOK, receiver)
}

func GetInternalError(t *testing.T, router http.Handler, path string, receiver ...any) {
	t.Helper()

	if len(receiver) > 0 {
		endpointWithReceiver(t, router, http.MethodGet, path, nil, http.StatusInternalServerError, receiver[0])
	} else {
		endpoint(t, router, http.MethodGet, path, nil, http.StatusInternalServerError)
	}
}

func PostOK(t *testing.T, router http.Handler, path string, body any, receiver ...any) {
	t.Helper()

	if len(receiver) > 0 {
		endpointWithReceiver(t, router, http.MethodPost, path, body, http.StatusOK, receiver[0])
	} else {
		endpoint(t, router, http.MethodPost, path, body, http.StatusOK)
	}
}

func PostBadRequest(t *testing.T, router http.Handler, path string, body any, receiver ...any) {
	t.Helper()

	if len(receiver) > 0 {
		endpointWithReceiver(t, router, http.MethodPost, path, body, http.StatusBadRequest, receiver[0])
	} else {
		endpoint(t, router, http.MethodPost, path, body, http.StatusBadRequest)
	}
}

// PostText performs a POST expecting the status code and returns the response body as text.
func PostText(t *testing.T, router http.Handler, path string, body any, expectedStatus int) string {
	t.Helper()

	return endpoint(t, router, http.MethodPost, path, body, expectedStatus).Body.String()
}

// PostRaw sends the body without JSON encoding it.
func PostRaw(t *testing.T, router http.Handler, path string, body string, expectedStatus int) *httptest.ResponseRecorder {
	t.Helper()

	return do(t, router, http.MethodPost, path, bytes.NewReader([]byte(body)), expectedStatus)
}

func endpointWithReceiver(t *testing.T, router http.Handler, method string,
	path string, body any, expectedStatus int, receiver any,
) {
	t.Helper()

	resp := endpoint(t, router, method, path, body, expectedStatus)
	if receiver != nil {
		if err := json.NewDecoder(resp.Body).Decode(receiver); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
	}
}

func endpoint(t *testing.T, router http.Handler, method string, path string, body any, expectedStatus int) *httptest.ResponseRecorder {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyJSON, errJSON := json.Marshal(body)
		if errJSON != nil {
			t.Fatalf("Failed to encode request: %v", errJSON)
		}

		bodyReader = bytes.NewReader(bodyJSON)
	}

	return do(t, router, method, path, bodyReader, expectedStatus)
}

func do(t *testing.T, router http.Handler, method string, path string, body io.Reader, expectedStatus int) *httptest.ResponseRecorder {
	t.Helper()

	reqCtx, cancel := context.WithTimeout(t.Context(), time.Second*10)
	defer cancel()

	recorder := httptest.NewRecorder()

	request, errRequest := http.NewRequestWithContext(reqCtx, method, path, body)
	if errRequest != nil {
		t.Fatalf("Failed to make request: %v", errRequest)
	}

	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	router.ServeHTTP(recorder, request)

	require.Equal(t, expectedStatus, recorder.Code, "Received invalid response code. method: %s path: %s body: %s",
		method, path, recorder.Body.String())

	return recorder
}
