package httphelper

import (
	"crypto/tls"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func BindJSON[T any](ctx *gin.Context) (T, bool) { //nolint:ireturn
	var value T
	if err := ctx.ShouldBindJSON(&value); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			SetError(ctx, NewAPIError(http.StatusBadRequest, errors.Join(validationErrs, ErrBadRequest)))
		} else {
			SetError(ctx, NewAPIError(http.StatusBadRequest, errors.Join(err, ErrBadRequest)))
		}

		return value, false
	}

	return value, true
}

// NewClient allocates a preconfigured *http.Client.
func NewClient() *http.Client {
	c := &http.Client{
		Timeout: time.Second * 10,
	}

	return c
}

// NewTLSClient allocates a client for talking to appliances which are commonly deployed
// with self-signed certificates.
func NewTLSClient(timeout time.Duration, insecureSkipVerify bool) *http.Client {
	client := NewClient()
	if timeout > 0 {
		client.Timeout = timeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: insecureSkipVerify, //nolint:gosec
		MinVersion:         tls.VersionTLS12,
	}
	client.Transport = transport

	return client
}

func NewServer(listenAddr string, handler http.Handler) *http.Server {
	httpServer := &http.Server{
		Addr:           listenAddr,
		Handler:        handler,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return httpServer
}
