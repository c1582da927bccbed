package customHttpClient

import (
	"net/http"
	"sync"

	"github.com/akolanti/GoDocQA/internal/config"
)

var (
	customTransport = &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
	}
	client *http.Client
	once   sync.Once
)

// GetClient returns the pooled client shared by the embedding and completion
// providers. Per-call deadlines come from the request context.
func GetClient() *http.Client {
	once.Do(func() {
		client = &http.Client{Transport: customTransport}
	})
	return client
}
